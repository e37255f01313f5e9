package storage

import (
	"net/http"
	"time"

	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-site/pkg/logger"
)

const (
	DefaultTTL           = 30 * time.Second
	DefaultTimeout       = 5 * time.Second
	DefaultPersistMaxAge = 24 * time.Hour
	// DefaultPayloadLimit mirrors the request size limit of common
	// serverless hosts.
	DefaultPayloadLimit = 4.5 * (1 << 20)
)

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTTL(ttl time.Duration) Option {
	return func(c *Client) { c.ttl = ttl }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithPersistMaxAge(d time.Duration) Option {
	return func(c *Client) { c.persistMaxAge = d }
}

func WithPayloadLimit(n int) Option {
	return func(c *Client) { c.payloadLimit = n }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func WithLogger(log logger.Logger) Option {
	return func(c *Client) { c.logger = log }
}

func WithStore(s LocalStore) Option {
	return func(c *Client) { c.store = s }
}

func WithBroadcaster(b Broadcaster) Option {
	return func(c *Client) { c.bus = b }
}

// WithToken sends a bearer token on write requests.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithDefaults replaces the built-in fallback content.
func WithDefaults(doc portfolio.Document) Option {
	return func(c *Client) {
		c.defaults = func() portfolio.Snapshot {
			return portfolio.Snapshot{Document: doc, IsDefault: true}
		}
	}
}

// WithOnInvalidate registers a callback run whenever another client
// announces a newer version.
func WithOnInvalidate(fn func(version int64)) Option {
	return func(c *Client) { c.onInvalidate = fn }
}
