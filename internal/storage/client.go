// Package storage is the client-side data cache for the portfolio API. Reads
// never fail: they fall back from the network to a persisted copy, then to
// memory, then to built-in defaults. Writes report failures as results.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-site/pkg/logger"
)

const (
	CacheKey   = "portfolio_data_cache"
	VersionKey = "portfolio_data_version"

	HeaderPartialUpdate = "X-Partial-Update"

	persistSchema    = 1
	flightKey        = "portfolio"
	portfolioPath    = "/api/portfolio"
	maxResponseBytes = 64 << 20
)

var ErrNotJSON = errors.New("storage: response is not JSON")

type entry struct {
	snap      portfolio.Snapshot
	fetchedAt time.Time
}

type persistedSnapshot struct {
	Schema   int                `json:"schema"`
	SavedAt  int64              `json:"savedAt"`
	Snapshot portfolio.Snapshot `json:"snapshot"`
}

type readEnvelope struct {
	Data         *portfolio.Document `json:"data"`
	IsCustomized bool                `json:"isCustomized"`
	Version      int64               `json:"version"`
}

type writeEnvelope struct {
	Success   bool                `json:"success"`
	Message   string              `json:"message"`
	Error     string              `json:"error"`
	Details   string              `json:"details"`
	Data      *portfolio.Document `json:"data"`
	Version   int64               `json:"version"`
	Timestamp string              `json:"timestamp"`
}

func (e writeEnvelope) failure(status int) string {
	switch {
	case e.Details != "":
		return e.Details
	case e.Error != "":
		return e.Error
	case e.Message != "":
		return e.Message
	}
	return fmt.Sprintf("unexpected status %d", status)
}

// Result is the outcome of a write. Error is set when Success is false.
type Result struct {
	Success   bool
	Error     string
	Version   int64
	Timestamp string
}

type ResetResult struct {
	Result
	Data portfolio.Document
}

type Client struct {
	baseURL       string
	httpClient    *http.Client
	ttl           time.Duration
	timeout       time.Duration
	persistMaxAge time.Duration
	payloadLimit  int
	token         string
	now           func() time.Time
	logger        logger.Logger
	store         LocalStore
	bus           Broadcaster
	defaults      func() portfolio.Snapshot
	onInvalidate  func(int64)

	group singleflight.Group

	mu      sync.RWMutex
	cached  *entry
	version int64
	stale   bool
	gen     uint64

	stopOnce sync.Once
	stops    []func()
}

// New builds a client for the API at baseURL and starts listening for
// invalidations from other clients. Call Close to stop listening.
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{},
		ttl:           DefaultTTL,
		timeout:       DefaultTimeout,
		persistMaxAge: DefaultPersistMaxAge,
		payloadLimit:  DefaultPayloadLimit,
		now:           time.Now,
		logger:        logger.NewNopLogger(),
		store:         NewMemoryStore(),
		bus:           NoopBroadcaster{},
		defaults:      portfolio.DefaultSnapshot,
	}
	for _, opt := range opts {
		opt(c)
	}

	if raw, err := c.store.Load(VersionKey); err == nil {
		if v, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			c.version = v
		}
	}

	stopStore, err := c.store.Watch(c.onStoreChange)
	if err != nil {
		return nil, fmt.Errorf("watch local store: %w", err)
	}
	stopBus, err := c.bus.Subscribe(c.observe)
	if err != nil {
		stopStore()
		return nil, fmt.Errorf("subscribe to broadcaster: %w", err)
	}
	c.stops = []func(){stopStore, stopBus}
	return c, nil
}

func (c *Client) Close() error {
	c.stopOnce.Do(func() {
		for _, stop := range c.stops {
			stop()
		}
	})
	return nil
}

// Version is the highest version this client has seen or announced.
func (c *Client) Version() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Cached returns the last known value without blocking.
func (c *Client) Cached() portfolio.Snapshot {
	c.mu.RLock()
	e := c.cached
	c.mu.RUnlock()
	if e != nil {
		return e.snap
	}
	if snap, ok := c.loadPersisted(); ok {
		return snap
	}
	return c.defaults()
}

// Get returns fresh data, fetching when the cached copy is older than the
// TTL, is default content, or another client announced a newer version.
func (c *Client) Get(ctx context.Context, force bool) portfolio.Snapshot {
	if !force {
		if snap, ok := c.fresh(); ok {
			return snap
		}
	}

	ch := c.group.DoChan(flightKey, func() (any, error) {
		return c.fetch()
	})
	select {
	case res := <-ch:
		if res.Err == nil {
			return res.Val.(portfolio.Snapshot)
		}
		c.logger.Warn("Portfolio fetch failed, using fallback", zap.Error(res.Err))
	case <-ctx.Done():
		c.logger.Warn("Portfolio fetch abandoned", zap.Error(ctx.Err()))
	}
	return c.fallback()
}

// Save posts the document, or a subset of it when partial is set.
func (c *Client) Save(ctx context.Context, payload any, partial bool) Result {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{Error: fmt.Sprintf("encode payload: %v", err)}
	}
	if len(body) > c.payloadLimit {
		c.logger.Warn("Portfolio payload exceeds request limit",
			zap.Int("bytes", len(body)), zap.Int("limit", c.payloadLimit))
		return Result{Error: fmt.Sprintf(
			"payload is %.1f MB, above the %.1f MB request limit; shrink or remove embedded images",
			float64(len(body))/(1<<20), float64(c.payloadLimit)/(1<<20))}
	}

	headers := map[string]string{}
	if partial {
		headers[HeaderPartialUpdate] = "true"
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	var env writeEnvelope
	status, err := c.do(reqCtx, http.MethodPost, portfolioPath, body, headers, &env)
	if err != nil {
		c.logger.Warn("Portfolio save failed", zap.Error(err))
		return Result{Error: err.Error()}
	}
	if status != http.StatusOK || !env.Success {
		return Result{Error: env.failure(status)}
	}

	c.Invalidate()
	c.Get(ctx, true)
	c.announce(ctx, env.Version)
	return Result{Success: true, Version: env.Version, Timestamp: env.Timestamp}
}

// Reset restores the server's default content. On failure Data holds the
// local defaults.
func (c *Client) Reset(ctx context.Context) ResetResult {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var env writeEnvelope
	status, err := c.do(reqCtx, http.MethodDelete, portfolioPath, nil, nil, &env)
	if err != nil {
		c.logger.Warn("Portfolio reset failed", zap.Error(err))
		return ResetResult{Result: Result{Error: err.Error()}, Data: c.defaults().Document}
	}
	if status != http.StatusOK || !env.Success {
		return ResetResult{Result: Result{Error: env.failure(status)}, Data: c.defaults().Document}
	}

	c.Invalidate()
	c.announce(ctx, env.Version)

	data := c.defaults().Document
	if env.Data != nil {
		data = *env.Data
	}
	return ResetResult{
		Result: Result{Success: true, Version: env.Version, Timestamp: env.Timestamp},
		Data:   data,
	}
}

// Invalidate drops the in-memory and persisted copies.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
	c.group.Forget(flightKey)

	if err := c.store.Remove(CacheKey); err != nil {
		c.logger.Warn("Failed to clear persisted portfolio", zap.Error(err))
	}
}

func (c *Client) fresh() (portfolio.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e := c.cached
	if e == nil || c.stale || e.snap.IsDefault || e.fetchedAt.IsZero() {
		return portfolio.Snapshot{}, false
	}
	if c.now().Sub(e.fetchedAt) >= c.ttl {
		return portfolio.Snapshot{}, false
	}
	return e.snap, true
}

// fetch runs detached from any single caller since the result is shared.
func (c *Client) fetch() (portfolio.Snapshot, error) {
	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var env readEnvelope
	status, err := c.do(ctx, http.MethodGet, portfolioPath, nil, nil, &env)
	if err != nil {
		return portfolio.Snapshot{}, err
	}
	if status != http.StatusOK {
		return portfolio.Snapshot{}, fmt.Errorf("unexpected status %d", status)
	}
	if env.Data == nil {
		return portfolio.Snapshot{}, errors.New("response carries no data")
	}

	snap := portfolio.Snapshot{
		Document:     *env.Data,
		IsCustomized: env.IsCustomized,
		Version:      env.Version,
		IsDefault:    !env.IsCustomized && env.Version == 0,
	}
	portfolio.EnsureSections(&snap.Document)

	now := c.now()
	c.mu.Lock()
	c.cached = &entry{snap: snap, fetchedAt: now}
	if c.gen == gen {
		c.stale = false
	}
	if snap.Version > c.version {
		c.version = snap.Version
	}
	c.mu.Unlock()

	if !snap.IsDefault {
		c.persist(snap, now)
	}
	return snap, nil
}

func (c *Client) fallback() portfolio.Snapshot {
	if snap, ok := c.loadPersisted(); ok {
		return snap
	}
	c.mu.RLock()
	e := c.cached
	c.mu.RUnlock()
	if e != nil {
		return e.snap
	}
	return c.defaults()
}

func (c *Client) persist(snap portfolio.Snapshot, at time.Time) {
	b, err := json.Marshal(persistedSnapshot{Schema: persistSchema, SavedAt: at.UnixMilli(), Snapshot: snap})
	if err == nil {
		err = c.store.Store(CacheKey, b)
	}
	if err != nil {
		c.logger.Warn("Failed to persist portfolio", zap.Error(err))
	}
}

func (c *Client) loadPersisted() (portfolio.Snapshot, bool) {
	raw, err := c.store.Load(CacheKey)
	if err != nil {
		return portfolio.Snapshot{}, false
	}
	var p persistedSnapshot
	if err := json.Unmarshal(raw, &p); err != nil || p.Schema != persistSchema {
		return portfolio.Snapshot{}, false
	}
	if p.Snapshot.IsDefault || c.now().Sub(time.UnixMilli(p.SavedAt)) > c.persistMaxAge {
		return portfolio.Snapshot{}, false
	}
	portfolio.EnsureSections(&p.Snapshot.Document)
	return p.Snapshot, true
}

// announce bumps the shared version counter and tells other clients.
func (c *Client) announce(ctx context.Context, serverVersion int64) {
	c.mu.Lock()
	v := c.version + 1
	if serverVersion > v {
		v = serverVersion
	}
	c.version = v
	c.mu.Unlock()

	if err := c.store.Store(VersionKey, []byte(strconv.FormatInt(v, 10))); err != nil {
		c.logger.Warn("Failed to store version", zap.Error(err))
	}
	if err := c.bus.Publish(ctx, v); err != nil {
		c.logger.Warn("Failed to broadcast version", zap.Int64("version", v), zap.Error(err))
	}
}

func (c *Client) onStoreChange(ch Change) {
	if ch.Key != VersionKey || ch.Value == nil {
		return
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(ch.Value)), 10, 64)
	if err != nil {
		return
	}
	c.observe(v)
}

func (c *Client) observe(version int64) {
	c.mu.Lock()
	if version <= c.version {
		c.mu.Unlock()
		return
	}
	c.version = version
	c.stale = true
	c.gen++
	c.mu.Unlock()

	if c.onInvalidate != nil {
		c.onInvalidate(version)
	}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, headers map[string]string, out any) (int, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" && method != http.MethodGet {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		return resp.StatusCode, fmt.Errorf("%w: status %d, content type %q", ErrNotJSON, resp.StatusCode, ct)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}
