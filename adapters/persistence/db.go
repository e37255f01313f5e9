package persistence

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/khoahotran/portfolio-site/internal/config"
	"github.com/khoahotran/portfolio-site/pkg/apperror"
	"github.com/khoahotran/portfolio-site/pkg/logger"
)

var ErrNotConfigured = errors.New("database is not configured")

// Connector owns the process-wide pool. The pool is created on first use
// and a failed connect is retried on the next call.
type Connector struct {
	dsn            string
	maxConns       int32
	connectTimeout time.Duration
	connectRetries uint
	queryTimeout   time.Duration
	logger         logger.Logger

	mu   sync.Mutex
	pool *pgxpool.Pool
}

func NewConnector(cfg config.Config, log logger.Logger) *Connector {
	connectTimeout := cfg.DB.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}
	return &Connector{
		dsn:            strings.TrimSpace(cfg.DB.DSN),
		maxConns:       cfg.DB.MaxConns,
		connectTimeout: connectTimeout,
		connectRetries: cfg.DB.ConnectRetries,
		queryTimeout:   cfg.DB.QueryTimeout,
		logger:         log,
	}
}

// NewConnectorFromPool wraps an existing pool, mostly for tests.
func NewConnectorFromPool(pool *pgxpool.Pool, queryTimeout time.Duration, log logger.Logger) *Connector {
	return &Connector{dsn: "preconnected", pool: pool, queryTimeout: queryTimeout, logger: log}
}

func (c *Connector) Configured() bool {
	return c.dsn != ""
}

func (c *Connector) DSN() string {
	return c.dsn
}

func (c *Connector) Pool(ctx context.Context) (*pgxpool.Pool, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pool != nil {
		return c.pool, nil
	}

	poolCfg, err := pgxpool.ParseConfig(c.dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid database dsn: %w", err)
	}
	poolCfg.MaxConns = c.maxConns
	poolCfg.ConnConfig.ConnectTimeout = c.connectTimeout

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second

	pool, err := backoff.Retry(ctx, func() (*pgxpool.Pool, error) {
		cctx, cancel := context.WithTimeout(ctx, c.connectTimeout)
		defer cancel()

		pool, err := pgxpool.NewWithConfig(cctx, poolCfg)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if err := pool.Ping(cctx); err != nil {
			pool.Close()
			return nil, err
		}
		return pool, nil
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.connectRetries+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Warn("PostgreSQL connect failed, retrying", zap.Error(err), zap.Duration("next", next))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	c.pool = pool
	c.logger.Info("Connect PostgreSQL successfully.", zap.Int32("max_conns", c.maxConns))
	return pool, nil
}

// Ping checks that the database answers right now. A pool created earlier
// says nothing about the server still being reachable.
func (c *Connector) Ping(ctx context.Context) error {
	pool, err := c.Pool(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return pool.Ping(ctx)
}

// IsConnectionError reports failures to reach the server, as opposed to
// errors returned by a query the server ran.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotConfigured) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return pgconn.SafeToRetry(err)
}

// dbError maps a repository failure to the matching app error.
func dbError(details string, err error) error {
	if IsConnectionError(err) {
		return apperror.NewUnavailable("Database not connected", details, err)
	}
	return apperror.NewInternal(details, err)
}

// withTimeout bounds a single database operation.
func (c *Connector) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.queryTimeout)
}

func (c *Connector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pool != nil {
		c.pool.Close()
		c.pool = nil
	}
}
