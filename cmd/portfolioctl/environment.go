package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/khoahotran/portfolio-site/adapters/event"
	"github.com/khoahotran/portfolio-site/adapters/persistence"
	portfolioUC "github.com/khoahotran/portfolio-site/internal/application/usecase/portfolio"
	"github.com/khoahotran/portfolio-site/internal/config"
	"github.com/khoahotran/portfolio-site/internal/storage"
	"github.com/khoahotran/portfolio-site/pkg/logger"
)

// environment is shared by every subcommand.
type environment struct {
	cfg     config.Config
	logger  logger.Logger
	verbose bool
	rdb     *redis.Client
}

func (e *environment) storeDir() (string, error) {
	if e.cfg.Client.StoreDir != "" {
		return e.cfg.Client.StoreDir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "portfolio-site"), nil
}

// newClient builds a storage client backed by the on-disk store, so separate
// invocations share one cache and version counter. Redis, when configured,
// carries invalidations between machines.
func (e *environment) newClient(opts ...storage.Option) (*storage.Client, error) {
	dir, err := e.storeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve store dir: %w", err)
	}
	store, err := storage.NewFileStore(dir, e.logger)
	if err != nil {
		return nil, err
	}

	base := []storage.Option{
		storage.WithStore(store),
		storage.WithLogger(e.logger),
		storage.WithToken(e.cfg.Client.Token),
	}
	rdb, err := persistence.NewRedisClient(e.cfg)
	if err != nil {
		e.logger.Warn("Redis unavailable, invalidations stay local")
	} else if rdb != nil {
		e.rdb = rdb
		base = append(base, storage.WithBroadcaster(storage.NewRedisBroadcaster(rdb, e.cfg.Redis.Channel, e.logger)))
	}
	return storage.New(e.cfg.Client.APIURL, append(base, opts...)...)
}

func (e *environment) close(c *storage.Client) {
	c.Close()
	if e.rdb != nil {
		e.rdb.Close()
		e.rdb = nil
	}
}

// newMigrateUseCase wires the legacy migration straight to the database.
// With Redis configured, running servers hear about the migrated version.
func (e *environment) newMigrateUseCase() (*portfolioUC.MigrateLegacyUseCase, *persistence.Connector, error) {
	if !e.cfg.DatabaseConfigured() {
		return nil, nil, fmt.Errorf("DB_DSN (or DATABASE_URL) must be set")
	}
	conn := persistence.NewConnector(e.cfg, e.logger)

	cache := persistence.NewNoopSnapshotCache()
	publisher := event.NewNoopPublisher()
	if rdb, err := persistence.NewRedisClient(e.cfg); err == nil && rdb != nil {
		e.rdb = rdb
		cache = persistence.NewRedisSnapshotCache(rdb, e.cfg.Redis.CacheTTL, e.logger)
		publisher = event.NewRedisPublisher(rdb, e.cfg.Redis.Channel)
	}

	uc := portfolioUC.NewMigrateLegacyUseCase(
		persistence.NewPostgresPortfolioRepo(conn, e.logger),
		persistence.NewPostgresLegacyRepo(conn, e.logger),
		cache,
		publisher,
		e.logger,
	)
	return uc, conn, nil
}

func (e *environment) closeDB(conn *persistence.Connector) {
	conn.Close()
	if e.rdb != nil {
		e.rdb.Close()
		e.rdb = nil
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
