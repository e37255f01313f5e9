package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/khoahotran/portfolio-site/internal/application/service"
	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-site/pkg/logger"
)

const (
	snapshotKey = "portfolio:snapshot"
	floorKey    = "portfolio:snapshot:floor"
)

// KEYS[1] snapshot, KEYS[2] floor; ARGV[1] payload, ARGV[2] version, ARGV[3] ttl ms.
var setIfCurrent = redis.NewScript(`
local floor = tonumber(redis.call('GET', KEYS[2]) or '0')
if tonumber(ARGV[2]) < floor then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

// KEYS[1] snapshot, KEYS[2] floor; ARGV[1] version.
var invalidateBelow = redis.NewScript(`
local floor = tonumber(redis.call('GET', KEYS[2]) or '0')
if tonumber(ARGV[1]) > floor then
	redis.call('SET', KEYS[2], ARGV[1])
end
redis.call('DEL', KEYS[1])
return 1
`)

type redisSnapshotCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisSnapshotCache(rdb *redis.Client, ttl time.Duration, log logger.Logger) service.SnapshotCache {
	return &redisSnapshotCache{rdb: rdb, ttl: ttl, logger: log}
}

func (c *redisSnapshotCache) Get(ctx context.Context) (portfolio.Snapshot, bool) {
	var snap portfolio.Snapshot
	b, err := c.rdb.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Failed to read cached snapshot", zap.Error(err))
		}
		return snap, false
	}
	if err := json.Unmarshal(b, &snap); err != nil {
		c.logger.Warn("Dropping unreadable cached snapshot", zap.Error(err))
		_ = c.rdb.Del(ctx, snapshotKey).Err()
		return snap, false
	}
	portfolio.EnsureSections(&snap.Document)
	return snap, true
}

// Set never caches built-in defaults.
func (c *redisSnapshotCache) Set(ctx context.Context, snap portfolio.Snapshot) error {
	if snap.IsDefault {
		return nil
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	stored, err := setIfCurrent.Run(ctx, c.rdb, []string{snapshotKey, floorKey}, b, snap.Version, c.ttl.Milliseconds()).Int()
	if err != nil {
		return err
	}
	if stored == 0 {
		c.logger.Debug("Skipped caching a snapshot older than the last write", zap.Int64("version", snap.Version))
	}
	return nil
}

func (c *redisSnapshotCache) Invalidate(ctx context.Context, version int64) error {
	return invalidateBelow.Run(ctx, c.rdb, []string{snapshotKey, floorKey}, version).Err()
}

type noopSnapshotCache struct{}

func NewNoopSnapshotCache() service.SnapshotCache { return noopSnapshotCache{} }

func (noopSnapshotCache) Get(context.Context) (portfolio.Snapshot, bool) {
	return portfolio.Snapshot{}, false
}
func (noopSnapshotCache) Set(context.Context, portfolio.Snapshot) error { return nil }
func (noopSnapshotCache) Invalidate(context.Context, int64) error       { return nil }
