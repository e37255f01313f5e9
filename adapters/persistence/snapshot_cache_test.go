package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-site/pkg/logger"
)

func TestRedisSnapshotCache_RejectsSnapshotsOlderThanLastWrite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	addr, err := container.PortEndpoint(ctx, "6379/tcp", "")
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })

	cache := NewRedisSnapshotCache(rdb, time.Minute, logger.NewNopLogger())
	snapshot := func(version int64, name string) portfolio.Snapshot {
		doc := portfolio.DefaultDocument()
		doc.Personal.Name = name
		return portfolio.Snapshot{Document: doc, IsCustomized: true, Version: version}
	}

	require.NoError(t, cache.Set(ctx, snapshot(100, "before")))
	got, ok := cache.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, "before", got.Document.Personal.Name)

	require.NoError(t, cache.Invalidate(ctx, 200))
	_, ok = cache.Get(ctx)
	assert.False(t, ok)

	// A read that started before the write finishes late.
	require.NoError(t, cache.Set(ctx, snapshot(100, "before")))
	_, ok = cache.Get(ctx)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, snapshot(200, "after")))
	got, ok = cache.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, "after", got.Document.Personal.Name)

	// The floor never moves backwards.
	require.NoError(t, cache.Invalidate(ctx, 150))
	require.NoError(t, cache.Set(ctx, snapshot(180, "stale")))
	_, ok = cache.Get(ctx)
	assert.False(t, ok)
}
