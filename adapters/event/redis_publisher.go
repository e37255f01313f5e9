package event

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/khoahotran/portfolio-site/internal/application/service"
	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
)

// redisPublisher announces the new version on a pub/sub channel so
// connected storage clients drop their caches.
type redisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) service.EventPublisher {
	return &redisPublisher{rdb: rdb, channel: channel}
}

func (p *redisPublisher) Publish(ctx context.Context, evt portfolio.Event) error {
	return p.rdb.Publish(ctx, p.channel, strconv.FormatInt(evt.Version, 10)).Err()
}

// Close leaves the shared client open; its owner closes it.
func (p *redisPublisher) Close() error { return nil }
