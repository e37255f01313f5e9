package storage

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/khoahotran/portfolio-site/pkg/logger"
)

// Broadcaster carries invalidation versions between clients. Subscribers
// may receive their own publications.
type Broadcaster interface {
	Publish(ctx context.Context, version int64) error
	Subscribe(fn func(version int64)) (stop func(), err error)
}

// MemoryBroadcaster delivers synchronously to every subscriber in the process.
type MemoryBroadcaster struct {
	mu   sync.Mutex
	subs map[int]func(int64)
	next int
}

func NewMemoryBroadcaster() *MemoryBroadcaster {
	return &MemoryBroadcaster{subs: make(map[int]func(int64))}
}

func (b *MemoryBroadcaster) Publish(_ context.Context, version int64) error {
	b.mu.Lock()
	fns := make([]func(int64), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(version)
	}
	return nil
}

func (b *MemoryBroadcaster) Subscribe(fn func(int64)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}, nil
}

// NoopBroadcaster is used where no other client can be reached.
type NoopBroadcaster struct{}

func (NoopBroadcaster) Publish(context.Context, int64) error { return nil }

func (NoopBroadcaster) Subscribe(func(int64)) (func(), error) { return func() {}, nil }

// RedisBroadcaster shares versions over a Redis pub/sub channel. The API
// server publishes on the same channel after every write.
type RedisBroadcaster struct {
	rdb     *redis.Client
	channel string
	logger  logger.Logger
}

func NewRedisBroadcaster(rdb *redis.Client, channel string, log logger.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{rdb: rdb, channel: channel, logger: log}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, version int64) error {
	return b.rdb.Publish(ctx, b.channel, strconv.FormatInt(version, 10)).Err()
}

func (b *RedisBroadcaster) Subscribe(fn func(int64)) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	// Receive blocks until the subscription is confirmed.
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		pubsub.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range pubsub.Channel() {
			version, err := strconv.ParseInt(strings.TrimSpace(msg.Payload), 10, 64)
			if err != nil {
				b.logger.Warn("Ignoring malformed version message",
					zap.String("channel", b.channel), zap.String("payload", msg.Payload))
				continue
			}
			fn(version)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			pubsub.Close()
			<-done
		})
	}, nil
}
