package service

import (
	"context"

	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
)

// EventPublisher fans portfolio write events out to other processes.
// Publish failures never roll back a committed write.
type EventPublisher interface {
	Publish(ctx context.Context, evt portfolio.Event) error
	Close() error
}
