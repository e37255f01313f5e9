package service

import (
	"context"

	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
)

// SnapshotCache holds the last assembled full snapshot between writes.
// Get returns false on a miss or any cache failure.
//
// Invalidate drops the snapshot and raises the cache floor to version. Set
// ignores snapshots older than the floor, so a read that raced a write
// cannot put the pre-write content back.
type SnapshotCache interface {
	Get(ctx context.Context) (portfolio.Snapshot, bool)
	Set(ctx context.Context, snap portfolio.Snapshot) error
	Invalidate(ctx context.Context, version int64) error
}
