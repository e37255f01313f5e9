package portfolio

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

type Repository interface {
	// Ready reports whether the backing store is configured and reachable.
	Ready(ctx context.Context) error
	// Find returns the singleton aggregate or ErrPortfolioNotFound.
	Find(ctx context.Context) (*Portfolio, error)
	// LoadSection fills one section of doc, sorted by order.
	LoadSection(ctx context.Context, portfolioID uuid.UUID, section Section, doc *Document) error
	// Save upserts the aggregate and replaces the listed sections atomically.
	Save(ctx context.Context, p *Portfolio, doc Document, sections []Section) error
}

// LegacyDocument is the old single-record form where every section was
// embedded in one JSON object.
type LegacyDocument struct {
	ID   int64
	Data json.RawMessage
}

type LegacyRepository interface {
	// FindLegacy returns nil, nil when no legacy record exists.
	FindLegacy(ctx context.Context) (*LegacyDocument, error)
	DeleteLegacy(ctx context.Context, id int64) error
	// DropLegacyIfEmpty removes the legacy table once nothing is left in it.
	DropLegacyIfEmpty(ctx context.Context) (bool, error)
	// Cleanup removes every legacy record and the table itself.
	Cleanup(ctx context.Context) (removed int64, dropped bool, err error)
}
