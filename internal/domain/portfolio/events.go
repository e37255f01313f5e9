package portfolio

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventSaved    EventType = "portfolio.saved"
	EventReset    EventType = "portfolio.reset"
	EventMigrated EventType = "portfolio.migrated"
)

// Event is emitted after every committed write to the aggregate.
type Event struct {
	Type        EventType `json:"type"`
	PortfolioID uuid.UUID `json:"portfolio_id"`
	Version     int64     `json:"version"`
	Sections    []Section `json:"sections"`
	Partial     bool      `json:"partial"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func NewEvent(t EventType, p *Portfolio, sections []Section, partial bool) Event {
	if sections == nil {
		sections = []Section{}
	}
	return Event{
		Type:        t,
		PortfolioID: p.ID,
		Version:     p.Version(),
		Sections:    sections,
		Partial:     partial,
		OccurredAt:  time.Now().UTC(),
	}
}
