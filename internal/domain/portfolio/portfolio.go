package portfolio

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlaceholderEmail is the seeded email; an aggregate still carrying it has
// not been customized by its owner.
const PlaceholderEmail = "your.email@example.com"

type Personal struct {
	Name       string `json:"name"`
	HeaderLogo string `json:"headerLogo"`
	Title      string `json:"title"`
	Location   string `json:"location"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	HeroBio    string `json:"heroBio"`
	Bio        string `json:"bio"`
	Avatar     string `json:"avatar"`
}

type Social struct {
	GitHub   string `json:"github"`
	LinkedIn string `json:"linkedin"`
	Email    string `json:"email"`
}

// Portfolio is the singleton aggregate root. Child sections reference it by ID.
type Portfolio struct {
	ID           uuid.UUID
	Personal     Personal
	Social       Social
	IsCustomized bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Version is the opaque token handed to clients; it changes on every write.
func (p *Portfolio) Version() int64 {
	if p == nil || p.UpdatedAt.IsZero() {
		return 0
	}
	return p.UpdatedAt.UnixMilli()
}

// Document is the public shape of the whole portfolio.
type Document struct {
	Personal     Personal      `json:"personal"`
	Social       Social        `json:"social"`
	Skills       []Skill       `json:"skills"`
	Projects     []Project     `json:"projects"`
	Experience   []Experience  `json:"experience"`
	Education    []Education   `json:"education"`
	Certificates []Certificate `json:"certificates"`
	Gallery      []GalleryItem `json:"gallery"`
}

// Core is the personal+social subset used for a fast first paint.
type Core struct {
	Personal Personal `json:"personal"`
	Social   Social   `json:"social"`
}

func (d Document) Core() Core {
	return Core{Personal: d.Personal, Social: d.Social}
}

// Snapshot is a read of the aggregate plus its sections at one version.
// IsDefault marks built-in content served because nothing better was
// available; default snapshots carry Version 0.
type Snapshot struct {
	Document     Document `json:"data"`
	IsCustomized bool     `json:"isCustomized"`
	Version      int64    `json:"version"`
	IsDefault    bool     `json:"isDefault"`
}

func DefaultSnapshot() Snapshot {
	return Snapshot{Document: DefaultDocument(), IsCustomized: false, Version: 0, IsDefault: true}
}

func IsCustomEmail(email string) bool {
	email = strings.TrimSpace(email)
	return email != "" && email != PlaceholderEmail
}
