// Package portfoliotest provides in-memory implementations of the portfolio
// ports for tests.
package portfoliotest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
)

// Repository keeps sections in reverse order so callers must sort.
type Repository struct {
	mu         sync.Mutex
	ReadyErr   error
	FindErr    error
	SaveErr    error
	SectionErr map[portfolio.Section]error
	// BeforeLoad runs at the start of every LoadSection, outside the lock.
	BeforeLoad func()

	agg   *portfolio.Portfolio
	doc   portfolio.Document
	saves int
	loads int
}

func NewRepository() *Repository {
	return &Repository{SectionErr: map[portfolio.Section]error{}}
}

func (r *Repository) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

func (r *Repository) Loads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads
}

func (r *Repository) Ready(context.Context) error { return r.ReadyErr }

func (r *Repository) Find(context.Context) (*portfolio.Portfolio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FindErr != nil {
		return nil, r.FindErr
	}
	if r.agg == nil {
		return nil, portfolio.ErrPortfolioNotFound
	}
	cp := *r.agg
	return &cp, nil
}

func (r *Repository) LoadSection(_ context.Context, id uuid.UUID, s portfolio.Section, doc *portfolio.Document) error {
	if r.BeforeLoad != nil {
		r.BeforeLoad()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads++
	if err := r.SectionErr[s]; err != nil {
		return err
	}
	if r.agg == nil || r.agg.ID != id {
		return errors.New("unknown portfolio")
	}
	stored := Clone(r.doc)
	Reverse(&stored)
	CopySection(doc, stored, s)
	return nil
}

func (r *Repository) Save(_ context.Context, p *portfolio.Portfolio, doc portfolio.Document, sections []portfolio.Section) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SaveErr != nil {
		return r.SaveErr
	}
	r.saves++
	if r.agg != nil {
		p.ID = r.agg.ID
	}
	cp := *p
	r.agg = &cp
	incoming := Clone(doc)
	for _, s := range sections {
		CopySection(&r.doc, incoming, s)
	}
	return nil
}

// Clone deep-copies d, keeping Order values.
func Clone(d portfolio.Document) portfolio.Document {
	var out portfolio.Document
	b, _ := json.Marshal(d)
	_ = json.Unmarshal(b, &out)
	for i := range out.Skills {
		out.Skills[i].Order = d.Skills[i].Order
	}
	for i := range out.Projects {
		out.Projects[i].Order = d.Projects[i].Order
	}
	for i := range out.Experience {
		out.Experience[i].Order = d.Experience[i].Order
	}
	for i := range out.Education {
		out.Education[i].Order = d.Education[i].Order
	}
	for i := range out.Certificates {
		out.Certificates[i].Order = d.Certificates[i].Order
	}
	for i := range out.Gallery {
		out.Gallery[i].Order = d.Gallery[i].Order
	}
	return out
}

func Reverse(d *portfolio.Document) {
	rev := func(n int, swap func(i, j int)) {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			swap(i, j)
		}
	}
	rev(len(d.Skills), func(i, j int) { d.Skills[i], d.Skills[j] = d.Skills[j], d.Skills[i] })
	rev(len(d.Projects), func(i, j int) { d.Projects[i], d.Projects[j] = d.Projects[j], d.Projects[i] })
	rev(len(d.Experience), func(i, j int) { d.Experience[i], d.Experience[j] = d.Experience[j], d.Experience[i] })
	rev(len(d.Education), func(i, j int) { d.Education[i], d.Education[j] = d.Education[j], d.Education[i] })
	rev(len(d.Certificates), func(i, j int) { d.Certificates[i], d.Certificates[j] = d.Certificates[j], d.Certificates[i] })
	rev(len(d.Gallery), func(i, j int) { d.Gallery[i], d.Gallery[j] = d.Gallery[j], d.Gallery[i] })
}

func CopySection(dst *portfolio.Document, src portfolio.Document, s portfolio.Section) {
	switch s {
	case portfolio.SectionSkills:
		dst.Skills = src.Skills
	case portfolio.SectionProjects:
		dst.Projects = src.Projects
	case portfolio.SectionExperience:
		dst.Experience = src.Experience
	case portfolio.SectionEducation:
		dst.Education = src.Education
	case portfolio.SectionCertificates:
		dst.Certificates = src.Certificates
	case portfolio.SectionGallery:
		dst.Gallery = src.Gallery
	}
}

// WithoutIDs clears record ids so documents from separate saves compare equal.
func WithoutIDs(d portfolio.Document) portfolio.Document {
	d = Clone(d)
	for i := range d.Skills {
		d.Skills[i].ID = ""
	}
	for i := range d.Projects {
		d.Projects[i].ID = ""
	}
	for i := range d.Experience {
		d.Experience[i].ID = ""
	}
	for i := range d.Education {
		d.Education[i].ID = ""
	}
	for i := range d.Certificates {
		d.Certificates[i].ID = ""
	}
	for i := range d.Gallery {
		d.Gallery[i].ID = ""
	}
	return d
}

type LegacyRepository struct {
	Doc     *portfolio.LegacyDocument
	Exists  bool
	Deleted []int64
}

func (r *LegacyRepository) FindLegacy(context.Context) (*portfolio.LegacyDocument, error) {
	return r.Doc, nil
}

func (r *LegacyRepository) DeleteLegacy(_ context.Context, id int64) error {
	r.Deleted = append(r.Deleted, id)
	r.Doc = nil
	return nil
}

func (r *LegacyRepository) DropLegacyIfEmpty(context.Context) (bool, error) {
	if r.Doc != nil || !r.Exists {
		return false, nil
	}
	r.Exists = false
	return true, nil
}

func (r *LegacyRepository) Cleanup(context.Context) (int64, bool, error) {
	var removed int64
	if r.Doc != nil {
		removed = 1
		r.Doc = nil
	}
	dropped := r.Exists
	r.Exists = false
	return removed, dropped, nil
}

// Cache mirrors the snapshot floor of the Redis cache.
type Cache struct {
	mu          sync.Mutex
	snap        *portfolio.Snapshot
	floor       int64
	Invalidated int
}

func (c *Cache) Cached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap != nil
}

func (c *Cache) Get(context.Context) (portfolio.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == nil {
		return portfolio.Snapshot{}, false
	}
	return *c.snap, true
}

func (c *Cache) Set(_ context.Context, snap portfolio.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if snap.Version < c.floor {
		return nil
	}
	c.snap = &snap
	return nil
}

func (c *Cache) Invalidate(_ context.Context, version int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = nil
	c.floor = max(c.floor, version)
	c.Invalidated++
	return nil
}

type Publisher struct {
	mu     sync.Mutex
	events []portfolio.Event
}

func (p *Publisher) Publish(_ context.Context, evt portfolio.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *Publisher) Close() error { return nil }

func (p *Publisher) Events() []portfolio.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]portfolio.Event(nil), p.events...)
}
