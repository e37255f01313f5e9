package portfolio

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/google/uuid"

	"github.com/khoahotran/portfolio-site/internal/application/service"
	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-site/pkg/logger"
)

var tracer = otel.Tracer("portfolio_usecase")

// GetPortfolioUseCase serves every read of the portfolio. Reads never fail:
// any problem is logged and the built-in defaults are returned instead.
type GetPortfolioUseCase struct {
	repo           portfolio.Repository
	cache          service.SnapshotCache
	sectionTimeout time.Duration
	logger         logger.Logger
}

func NewGetPortfolioUseCase(
	repo portfolio.Repository,
	cache service.SnapshotCache,
	sectionTimeout time.Duration,
	log logger.Logger,
) *GetPortfolioUseCase {
	return &GetPortfolioUseCase{repo: repo, cache: cache, sectionTimeout: sectionTimeout, logger: log}
}

type CoreOutput struct {
	Core         portfolio.Core
	IsCustomized bool
	Version      int64
	IsDefault    bool
}

type SectionsOutput struct {
	Sections  map[portfolio.Section]any
	Version   int64
	IsDefault bool
}

func (uc *GetPortfolioUseCase) ExecuteFull(ctx context.Context) portfolio.Snapshot {
	ctx, span := tracer.Start(ctx, "GetFull")
	defer span.End()

	if snap, ok := uc.cache.Get(ctx); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return snap
	}

	p, err := uc.aggregate(ctx)
	if err != nil {
		span.RecordError(err)
		return portfolio.DefaultSnapshot()
	}

	doc := portfolio.Document{Personal: p.Personal, Social: p.Social}
	complete := uc.loadSections(ctx, p.ID, portfolio.AllSections, &doc)

	snap := portfolio.Snapshot{Document: doc, IsCustomized: p.IsCustomized, Version: p.Version()}
	if !complete {
		return snap
	}
	if err := uc.cache.Set(ctx, snap); err != nil {
		uc.logger.Warn("Failed to cache portfolio snapshot", zap.Error(err))
	}
	return snap
}

func (uc *GetPortfolioUseCase) ExecuteCore(ctx context.Context) CoreOutput {
	ctx, span := tracer.Start(ctx, "GetCore")
	defer span.End()

	if snap, ok := uc.cache.Get(ctx); ok {
		return CoreOutput{Core: snap.Document.Core(), IsCustomized: snap.IsCustomized, Version: snap.Version}
	}

	p, err := uc.aggregate(ctx)
	if err != nil {
		span.RecordError(err)
		def := portfolio.DefaultSnapshot()
		return CoreOutput{Core: def.Document.Core(), Version: def.Version, IsDefault: true}
	}
	return CoreOutput{
		Core:         portfolio.Core{Personal: p.Personal, Social: p.Social},
		IsCustomized: p.IsCustomized,
		Version:      p.Version(),
	}
}

func (uc *GetPortfolioUseCase) ExecuteSections(ctx context.Context, sections []portfolio.Section) SectionsOutput {
	ctx, span := tracer.Start(ctx, "GetSections")
	defer span.End()

	if snap, ok := uc.cache.Get(ctx); ok {
		return SectionsOutput{Sections: snap.Document.Pick(sections), Version: snap.Version}
	}

	p, err := uc.aggregate(ctx)
	if err != nil {
		span.RecordError(err)
		return SectionsOutput{Sections: portfolio.DefaultDocument().Pick(sections), IsDefault: true}
	}

	var doc portfolio.Document
	uc.loadSections(ctx, p.ID, sections, &doc)
	return SectionsOutput{Sections: doc.Pick(sections), Version: p.Version()}
}

// aggregate finds the singleton, seeding it with defaults when the store is
// reachable but empty.
func (uc *GetPortfolioUseCase) aggregate(ctx context.Context) (*portfolio.Portfolio, error) {
	if err := uc.repo.Ready(ctx); err != nil {
		uc.logger.Warn("Database not available, serving default portfolio", zap.Error(err))
		return nil, err
	}

	p, err := uc.repo.Find(ctx)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, portfolio.ErrPortfolioNotFound) {
		uc.logger.Error("Failed to load portfolio, serving defaults", err)
		return nil, err
	}

	p = newPortfolio(time.Now())
	if _, err := seedDefaults(ctx, uc.repo, p); err != nil {
		uc.logger.Error("Failed to seed default portfolio", err)
		return nil, err
	}
	uc.logger.Info("Seeded default portfolio", zap.String("portfolio_id", p.ID.String()))
	return p, nil
}

// loadSections reads sections concurrently. A section that fails or times
// out is served as an empty list and the result is reported incomplete.
func (uc *GetPortfolioUseCase) loadSections(ctx context.Context, id uuid.UUID, sections []portfolio.Section, doc *portfolio.Document) bool {
	parts := make([]portfolio.Document, len(sections))
	failed := make([]bool, len(sections))

	var g errgroup.Group
	for i, s := range sections {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, uc.sectionTimeout)
			defer cancel()
			if err := uc.repo.LoadSection(sctx, id, s, &parts[i]); err != nil {
				uc.logger.Warn("Failed to load portfolio section",
					zap.String("section", string(s)),
					zap.Error(err),
				)
				parts[i] = portfolio.Document{}
				failed[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	complete := true
	for i, s := range sections {
		copySection(doc, parts[i], s)
		complete = complete && !failed[i]
	}
	portfolio.SortSections(doc)
	portfolio.EnsureSections(doc)
	return complete
}

func copySection(dst *portfolio.Document, src portfolio.Document, s portfolio.Section) {
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
