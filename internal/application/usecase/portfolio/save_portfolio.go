package portfolio

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/portfolio-site/internal/application/service"
	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-site/pkg/logger"
)

type SavePortfolioUseCase struct {
	repo      portfolio.Repository
	cache     service.SnapshotCache
	publisher service.EventPublisher
	logger    logger.Logger
	now       func() time.Time
}

func NewSavePortfolioUseCase(
	repo portfolio.Repository,
	cache service.SnapshotCache,
	publisher service.EventPublisher,
	log logger.Logger,
) *SavePortfolioUseCase {
	return &SavePortfolioUseCase{repo: repo, cache: cache, publisher: publisher, logger: log, now: time.Now}
}

type SaveInput struct {
	Patch   portfolio.Patch
	Partial bool
}

type SaveOutput struct {
	Version   int64
	Timestamp string
}

func (uc *SavePortfolioUseCase) Execute(ctx context.Context, input SaveInput) (*SaveOutput, error) {
	ctx, span := tracer.Start(ctx, "Save")
	defer span.End()
	span.SetAttributes(attribute.Bool("partial", input.Partial))

	if err := uc.repo.Ready(ctx); err != nil {
		span.RecordError(err)
		return nil, unavailable(err)
	}

	doc := input.Patch.Document
	sections := input.Patch.Sections

	p, err := uc.repo.Find(ctx)
	switch {
	case errors.Is(err, portfolio.ErrPortfolioNotFound):
		// First write: sections the request leaves out start from defaults.
		p = newPortfolio(uc.now())
		defaults := portfolio.DefaultDocument()
		p.Personal, p.Social = defaults.Personal, defaults.Social
		for _, s := range portfolio.AllSections {
			if !input.Patch.Has(s) {
				copySection(&doc, defaults, s)
			}
		}
		sections = portfolio.AllSections
	case err != nil:
		span.RecordError(err)
		return nil, repoError("failed to load portfolio", err)
	}

	p.Apply(input.Patch, input.Partial)
	p.Touch(uc.now())
	portfolio.Normalize(&doc, sections)

	if err := uc.repo.Save(ctx, p, doc, sections); err != nil {
		span.RecordError(err)
		uc.logger.Error("Failed to save portfolio", err, zap.Bool("partial", input.Partial))
		return nil, repoError("failed to save portfolio data", err)
	}

	uc.afterWrite(ctx, portfolio.NewEvent(portfolio.EventSaved, p, sections, input.Partial))

	uc.logger.Info("Portfolio saved",
		zap.Int64("version", p.Version()),
		zap.Int("sections", len(sections)),
		zap.Bool("partial", input.Partial),
	)
	return &SaveOutput{Version: p.Version(), Timestamp: formatTimestamp(p.UpdatedAt)}, nil
}

func (uc *SavePortfolioUseCase) afterWrite(ctx context.Context, evt portfolio.Event) {
	invalidateAndPublish(ctx, uc.cache, uc.publisher, uc.logger, evt)
}

// invalidateAndPublish runs after a committed write; failures are logged only.
func invalidateAndPublish(ctx context.Context, cache service.SnapshotCache, pub service.EventPublisher, log logger.Logger, evt portfolio.Event) {
	if err := cache.Invalidate(ctx, evt.Version); err != nil {
		log.Warn("Failed to invalidate portfolio cache", zap.Error(err))
	}
	if err := pub.Publish(ctx, evt); err != nil {
		log.Error("Failed to publish portfolio event", err, zap.String("type", string(evt.Type)))
	}
}
