package portfolio

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/portfolio-site/internal/application/service"
	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-site/pkg/logger"
)

type ResetPortfolioUseCase struct {
	repo      portfolio.Repository
	cache     service.SnapshotCache
	publisher service.EventPublisher
	logger    logger.Logger
	now       func() time.Time
}

func NewResetPortfolioUseCase(
	repo portfolio.Repository,
	cache service.SnapshotCache,
	publisher service.EventPublisher,
	log logger.Logger,
) *ResetPortfolioUseCase {
	return &ResetPortfolioUseCase{repo: repo, cache: cache, publisher: publisher, logger: log, now: time.Now}
}

type ResetOutput struct {
	Snapshot  portfolio.Snapshot
	Timestamp string
}

// Execute restores the default content, replacing every section and
// clearing the customized flag.
func (uc *ResetPortfolioUseCase) Execute(ctx context.Context) (*ResetOutput, error) {
	ctx, span := tracer.Start(ctx, "Reset")
	defer span.End()

	if err := uc.repo.Ready(ctx); err != nil {
		span.RecordError(err)
		return nil, unavailable(err)
	}

	p, err := uc.repo.Find(ctx)
	switch {
	case errors.Is(err, portfolio.ErrPortfolioNotFound):
		p = newPortfolio(uc.now())
	case err != nil:
		span.RecordError(err)
		return nil, repoError("failed to load portfolio", err)
	}

	p.Touch(uc.now())
	doc, err := seedDefaults(ctx, uc.repo, p)
	if err != nil {
		span.RecordError(err)
		uc.logger.Error("Failed to reset portfolio", err)
		return nil, repoError("failed to reset portfolio data", err)
	}

	invalidateAndPublish(ctx, uc.cache, uc.publisher, uc.logger,
		portfolio.NewEvent(portfolio.EventReset, p, portfolio.AllSections, false))

	uc.logger.Info("Portfolio reset to defaults", zap.Int64("version", p.Version()))
	return &ResetOutput{
		Snapshot:  portfolio.Snapshot{Document: doc, IsCustomized: false, Version: p.Version()},
		Timestamp: formatTimestamp(p.UpdatedAt),
	}, nil
}
