package portfolio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/portfolio-site/internal/application/service"
	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-site/pkg/apperror"
	"github.com/khoahotran/portfolio-site/pkg/logger"
)

// MigrateLegacyUseCase moves the old single-record portfolio into the
// normalized tables. Running it again after a successful migration does
// nothing.
type MigrateLegacyUseCase struct {
	repo      portfolio.Repository
	legacy    portfolio.LegacyRepository
	cache     service.SnapshotCache
	publisher service.EventPublisher
	logger    logger.Logger
	now       func() time.Time
}

func NewMigrateLegacyUseCase(
	repo portfolio.Repository,
	legacy portfolio.LegacyRepository,
	cache service.SnapshotCache,
	publisher service.EventPublisher,
	log logger.Logger,
) *MigrateLegacyUseCase {
	return &MigrateLegacyUseCase{repo: repo, legacy: legacy, cache: cache, publisher: publisher, logger: log, now: time.Now}
}

type MigrateOutput struct {
	Migrated bool
	Version  int64
	Message  string
}

type CleanupOutput struct {
	Removed int64
	Dropped bool
	Message string
}

func (uc *MigrateLegacyUseCase) Execute(ctx context.Context) (*MigrateOutput, error) {
	ctx, span := tracer.Start(ctx, "MigrateLegacy")
	defer span.End()

	if err := uc.repo.Ready(ctx); err != nil {
		return nil, unavailable(err)
	}

	_, err := uc.repo.Find(ctx)
	if err == nil {
		return &MigrateOutput{Message: "Portfolio already uses the normalized schema"}, nil
	}
	if !errors.Is(err, portfolio.ErrPortfolioNotFound) {
		span.RecordError(err)
		return nil, repoError("failed to load portfolio", err)
	}

	legacy, err := uc.legacy.FindLegacy(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, repoError("failed to read legacy portfolio", err)
	}
	if legacy == nil {
		return &MigrateOutput{Message: "No legacy portfolio to migrate"}, nil
	}

	patch, err := portfolio.ParsePatch(legacy.Data)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.NewInvalidInput(fmt.Sprintf("legacy portfolio %d is malformed", legacy.ID), err)
	}

	p := newPortfolio(uc.now())
	p.Apply(patch, false)
	doc := patch.Document
	portfolio.Normalize(&doc, portfolio.AllSections)

	if err := uc.repo.Save(ctx, p, doc, portfolio.AllSections); err != nil {
		span.RecordError(err)
		return nil, repoError("failed to store migrated portfolio", err)
	}

	if err := uc.legacy.DeleteLegacy(ctx, legacy.ID); err != nil {
		uc.logger.Warn("Migrated portfolio but could not delete legacy record", zap.Int64("legacy_id", legacy.ID), zap.Error(err))
	} else if dropped, err := uc.legacy.DropLegacyIfEmpty(ctx); err != nil {
		uc.logger.Warn("Could not drop legacy table", zap.Error(err))
	} else if dropped {
		uc.logger.Info("Dropped empty legacy portfolio table")
	}

	invalidateAndPublish(ctx, uc.cache, uc.publisher, uc.logger,
		portfolio.NewEvent(portfolio.EventMigrated, p, portfolio.AllSections, false))

	uc.logger.Info("Migrated legacy portfolio",
		zap.Int64("legacy_id", legacy.ID),
		zap.Int64("version", p.Version()),
		zap.Int("projects", len(doc.Projects)),
	)
	return &MigrateOutput{Migrated: true, Version: p.Version(), Message: "Legacy portfolio migrated"}, nil
}

// ExecuteCleanup removes legacy records once the normalized aggregate exists.
func (uc *MigrateLegacyUseCase) ExecuteCleanup(ctx context.Context) (*CleanupOutput, error) {
	ctx, span := tracer.Start(ctx, "CleanupLegacy")
	defer span.End()

	if err := uc.repo.Ready(ctx); err != nil {
		return nil, unavailable(err)
	}

	if _, err := uc.repo.Find(ctx); err != nil {
		if errors.Is(err, portfolio.ErrPortfolioNotFound) {
			return &CleanupOutput{Message: "Normalized portfolio not found, legacy data kept"}, nil
		}
		span.RecordError(err)
		return nil, repoError("failed to load portfolio", err)
	}

	removed, dropped, err := uc.legacy.Cleanup(ctx)
	if err != nil {
		span.RecordError(err)
		uc.logger.Error("Legacy cleanup failed", err)
		return nil, repoError("failed to clean up legacy portfolio", err)
	}

	msg := "No legacy data to clean up"
	if removed > 0 || dropped {
		msg = fmt.Sprintf("Removed %d legacy record(s)", removed)
		if dropped {
			msg += " and dropped the legacy table"
		}
	}
	uc.logger.Info("Legacy cleanup finished", zap.Int64("removed", removed), zap.Bool("dropped", dropped))
	return &CleanupOutput{Removed: removed, Dropped: dropped, Message: msg}, nil
}
