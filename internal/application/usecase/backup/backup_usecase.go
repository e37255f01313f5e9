package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/portfolio-site/internal/application/service"
	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-site/pkg/apperror"
	"github.com/khoahotran/portfolio-site/pkg/logger"
)

const backupFolder = "backups/portfolio"

// SnapshotReader is the read side the backup needs; the portfolio
// GetPortfolioUseCase satisfies it.
type SnapshotReader interface {
	ExecuteFull(ctx context.Context) portfolio.Snapshot
}

type BackupUseCase struct {
	reader   SnapshotReader
	uploader service.Uploader
	logger   logger.Logger
}

func NewBackupUseCase(reader SnapshotReader, uploader service.Uploader, log logger.Logger) *BackupUseCase {
	return &BackupUseCase{
		reader:   reader,
		uploader: uploader,
		logger:   log,
	}
}

type BackupOutput struct {
	URL      string
	PublicID string
	Skipped  bool
}

// Execute uploads the current portfolio as a JSON file named after its
// version. Default content is never backed up.
func (uc *BackupUseCase) Execute(ctx context.Context, evt portfolio.Event) (*BackupOutput, error) {
	l := uc.logger.With(zap.String("event", string(evt.Type)), zap.Int64("event_version", evt.Version))

	snap := uc.reader.ExecuteFull(ctx)
	if snap.IsDefault {
		l.Warn("Portfolio unavailable, skipping backup")
		return &BackupOutput{Skipped: true}, nil
	}
	if snap.Version < evt.Version {
		l.Info("Snapshot older than event, backing up what is stored", zap.Int64("version", snap.Version))
	}

	body, err := json.MarshalIndent(struct {
		portfolio.Snapshot
		Event      portfolio.EventType `json:"event"`
		ExportedAt time.Time           `json:"exportedAt"`
	}{snap, evt.Type, time.Now().UTC()}, "", "  ")
	if err != nil {
		return nil, apperror.NewInternal("failed to encode backup", err)
	}

	publicID := fmt.Sprintf("portfolio-%d.json", snap.Version)
	url, err := uc.uploader.UploadRaw(ctx, bytes.NewReader(body), backupFolder, publicID)
	if err != nil {
		l.Error("Failed to upload backup to Cloudinary", err)
		return nil, apperror.NewInternal("failed to upload backup", err)
	}

	l.Info("Portfolio backup uploaded",
		zap.String("url", url),
		zap.String("public_id", backupFolder+"/"+publicID),
	)
	return &BackupOutput{URL: url, PublicID: backupFolder + "/" + publicID}, nil
}
