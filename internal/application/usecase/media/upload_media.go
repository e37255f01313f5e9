package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/khoahotran/portfolio-site/internal/application/service"
	"github.com/khoahotran/portfolio-site/pkg/apperror"
	"github.com/khoahotran/portfolio-site/pkg/logger"
)

const (
	// MaxImageBytes mirrors the size check the admin dashboard applies
	// before it sends an image.
	MaxImageBytes = 5 << 20

	rootFolder         = "portfolio"
	thumbnailTransform = "c_limit,w_400"
	defaultMediaFolder = "misc"
)

var allowedFolders = map[string]bool{
	"avatar":       true,
	"projects":     true,
	"certificates": true,
	"gallery":      true,
	"misc":         true,
}

var tracer = otel.Tracer("media_usecase")

type UploadMediaUseCase struct {
	uploader service.Uploader
	logger   logger.Logger
}

// NewUploadMediaUseCase accepts a nil uploader; uploads then answer 503.
func NewUploadMediaUseCase(u service.Uploader, log logger.Logger) *UploadMediaUseCase {
	return &UploadMediaUseCase{uploader: u, logger: log}
}

type UploadMediaInput struct {
	File        io.Reader
	Size        int64
	ContentType string
	Folder      string
}

type UploadMediaOutput struct {
	URL          string
	ThumbnailURL string
	PublicID     string
}

func (uc *UploadMediaUseCase) Execute(ctx context.Context, input UploadMediaInput) (*UploadMediaOutput, error) {
	ctx, span := tracer.Start(ctx, "Upload")
	defer span.End()

	if uc.uploader == nil {
		return nil, apperror.NewUnavailable("Media storage not configured", "Set CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET", nil)
	}
	if input.Size > MaxImageBytes {
		return nil, apperror.NewTooLarge(fmt.Sprintf("image is %d bytes, the limit is %d", input.Size, MaxImageBytes))
	}
	if !strings.HasPrefix(input.ContentType, "image/") {
		return nil, apperror.NewInvalidInput("only image uploads are accepted", nil)
	}

	folder := strings.ToLower(strings.TrimSpace(input.Folder))
	if folder == "" {
		folder = defaultMediaFolder
	}
	if !allowedFolders[folder] {
		return nil, apperror.NewInvalidInput(fmt.Sprintf("unknown media folder %q", input.Folder), nil)
	}
	folder = path.Join(rootFolder, folder)
	publicID := uuid.NewString()

	url, err := uc.uploader.Upload(ctx, io.LimitReader(input.File, MaxImageBytes+1), folder, publicID)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.NewInternal("failed to upload image", err)
	}

	fullID := path.Join(folder, publicID)
	thumb, err := uc.uploader.TransformURL(fullID, thumbnailTransform)
	if err != nil {
		uc.logger.Warn("Failed to build thumbnail URL", zap.String("public_id", fullID), zap.Error(err))
		thumb = url
	}

	uc.logger.Info("Uploaded image", zap.String("public_id", fullID), zap.Int64("size", input.Size))
	return &UploadMediaOutput{URL: url, ThumbnailURL: thumb, PublicID: fullID}, nil
}
