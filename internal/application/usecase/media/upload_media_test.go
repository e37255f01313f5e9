package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/portfolio-site/pkg/apperror"
	"github.com/khoahotran/portfolio-site/pkg/logger"
)

type fakeUploader struct {
	folder, publicID string
	body             []byte
	err              error
}

func (f *fakeUploader) Upload(_ context.Context, file io.Reader, folder, publicID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.folder, f.publicID = folder, publicID
	f.body, _ = io.ReadAll(file)
	return "https://cdn.example/" + folder + "/" + publicID, nil
}

func (f *fakeUploader) UploadRaw(ctx context.Context, file io.Reader, folder, publicID string) (string, error) {
	return f.Upload(ctx, file, folder, publicID)
}

func (f *fakeUploader) Delete(context.Context, string) error { return nil }

func (f *fakeUploader) TransformURL(publicID, transformation string) (string, error) {
	return "https://cdn.example/" + transformation + "/" + publicID, nil
}

func TestUploadMedia_Success(t *testing.T) {
	up := &fakeUploader{}
	uc := NewUploadMediaUseCase(up, logger.NewNopLogger())

	out, err := uc.Execute(context.Background(), UploadMediaInput{
		File:        bytes.NewReader([]byte("png")),
		Size:        3,
		ContentType: "image/png",
		Folder:      "Gallery",
	})

	require.NoError(t, err)
	assert.Equal(t, "portfolio/gallery", up.folder)
	assert.Equal(t, []byte("png"), up.body)
	assert.Equal(t, "portfolio/gallery/"+up.publicID, out.PublicID)
	assert.Contains(t, out.ThumbnailURL, "c_limit,w_400")
}

func TestUploadMedia_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		uploader *fakeUploader
		input    UploadMediaInput
		want     error
	}{
		{"too large", &fakeUploader{}, UploadMediaInput{Size: MaxImageBytes + 1, ContentType: "image/jpeg"}, apperror.ErrTooLarge},
		{"not an image", &fakeUploader{}, UploadMediaInput{Size: 10, ContentType: "application/pdf"}, apperror.ErrInvalidInput},
		{"unknown folder", &fakeUploader{}, UploadMediaInput{Size: 10, ContentType: "image/png", Folder: "../etc"}, apperror.ErrInvalidInput},
		{"upload fails", &fakeUploader{err: errors.New("boom")}, UploadMediaInput{File: bytes.NewReader(nil), ContentType: "image/png"}, apperror.ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewUploadMediaUseCase(tt.uploader, logger.NewNopLogger())
			_, err := uc.Execute(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUploadMedia_NotConfigured(t *testing.T) {
	uc := NewUploadMediaUseCase(nil, logger.NewNopLogger())

	_, err := uc.Execute(context.Background(), UploadMediaInput{ContentType: "image/png"})

	assert.ErrorIs(t, err, apperror.ErrUnavailable)
}
