package service

import (
	"context"
	"io"
)

type Uploader interface {
	// Upload stores an image and returns its secure URL.
	Upload(ctx context.Context, file io.Reader, folder string, publicID string) (string, error)
	// UploadRaw stores a non-image file such as a JSON backup.
	UploadRaw(ctx context.Context, file io.Reader, folder string, publicID string) (string, error)
	Delete(ctx context.Context, publicID string) error
	// TransformURL builds a delivery URL for publicID with a transformation
	// string such as "c_limit,w_400".
	TransformURL(publicID string, transformation string) (string, error)
}
