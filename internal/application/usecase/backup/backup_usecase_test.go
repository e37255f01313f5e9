package backup

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-site/pkg/logger"
)

type staticReader struct{ snap portfolio.Snapshot }

func (r staticReader) ExecuteFull(context.Context) portfolio.Snapshot { return r.snap }

type rawUploader struct {
	folder, publicID string
	body             []byte
}

func (u *rawUploader) Upload(context.Context, io.Reader, string, string) (string, error) {
	panic("images are not uploaded by backups")
}

func (u *rawUploader) UploadRaw(_ context.Context, file io.Reader, folder, publicID string) (string, error) {
	u.folder, u.publicID = folder, publicID
	u.body, _ = io.ReadAll(file)
	return "https://cdn.example/raw/" + publicID, nil
}

func (u *rawUploader) Delete(context.Context, string) error { return nil }

func (u *rawUploader) TransformURL(string, string) (string, error) { return "", nil }

func TestBackup_UploadsSnapshot(t *testing.T) {
	doc := portfolio.DefaultDocument()
	doc.Personal.Name = "Ada"
	up := &rawUploader{}
	uc := NewBackupUseCase(staticReader{portfolio.Snapshot{Document: doc, Version: 1700000000000, IsCustomized: true}}, up, logger.NewNopLogger())

	out, err := uc.Execute(context.Background(), portfolio.Event{Type: portfolio.EventSaved, Version: 1700000000000})

	require.NoError(t, err)
	assert.False(t, out.Skipped)
	assert.Equal(t, "backups/portfolio", up.folder)
	assert.Equal(t, "portfolio-1700000000000.json", up.publicID)

	var stored map[string]any
	require.NoError(t, json.Unmarshal(up.body, &stored))
	assert.Equal(t, "portfolio.saved", stored["event"])
	assert.Equal(t, "Ada", stored["data"].(map[string]any)["personal"].(map[string]any)["name"])
}

func TestBackup_SkipsDefaults(t *testing.T) {
	up := &rawUploader{}
	uc := NewBackupUseCase(staticReader{portfolio.DefaultSnapshot()}, up, logger.NewNopLogger())

	out, err := uc.Execute(context.Background(), portfolio.Event{Type: portfolio.EventReset})

	require.NoError(t, err)
	assert.True(t, out.Skipped)
	assert.Empty(t, up.publicID)
}
