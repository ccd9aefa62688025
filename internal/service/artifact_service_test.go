package service_test

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/projecthub-edu/projecthub-api/internal/backend"
	"github.com/projecthub-edu/projecthub-api/internal/repository"
	"github.com/projecthub-edu/projecthub-api/internal/service"
	"github.com/projecthub-edu/projecthub-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newArtifactService(t *testing.T, db *gorm.DB, client *backend.Client) *service.ArtifactService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return service.NewArtifactService(repository.NewArtifactRepository(db), store, client, zap.NewNop())
}

func metadataBackend(t *testing.T, forwarded *atomic.Int64) *backend.Client {
	return fakeBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/artifacts") {
			forwarded.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]int64{"id": 1})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
}

func TestArtifactService_UploadAndDownload(t *testing.T) {
	db := setupTestDB(t)
	var forwarded atomic.Int64
	svc := newArtifactService(t, db, metadataBackend(t, &forwarded))

	ctx := studentContext(101)
	content := "final report draft"
	dto, err := svc.Upload(ctx, 42, "report.pdf", "application/pdf", strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, int64(42), dto.DeliverableID)
	assert.Equal(t, int64(101), dto.UploadedBy)
	assert.Equal(t, int64(len(content)), dto.SizeBytes)
	assert.NotEmpty(t, dto.Checksum)
	assert.Equal(t, int64(1), forwarded.Load())

	artifact, reader, err := svc.Download(ctx, dto.ID)
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
	assert.Equal(t, "report.pdf", artifact.FileName)
}

func TestArtifactService_UploadSurvivesUpstreamOutage(t *testing.T) {
	db := setupTestDB(t)
	// A backend that rejects everything; the metadata forward is best-effort
	svc := newArtifactService(t, db, fakeBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})))

	dto, err := svc.Upload(studentContext(101), 42, "slides.pdf", "application/pdf", strings.NewReader("x"))
	require.NoError(t, err)

	artifacts, err := svc.ListByDeliverable(studentContext(101), 42)
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, dto.ID, artifacts[0].ID)
}

func TestArtifactService_DownloadNotFound(t *testing.T) {
	db := setupTestDB(t)
	var forwarded atomic.Int64
	svc := newArtifactService(t, db, metadataBackend(t, &forwarded))

	_, _, err := svc.Download(studentContext(101), uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestArtifactService_DeletePermissions(t *testing.T) {
	db := setupTestDB(t)
	var forwarded atomic.Int64
	svc := newArtifactService(t, db, metadataBackend(t, &forwarded))

	dto, err := svc.Upload(studentContext(101), 42, "report.pdf", "application/pdf", strings.NewReader("abc"))
	require.NoError(t, err)

	// Another student cannot delete it
	assert.ErrorIs(t, svc.Delete(studentContext(202), dto.ID), service.ErrPermissionDenied)

	// A teacher can
	require.NoError(t, svc.Delete(teacherContext(), dto.ID))
	assert.ErrorIs(t, svc.Delete(teacherContext(), dto.ID), service.ErrNotFound)
}

func TestArtifactService_DeleteByUploader(t *testing.T) {
	db := setupTestDB(t)
	var forwarded atomic.Int64
	svc := newArtifactService(t, db, metadataBackend(t, &forwarded))

	dto, err := svc.Upload(studentContext(101), 42, "notes.txt", "text/plain", strings.NewReader("abc"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(studentContext(101), dto.ID))

	artifacts, err := svc.ListByDeliverable(studentContext(101), 42)
	require.NoError(t, err)
	assert.Empty(t, artifacts)
}
