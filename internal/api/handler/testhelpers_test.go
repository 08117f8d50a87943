package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"testing"
	"time"

	"github.com/namerapp/namer/internal/config"
	"github.com/namerapp/namer/internal/domain"
	"github.com/namerapp/namer/internal/repository"
	"github.com/namerapp/namer/internal/service"
)

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	sessions  *repository.InMemorySessionRepository
	blobs     *repository.FilesystemBlobStore
	sessionH  *SessionHandler
	exportH   *ExportHandler
	svc       *service.SessionService
	exportSvc *service.ExportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	sessions := repository.NewInMemorySessionRepository()
	blobs, err := repository.NewFilesystemBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemBlobStore() error = %v", err)
	}

	events, err := service.NewEventService(service.EventServiceConfig{RingBufferSize: 100}, testLogger())
	if err != nil {
		t.Fatalf("NewEventService() error = %v", err)
	}
	t.Cleanup(func() { events.Close() })

	sessionCfg := config.SessionConfig{TTL: time.Hour, SweepInterval: time.Minute, MaxEntries: 10}
	storageCfg := config.StorageConfig{StagingPath: t.TempDir(), MaxUploadSize: 1 << 20}

	svc := service.NewSessionService(sessions, blobs, sessionCfg, storageCfg, events, testLogger())
	exportSvc := service.NewExportService(sessions, blobs, events, testLogger())

	return &testEnv{
		sessions:  sessions,
		blobs:     blobs,
		sessionH:  NewSessionHandler(svc, storageCfg.MaxUploadSize, testLogger()),
		exportH:   NewExportHandler(exportSvc, testLogger()),
		svc:       svc,
		exportSvc: exportSvc,
	}
}

// newSession creates a session through the service layer and returns its ID.
func (e *testEnv) newSession(t *testing.T) domain.SessionID {
	t.Helper()

	session, err := e.svc.Create(context.Background())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return session.ID
}

// stageFile stages one file into a session through the service layer.
func (e *testEnv) stageFile(t *testing.T, id domain.SessionID, name, content string) *domain.FileEntry {
	t.Helper()

	added, err := e.svc.AddFiles(context.Background(), id, []service.UploadFile{
		{Name: name, Size: int64(len(content)), Reader: bytes.NewReader([]byte(content))},
	})
	if err != nil {
		t.Fatalf("AddFiles(%q) error = %v", name, err)
	}
	return added[0]
}

// multipartBody builds a multipart request body with one "files" part per
// given name/content pair.
func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("CreateFormFile(%q) error = %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write part %q: %v", name, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}
