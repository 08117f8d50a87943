package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/namerapp/namer/internal/config"
	"github.com/namerapp/namer/internal/repository"
)

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEventService(t *testing.T) *EventService {
	t.Helper()
	svc, err := NewEventService(EventServiceConfig{RingBufferSize: 64}, testLogger())
	if err != nil {
		t.Fatalf("failed to create event service: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

func newTestSessionService(t *testing.T) (*SessionService, *repository.InMemorySessionRepository, *repository.FilesystemBlobStore) {
	t.Helper()

	sessions := repository.NewInMemorySessionRepository()
	blobs, err := repository.NewFilesystemBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create blob store: %v", err)
	}

	svc := NewSessionService(
		sessions,
		blobs,
		config.SessionConfig{TTL: time.Hour, MaxEntries: 10},
		config.StorageConfig{MaxUploadSize: 1 << 20},
		testEventService(t),
		testLogger(),
	)
	return svc, sessions, blobs
}

func newTestExportService(t *testing.T, sessions *repository.InMemorySessionRepository, blobs *repository.FilesystemBlobStore) *ExportService {
	t.Helper()
	return NewExportService(sessions, blobs, testEventService(t), testLogger())
}
