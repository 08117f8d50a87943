package repository

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/namerapp/namer/internal/domain"
)

func TestFilesystemBlobStore_SaveAndOpen(t *testing.T) {
	store, err := NewFilesystemBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemBlobStore() failed: %v", err)
	}
	ctx := context.Background()

	payload := []byte("file contents")
	n, err := store.Save(ctx, "key1", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if n != int64(len(payload)) {
		t.Errorf("Save() wrote %d bytes, want %d", n, len(payload))
	}

	rc, err := store.Open(ctx, "key1")
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload = %q, want %q", got, payload)
	}
}

func TestFilesystemBlobStore_Open_Missing(t *testing.T) {
	store, err := NewFilesystemBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemBlobStore() failed: %v", err)
	}

	if _, err := store.Open(context.Background(), "missing"); err != domain.ErrBlobNotFound {
		t.Errorf("Open() error = %v, want ErrBlobNotFound", err)
	}
}

func TestFilesystemBlobStore_Remove(t *testing.T) {
	store, err := NewFilesystemBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemBlobStore() failed: %v", err)
	}
	ctx := context.Background()

	store.Save(ctx, "key1", strings.NewReader("data"))

	if err := store.Remove(ctx, "key1"); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if _, err := store.Open(ctx, "key1"); err != domain.ErrBlobNotFound {
		t.Error("blob should be gone after Remove()")
	}
}

func TestFilesystemBlobStore_Remove_MissingIsNoop(t *testing.T) {
	store, err := NewFilesystemBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemBlobStore() failed: %v", err)
	}

	if err := store.Remove(context.Background(), "missing"); err != nil {
		t.Errorf("Remove() of missing key should be a no-op, got %v", err)
	}
}
