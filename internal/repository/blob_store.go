package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/namerapp/namer/internal/domain"
)

// FilesystemBlobStore implements BlobStore on a staging directory. Each
// payload lives in one file named by its key. Keys are generated internally
// (UUIDs), never taken from user input.
type FilesystemBlobStore struct {
	dir string
}

// NewFilesystemBlobStore creates a blob store rooted at dir. The directory
// is created if missing.
func NewFilesystemBlobStore(dir string) (*FilesystemBlobStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	return &FilesystemBlobStore{dir: dir}, nil
}

// Save writes the payload under key and returns the byte count.
func (s *FilesystemBlobStore) Save(ctx context.Context, key string, r io.Reader) (int64, error) {
	path := s.path(key)

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create blob file: %w", err)
	}

	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(path)
		return 0, fmt.Errorf("write blob: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("close blob file: %w", err)
	}

	return n, nil
}

// Open returns a reader over the payload. The caller closes it.
func (s *FilesystemBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrBlobNotFound
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

// Remove deletes the payload. Removing a missing key is not an error.
func (s *FilesystemBlobStore) Remove(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}

func (s *FilesystemBlobStore) path(key string) string {
	return filepath.Join(s.dir, key)
}
