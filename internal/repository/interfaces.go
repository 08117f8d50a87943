package repository

import (
	"context"
	"io"
	"time"

	"github.com/namerapp/namer/internal/domain"
)

// SessionRepository manages staged rename sessions. Implementations hand out
// session clones; all mutations go through repository methods.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, s *domain.Session) error

	// Get retrieves a session by ID.
	Get(ctx context.Context, id domain.SessionID) (*domain.Session, error)

	// Delete removes a session.
	Delete(ctx context.Context, id domain.SessionID) error

	// Touch updates the session's last-active timestamp.
	Touch(ctx context.Context, id domain.SessionID, at time.Time) error

	// AddEntry appends an entry to a session, preserving add order.
	AddEntry(ctx context.Context, id domain.SessionID, e *domain.FileEntry) error

	// UpdateEntry applies a partial edit to an entry and returns the result.
	UpdateEntry(ctx context.Context, id domain.SessionID, entryID domain.EntryID, update domain.EntryUpdate) (*domain.FileEntry, error)

	// RemoveEntry removes one entry and returns it.
	RemoveEntry(ctx context.Context, id domain.SessionID, entryID domain.EntryID) (*domain.FileEntry, error)

	// ClearEntries removes all entries and returns them.
	ClearEntries(ctx context.Context, id domain.SessionID) ([]*domain.FileEntry, error)

	// SetPrefix replaces the session's prefix configuration.
	SetPrefix(ctx context.Context, id domain.SessionID, cfg domain.PrefixConfig) error

	// ExpireBefore removes sessions last active before the cutoff and
	// returns them so callers can release their staged payloads.
	ExpireBefore(ctx context.Context, cutoff time.Time) ([]*domain.Session, error)

	// Count returns the number of live sessions.
	Count(ctx context.Context) (int, error)
}

// BlobStore holds staged file payloads keyed by opaque keys.
type BlobStore interface {
	// Save writes the payload under key and returns the byte count.
	Save(ctx context.Context, key string, r io.Reader) (int64, error)

	// Open returns a reader over the payload. The caller closes it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Remove deletes the payload. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}
