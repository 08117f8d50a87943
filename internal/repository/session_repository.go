package repository

import (
	"context"
	"sync"
	"time"

	"github.com/namerapp/namer/internal/domain"
)

// InMemorySessionRepository implements SessionRepository using in-memory
// storage. Sessions live only for the lifetime of the process; nothing is
// persisted.
type InMemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*domain.Session
}

// NewInMemorySessionRepository creates a new in-memory session repository.
func NewInMemorySessionRepository() *InMemorySessionRepository {
	return &InMemorySessionRepository{
		sessions: make(map[domain.SessionID]*domain.Session),
	}
}

// Create stores a new session.
func (r *InMemorySessionRepository) Create(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s.ID] = s.Clone()
	return nil
}

// Get retrieves a session clone by ID.
func (r *InMemorySessionRepository) Get(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	return s.Clone(), nil
}

// Delete removes a session.
func (r *InMemorySessionRepository) Delete(ctx context.Context, id domain.SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}

	delete(r.sessions, id)
	return nil
}

// Touch updates the session's last-active timestamp.
func (r *InMemorySessionRepository) Touch(ctx context.Context, id domain.SessionID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}

	s.LastActive = at
	return nil
}

// AddEntry appends an entry to a session, preserving add order.
func (r *InMemorySessionRepository) AddEntry(ctx context.Context, id domain.SessionID, e *domain.FileEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}

	entry := *e
	s.Entries = append(s.Entries, &entry)
	return nil
}

// UpdateEntry applies a partial edit to an entry and returns the result.
func (r *InMemorySessionRepository) UpdateEntry(ctx context.Context, id domain.SessionID, entryID domain.EntryID, update domain.EntryUpdate) (*domain.FileEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	e := s.Entry(entryID)
	if e == nil {
		return nil, domain.ErrEntryNotFound
	}

	if update.NewBaseName != nil {
		e.NewBaseName = *update.NewBaseName
	}
	if update.ReceiverName != nil {
		e.ReceiverName = *update.ReceiverName
	}

	result := *e
	return &result, nil
}

// RemoveEntry removes one entry and returns it.
func (r *InMemorySessionRepository) RemoveEntry(ctx context.Context, id domain.SessionID, entryID domain.EntryID) (*domain.FileEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	for i, e := range s.Entries {
		if e.ID == entryID {
			s.Entries = append(s.Entries[:i], s.Entries[i+1:]...)
			return e, nil
		}
	}

	return nil, domain.ErrEntryNotFound
}

// ClearEntries removes all entries and returns them.
func (r *InMemorySessionRepository) ClearEntries(ctx context.Context, id domain.SessionID) ([]*domain.FileEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	removed := s.Entries
	s.Entries = nil
	return removed, nil
}

// SetPrefix replaces the session's prefix configuration.
func (r *InMemorySessionRepository) SetPrefix(ctx context.Context, id domain.SessionID, cfg domain.PrefixConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}

	s.Prefix = cfg
	return nil
}

// ExpireBefore removes sessions last active before the cutoff and returns
// them so callers can release their staged payloads.
func (r *InMemorySessionRepository) ExpireBefore(ctx context.Context, cutoff time.Time) ([]*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []*domain.Session
	for id, s := range r.sessions {
		if s.LastActive.Before(cutoff) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}

	return expired, nil
}

// Count returns the number of live sessions.
func (r *InMemorySessionRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions), nil
}

// Clear removes all sessions (useful for testing).
func (r *InMemorySessionRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions = make(map[domain.SessionID]*domain.Session)
}
