package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/namerapp/namer/internal/config"
	"github.com/namerapp/namer/internal/domain"
	"github.com/namerapp/namer/internal/naming"
	"github.com/namerapp/namer/internal/repository"
)

// SessionService manages rename sessions: staging uploaded files, editing
// per-entry name fragments, and the session's prefix configuration.
type SessionService struct {
	sessions   repository.SessionRepository
	blobs      repository.BlobStore
	sessionCfg config.SessionConfig
	storageCfg config.StorageConfig
	events     domain.EventEmitter
	logger     *slog.Logger

	now func() time.Time // Overridable for tests
}

// NewSessionService creates a new session service.
func NewSessionService(
	sessions repository.SessionRepository,
	blobs repository.BlobStore,
	sessionCfg config.SessionConfig,
	storageCfg config.StorageConfig,
	events domain.EventEmitter,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		sessions:   sessions,
		blobs:      blobs,
		sessionCfg: sessionCfg,
		storageCfg: storageCfg,
		events:     events,
		logger:     logger,
		now:        time.Now,
	}
}

// UploadFile is one file carried by an upload request.
type UploadFile struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// Create starts a new session with a prefix configuration seeded from the
// current date.
func (s *SessionService) Create(ctx context.Context) (*domain.Session, error) {
	now := s.now()
	session := &domain.Session{
		ID:         domain.SessionID(uuid.New().String()),
		Prefix:     domain.DefaultPrefixConfig(now),
		CreatedAt:  now,
		LastActive: now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, domain.NewSessionError(session.ID, "create session", err)
	}

	s.events.EmitInfo(domain.EventCategorySession, "session", "session created",
		domain.EventMetadata{"session_id": session.ID.String()})

	return session, nil
}

// Get returns a session and marks it active.
func (s *SessionService) Get(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.touch(ctx, id)

	return session, nil
}

// touch marks a session active. A failure only shortens the session's
// remaining TTL, so it is logged rather than returned.
func (s *SessionService) touch(ctx context.Context, id domain.SessionID) {
	if err := s.sessions.Touch(ctx, id, s.now()); err != nil {
		s.logger.Warn("failed to touch session", "session_id", id, "error", err)
	}
}

// Delete removes a session and releases its staged payloads.
func (s *SessionService) Delete(ctx context.Context, id domain.SessionID) error {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.sessions.Delete(ctx, id); err != nil {
		return err
	}

	s.releaseBlobs(ctx, session.Entries)

	s.events.EmitInfo(domain.EventCategorySession, "session", "session deleted",
		domain.EventMetadata{"session_id": id.String(), "entries": len(session.Entries)})

	return nil
}

// AddFiles stages uploaded files as new entries. The base name and extension
// are split once here; the extension is never recomputed afterwards.
func (s *SessionService) AddFiles(ctx context.Context, id domain.SessionID, files []UploadFile) ([]*domain.FileEntry, error) {
	if len(files) == 0 {
		return nil, domain.ErrNoFiles
	}

	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(session.Entries)+len(files) > s.sessionCfg.MaxEntries {
		return nil, domain.NewSessionError(id, "add files", domain.ErrSessionFull)
	}

	added := make([]*domain.FileEntry, 0, len(files))
	for _, f := range files {
		if strings.TrimSpace(f.Name) == "" {
			s.releaseBlobs(ctx, added)
			return nil, domain.ErrEmptyFilename
		}
		if s.storageCfg.MaxUploadSize > 0 && f.Size > s.storageCfg.MaxUploadSize {
			s.releaseBlobs(ctx, added)
			return nil, domain.NewSessionError(id, "add files", domain.ErrFileTooLarge)
		}

		key := uuid.New().String()
		n, err := s.blobs.Save(ctx, key, f.Reader)
		if err != nil {
			s.releaseBlobs(ctx, added)
			return nil, domain.NewSessionError(id, "stage payload", err)
		}

		base, ext := naming.SplitName(f.Name)
		added = append(added, &domain.FileEntry{
			ID:           domain.EntryID(uuid.New().String()),
			OriginalName: f.Name,
			NewBaseName:  base,
			Extension:    ext,
			Size:         n,
			BlobKey:      key,
			AddedAt:      s.now(),
		})
	}

	for _, e := range added {
		if err := s.sessions.AddEntry(ctx, id, e); err != nil {
			s.releaseBlobs(ctx, added)
			return nil, domain.NewSessionError(id, "add entry", err)
		}
	}

	s.touch(ctx, id)

	s.events.EmitSuccess(domain.EventCategoryUpload, "session",
		fmt.Sprintf("staged %d file(s)", len(added)),
		domain.EventMetadata{"session_id": id.String(), "count": len(added)})

	return added, nil
}

// UpdateEntry edits an entry's base name or receiver name in place.
func (s *SessionService) UpdateEntry(ctx context.Context, id domain.SessionID, entryID domain.EntryID, update domain.EntryUpdate) (*domain.FileEntry, error) {
	if update.NewBaseName != nil && strings.TrimSpace(*update.NewBaseName) == "" {
		return nil, domain.ErrEmptyBaseName
	}

	entry, err := s.sessions.UpdateEntry(ctx, id, entryID, update)
	if err != nil {
		return nil, err
	}

	s.touch(ctx, id)

	s.events.EmitInfo(domain.EventCategoryRename, "session", "entry edited",
		domain.EventMetadata{"session_id": id.String(), "entry_id": entryID.String()})

	return entry, nil
}

// RemoveEntry removes one entry and releases its payload. Remaining entries
// are untouched.
func (s *SessionService) RemoveEntry(ctx context.Context, id domain.SessionID, entryID domain.EntryID) error {
	entry, err := s.sessions.RemoveEntry(ctx, id, entryID)
	if err != nil {
		return err
	}

	if err := s.blobs.Remove(ctx, entry.BlobKey); err != nil {
		s.logger.Warn("failed to remove staged payload", "blob_key", entry.BlobKey, "error", err)
	}

	s.touch(ctx, id)
	return nil
}

// ClearEntries removes all entries and releases their payloads.
func (s *SessionService) ClearEntries(ctx context.Context, id domain.SessionID) error {
	removed, err := s.sessions.ClearEntries(ctx, id)
	if err != nil {
		return err
	}

	s.releaseBlobs(ctx, removed)
	s.touch(ctx, id)

	s.events.EmitInfo(domain.EventCategorySession, "session", "session cleared",
		domain.EventMetadata{"session_id": id.String(), "entries": len(removed)})

	return nil
}

// SetPrefix replaces the session's prefix configuration.
func (s *SessionService) SetPrefix(ctx context.Context, id domain.SessionID, cfg domain.PrefixConfig) error {
	if err := validatePrefixConfig(cfg); err != nil {
		return err
	}

	if err := s.sessions.SetPrefix(ctx, id, cfg); err != nil {
		return err
	}

	s.touch(ctx, id)
	return nil
}

// SweepExpired removes sessions idle past the TTL and releases their
// payloads. Returns the number of sessions removed.
func (s *SessionService) SweepExpired(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.sessionCfg.TTL)

	expired, err := s.sessions.ExpireBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("expire sessions: %w", err)
	}

	for _, session := range expired {
		s.releaseBlobs(ctx, session.Entries)
		s.events.EmitInfo(domain.EventCategorySession, "janitor", "session expired",
			domain.EventMetadata{"session_id": session.ID.String(), "entries": len(session.Entries)})
	}

	return len(expired), nil
}

func (s *SessionService) releaseBlobs(ctx context.Context, entries []*domain.FileEntry) {
	for _, e := range entries {
		if e.BlobKey == "" {
			continue
		}
		if err := s.blobs.Remove(ctx, e.BlobKey); err != nil {
			s.logger.Warn("failed to remove staged payload", "blob_key", e.BlobKey, "error", err)
		}
	}
}

func validatePrefixConfig(cfg domain.PrefixConfig) error {
	if cfg.Year < 1 || cfg.Year > 9999 {
		return fmt.Errorf("%w: year %d out of range", domain.ErrInvalidPrefixConfig, cfg.Year)
	}
	if cfg.Month < 1 || cfg.Month > 12 {
		return fmt.Errorf("%w: month %d out of range", domain.ErrInvalidPrefixConfig, cfg.Month)
	}
	if cfg.IncludeDay && (cfg.Day < 1 || cfg.Day > 31) {
		return fmt.Errorf("%w: day %d out of range", domain.ErrInvalidPrefixConfig, cfg.Day)
	}
	return nil
}
