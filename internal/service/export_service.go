package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/namerapp/namer/internal/domain"
	"github.com/namerapp/namer/internal/naming"
	"github.com/namerapp/namer/internal/repository"
	"github.com/namerapp/namer/pkg/crypto"
)

// ExportService turns a session's staged entries into a download: a direct
// single-file download, or a zip archive for two or more entries. Export is
// read-only over the session; payloads are never mutated.
type ExportService struct {
	sessions repository.SessionRepository
	blobs    repository.BlobStore
	events   domain.EventEmitter
	logger   *slog.Logger
}

// NewExportService creates a new export service.
func NewExportService(
	sessions repository.SessionRepository,
	blobs repository.BlobStore,
	events domain.EventEmitter,
	logger *slog.Logger,
) *ExportService {
	return &ExportService{
		sessions: sessions,
		blobs:    blobs,
		events:   events,
		logger:   logger,
	}
}

// SingleFile describes a direct download of one entry's payload.
type SingleFile struct {
	Filename string
	Size     int64
	BlobKey  string
}

// ArchiveMember is one entry's payload under its computed name inside an
// archive.
type ArchiveMember struct {
	Path    string
	Size    int64
	BlobKey string
}

// Archive describes a multi-file zip download.
type Archive struct {
	Filename string
	Members  []ArchiveMember
}

// ExportPlan is the computed output for one export invocation. Exactly one
// of Single and Archive is set unless Empty is true.
type ExportPlan struct {
	SessionID domain.SessionID
	Empty     bool
	Single    *SingleFile
	Archive   *Archive
}

// Plan computes final names for every staged entry and selects the output
// format: no entries is a no-op, one entry downloads directly, more get
// archived. Duplicate final names within an archive are numbered in entry
// order.
func (s *ExportService) Plan(ctx context.Context, id domain.SessionID) (*ExportPlan, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	plan := &ExportPlan{SessionID: id}

	switch len(session.Entries) {
	case 0:
		plan.Empty = true

	case 1:
		e := session.Entries[0]
		plan.Single = &SingleFile{
			Filename: naming.FinalName(session.Prefix, e),
			Size:     e.Size,
			BlobKey:  e.BlobKey,
		}

	default:
		resolver := naming.NewCollisionResolver()
		members := make([]ArchiveMember, 0, len(session.Entries))
		for _, e := range session.Entries {
			members = append(members, ArchiveMember{
				Path:    resolver.Resolve(naming.FinalName(session.Prefix, e)),
				Size:    e.Size,
				BlobKey: e.BlobKey,
			})
		}
		plan.Archive = &Archive{
			Filename: naming.ArchiveName(session.Prefix),
			Members:  members,
		}
	}

	return plan, nil
}

// WriteSingle streams the planned single file's payload to w.
func (s *ExportService) WriteSingle(ctx context.Context, plan *ExportPlan, w io.Writer) error {
	if plan.Single == nil {
		return fmt.Errorf("plan has no single file")
	}

	rc, err := s.blobs.Open(ctx, plan.Single.BlobKey)
	if err != nil {
		return fmt.Errorf("open payload: %w", err)
	}
	defer rc.Close()

	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}

	s.events.EmitSuccess(domain.EventCategoryExport, "export", "single file downloaded",
		domain.EventMetadata{
			"session_id": plan.SessionID.String(),
			"filename":   plan.Single.Filename,
		})

	return nil
}

// WriteArchive streams the planned zip archive to w, one member per entry
// under its computed final name.
func (s *ExportService) WriteArchive(ctx context.Context, plan *ExportPlan, w io.Writer) error {
	if plan.Archive == nil {
		return fmt.Errorf("plan has no archive")
	}

	zw := zip.NewWriter(w)
	for _, m := range plan.Archive.Members {
		if err := s.writeMember(ctx, zw, m); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}

	s.events.EmitSuccess(domain.EventCategoryExport, "export", "archive downloaded",
		domain.EventMetadata{
			"session_id": plan.SessionID.String(),
			"filename":   plan.Archive.Filename,
			"members":    len(plan.Archive.Members),
		})

	return nil
}

// WriteEncryptedArchive builds the planned zip archive in memory, encrypts
// it with a key derived from password, and writes the result to w.
func (s *ExportService) WriteEncryptedArchive(ctx context.Context, plan *ExportPlan, password string, w io.Writer) error {
	if plan.Archive == nil {
		return fmt.Errorf("plan has no archive")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, m := range plan.Archive.Members {
		if err := s.writeMember(ctx, zw, m); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}

	encrypted, err := crypto.Encrypt(buf.Bytes(), password)
	if err != nil {
		return fmt.Errorf("encrypt archive: %w", err)
	}

	if _, err := w.Write(encrypted); err != nil {
		return fmt.Errorf("write encrypted archive: %w", err)
	}

	s.events.EmitSuccess(domain.EventCategoryEncryption, "export", "encrypted archive downloaded",
		domain.EventMetadata{
			"session_id": plan.SessionID.String(),
			"filename":   plan.Archive.Filename + crypto.FileExtension,
			"members":    len(plan.Archive.Members),
		})

	return nil
}

func (s *ExportService) writeMember(ctx context.Context, zw *zip.Writer, m ArchiveMember) error {
	rc, err := s.blobs.Open(ctx, m.BlobKey)
	if err != nil {
		return fmt.Errorf("open payload %s: %w", m.Path, err)
	}
	defer rc.Close()

	fw, err := zw.Create(m.Path)
	if err != nil {
		return fmt.Errorf("create archive member %s: %w", m.Path, err)
	}

	if _, err := io.Copy(fw, rc); err != nil {
		return fmt.Errorf("write archive member %s: %w", m.Path, err)
	}

	return nil
}
