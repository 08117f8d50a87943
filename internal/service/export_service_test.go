package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/namerapp/namer/internal/domain"
	"github.com/namerapp/namer/pkg/crypto"
)

func stageSession(t *testing.T, names ...string) (*SessionService, *ExportService, domain.SessionID) {
	t.Helper()

	sessionSvc, sessions, blobs := newTestSessionService(t)
	exportSvc := newTestExportService(t, sessions, blobs)

	ctx := context.Background()
	session, err := sessionSvc.Create(ctx)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	// Fix the prefix so expected names are stable.
	if err := sessionSvc.SetPrefix(ctx, session.ID, domain.PrefixConfig{Year: 2024, Month: 3}); err != nil {
		t.Fatalf("SetPrefix() failed: %v", err)
	}

	if len(names) > 0 {
		files := make([]UploadFile, len(names))
		for i, n := range names {
			files[i] = UploadFile{Name: n, Reader: strings.NewReader("payload of " + n)}
		}
		if _, err := sessionSvc.AddFiles(ctx, session.ID, files); err != nil {
			t.Fatalf("AddFiles() failed: %v", err)
		}
	}

	return sessionSvc, exportSvc, session.ID
}

func TestExportService_Plan_Empty(t *testing.T) {
	_, exportSvc, id := stageSession(t)

	plan, err := exportSvc.Plan(context.Background(), id)
	if err != nil {
		t.Fatalf("Plan() failed: %v", err)
	}

	if !plan.Empty {
		t.Error("plan for empty session should be Empty")
	}
	if plan.Single != nil || plan.Archive != nil {
		t.Error("empty plan should carry no output")
	}
}

func TestExportService_Plan_SingleFile(t *testing.T) {
	_, exportSvc, id := stageSession(t, "report.pdf")

	plan, err := exportSvc.Plan(context.Background(), id)
	if err != nil {
		t.Fatalf("Plan() failed: %v", err)
	}

	if plan.Single == nil {
		t.Fatal("plan for one entry should be a direct download")
	}
	if plan.Archive != nil {
		t.Error("single-entry plan should not create an archive")
	}
	if plan.Single.Filename != "2024_03_report.pdf" {
		t.Errorf("filename = %q, want 2024_03_report.pdf", plan.Single.Filename)
	}
}

func TestExportService_Plan_Archive(t *testing.T) {
	_, exportSvc, id := stageSession(t, "a.txt", "b.txt")

	plan, err := exportSvc.Plan(context.Background(), id)
	if err != nil {
		t.Fatalf("Plan() failed: %v", err)
	}

	if plan.Archive == nil {
		t.Fatal("plan for two entries should be an archive")
	}
	if plan.Archive.Filename != "namer_2024_03_files.zip" {
		t.Errorf("archive filename = %q, want namer_2024_03_files.zip", plan.Archive.Filename)
	}
	if len(plan.Archive.Members) != 2 {
		t.Fatalf("member count = %d, want 2", len(plan.Archive.Members))
	}
	if plan.Archive.Members[0].Path != "2024_03_a.txt" {
		t.Errorf("member 0 = %q, want 2024_03_a.txt", plan.Archive.Members[0].Path)
	}
	if plan.Archive.Members[1].Path != "2024_03_b.txt" {
		t.Errorf("member 1 = %q, want 2024_03_b.txt", plan.Archive.Members[1].Path)
	}
}

func TestExportService_Plan_CollidingNamesNumbered(t *testing.T) {
	sessionSvc, exportSvc, id := stageSession(t, "x1.txt", "x2.txt")
	ctx := context.Background()

	// Rename both entries to the same base so their final names collide.
	session, err := sessionSvc.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	same := "dup"
	for _, e := range session.Entries {
		if _, err := sessionSvc.UpdateEntry(ctx, id, e.ID, domain.EntryUpdate{NewBaseName: &same}); err != nil {
			t.Fatalf("UpdateEntry() failed: %v", err)
		}
	}

	plan, err := exportSvc.Plan(ctx, id)
	if err != nil {
		t.Fatalf("Plan() failed: %v", err)
	}

	if plan.Archive.Members[0].Path != "2024_03_dup.txt" {
		t.Errorf("member 0 = %q, want 2024_03_dup.txt", plan.Archive.Members[0].Path)
	}
	if plan.Archive.Members[1].Path != "2024_03_dup (2).txt" {
		t.Errorf("member 1 = %q, want 2024_03_dup (2).txt", plan.Archive.Members[1].Path)
	}
}

func TestExportService_Plan_SessionNotFound(t *testing.T) {
	_, exportSvc, _ := stageSession(t)

	if _, err := exportSvc.Plan(context.Background(), "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Plan() error = %v, want ErrSessionNotFound", err)
	}
}

func TestExportService_WriteSingle_PayloadUnmodified(t *testing.T) {
	_, exportSvc, id := stageSession(t, "report.pdf")
	ctx := context.Background()

	plan, _ := exportSvc.Plan(ctx, id)

	var buf bytes.Buffer
	if err := exportSvc.WriteSingle(ctx, plan, &buf); err != nil {
		t.Fatalf("WriteSingle() failed: %v", err)
	}

	if buf.String() != "payload of report.pdf" {
		t.Errorf("payload = %q, want original bytes untouched", buf.String())
	}
}

func TestExportService_WriteArchive(t *testing.T) {
	_, exportSvc, id := stageSession(t, "a.txt", "b.txt", "c.txt")
	ctx := context.Background()

	plan, _ := exportSvc.Plan(ctx, id)

	var buf bytes.Buffer
	if err := exportSvc.WriteArchive(ctx, plan, &buf); err != nil {
		t.Fatalf("WriteArchive() failed: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("output is not a valid zip: %v", err)
	}

	want := map[string]string{
		"2024_03_a.txt": "payload of a.txt",
		"2024_03_b.txt": "payload of b.txt",
		"2024_03_c.txt": "payload of c.txt",
	}
	if len(zr.File) != len(want) {
		t.Fatalf("archive has %d members, want %d", len(zr.File), len(want))
	}
	for _, f := range zr.File {
		wantBody, ok := want[f.Name]
		if !ok {
			t.Errorf("unexpected archive member %q", f.Name)
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open member %q: %v", f.Name, err)
		}
		body, _ := io.ReadAll(rc)
		rc.Close()
		if string(body) != wantBody {
			t.Errorf("member %q = %q, want %q", f.Name, body, wantBody)
		}
	}
}

func TestExportService_WriteEncryptedArchive_RoundTrip(t *testing.T) {
	_, exportSvc, id := stageSession(t, "a.txt", "b.txt")
	ctx := context.Background()

	plan, _ := exportSvc.Plan(ctx, id)

	var buf bytes.Buffer
	if err := exportSvc.WriteEncryptedArchive(ctx, plan, "hunter2", &buf); err != nil {
		t.Fatalf("WriteEncryptedArchive() failed: %v", err)
	}

	if !crypto.IsEncrypted(buf.Bytes()) {
		t.Fatal("output should carry the encryption header")
	}

	zipBytes, err := crypto.Decrypt(buf.Bytes(), "hunter2")
	if err != nil {
		t.Fatalf("Decrypt() failed: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		t.Fatalf("decrypted output is not a valid zip: %v", err)
	}
	if len(zr.File) != 2 {
		t.Errorf("archive has %d members, want 2", len(zr.File))
	}
}
