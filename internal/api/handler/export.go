package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/namerapp/namer/internal/domain"
	"github.com/namerapp/namer/internal/service"
	"github.com/namerapp/namer/pkg/crypto"
)

// ExportHandler handles session download requests.
type ExportHandler struct {
	exportSvc *service.ExportService
	logger    *slog.Logger
}

// NewExportHandler creates a new export handler.
func NewExportHandler(exportSvc *service.ExportService, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		exportSvc: exportSvc,
		logger:    logger,
	}
}

// Download handles GET /api/v1/sessions/{sessionID}/download
// An empty session answers 204, a single entry streams directly under its
// final name, and two or more entries stream as a zip archive. A password
// query parameter switches the output to an encrypted archive.
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		h.writeError(w, http.StatusBadRequest, "missing session ID")
		return
	}

	plan, err := h.exportSvc.Plan(r.Context(), domain.SessionID(sessionID))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			h.writeError(w, http.StatusNotFound, "session not found")
			return
		}
		h.logger.Error("export plan failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to prepare download")
		return
	}

	if plan.Empty {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	password := r.URL.Query().Get("password")
	if password != "" {
		h.downloadEncrypted(w, r, plan, password)
		return
	}

	if plan.Single != nil {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename="`+plan.Single.Filename+`"`)
		w.Header().Set("Content-Length", strconv.FormatInt(plan.Single.Size, 10))

		if err := h.exportSvc.WriteSingle(r.Context(), plan, w); err != nil {
			// Headers are already on the wire, so just log.
			h.logger.Error("single file download failed", "session_id", sessionID, "error", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+plan.Archive.Filename+`"`)

	if err := h.exportSvc.WriteArchive(r.Context(), plan, w); err != nil {
		h.logger.Error("archive download failed", "session_id", sessionID, "error", err)
	}
}

// downloadEncrypted serves a password-protected archive. A single-entry
// session is wrapped in a one-member archive so the output is always
// a zip behind the encryption envelope.
func (h *ExportHandler) downloadEncrypted(w http.ResponseWriter, r *http.Request, plan *service.ExportPlan, password string) {
	if plan.Archive == nil {
		plan = &service.ExportPlan{
			SessionID: plan.SessionID,
			Archive: &service.Archive{
				Filename: plan.Single.Filename + ".zip",
				Members: []service.ArchiveMember{{
					Path:    plan.Single.Filename,
					Size:    plan.Single.Size,
					BlobKey: plan.Single.BlobKey,
				}},
			},
		}
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+plan.Archive.Filename+crypto.FileExtension+`"`)

	if err := h.exportSvc.WriteEncryptedArchive(r.Context(), plan, password, w); err != nil {
		h.logger.Error("encrypted download failed", "session_id", plan.SessionID, "error", err)
	}
}

func (h *ExportHandler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
