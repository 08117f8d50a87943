package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/namerapp/namer/internal/domain"
	"github.com/namerapp/namer/internal/naming"
	"github.com/namerapp/namer/internal/service"
)

// SessionHandler handles session and file-entry HTTP requests.
type SessionHandler struct {
	sessionSvc    *service.SessionService
	maxUploadSize int64
	logger        *slog.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessionSvc *service.SessionService, maxUploadSize int64, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessionSvc:    sessionSvc,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// PrefixRequest is the JSON request body for prefix updates.
type PrefixRequest struct {
	Year          int    `json:"year"`
	Month         int    `json:"month"`
	Day           int    `json:"day"`
	IncludeDay    bool   `json:"include_day"`
	SenderName    string `json:"sender_name"`
	IncludeSender bool   `json:"include_sender"`
}

// EntryResponse represents a staged file entry in API responses. FinalName
// is the server-computed preview for the session's current prefix settings.
type EntryResponse struct {
	EntryID      string    `json:"entry_id"`
	OriginalName string    `json:"original_name"`
	NewBaseName  string    `json:"new_base_name"`
	Extension    string    `json:"extension"`
	ReceiverName string    `json:"receiver_name"`
	Size         int64     `json:"size"`
	FinalName    string    `json:"final_name"`
	AddedAt      time.Time `json:"added_at"`
}

// SessionResponse represents a session in API responses.
type SessionResponse struct {
	SessionID     string          `json:"session_id"`
	Prefix        PrefixRequest   `json:"prefix"`
	PrefixPreview string          `json:"prefix_preview"`
	ArchiveName   string          `json:"archive_name"`
	Entries       []EntryResponse `json:"entries"`
	CreatedAt     time.Time       `json:"created_at"`
}

// UploadResponse is returned after a file upload.
type UploadResponse struct {
	Added   []EntryResponse `json:"added"`
	Session SessionResponse `json:"session"`
}

func sessionResponse(s *domain.Session) SessionResponse {
	resp := SessionResponse{
		SessionID: s.ID.String(),
		Prefix: PrefixRequest{
			Year:          s.Prefix.Year,
			Month:         s.Prefix.Month,
			Day:           s.Prefix.Day,
			IncludeDay:    s.Prefix.IncludeDay,
			SenderName:    s.Prefix.SenderName,
			IncludeSender: s.Prefix.IncludeSender,
		},
		PrefixPreview: naming.Prefix(s.Prefix, ""),
		ArchiveName:   naming.ArchiveName(s.Prefix),
		Entries:       make([]EntryResponse, 0, len(s.Entries)),
		CreatedAt:     s.CreatedAt,
	}
	for _, e := range s.Entries {
		resp.Entries = append(resp.Entries, entryResponse(s.Prefix, e))
	}
	return resp
}

func entryResponse(cfg domain.PrefixConfig, e *domain.FileEntry) EntryResponse {
	return EntryResponse{
		EntryID:      e.ID.String(),
		OriginalName: e.OriginalName,
		NewBaseName:  e.NewBaseName,
		Extension:    e.Extension,
		ReceiverName: e.ReceiverName,
		Size:         e.Size,
		FinalName:    naming.FinalName(cfg, e),
		AddedAt:      e.AddedAt,
	}
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessionSvc.Create(r.Context())
	if err != nil {
		h.logger.Error("create session failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	h.writeJSON(w, http.StatusCreated, sessionResponse(session))
}

// Get handles GET /api/v1/sessions/{sessionID}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		h.writeError(w, http.StatusBadRequest, "missing session ID")
		return
	}

	session, err := h.sessionSvc.Get(r.Context(), domain.SessionID(sessionID))
	if err != nil {
		h.handleError(w, err, "get session")
		return
	}

	h.writeJSON(w, http.StatusOK, sessionResponse(session))
}

// Delete handles DELETE /api/v1/sessions/{sessionID}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.sessionSvc.Delete(r.Context(), domain.SessionID(sessionID)); err != nil {
		h.handleError(w, err, "delete session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadFiles handles POST /api/v1/sessions/{sessionID}/files
// Accepts multipart form data with one or more parts named "files".
func (h *SessionHandler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	uploads := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.logger.Error("open multipart file failed", "filename", fh.Filename, "error", err)
			h.writeError(w, http.StatusBadRequest, "unreadable file part")
			return
		}
		defer f.Close()
		uploads = append(uploads, service.UploadFile{
			Name:   fh.Filename,
			Size:   fh.Size,
			Reader: f,
		})
	}

	added, err := h.sessionSvc.AddFiles(r.Context(), domain.SessionID(sessionID), uploads)
	if err != nil {
		h.handleError(w, err, "upload files")
		return
	}

	session, err := h.sessionSvc.Get(r.Context(), domain.SessionID(sessionID))
	if err != nil {
		h.handleError(w, err, "get session")
		return
	}

	resp := UploadResponse{
		Added:   make([]EntryResponse, 0, len(added)),
		Session: sessionResponse(session),
	}
	for _, e := range added {
		resp.Added = append(resp.Added, entryResponse(session.Prefix, e))
	}

	h.writeJSON(w, http.StatusCreated, resp)
}

// UpdateEntry handles PATCH /api/v1/sessions/{sessionID}/files/{entryID}
// Accepts a partial update of the entry's editable name fragments.
func (h *SessionHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	entryID := chi.URLParam(r, "entryID")

	var update domain.EntryUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.sessionSvc.UpdateEntry(r.Context(), domain.SessionID(sessionID), domain.EntryID(entryID), update)
	if err != nil {
		h.handleError(w, err, "update entry")
		return
	}

	session, err := h.sessionSvc.Get(r.Context(), domain.SessionID(sessionID))
	if err != nil {
		h.handleError(w, err, "get session")
		return
	}

	h.writeJSON(w, http.StatusOK, entryResponse(session.Prefix, entry))
}

// RemoveEntry handles DELETE /api/v1/sessions/{sessionID}/files/{entryID}
func (h *SessionHandler) RemoveEntry(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	entryID := chi.URLParam(r, "entryID")

	if err := h.sessionSvc.RemoveEntry(r.Context(), domain.SessionID(sessionID), domain.EntryID(entryID)); err != nil {
		h.handleError(w, err, "remove entry")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearEntries handles DELETE /api/v1/sessions/{sessionID}/files
func (h *SessionHandler) ClearEntries(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.sessionSvc.ClearEntries(r.Context(), domain.SessionID(sessionID)); err != nil {
		h.handleError(w, err, "clear entries")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetPrefix handles PUT /api/v1/sessions/{sessionID}/prefix
func (h *SessionHandler) SetPrefix(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req PrefixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg := domain.PrefixConfig{
		Year:          req.Year,
		Month:         req.Month,
		Day:           req.Day,
		IncludeDay:    req.IncludeDay,
		SenderName:    req.SenderName,
		IncludeSender: req.IncludeSender,
	}

	if err := h.sessionSvc.SetPrefix(r.Context(), domain.SessionID(sessionID), cfg); err != nil {
		h.handleError(w, err, "set prefix")
		return
	}

	session, err := h.sessionSvc.Get(r.Context(), domain.SessionID(sessionID))
	if err != nil {
		h.handleError(w, err, "get session")
		return
	}

	h.writeJSON(w, http.StatusOK, sessionResponse(session))
}

// handleError maps domain errors to HTTP status codes.
func (h *SessionHandler) handleError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		h.writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, domain.ErrEntryNotFound):
		h.writeError(w, http.StatusNotFound, "entry not found")
	case errors.Is(err, domain.ErrSessionFull):
		h.writeError(w, http.StatusConflict, "session entry limit reached")
	case errors.Is(err, domain.ErrFileTooLarge):
		h.writeError(w, http.StatusRequestEntityTooLarge, "file exceeds upload size limit")
	case errors.Is(err, domain.ErrNoFiles):
		h.writeError(w, http.StatusBadRequest, "no files provided")
	case errors.Is(err, domain.ErrEmptyFilename):
		h.writeError(w, http.StatusBadRequest, "empty filename")
	case errors.Is(err, domain.ErrEmptyBaseName):
		h.writeError(w, http.StatusBadRequest, "base name must not be empty")
	case errors.Is(err, domain.ErrInvalidPrefixConfig):
		h.writeError(w, http.StatusBadRequest, "invalid prefix configuration")
	default:
		h.logger.Error(op+" failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *SessionHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *SessionHandler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
