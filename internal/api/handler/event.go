package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/namerapp/namer/internal/domain"
	"github.com/namerapp/namer/internal/service"
)

// EventHandler handles activity log HTTP requests.
type EventHandler struct {
	eventSvc *service.EventService
	logger   *slog.Logger
}

// NewEventHandler creates a new event handler.
func NewEventHandler(eventSvc *service.EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		eventSvc: eventSvc,
		logger:   logger,
	}
}

// EventResponse represents an event in API responses.
type EventResponse struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Severity  string          `json:"severity"`
	Category  string          `json:"category"`
	Message   string          `json:"message"`
	Source    string          `json:"source,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// EventListResponse contains paginated event list.
type EventListResponse struct {
	Events  []EventResponse `json:"events"`
	Total   int             `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
	HasMore bool            `json:"has_more"`
}

// EventStatsResponse contains event service statistics.
type EventStatsResponse struct {
	Total          int            `json:"total"`
	BySeverity     map[string]int `json:"by_severity"`
	BufferSize     int            `json:"buffer_size"`
	BufferUsed     int            `json:"buffer_used"`
	SSESubscribers int            `json:"sse_subscribers"`
	SQLiteEnabled  bool           `json:"sqlite_enabled"`
}

// List handles GET /api/v1/events
// Query parameters:
//   - severity: filter by severity (info, warning, error, success)
//   - category: filter by category (session, upload, rename, export, encryption, system)
//   - source: filter by source component
//   - start_time: filter events after this time (RFC3339)
//   - end_time: filter events before this time (RFC3339)
//   - search: search in message text
//   - limit: max events to return (default 50)
//   - offset: pagination offset
//   - historical: if "true", query SQLite instead of ring buffer
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	query := domain.EventQuery{
		Limit:  50,
		Offset: 0,
	}

	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			query.Limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			query.Offset = parsed
		}
	}

	if sev := r.URL.Query().Get("severity"); sev != "" {
		severity := domain.EventSeverity(sev)
		query.Filter.Severity = &severity
	}
	if cat := r.URL.Query().Get("category"); cat != "" {
		category := domain.EventCategory(cat)
		query.Filter.Category = &category
	}
	if src := r.URL.Query().Get("source"); src != "" {
		query.Filter.Source = src
	}
	if search := r.URL.Query().Get("search"); search != "" {
		query.Filter.SearchText = search
	}
	if startTime := r.URL.Query().Get("start_time"); startTime != "" {
		if t, err := time.Parse(time.RFC3339, startTime); err == nil {
			query.Filter.StartTime = &t
		}
	}
	if endTime := r.URL.Query().Get("end_time"); endTime != "" {
		if t, err := time.Parse(time.RFC3339, endTime); err == nil {
			query.Filter.EndTime = &t
		}
	}

	var result *domain.EventQueryResult
	var err error
	if r.URL.Query().Get("historical") == "true" {
		result, err = h.eventSvc.QueryHistorical(r.Context(), query)
	} else {
		result, err = h.eventSvc.Query(r.Context(), query)
	}

	if err != nil {
		h.logger.Error("failed to query events", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to query events")
		return
	}

	response := EventListResponse{
		Events:  make([]EventResponse, 0, len(result.Events)),
		Total:   result.Total,
		Limit:   query.Limit,
		Offset:  query.Offset,
		HasMore: result.HasMore,
	}

	for _, e := range result.Events {
		response.Events = append(response.Events, eventResponse(e))
	}

	h.writeJSON(w, http.StatusOK, response)
}

// RecentEventsResponse wraps the events array for the UI.
type RecentEventsResponse struct {
	Events []EventResponse `json:"events"`
}

// Recent handles GET /api/v1/events/recent
// Returns the most recent N events (default 50).
func (h *EventHandler) Recent(w http.ResponseWriter, r *http.Request) {
	n := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 200 {
			n = parsed
		}
	}

	events := h.eventSvc.GetRecent(n)

	response := RecentEventsResponse{
		Events: make([]EventResponse, 0, len(events)),
	}
	for _, e := range events {
		response.Events = append(response.Events, eventResponse(e))
	}

	h.writeJSON(w, http.StatusOK, response)
}

// Stats handles GET /api/v1/events/stats
func (h *EventHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := h.eventSvc.Stats()

	events := h.eventSvc.GetRecent(1000)
	bySeverity := map[string]int{
		"info":    0,
		"warning": 0,
		"error":   0,
		"success": 0,
	}
	for _, e := range events {
		bySeverity[string(e.Severity)]++
	}

	h.writeJSON(w, http.StatusOK, EventStatsResponse{
		Total:          len(events),
		BySeverity:     bySeverity,
		BufferSize:     stats.BufferSize,
		BufferUsed:     stats.BufferUsed,
		SSESubscribers: stats.SSESubscribers,
		SQLiteEnabled:  stats.SQLiteEnabled,
	})
}

// Stream handles GET /api/v1/events/stream
// Server-Sent Events endpoint for real-time event streaming.
func (h *EventHandler) Stream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	subID, eventCh := h.eventSvc.Subscribe()
	defer h.eventSvc.Unsubscribe(subID)

	h.logger.Info("SSE client connected", "subscriber_id", subID, "remote_addr", r.RemoteAddr)

	fmt.Fprintf(w, "event: connected\ndata: {\"subscriber_id\": %d}\n\n", subID)
	flusher.Flush()

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("SSE client disconnected", "subscriber_id", subID)
			return

		case event, ok := <-eventCh:
			if !ok {
				return
			}

			eventData, err := json.Marshal(eventResponse(event))
			if err != nil {
				h.logger.Warn("failed to serialize event", "event_id", event.ID, "error", err)
				continue
			}

			fmt.Fprintf(w, "event: event\ndata: %s\n\n", eventData)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

// Categories handles GET /api/v1/events/categories
// Returns available event categories.
func (h *EventHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories := []string{
		string(domain.EventCategorySession),
		string(domain.EventCategoryUpload),
		string(domain.EventCategoryRename),
		string(domain.EventCategoryExport),
		string(domain.EventCategoryEncryption),
		string(domain.EventCategorySystem),
	}
	h.writeJSON(w, http.StatusOK, map[string][]string{"categories": categories})
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:        string(e.ID),
		Timestamp: e.Timestamp,
		Severity:  string(e.Severity),
		Category:  string(e.Category),
		Message:   e.Message,
		Source:    e.Source,
		Metadata:  e.Metadata,
	}
}

func (h *EventHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *EventHandler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
