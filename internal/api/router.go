package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/namerapp/namer/internal/api/handler"
	mw "github.com/namerapp/namer/internal/api/middleware"
)

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(
	sessionHandler *handler.SessionHandler,
	exportHandler *handler.ExportHandler,
	eventHandler *handler.EventHandler,
	healthHandler *handler.HealthHandler,
	uiHandler *handler.UIHandler,
	apiKey string,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath) // Normalize paths (e.g., //ready -> /ready)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(middleware.Timeout(5 * time.Minute))

	// CORS for browser clients
	r.Use(mw.CORS)

	// Health endpoints (no auth)
	r.Get("/health", healthHandler.Live)
	r.Get("/ready", healthHandler.Ready)

	// Web UI (no auth - the UI passes the API key with its requests)
	r.Get("/", uiHandler.Index)

	// API v1 (authenticated when an API key is configured)
	r.Route("/api/v1", func(r chi.Router) {
		if apiKey != "" {
			r.Use(mw.APIKeyAuth(apiKey))
		}

		// System stats
		r.Get("/stats", healthHandler.Stats)

		// Session lifecycle
		r.Post("/sessions", sessionHandler.Create)
		r.Get("/sessions/{sessionID}", sessionHandler.Get)
		r.Delete("/sessions/{sessionID}", sessionHandler.Delete)

		// Staged files
		r.Post("/sessions/{sessionID}/files", sessionHandler.UploadFiles)
		r.Delete("/sessions/{sessionID}/files", sessionHandler.ClearEntries)
		r.Patch("/sessions/{sessionID}/files/{entryID}", sessionHandler.UpdateEntry)
		r.Delete("/sessions/{sessionID}/files/{entryID}", sessionHandler.RemoveEntry)

		// Prefix settings
		r.Put("/sessions/{sessionID}/prefix", sessionHandler.SetPrefix)

		// Export
		r.Get("/sessions/{sessionID}/download", exportHandler.Download)

		// Activity log
		r.Get("/events", eventHandler.List)
		r.Get("/events/recent", eventHandler.Recent)
		r.Get("/events/stats", eventHandler.Stats)
		r.Get("/events/stream", eventHandler.Stream)
		r.Get("/events/categories", eventHandler.Categories)
	})

	return r
}
