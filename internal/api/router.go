package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/iconsync/internal/history"
	"github.com/starford/iconsync/internal/models"
	"github.com/starford/iconsync/internal/settings"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc Syncer, store settings.Store, hist history.RunLog,
	defaults *models.SyncSettings, events Events,
	authEnabled bool, token string, sseHandler http.Handler) chi.Router {

	h := NewHandler(svc, store, hist, defaults, events)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Synchronization.
	r.Post("/sync", h.Sync)

	// Local manifest build.
	r.Get("/manifest", h.Manifest)

	// Settings cache.
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.SaveSettings)

	// Run history.
	r.Get("/runs", h.Runs)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
