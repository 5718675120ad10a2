package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tferro/esmcat/internal/storage"
)

// NewRouter creates a chi router exposing the catalog read surface.
// sseHandler, if non-nil, is mounted at GET /api/events.
func NewRouter(state *State, store storage.Provider, sseHandler http.Handler) chi.Router {
	h := NewHandler(state, store)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health/live", h.Live)
	r.Get("/health/ready", h.Ready)

	r.Get("/catalog.json", h.Collection)
	r.Get("/catalog.csv", h.Table)

	r.Get("/api/status", h.Status)
	if sseHandler != nil {
		r.Get("/api/events", sseHandler.ServeHTTP)
	}

	return r
}
