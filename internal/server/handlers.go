package server

import (
	"log/slog"
	"net/http"

	"github.com/tferro/esmcat/internal/storage"
)

// Handler serves the persisted catalog artifacts.
type Handler struct {
	state *State
	store storage.Provider
}

// NewHandler creates a new Handler reading catalog files from store.
func NewHandler(state *State, store storage.Provider) *Handler {
	if store == nil {
		store = storage.NewFS()
	}
	return &Handler{state: state, store: store}
}

// Live handles GET /health/live.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /health/ready. Ready means at least one catalog has been
// persisted since startup.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.state.Snapshot(); !ok {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("no catalog built yet"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Status handles GET /api/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.state.Snapshot()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("no catalog built yet"))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Collection handles GET /catalog.json.
func (h *Handler) Collection(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, func(s Snapshot) string { return s.JSONPath }, "application/json; charset=utf-8")
}

// Table handles GET /catalog.csv.
func (h *Handler) Table(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, func(s Snapshot) string { return s.CSVPath }, "text/csv; charset=utf-8")
}

func (h *Handler) serveFile(w http.ResponseWriter, pick func(Snapshot) string, contentType string) {
	snap, ok := h.state.Snapshot()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("no catalog built yet"))
		return
	}
	data, err := h.store.ReadFile(pick(snap))
	if err != nil {
		slog.Error("read catalog artifact failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
