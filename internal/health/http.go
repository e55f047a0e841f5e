package health

import (
	"encoding/json"
	"net/http"
)

// Handler exposes the manager over HTTP for probe endpoints.
type Handler struct {
	manager *Manager
}

// NewHandler creates an HTTP handler for the manager.
func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

// Register mounts the probe endpoints on the given mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/health/ready", h.handleReady)
	mux.HandleFunc("/health/live", h.handleLive)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	overall := h.manager.GetOverallHealth(r.Context())

	code := http.StatusOK
	if !overall.Ready {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(overall)
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.manager.IsReady(r.Context()) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}

// Liveness only asserts the process is serving; component state is a
// readiness concern.
func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("alive"))
}
