// Package httpapi exposes the orchestrator over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/style-shepherd/orchestrator/internal/workflow"
)

// RecommendationHandler serves recommendation submission and workflow
// status lookups.
type RecommendationHandler struct {
	coordinator *workflow.Coordinator
	store       workflow.Store
	logger      *zap.Logger
}

// NewRecommendationHandler creates a new handler.
func NewRecommendationHandler(coordinator *workflow.Coordinator, store workflow.Store, logger *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{coordinator: coordinator, store: store, logger: logger}
}

// RegisterRoutes registers recommendation routes on the provided mux.
func (h *RecommendationHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/recommendations", h.handleRecommend)
	mux.HandleFunc("/api/workflows/", h.handleWorkflow)
}

func (h *RecommendationHandler) handleRecommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	var intent workflow.ShoppingIntent
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&intent); err != nil {
		h.logger.Warn("recommendation decode error", zap.Error(err))
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if intent.UserID == "" {
		http.Error(w, `{"error":"user_id is required"}`, http.StatusBadRequest)
		return
	}
	if intent.Budget <= 0 {
		http.Error(w, `{"error":"budget must be positive"}`, http.StatusBadRequest)
		return
	}

	rec, err := h.coordinator.Execute(r.Context(), intent)
	if err != nil {
		// Callers get the workflow id for follow-up, never the internal
		// failure reason.
		var id string
		var wfErr *workflow.WorkflowError
		if errors.As(err, &wfErr) {
			id = wfErr.WorkflowID
		}
		h.logger.Error("recommendation workflow failed",
			zap.String("workflow_id", id),
			zap.Error(err),
		)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":       "recommendation failed",
			"workflow_id": id,
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(rec)
}

func (h *RecommendationHandler) handleWorkflow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/workflows/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, `{"error":"workflow id required"}`, http.StatusBadRequest)
		return
	}

	wf, err := h.store.GetWorkflow(r.Context(), id)
	if errors.Is(err, workflow.ErrWorkflowNotFound) {
		http.Error(w, `{"error":"workflow not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("workflow lookup failed", zap.String("workflow_id", id), zap.Error(err))
		http.Error(w, `{"error":"lookup failed"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(wf)
}
