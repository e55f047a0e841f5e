package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/style-shepherd/orchestrator/internal/policy"
)

// RiskHandler exposes the risk policy engine for direct assessment calls,
// the same decision path the checkout gate uses.
type RiskHandler struct {
	mu     sync.RWMutex
	engine *policy.Engine
	logger *zap.Logger
}

// NewRiskHandler creates a new handler.
func NewRiskHandler(engine *policy.Engine, logger *zap.Logger) *RiskHandler {
	return &RiskHandler{engine: engine, logger: logger}
}

// SetEngine swaps the engine, used when configuration reloads.
func (h *RiskHandler) SetEngine(engine *policy.Engine) {
	h.mu.Lock()
	h.engine = engine
	h.mu.Unlock()
}

// RegisterRoutes registers risk routes on the provided mux.
func (h *RiskHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/risk/assess", h.handleAssess)
}

// riskAssessRequest is the expected payload for risk assessments.
type riskAssessRequest struct {
	Score         float64               `json:"score"`
	Contributions []policy.Contribution `json:"contributions,omitempty"`
	Autonomy      string                `json:"autonomy,omitempty"`
	Thresholds    *policy.Thresholds    `json:"thresholds,omitempty"`
}

func (h *RiskHandler) handleAssess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	var req riskAssessRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.logger.Warn("risk assess decode error", zap.Error(err))
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Score < 0 || req.Score > 1 {
		http.Error(w, `{"error":"score must be in [0,1]"}`, http.StatusBadRequest)
		return
	}
	if req.Autonomy != "" && !policy.AutonomyMode(req.Autonomy).Valid() {
		http.Error(w, `{"error":"unknown autonomy mode"}`, http.StatusBadRequest)
		return
	}
	if req.Thresholds != nil {
		if err := req.Thresholds.Validate(); err != nil {
			http.Error(w, `{"error":"invalid thresholds"}`, http.StatusBadRequest)
			return
		}
	}

	h.mu.RLock()
	engine := h.engine
	h.mu.RUnlock()

	assessment := engine.Evaluate(policy.Input{
		Score:         req.Score,
		Contributions: req.Contributions,
		Autonomy:      policy.AutonomyMode(req.Autonomy),
		Thresholds:    req.Thresholds,
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(assessment)
}
