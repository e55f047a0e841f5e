package policy

import (
	"fmt"

	"go.uber.org/zap"
)

// Decision is the outcome of a risk evaluation.
type Decision string

const (
	DecisionAllow           Decision = "allow"
	DecisionRequireApproval Decision = "require_approval"
	DecisionDeny            Decision = "deny"
)

// Contribution is one named, signed component of a risk score. The list is
// what makes an assessment explainable after the fact; it is persisted
// verbatim with the incident.
type Contribution struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Input is a single risk evaluation request.
type Input struct {
	// Score is the composite risk score in [0,1].
	Score float64
	// Contributions are the named components that produced Score.
	Contributions []Contribution
	// Autonomy selects the escalation overlay; empty uses the engine default.
	Autonomy AutonomyMode
	// Thresholds overrides the engine defaults when non-nil.
	Thresholds *Thresholds
}

// Assessment is the full, auditable result of an evaluation.
type Assessment struct {
	Score         float64        `json:"score"`
	Contributions []Contribution `json:"contributions,omitempty"`
	// RawDecision is the pure threshold outcome before the autonomy overlay.
	RawDecision Decision `json:"raw_decision"`
	// Decision is the effective outcome after the autonomy overlay.
	Decision   Decision     `json:"decision"`
	Thresholds Thresholds   `json:"thresholds"`
	Autonomy   AutonomyMode `json:"autonomy"`
}

// Engine maps risk scores to decisions. Evaluate is a pure function of its
// input and the configured defaults: no clock, no randomness, no I/O.
type Engine struct {
	cfg    Config
	logger *zap.Logger
}

// NewEngine creates a risk policy engine.
func NewEngine(cfg Config, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.DefaultAutonomy.Valid() {
		cfg.DefaultAutonomy = AutonomyHybrid
	}
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = DefaultThresholds()
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy config: %w", err)
	}
	return &Engine{cfg: cfg, logger: logger}, nil
}

// Evaluate applies the threshold ladder, then the autonomy overlay.
func (e *Engine) Evaluate(in Input) Assessment {
	thresholds := e.cfg.Thresholds
	if in.Thresholds != nil {
		thresholds = *in.Thresholds
	}
	autonomy := in.Autonomy
	if !autonomy.Valid() {
		autonomy = e.cfg.DefaultAutonomy
	}

	raw := rawDecision(in.Score, thresholds)
	effective := applyAutonomy(raw, autonomy)

	recordDecision(string(effective), string(autonomy), in.Score)
	e.logger.Debug("Risk decision",
		zap.Float64("score", in.Score),
		zap.String("raw_decision", string(raw)),
		zap.String("decision", string(effective)),
		zap.String("autonomy", string(autonomy)),
	)

	return Assessment{
		Score:         in.Score,
		Contributions: in.Contributions,
		RawDecision:   raw,
		Decision:      effective,
		Thresholds:    thresholds,
		Autonomy:      autonomy,
	}
}

func rawDecision(score float64, t Thresholds) Decision {
	switch {
	case score <= t.Allow:
		return DecisionAllow
	case score <= t.Approval:
		return DecisionRequireApproval
	default:
		return DecisionDeny
	}
}

// applyAutonomy overlays the escalation policy: manual escalates everything,
// hybrid passes through, autonomous converts anything but a clear allow into
// an approval request so it never auto-denies.
func applyAutonomy(raw Decision, mode AutonomyMode) Decision {
	switch mode {
	case AutonomyManual:
		return DecisionRequireApproval
	case AutonomyAutonomous:
		if raw == DecisionAllow {
			return DecisionAllow
		}
		return DecisionRequireApproval
	default:
		return raw
	}
}

// RiskBucket maps a score to the coarse label used in recommendation
// reasoning and incident triage.
func RiskBucket(score float64) string {
	switch {
	case score < 0.30:
		return "low"
	case score < 0.60:
		return "medium"
	default:
		return "high"
	}
}
