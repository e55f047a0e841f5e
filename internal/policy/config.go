package policy

import "fmt"

// AutonomyMode governs how strictly a risk decision must be escalated to
// human approval.
type AutonomyMode string

const (
	// AutonomyManual escalates every action to human approval.
	AutonomyManual AutonomyMode = "manual"
	// AutonomyHybrid enforces the raw threshold decision unchanged.
	AutonomyHybrid AutonomyMode = "hybrid"
	// AutonomyAutonomous lets clear allows through and escalates the rest;
	// it never auto-denies.
	AutonomyAutonomous AutonomyMode = "autonomous"
)

// Valid reports whether m is a known autonomy mode.
func (m AutonomyMode) Valid() bool {
	switch m {
	case AutonomyManual, AutonomyHybrid, AutonomyAutonomous:
		return true
	}
	return false
}

// Thresholds are the score cut points of the decision ladder.
type Thresholds struct {
	// Allow is the upper bound (inclusive) for an allow decision.
	Allow float64 `mapstructure:"allow" json:"allow"`
	// Approval is the upper bound (inclusive) for require_approval;
	// anything above is denied.
	Approval float64 `mapstructure:"approval" json:"approval"`
}

// DefaultThresholds returns the production cut points. These must stay
// stable: recorded assessments are compared against them offline.
func DefaultThresholds() Thresholds {
	return Thresholds{Allow: 0.20, Approval: 0.50}
}

// Validate checks threshold ordering and range.
func (t Thresholds) Validate() error {
	if t.Allow < 0 || t.Allow > 1 || t.Approval < 0 || t.Approval > 1 {
		return fmt.Errorf("thresholds must be within [0,1]: %+v", t)
	}
	if t.Allow > t.Approval {
		return fmt.Errorf("allow threshold %.2f exceeds approval threshold %.2f", t.Allow, t.Approval)
	}
	return nil
}

// Config holds risk policy engine configuration.
type Config struct {
	// DefaultAutonomy applies when an evaluation names no mode.
	DefaultAutonomy AutonomyMode `mapstructure:"default_autonomy"`
	// Thresholds are the default cut points; evaluations may override.
	Thresholds Thresholds `mapstructure:"thresholds"`
}
