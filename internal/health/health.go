// Package health aggregates component health checks behind liveness and
// readiness probes.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CheckStatus represents the result of a health check
type CheckStatus int

const (
	StatusHealthy CheckStatus = iota
	StatusDegraded
	StatusUnhealthy
)

func (s CheckStatus) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the status as its string form.
func (s CheckStatus) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", s.String())), nil
}

// CheckResult contains the result of a health check
type CheckResult struct {
	Component string        `json:"component"`
	Status    CheckStatus   `json:"status"`
	Message   string        `json:"message,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
	Critical  bool          `json:"critical"`
}

// Checker defines the interface for health checks
type Checker interface {
	// Name returns the unique name of this health check
	Name() string
	// Check performs the health check and returns the result
	Check(ctx context.Context) CheckResult
	// IsCritical returns true if this check's failure should mark the
	// service as not ready
	IsCritical() bool
}

// OverallHealth represents the overall service health
type OverallHealth struct {
	Status     CheckStatus            `json:"status"`
	Ready      bool                   `json:"ready"`
	Components map[string]CheckResult `json:"components,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// Manager runs registered checkers on demand.
type Manager struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	timeout  time.Duration
	logger   *zap.Logger
}

// NewManager creates a health manager.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		checkers: make(map[string]Checker),
		timeout:  5 * time.Second,
		logger:   logger,
	}
}

// RegisterChecker registers a health check
func (m *Manager) RegisterChecker(c Checker) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := c.Name()
	if name == "" {
		return fmt.Errorf("checker name cannot be empty")
	}
	if _, exists := m.checkers[name]; exists {
		return fmt.Errorf("checker %s already registered", name)
	}
	m.checkers[name] = c
	return nil
}

// GetOverallHealth runs every checker and folds the results. The service is
// ready only while all critical components are healthy or degraded.
func (m *Manager) GetOverallHealth(ctx context.Context) OverallHealth {
	m.mu.RLock()
	checkers := make([]Checker, 0, len(m.checkers))
	for _, c := range m.checkers {
		checkers = append(checkers, c)
	}
	m.mu.RUnlock()

	overall := OverallHealth{
		Status:     StatusHealthy,
		Ready:      true,
		Components: make(map[string]CheckResult, len(checkers)),
		Timestamp:  time.Now(),
	}
	for _, c := range checkers {
		cctx, cancel := context.WithTimeout(ctx, m.timeout)
		result := c.Check(cctx)
		cancel()

		overall.Components[c.Name()] = result
		if result.Status > overall.Status {
			overall.Status = result.Status
		}
		if result.Status == StatusUnhealthy && c.IsCritical() {
			overall.Ready = false
			m.logger.Warn("Critical component unhealthy",
				zap.String("component", c.Name()),
				zap.String("error", result.Error),
			)
		}
	}
	return overall
}

// IsReady returns true if the service is ready to serve requests
func (m *Manager) IsReady(ctx context.Context) bool {
	return m.GetOverallHealth(ctx).Ready
}
