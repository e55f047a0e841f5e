package health

import (
	"context"
	"time"
)

// Pinger is anything that can verify its own connectivity. Both the
// database store and the Redis message log satisfy it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingChecker wraps a Pinger as a health check. Latency above the degraded
// threshold reports degraded rather than unhealthy.
type PingChecker struct {
	name     string
	pinger   Pinger
	critical bool
	slow     time.Duration
}

// NewPingChecker creates a ping-based checker.
func NewPingChecker(name string, pinger Pinger, critical bool) *PingChecker {
	return &PingChecker{
		name:     name,
		pinger:   pinger,
		critical: critical,
		slow:     100 * time.Millisecond,
	}
}

func (p *PingChecker) Name() string     { return p.name }
func (p *PingChecker) IsCritical() bool { return p.critical }

func (p *PingChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Component: p.name,
		Critical:  p.critical,
		Timestamp: start,
	}

	err := p.pinger.Ping(ctx)
	result.Duration = time.Since(start)

	switch {
	case err != nil:
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		result.Message = p.name + " ping failed"
	case result.Duration > p.slow:
		result.Status = StatusDegraded
		result.Message = p.name + " responding with high latency"
	default:
		result.Status = StatusHealthy
		result.Message = p.name + " healthy"
	}
	return result
}
