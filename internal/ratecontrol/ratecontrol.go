// Package ratecontrol enforces per-agent request budgets against the
// external collaborator services. Limits come from config/agents.yaml; an
// agent without a configured limit is unthrottled.
package ratecontrol

import (
	"context"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

type config struct {
	RateLimits struct {
		DefaultRPM     int `yaml:"default_rpm"`
		AgentOverrides map[string]struct {
			RPM int `yaml:"rpm"`
		} `yaml:"agent_overrides"`
	} `yaml:"rate_limits"`
}

// Registry hands out one token-bucket limiter per agent type.
type Registry struct {
	mu       sync.Mutex
	cfg      config
	limiters map[string]*rate.Limiter
	logger   *zap.Logger
}

// NewRegistry builds a registry from the YAML config at path. A missing or
// unreadable file yields an unthrottled registry; a malformed file is an
// error.
func NewRegistry(path string, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{limiters: make(map[string]*rate.Limiter), logger: logger}

	if path == "" {
		return r, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Rate limit config unavailable, running unthrottled",
			zap.String("path", path), zap.Error(err))
		return r, nil
	}
	if err := yaml.Unmarshal(data, &r.cfg); err != nil {
		return nil, err
	}
	logger.Info("Loaded rate limit configuration",
		zap.String("path", path),
		zap.Int("default_rpm", r.cfg.RateLimits.DefaultRPM),
		zap.Int("overrides", len(r.cfg.RateLimits.AgentOverrides)),
	)
	return r, nil
}

// rpmFor resolves the configured requests-per-minute for an agent.
// 0 means unthrottled.
func (r *Registry) rpmFor(agent string) int {
	if o, ok := r.cfg.RateLimits.AgentOverrides[agent]; ok && o.RPM > 0 {
		return o.RPM
	}
	return r.cfg.RateLimits.DefaultRPM
}

// Wait blocks until the agent's limiter grants a token or ctx is done.
func (r *Registry) Wait(ctx context.Context, agent string) error {
	rpm := r.rpmFor(agent)
	if rpm <= 0 {
		return nil
	}

	r.mu.Lock()
	lim, ok := r.limiters[agent]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm)
		r.limiters[agent] = lim
	}
	r.mu.Unlock()

	return lim.Wait(ctx)
}
