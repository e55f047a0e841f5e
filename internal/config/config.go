// Package config loads service configuration from shepherd.yaml with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/style-shepherd/orchestrator/internal/policy"
)

// ServiceConfig holds HTTP and metrics listener settings.
type ServiceConfig struct {
	Port        int `mapstructure:"port"`
	MetricsPort int `mapstructure:"metrics_port"`
	HealthPort  int `mapstructure:"health_port"`
}

// DatabaseConfig holds PostgreSQL settings. Enabled=false keeps the
// in-memory store.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// RedisConfig holds message log settings.
type RedisConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// WorkflowConfig tunes the coordination pipeline.
type WorkflowConfig struct {
	StageTimeoutMs int `mapstructure:"stage_timeout_ms"`
	PollIntervalMs int `mapstructure:"poll_interval_ms"`
}

// RiskConfig selects the autonomy mode and decision thresholds.
type RiskConfig struct {
	AutonomyMode      string  `mapstructure:"autonomy_mode"`
	AllowThreshold    float64 `mapstructure:"allow_threshold"`
	ApprovalThreshold float64 `mapstructure:"approval_threshold"`
}

// TracingConfig holds OTLP exporter settings.
type TracingConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// Config is the full service configuration.
type Config struct {
	Service        ServiceConfig  `mapstructure:"service"`
	Database       DatabaseConfig `mapstructure:"database"`
	Redis          RedisConfig    `mapstructure:"redis"`
	Workflow       WorkflowConfig `mapstructure:"workflow"`
	Risk           RiskConfig     `mapstructure:"risk"`
	Tracing        TracingConfig  `mapstructure:"tracing"`
	AgentsBaseURL  string         `mapstructure:"agents_base_url"`
	RateLimitsPath string         `mapstructure:"rate_limits_path"`
	LogLevel       string         `mapstructure:"log_level"`
}

// Default returns production defaults, used when no config file exists.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{Port: 8080, MetricsPort: 2112, HealthPort: 8081},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "shepherd",
			Database: "shepherd",
			SSLMode:  "disable",
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Workflow: WorkflowConfig{
			StageTimeoutMs: 30000,
			PollIntervalMs: 500,
		},
		Risk: RiskConfig{
			AutonomyMode:      string(policy.AutonomyHybrid),
			AllowThreshold:    policy.DefaultThresholds().Allow,
			ApprovalThreshold: policy.DefaultThresholds().Approval,
		},
		AgentsBaseURL: "http://localhost:9000",
		LogLevel:      "info",
	}
}

// Load reads shepherd.yaml from CONFIG_PATH or ./config/shepherd.yaml.
// A missing file yields defaults; a malformed file is an error. Environment
// variables override file values last.
func Load() (*Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/shepherd.yaml"
	}

	cfg := Default()

	v := viper.New()
	v.SetConfigFile(cfgPath)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if _, statErr := os.Stat(cfgPath); statErr == nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	} else {
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if p := os.Getenv("SERVICE_PORT"); p != "" {
		var x int
		_, _ = fmt.Sscanf(p, "%d", &x)
		if x > 0 {
			cfg.Service.Port = x
		}
	}
	if p := os.Getenv("METRICS_PORT"); p != "" {
		var x int
		_, _ = fmt.Sscanf(p, "%d", &x)
		if x > 0 {
			cfg.Service.MetricsPort = x
		}
	}
	if p := os.Getenv("HEALTH_PORT"); p != "" {
		var x int
		_, _ = fmt.Sscanf(p, "%d", &x)
		if x > 0 {
			cfg.Service.HealthPort = x
		}
	}
	if v := os.Getenv("DATABASE_HOST"); v != "" {
		cfg.Database.Host = v
		cfg.Database.Enabled = true
	}
	if v := os.Getenv("DATABASE_PORT"); v != "" {
		var x int
		_, _ = fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Database.Port = x
		}
	}
	if v := os.Getenv("DATABASE_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("DATABASE_NAME"); v != "" {
		cfg.Database.Database = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("STAGE_TIMEOUT_MS"); v != "" {
		var x int
		_, _ = fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Workflow.StageTimeoutMs = x
		}
	}
	if v := os.Getenv("POLL_INTERVAL_MS"); v != "" {
		var x int
		_, _ = fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Workflow.PollIntervalMs = x
		}
	}
	if v := os.Getenv("RISK_AUTONOMY_MODE"); v != "" {
		cfg.Risk.AutonomyMode = v
	}
	if v := os.Getenv("RISK_ALLOW_THRESHOLD"); v != "" {
		var x float64
		_, _ = fmt.Sscanf(v, "%f", &x)
		if x > 0 {
			cfg.Risk.AllowThreshold = x
		}
	}
	if v := os.Getenv("RISK_APPROVAL_THRESHOLD"); v != "" {
		var x float64
		_, _ = fmt.Sscanf(v, "%f", &x)
		if x > 0 {
			cfg.Risk.ApprovalThreshold = x
		}
	}
	if v := os.Getenv("OTLP_ENDPOINT"); v != "" {
		cfg.Tracing.OTLPEndpoint = v
		cfg.Tracing.Enabled = true
	}
	if v := os.Getenv("AGENTS_BASE_URL"); v != "" {
		cfg.AgentsBaseURL = v
	}
	if v := os.Getenv("RATE_LIMITS_PATH"); v != "" {
		cfg.RateLimitsPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// StageTimeout returns the workflow stage timeout as a duration.
func (c *Config) StageTimeout() time.Duration {
	return time.Duration(c.Workflow.StageTimeoutMs) * time.Millisecond
}

// PollInterval returns the watcher poll cadence as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Workflow.PollIntervalMs) * time.Millisecond
}

// RiskPolicy converts the risk section into an engine config.
func (c *Config) RiskPolicy() policy.Config {
	return policy.Config{
		DefaultAutonomy: policy.AutonomyMode(c.Risk.AutonomyMode),
		Thresholds: policy.Thresholds{
			Allow:    c.Risk.AllowThreshold,
			Approval: c.Risk.ApprovalThreshold,
		},
	}
}
