package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/style-shepherd/orchestrator/internal/agents"
	"github.com/style-shepherd/orchestrator/internal/config"
	"github.com/style-shepherd/orchestrator/internal/db"
	"github.com/style-shepherd/orchestrator/internal/health"
	"github.com/style-shepherd/orchestrator/internal/httpapi"
	"github.com/style-shepherd/orchestrator/internal/messagelog"
	_ "github.com/style-shepherd/orchestrator/internal/metrics" // metric registration
	"github.com/style-shepherd/orchestrator/internal/policy"
	"github.com/style-shepherd/orchestrator/internal/ratecontrol"
	"github.com/style-shepherd/orchestrator/internal/tracing"
	"github.com/style-shepherd/orchestrator/internal/workflow"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := tracing.Initialize(tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
	}, logger); err != nil {
		logger.Error("Failed to initialize tracing", zap.Error(err))
	}

	// Health manager comes up first so probes answer while the rest wires.
	hm := health.NewManager(logger)

	// Store selection: Postgres when configured, in-memory otherwise; the
	// hot message log moves to Redis when available.
	var store workflow.Store = workflow.NewMemoryStore()
	if cfg.Database.Enabled {
		pg, err := db.NewStore(&db.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: os.Getenv("DATABASE_PASSWORD"),
			Database: cfg.Database.Database,
			SSLMode:  cfg.Database.SSLMode,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer pg.Close()
		store = pg
		if err := hm.RegisterChecker(health.NewPingChecker("postgres", pg, true)); err != nil {
			logger.Error("Failed to register postgres checker", zap.Error(err))
		}
	} else {
		logger.Info("Database disabled, using in-memory store")
	}
	if cfg.Redis.Enabled {
		rlog, err := messagelog.NewRedisLog(cfg.Redis.Addr, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer rlog.Close()
		store = messagelog.NewComposite(store, rlog)
		if err := hm.RegisterChecker(health.NewPingChecker("redis", rlog, false)); err != nil {
			logger.Error("Failed to register redis checker", zap.Error(err))
		}
	}

	limits, err := ratecontrol.NewRegistry(cfg.RateLimitsPath, logger)
	if err != nil {
		logger.Fatal("Failed to load rate limits", zap.Error(err))
	}

	collab := agents.NewHTTPCollaborators(cfg.AgentsBaseURL, logger)
	executor := workflow.NewExecutor(store, limits, logger)
	coordinator := workflow.NewCoordinator(store, collab, executor, workflow.Config{
		StageTimeout: cfg.StageTimeout(),
		PollInterval: cfg.PollInterval(),
	}, logger)

	engine, err := policy.NewEngine(cfg.RiskPolicy(), logger)
	if err != nil {
		logger.Fatal("Invalid risk policy configuration", zap.Error(err))
	}

	// API server.
	apiMux := http.NewServeMux()
	httpapi.NewRecommendationHandler(coordinator, store, logger).RegisterRoutes(apiMux)
	riskHandler := httpapi.NewRiskHandler(engine, logger)
	riskHandler.RegisterRoutes(apiMux)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Service.Port),
		Handler: apiMux,
	}
	go func() {
		logger.Info("API server listening", zap.Int("port", cfg.Service.Port))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("API server failed", zap.Error(err))
		}
	}()

	// Admin mux: health probes and Prometheus metrics.
	adminMux := http.NewServeMux()
	health.NewHandler(hm).Register(adminMux)
	adminMux.Handle("/metrics", promhttp.Handler())
	adminServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Service.HealthPort),
		Handler: adminMux,
	}
	go func() {
		logger.Info("Admin server listening", zap.Int("port", cfg.Service.HealthPort))
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Admin server failed", zap.Error(err))
		}
	}()

	// Hot-reload risk thresholds on config file changes.
	if cfgPath := os.Getenv("CONFIG_PATH"); cfgPath != "" {
		watcher, err := config.NewWatcher(cfgPath, logger)
		if err != nil {
			logger.Error("Failed to start config watcher", zap.Error(err))
		} else {
			defer watcher.Close()
			watcher.OnReload(func(next *config.Config) error {
				nextEngine, err := policy.NewEngine(next.RiskPolicy(), logger)
				if err != nil {
					return err
				}
				riskHandler.SetEngine(nextEngine)
				logger.Info("Risk policy reloaded",
					zap.String("autonomy", next.Risk.AutonomyMode),
				)
				return nil
			})
			if err := watcher.Start(ctx); err != nil {
				logger.Error("Failed to watch config file", zap.Error(err))
			}
		}
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutting down orchestrator service")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("API server shutdown failed", zap.Error(err))
	}
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Admin server shutdown failed", zap.Error(err))
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		logger.Error("Tracing shutdown failed", zap.Error(err))
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(level)); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}
	}
	return cfg.Build()
}
