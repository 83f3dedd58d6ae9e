package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	arhttp "github.com/strategis-io/arbiter/internal/adapter/http"
	armcp "github.com/strategis-io/arbiter/internal/adapter/mcp"
	arnats "github.com/strategis-io/arbiter/internal/adapter/nats"
	arotel "github.com/strategis-io/arbiter/internal/adapter/otel"
	"github.com/strategis-io/arbiter/internal/adapter/postgres"
	"github.com/strategis-io/arbiter/internal/adapter/ristretto"
	"github.com/strategis-io/arbiter/internal/adapter/ws"
	"github.com/strategis-io/arbiter/internal/config"
	"github.com/strategis-io/arbiter/internal/domain/decision"
	"github.com/strategis-io/arbiter/internal/logger"
	"github.com/strategis-io/arbiter/internal/service"
)

const version = "0.1.0"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"journal", cfg.Postgres.DSN != "",
		"nats", cfg.NATS.URL != "",
	)

	ctx := context.Background()

	// --- Telemetry ---
	shutdownTelemetry, err := arotel.Setup(ctx, cfg.Logging.Service, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			slog.Error("telemetry shutdown", "error", err)
		}
	}()

	metrics, err := arotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---
	opts := service.EngineOptions{
		Criteria: &decision.Criteria{
			BenefitWeight:     cfg.Engine.Weights.Benefit,
			RiskWeight:        cfg.Engine.Weights.Risk,
			FeasibilityWeight: cfg.Engine.Weights.Feasibility,
			SpeedWeight:       cfg.Engine.Weights.Speed,
		},
		EvalParallelism: cfg.Engine.MaxParallelEval,
		Metrics:         metrics,
	}

	if cfg.Postgres.DSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		opts.Journal = postgres.NewStore(pool)
		slog.Info("decision journal enabled")
	}

	if cfg.NATS.URL != "" {
		queue, err := arnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = queue.Close() }()
		opts.Queue = queue
		slog.Info("message queue enabled")
	}

	cache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer cache.Close()

	hub := ws.NewHub()
	opts.Hub = hub

	// --- Engine ---
	engine := service.NewDecisionEngine(decision.Capability{
		CanMakeAutonomousDecisions: cfg.Engine.Autonomous,
		CanEvaluateRisk:            cfg.Engine.EvaluateRisk,
		MaxDecisionComplexity:      cfg.Engine.MaxComplexity,
	}, opts)

	if opts.Queue != nil {
		cancelOutcomes, err := engine.StartOutcomeSubscriber(ctx)
		if err != nil {
			return fmt.Errorf("outcome subscriber: %w", err)
		}
		defer cancelOutcomes()
	}

	// --- MCP ---
	if cfg.MCP.Addr != "" {
		mcpSrv := armcp.NewServer(
			armcp.ServerConfig{
				Addr:    cfg.MCP.Addr,
				Name:    "arbiter",
				Version: version,
				APIKey:  cfg.MCP.APIKey,
			},
			armcp.ServerDeps{Engine: engine},
		)
		go func() {
			if err := mcpSrv.Start(); err != nil {
				slog.Error("mcp server failed", "error", err)
			}
		}()
		defer func() { _ = mcpSrv.Stop() }()
	}

	// --- HTTP ---
	handlers := &arhttp.Handlers{
		Engine:        engine,
		Journal:       opts.Journal,
		Cache:         cache,
		StatsCacheTTL: cfg.Engine.StatsCacheTTL,
	}

	r := chi.NewRouter()

	r.Use(arhttp.RequestID)
	r.Use(arhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(arhttp.Logger)
	r.Use(arotel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	// Liveness probes and the ws feed stay outside the API key check.
	r.Get("/health", healthHandler(cfg, hub))
	r.Get("/ws", hub.HandleWS)

	r.Group(func(r chi.Router) {
		r.Use(arhttp.APIKey(cfg.Auth.APIKeyHash))
		arhttp.MountRoutes(r, handlers)
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// healthHandler reports service health and which optional backends are on.
func healthHandler(cfg *config.Config, hub *ws.Hub) http.HandlerFunc {
	type healthStatus struct {
		Status        string `json:"status"`
		Journal       bool   `json:"journal"`
		Queue         bool   `json:"queue"`
		WSConnections int    `json:"ws_connections"`
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		status := healthStatus{
			Status:        "ok",
			Journal:       cfg.Postgres.DSN != "",
			Queue:         cfg.NATS.URL != "",
			WSConnections: hub.ConnectionCount(),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}
