// Pulse - behavioral telemetry pipeline server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/sentientiq/pulse/internal/api"
	"github.com/sentientiq/pulse/internal/config"
	"github.com/sentientiq/pulse/internal/dispatch"
	"github.com/sentientiq/pulse/internal/middleware"
	"github.com/sentientiq/pulse/internal/pattern"
	"github.com/sentientiq/pulse/internal/rules"
	"github.com/sentientiq/pulse/internal/section"
	"github.com/sentientiq/pulse/internal/session"
	"github.com/sentientiq/pulse/internal/store"
	"github.com/sentientiq/pulse/internal/transport"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	table, err := rules.Load(cfg.RulesPath)
	if err != nil {
		slog.Error("Failed to load rule table", "error", err, "path", cfg.RulesPath)
		os.Exit(1)
	}
	slog.Info("Rule table loaded", "emotions", len(table.Emotions), "interventions", len(table.Interventions))

	// Initialize dependencies.
	sqlite, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	if err := sqlite.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	sink := store.NewAsyncSink(sqlite, cfg.SinkQueueSize, logger)
	defer func() {
		if closeErr := sink.Close(); closeErr != nil {
			slog.Error("Failed to close event sink", "error", closeErr)
		}
	}()

	var cooldowns pattern.CooldownRegistry
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			slog.Error("Redis health check failed", "error", err, "addr", cfg.RedisAddr)
			os.Exit(1)
		}
		defer client.Close()
		cooldowns = pattern.NewRedisCooldowns(client)
		slog.Info("Using redis cooldown registry", "addr", cfg.RedisAddr)
	} else {
		cooldowns = pattern.NewMemoryCooldowns()
		slog.Info("Using in-memory cooldown registry")
	}

	// Initialize services.
	conns := transport.NewConnManager()
	hub := dispatch.NewHub(cfg.MonitorQueueSize, logger)
	dispatcher := dispatch.NewDispatcher(conns, hub, sink, logger)

	registry := session.NewRegistry(session.Deps{
		Table:     table,
		Cooldowns: cooldowns,
		Emitter:   dispatcher,
		Detector:  section.NewDetector(),
		Logger:    logger,
		QueueSize: cfg.IngestQueueSize,
	})
	registry.SetEvictCallback(conns.CloseSession)

	// Initialize handlers.
	baseHandler := api.NewHandler(registry, hub, conns, sink)
	telemetryHandler := transport.NewTelemetryHandler(registry, conns, cfg.AllowedOrigin, cfg.IsDevelopment())
	monitorHandler := transport.NewMonitorHandler(hub, cfg.AllowedOrigin, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS([]string{cfg.AllowedOrigin}))

	r.Get("/api/health", baseHandler.Health)
	r.Get("/api/stats", baseHandler.Stats)

	// WebSocket endpoints.
	r.Get("/ws/telemetry", telemetryHandler.ServeHTTP)
	r.Get("/ws/monitor", monitorHandler.ServeHTTP)

	// Create server.
	// Note: WebSocket connections require long timeouts (no WriteTimeout).
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// Start background workers.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry.StartSweeper(ctx, cfg.SweepInterval, cfg.SessionIdleTimeout)
	slog.Info("Session sweeper started", "interval", cfg.SweepInterval, "idle_timeout", cfg.SessionIdleTimeout)

	retention := store.StartRetentionJob(sink, cfg.EventRetention, logger)
	defer retention.Stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	registry.Shutdown()
	slog.Info("Server stopped successfully")
}
