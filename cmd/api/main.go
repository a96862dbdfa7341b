package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/geodraw/internal/adapters/http"
	natsadapter "github.com/samirrijal/geodraw/internal/adapters/nats"
	"github.com/samirrijal/geodraw/internal/adapters/postgres"
	"github.com/samirrijal/geodraw/internal/adapters/surface"
	"github.com/samirrijal/geodraw/internal/adapters/valkey"
	"github.com/samirrijal/geodraw/internal/core/ports"
	"github.com/samirrijal/geodraw/internal/core/usecases"
	"github.com/samirrijal/geodraw/internal/core/validation"
	"github.com/samirrijal/geodraw/internal/pkg/config"
	"github.com/samirrijal/geodraw/internal/pkg/logging"
	"github.com/samirrijal/geodraw/internal/pkg/metrics"
	"github.com/samirrijal/geodraw/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("geodraw-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer func() {
				sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer scancel()
				_ = shutdown(sctx)
			}()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache is optional; a nil *valkey.Cache must not reach the interface.
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// NATS
	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	// Use cases
	validator := validation.New(validation.Limits{
		MinArea: cfg.Geometry.MinAreaM2,
		MaxArea: cfg.Geometry.MaxAreaM2,
	})
	locationSvc := usecases.NewLocationService(postgres.NewLocationRepo(db), cacheSvc, events)
	sessions := usecases.NewSessionManager(cfg.Session.MaxSessions, surface.New,
		usecases.WithValidator(validator),
		usecases.WithHistorySize(cfg.Session.HistorySize),
	)

	go housekeeping(ctx, sessions, db, time.Duration(cfg.Session.IdleTimeout)*time.Second)

	deps := &http.Dependencies{
		Sessions:  sessions,
		Locations: locationSvc,
		Validator: validator,
		NATS:      natsConn,
		DB:        db,
		Cache:     cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "GeoDraw API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, If-None-Match",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// housekeeping evicts idle draw sessions and refreshes the gauges once a
// minute.
func housekeeping(ctx context.Context, sessions *usecases.SessionManager, db *postgres.DB, idle time.Duration) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.EvictIdle(idle); n > 0 {
				slog.Info("evicted idle draw sessions", "count", n)
			}
			metrics.SessionsActive.Set(float64(sessions.Len()))
			metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		}
	}
}
