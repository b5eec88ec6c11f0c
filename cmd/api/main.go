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

	"github.com/samirrijal/vehicle-tracker/internal/adapters/filestore"
	"github.com/samirrijal/vehicle-tracker/internal/adapters/http"
	natsadapter "github.com/samirrijal/vehicle-tracker/internal/adapters/nats"
	"github.com/samirrijal/vehicle-tracker/internal/adapters/source"
	"github.com/samirrijal/vehicle-tracker/internal/adapters/valkey"
	"github.com/samirrijal/vehicle-tracker/internal/core/playback"
	"github.com/samirrijal/vehicle-tracker/internal/core/ports"
	"github.com/samirrijal/vehicle-tracker/internal/core/usecases"
	"github.com/samirrijal/vehicle-tracker/internal/pkg/config"
	"github.com/samirrijal/vehicle-tracker/internal/pkg/logging"
	"github.com/samirrijal/vehicle-tracker/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("vehicle-tracker-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Route source
	store, closeStore, err := source.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("route source: %v", err)
	}
	defer closeStore()

	// Cache (optional). A nil *valkey.Cache must not reach the service as a
	// non-nil interface.
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, route cache disabled", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// NATS (optional): frame publishing and the WebSocket relay
	var publisher ports.FramePublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, frames will not be published", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Use cases
	pattern := playback.Pattern{Offset: cfg.Render.ArrowOffset, Repeat: cfg.Render.ArrowRepeat}
	locationSvc := usecases.NewLocationService(store, cacheSvc, cfg.Source.CacheTTL, cfg.Source.Kind)
	playbackSvc := usecases.NewPlaybackService(locationSvc, publisher, cfg.Playback.VehicleID, cfg.Playback.Interval, pattern)

	// Reseeding or editing the data file drops the cached route.
	if fs, ok := store.(*filestore.Store); ok && cacheSvc != nil {
		err := fs.Watch(ctx, func() {
			if err := locationSvc.Invalidate(ctx); err != nil {
				slog.Warn("route cache invalidation failed", "error", err)
			}
		})
		if err != nil {
			slog.Warn("route file watch unavailable", "error", err)
		}
	}

	deps := &http.Dependencies{
		Locations: locationSvc,
		Playback:  playbackSvc,
		Pattern:   pattern,
		Cache:     cache,
	}
	if pub != nil {
		deps.NATS = pub.Conn()
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Vehicle Tracker API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	slog.Info("route source configured", "kind", cfg.Source.Kind, "cache_ttl", cfg.Source.CacheTTL)

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

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
