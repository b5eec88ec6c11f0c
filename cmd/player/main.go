package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/samirrijal/vehicle-tracker/internal/adapters/httpclient"
	natsadapter "github.com/samirrijal/vehicle-tracker/internal/adapters/nats"
	"github.com/samirrijal/vehicle-tracker/internal/core/domain"
	"github.com/samirrijal/vehicle-tracker/internal/core/playback"
	"github.com/samirrijal/vehicle-tracker/internal/core/ports"
	"github.com/samirrijal/vehicle-tracker/internal/core/usecases"
	"github.com/samirrijal/vehicle-tracker/internal/pkg/config"
	"github.com/samirrijal/vehicle-tracker/internal/pkg/logging"
)

func main() {
	cmd := "play"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	cfg, err := config.Load("vehicle-tracker-player")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "play":
		play(ctx, cfg)
	case "watch":
		watch(ctx, cfg)
	default:
		log.Fatalf("usage: player <play|watch>")
	}
}

// play fetches the route from the API and animates it, one record per tick.
func play(ctx context.Context, cfg *config.Config) {
	provider := httpclient.New(cfg.Playback.SourceURL, &fasthttp.Client{
		Name:                "vehicle-tracker-player",
		MaxIdleConnDuration: 30 * time.Second,
	})

	var publisher ports.FramePublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, frames will only be logged", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	pattern := playback.Pattern{Offset: cfg.Render.ArrowOffset, Repeat: cfg.Render.ArrowRepeat}
	svc := usecases.NewPlaybackService(provider, publisher, cfg.Playback.VehicleID, cfg.Playback.Interval, pattern)

	slog.Info("player starting", "source", cfg.Playback.SourceURL, "interval", cfg.Playback.Interval.String())

	err = svc.Run(ctx, logFrame)
	switch {
	case err == nil:
		slog.Info("playback finished")
	case errors.Is(err, context.Canceled):
		slog.Info("playback interrupted")
	case domain.IsTransportError(err):
		log.Fatalf("route unavailable: %v", err)
	default:
		log.Fatalf("playback: %v", err)
	}
}

// watch prints frames published by any player or replayer until interrupted.
func watch(ctx context.Context, cfg *config.Config) {
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	err = sub.SubscribeFrames(ctx, "*", func(ctx context.Context, f *domain.Frame) error {
		logFrame(*f)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("watching playback frames", "subject", natsadapter.SubjectAll)
	<-ctx.Done()
}

func logFrame(f domain.Frame) {
	attrs := []any{
		"session_id", f.SessionID,
		"phase", f.Phase,
		"cursor", f.Cursor,
		"total", f.Total,
		"markers", len(f.DirectionalMarkers),
	}
	if f.Current != nil {
		attrs = append(attrs,
			"lat", f.Current.Latitude,
			"lon", f.Current.Longitude,
			"timestamp", f.Current.Timestamp,
		)
	}
	slog.Info("frame", attrs...)
}
