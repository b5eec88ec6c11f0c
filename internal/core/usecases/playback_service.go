package usecases

import (
	"context"
	"log/slog"
	"time"

	"github.com/samirrijal/vehicle-tracker/internal/core/domain"
	"github.com/samirrijal/vehicle-tracker/internal/core/playback"
	"github.com/samirrijal/vehicle-tracker/internal/core/ports"
	"github.com/samirrijal/vehicle-tracker/internal/pkg/metrics"
)

const publishTimeout = 2 * time.Second

// PlaybackService creates playback sessions over a location provider and
// optionally mirrors their frames to a broker.
type PlaybackService struct {
	provider  ports.LocationProvider
	publisher ports.FramePublisher
	vehicleID string
	interval  time.Duration
	pattern   playback.Pattern
}

// NewPlaybackService creates a PlaybackService. publisher may be nil.
func NewPlaybackService(
	provider ports.LocationProvider,
	publisher ports.FramePublisher,
	vehicleID string,
	interval time.Duration,
	pattern playback.Pattern,
) *PlaybackService {
	return &PlaybackService{
		provider:  provider,
		publisher: publisher,
		vehicleID: vehicleID,
		interval:  interval,
		pattern:   pattern,
	}
}

// NewSession returns an unstarted controller. onFrame may be nil. Extra
// options are applied last.
func (s *PlaybackService) NewSession(onFrame func(domain.Frame), opts ...playback.Option) *playback.Controller {
	base := []playback.Option{
		playback.WithInterval(s.interval),
		playback.WithPattern(s.pattern),
		playback.OnFrame(s.observe),
	}
	if onFrame != nil {
		base = append(base, playback.OnFrame(onFrame))
	}
	return playback.NewController(s.provider, append(base, opts...)...)
}

func (s *PlaybackService) observe(f domain.Frame) {
	if f.Phase == domain.PhaseAdvancing || f.Phase == domain.PhaseCompleted {
		metrics.PlaybackTicks.Inc()
	}
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishFrame(ctx, s.vehicleID, &f); err != nil {
		slog.Warn("publish frame failed", "session_id", f.SessionID, "cursor", f.Cursor, "error", err)
		return
	}
	metrics.FramesPublished.WithLabelValues("nats").Inc()
}

// Run plays the route to the end. It returns the fetch error if the route
// cannot be loaded, ctx.Err() if cancelled first, and nil once the last
// record is reached. The session is always torn down before Run returns.
func (s *PlaybackService) Run(ctx context.Context, onFrame func(domain.Frame), opts ...playback.Option) error {
	done := make(chan struct{}, 1)
	watch := func(f domain.Frame) {
		if onFrame != nil {
			onFrame(f)
		}
		if f.Phase == domain.PhaseCompleted {
			select {
			case done <- struct{}{}:
			default:
			}
		}
	}

	c := s.NewSession(watch, opts...)
	metrics.PlaybackSessions.Inc()
	defer metrics.PlaybackSessions.Dec()
	defer c.Stop()

	if err := c.Load(ctx); err != nil {
		return err
	}
	if c.Frame().Total <= 1 {
		// Nothing to advance through.
		return nil
	}
	if err := c.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
