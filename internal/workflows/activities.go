package workflows

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samirrijal/vehicle-tracker/internal/core/domain"
	"github.com/samirrijal/vehicle-tracker/internal/core/ports"
	"github.com/samirrijal/vehicle-tracker/internal/pkg/metrics"
)

// ReplayActivities holds the activity implementations for the replay workflow.
type ReplayActivities struct {
	Provider  ports.LocationProvider
	Publisher ports.FramePublisher
}

// FetchRoute returns the complete route from the provider.
func (a *ReplayActivities) FetchRoute(ctx context.Context) (domain.Route, error) {
	route, err := a.Provider.FetchRoute(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch route: %w", err)
	}
	return route, nil
}

// PublishFrame mirrors a frame to the broker. Without a publisher the frame
// is only logged.
func (a *ReplayActivities) PublishFrame(ctx context.Context, vehicleID string, frame domain.Frame) error {
	if a.Publisher == nil {
		slog.InfoContext(ctx, "frame (no publisher)",
			"vehicle", vehicleID, "phase", frame.Phase, "cursor", frame.Cursor, "total", frame.Total)
		return nil
	}
	if err := a.Publisher.PublishFrame(ctx, vehicleID, &frame); err != nil {
		return fmt.Errorf("publish frame %d: %w", frame.Cursor, err)
	}
	metrics.FramesPublished.WithLabelValues("nats").Inc()
	return nil
}
