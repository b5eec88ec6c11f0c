package ports

import (
	"context"

	"github.com/samirrijal/vehicle-tracker/internal/core/domain"
)

// LocationProvider supplies the complete, ordered route.
// Failures are reported as *domain.TransportError.
type LocationProvider interface {
	FetchRoute(ctx context.Context) (domain.Route, error)
}

// FramePublisher publishes playback frames to a message broker.
type FramePublisher interface {
	PublishFrame(ctx context.Context, vehicleID string, frame *domain.Frame) error
}

// FrameSubscriber subscribes to playback frames from a message broker.
type FrameSubscriber interface {
	SubscribeFrames(ctx context.Context, vehicleID string, handler func(ctx context.Context, frame *domain.Frame) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
