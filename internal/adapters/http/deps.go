package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/vehicle-tracker/internal/adapters/valkey"
	"github.com/samirrijal/vehicle-tracker/internal/core/playback"
	"github.com/samirrijal/vehicle-tracker/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Locations *usecases.LocationService
	Playback  *usecases.PlaybackService
	Pattern   playback.Pattern
	NATS      *nats.Conn
	Cache     *valkey.Cache
	// OpenAPIPath is served at /docs/openapi.yaml. Defaults to api/openapi.yaml.
	OpenAPIPath string
}
