package ports

import (
	"context"

	"github.com/samirrijal/vehicle-tracker/internal/core/domain"
)

// LocationRepository reads the stored route of the tracked vehicle.
type LocationRepository interface {
	// List returns every record in temporal order.
	List(ctx context.Context) (domain.Route, error)
	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
}

// LocationWriter replaces the stored route. Used by seeding tools only.
type LocationWriter interface {
	ReplaceAll(ctx context.Context, route domain.Route) error
}
