package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/vehicle-tracker/internal/adapters/geojson"
	"github.com/samirrijal/vehicle-tracker/internal/core/playback"
)

// VehicleLocationHandler returns the stored route as a JSON array of
// {latitude, longitude, timestamp} in temporal order.
func VehicleLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		route, err := deps.Locations.FetchRoute(c.UserContext())
		if err != nil {
			return errFetch(c, err)
		}
		return c.JSON(route)
	}
}

// VehicleLocationGeoJSONHandler returns the route rendered at cursor 0 as a
// GeoJSON FeatureCollection.
func VehicleLocationGeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		frame, err := deps.Locations.Preview(c.UserContext(), deps.Pattern)
		if err != nil {
			return errFetch(c, err)
		}
		return c.JSON(geojson.FromFrame(frame), "application/geo+json")
	}
}

// VehicleLocationFrameHandler renders the frame a playback would show at
// ?cursor=N (default 0).
func VehicleLocationFrameHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cursor := c.QueryInt("cursor", 0)

		route, err := deps.Locations.FetchRoute(c.UserContext())
		if err != nil {
			return errFetch(c, err)
		}

		maxCursor := len(route) - 1
		if maxCursor < 0 {
			maxCursor = 0
		}
		if cursor < 0 || cursor > maxCursor {
			return errBadRequest(c, fmt.Sprintf("cursor must be between 0 and %d", maxCursor))
		}

		frame := playback.Render(route, cursor, playback.PhaseAt(cursor, len(route)), deps.Pattern)
		return c.JSON(frame)
	}
}
