package domain

import (
	"encoding/json"
	"fmt"

	"github.com/samirrijal/vehicle-tracker/internal/pkg/validation"
)

// LocationRecord is one observed vehicle position.
// Timestamp is opaque and only ever displayed; it never drives playback pace.
type LocationRecord struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Timestamp string  `json:"timestamp"`
}

// locationRecordWire is the decoding shape of LocationRecord. Pointer fields
// tell a missing key apart from a zero value.
type locationRecordWire struct {
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
	Timestamp *string  `json:"timestamp" validate:"required"`
}

// UnmarshalJSON rejects records missing latitude, longitude or timestamp.
// Range checks are left to validation of the decoded record.
func (r *LocationRecord) UnmarshalJSON(data []byte) error {
	var w locationRecordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if err := validation.Struct(w); err != nil {
		return fmt.Errorf("location record: %w", err)
	}
	*r = LocationRecord{Latitude: *w.Latitude, Longitude: *w.Longitude, Timestamp: *w.Timestamp}
	return nil
}

// Point returns the record's coordinate.
func (r LocationRecord) Point() GeoPoint {
	return GeoPoint{Lat: r.Latitude, Lon: r.Longitude}
}

// Route is the ordered sequence of records for one vehicle.
// Slice order is temporal order. Consecutive identical points are a valid
// stationary segment and are kept as-is.
type Route []LocationRecord

// Path returns the ordered coordinate list of the route.
func (r Route) Path() []GeoPoint {
	path := make([]GeoPoint, len(r))
	for i, rec := range r {
		path[i] = rec.Point()
	}
	return path
}

// Clone returns a copy that shares no backing array with r.
func (r Route) Clone() Route {
	if r == nil {
		return nil
	}
	out := make(Route, len(r))
	copy(out, r)
	return out
}
