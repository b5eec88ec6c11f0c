// Package geojson encodes playback frames as GeoJSON for map clients.
package geojson

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/vehicle-tracker/internal/core/domain"
)

// Feature kinds, stored in the "kind" property.
const (
	KindPath    = "path"
	KindCurrent = "current"
	KindArrow   = "arrow"
)

// FromFrame builds a FeatureCollection with the full path as a LineString,
// the current record as a Point and one Point per directional marker.
// Features are omitted when the frame has nothing to draw for them; a path
// needs at least two points to be a valid LineString.
func FromFrame(f domain.Frame) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.ExtraMembers = geojson.Properties{
		"phase":  string(f.Phase),
		"cursor": f.Cursor,
		"total":  f.Total,
	}
	if f.SessionID != "" {
		fc.ExtraMembers["session_id"] = f.SessionID
	}

	if b, ok := domain.BoundsOf(f.FullPath); ok {
		fc.BBox = geojson.BBox{b.MinLon, b.MinLat, b.MaxLon, b.MaxLat}
	}

	if len(f.FullPath) >= 2 {
		line := make(orb.LineString, len(f.FullPath))
		for i, p := range f.FullPath {
			line[i] = point(p)
		}
		feat := geojson.NewFeature(line)
		feat.Properties["kind"] = KindPath
		fc.Append(feat)
	}

	if f.Current != nil {
		feat := geojson.NewFeature(point(f.Current.Point()))
		feat.Properties["kind"] = KindCurrent
		feat.Properties["latitude"] = f.Current.Latitude
		feat.Properties["longitude"] = f.Current.Longitude
		feat.Properties["timestamp"] = f.Current.Timestamp
		fc.Append(feat)
	}

	for _, m := range f.DirectionalMarkers {
		feat := geojson.NewFeature(point(m.Position))
		feat.Properties["kind"] = KindArrow
		feat.Properties["bearing"] = m.Bearing
		feat.Properties["segment"] = m.Segment
		fc.Append(feat)
	}
	return fc
}

// GeoJSON orders coordinates lon, lat.
func point(p domain.GeoPoint) orb.Point {
	return orb.Point{p.Lon, p.Lat}
}
