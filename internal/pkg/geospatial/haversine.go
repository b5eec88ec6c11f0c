package geospatial

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * earthRadiusKm * 1000 // meters
}

// Bearing returns the initial great-circle bearing from point 1 to point 2
// in degrees, normalised to [0, 360). Identical points yield 0.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	return bearingS2(s2.LatLngFromDegrees(lat1, lon1), s2.LatLngFromDegrees(lat2, lon2))
}

func bearingS2(p1, p2 s2.LatLng) float64 {
	if p1.Distance(p2) == 0 {
		return 0
	}
	lat1 := p1.Lat.Radians()
	lat2 := p2.Lat.Radians()
	dLng := (p2.Lng - p1.Lng).Radians()

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	return math.Mod(s1.Angle(math.Atan2(y, x)).Degrees()+360, 360)
}

// Interpolate returns the point at fraction t (clamped to [0,1]) along the
// great-circle segment from point 1 to point 2.
func Interpolate(lat1, lon1, lat2, lon2, t float64) (lat, lon float64) {
	if t <= 0 {
		return lat1, lon1
	}
	if t >= 1 {
		return lat2, lon2
	}

	a := s2.PointFromLatLng(s2.LatLngFromDegrees(lat1, lon1))
	b := s2.PointFromLatLng(s2.LatLngFromDegrees(lat2, lon2))
	ll := s2.LatLngFromPoint(s2.Interpolate(t, a, b))
	return ll.Lat.Degrees(), ll.Lng.Degrees()
}
