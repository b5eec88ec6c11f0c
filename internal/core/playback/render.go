package playback

import (
	"github.com/samirrijal/vehicle-tracker/internal/core/domain"
	"github.com/samirrijal/vehicle-tracker/internal/pkg/geospatial"
)

// maxMarkers bounds the arrow count for tiny repeat values.
const maxMarkers = 1000

// Pattern places arrowheads along the whole path, as fractions of its
// total length.
type Pattern struct {
	Offset float64 // position of the first arrow, [0,1]
	Repeat float64 // spacing between arrows; 0 draws a single arrow
}

// DefaultPattern draws one arrow a quarter of the way along the path.
var DefaultPattern = Pattern{Offset: 0.26}

func (p Pattern) fractions() []float64 {
	offset := clamp01(p.Offset)
	if p.Repeat <= 0 {
		return []float64{offset}
	}
	var out []float64
	for f := offset; f <= 1 && len(out) < maxMarkers; f += p.Repeat {
		out = append(out, f)
	}
	return out
}

// Render builds the frame for route at cursor. The full path and the
// directional markers always cover the whole route regardless of cursor.
func Render(route domain.Route, cursor int, phase domain.Phase, p Pattern) domain.Frame {
	path := route.Path()
	f := domain.Frame{
		Phase:              phase,
		Cursor:             cursor,
		Total:              len(route),
		FullPath:           path,
		DirectionalMarkers: DirectionalMarkers(path, p),
	}
	if cursor >= 0 && cursor < len(route) {
		rec := route[cursor]
		f.Current = &rec
	}
	return f
}

// DirectionalMarkers computes arrowheads from consecutive coordinate pairs.
// Fewer than two points yield no markers.
func DirectionalMarkers(path []domain.GeoPoint, p Pattern) []domain.DirectionalMarker {
	markers := []domain.DirectionalMarker{}
	if len(path) < 2 {
		return markers
	}

	segLen := make([]float64, len(path)-1)
	total := 0.0
	for i := range segLen {
		a, b := path[i], path[i+1]
		segLen[i] = geospatial.Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
		total += segLen[i]
	}

	for _, frac := range p.fractions() {
		i, t := locate(segLen, frac*total)
		a, b := path[i], path[i+1]
		lat, lon := geospatial.Interpolate(a.Lat, a.Lon, b.Lat, b.Lon, t)
		markers = append(markers, domain.DirectionalMarker{
			Position: domain.GeoPoint{Lat: lat, Lon: lon},
			Bearing:  geospatial.Bearing(a.Lat, a.Lon, b.Lat, b.Lon),
			Segment:  i,
		})
	}
	return markers
}

// locate finds the segment containing distance target and the fraction
// along it. Stationary segments are skipped so arrows point somewhere.
func locate(segLen []float64, target float64) (int, float64) {
	acc := 0.0
	for i, l := range segLen {
		if l > 0 && target <= acc+l {
			return i, (target - acc) / l
		}
		acc += l
	}
	for i := len(segLen) - 1; i >= 0; i-- {
		if segLen[i] > 0 {
			return i, 1
		}
	}
	return 0, 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// PhaseAt is the phase an uninterrupted playback of n records reports with
// the cursor at cursor.
func PhaseAt(cursor, n int) domain.Phase {
	switch {
	case cursor <= 0:
		return domain.PhaseLoaded
	case cursor >= n-1:
		return domain.PhaseCompleted
	default:
		return domain.PhaseAdvancing
	}
}
