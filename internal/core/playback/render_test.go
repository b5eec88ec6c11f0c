package playback_test

import (
	"testing"

	"github.com/samirrijal/vehicle-tracker/internal/core/domain"
	"github.com/samirrijal/vehicle-tracker/internal/core/playback"
)

func TestRender_FullPathIndependentOfCursor(t *testing.T) {
	for cursor := 0; cursor < len(threePoints); cursor++ {
		f := playback.Render(threePoints, cursor, domain.PhaseAdvancing, playback.DefaultPattern)
		if len(f.FullPath) != 3 {
			t.Fatalf("cursor %d: expected full path of 3, got %d", cursor, len(f.FullPath))
		}
		if f.FullPath[2] != (domain.GeoPoint{Lat: 12, Lon: 22}) {
			t.Errorf("cursor %d: unexpected last path point %+v", cursor, f.FullPath[2])
		}
		if len(f.DirectionalMarkers) != 1 {
			t.Errorf("cursor %d: expected 1 marker, got %d", cursor, len(f.DirectionalMarkers))
		}
		if f.Current == nil || *f.Current != threePoints[cursor] {
			t.Errorf("cursor %d: unexpected current %+v", cursor, f.Current)
		}
	}
}

func TestRender_Uninitialized(t *testing.T) {
	f := playback.Render(nil, 0, domain.PhaseUninitialized, playback.DefaultPattern)
	if f.Current != nil {
		t.Error("expected no current record")
	}
	if f.Total != 0 || len(f.FullPath) != 0 || len(f.DirectionalMarkers) != 0 {
		t.Errorf("expected empty frame, got %+v", f)
	}
}

func TestDirectionalMarkers_DefaultPlacement(t *testing.T) {
	markers := playback.DirectionalMarkers(threePoints.Path(), playback.DefaultPattern)
	if len(markers) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(markers))
	}
	m := markers[0]
	// 26% of two near-equal segments lands in the first one.
	if m.Segment != 0 {
		t.Errorf("expected segment 0, got %d", m.Segment)
	}
	if m.Bearing <= 0 || m.Bearing >= 90 {
		t.Errorf("expected a north-east bearing, got %.2f", m.Bearing)
	}
	if m.Position.Lat <= 10 || m.Position.Lat >= 11 {
		t.Errorf("expected marker between the first two points, got %+v", m.Position)
	}
}

func TestDirectionalMarkers_Repeat(t *testing.T) {
	markers := playback.DirectionalMarkers(threePoints.Path(), playback.Pattern{Offset: 0, Repeat: 0.25})
	if len(markers) != 5 {
		t.Fatalf("expected 5 markers at 0, .25, .5, .75, 1, got %d", len(markers))
	}
	if markers[0].Segment != 0 || markers[4].Segment != 1 {
		t.Errorf("unexpected segments: first=%d last=%d", markers[0].Segment, markers[4].Segment)
	}
}

func TestDirectionalMarkers_FewerThanTwoPoints(t *testing.T) {
	if m := playback.DirectionalMarkers(nil, playback.DefaultPattern); len(m) != 0 {
		t.Errorf("expected none for empty path, got %d", len(m))
	}
	one := []domain.GeoPoint{{Lat: 1, Lon: 1}}
	if m := playback.DirectionalMarkers(one, playback.DefaultPattern); len(m) != 0 {
		t.Errorf("expected none for single point, got %d", len(m))
	}
}

func TestDirectionalMarkers_SkipsStationarySegments(t *testing.T) {
	path := []domain.GeoPoint{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 1},
	}
	markers := playback.DirectionalMarkers(path, playback.Pattern{Offset: 0})
	if len(markers) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(markers))
	}
	if markers[0].Segment != 1 {
		t.Errorf("expected marker on the moving segment, got %d", markers[0].Segment)
	}
	if markers[0].Bearing < 89.9 || markers[0].Bearing > 90.1 {
		t.Errorf("expected east bearing, got %.3f", markers[0].Bearing)
	}
}

func TestDirectionalMarkers_AllStationary(t *testing.T) {
	path := []domain.GeoPoint{{Lat: 5, Lon: 5}, {Lat: 5, Lon: 5}}
	markers := playback.DirectionalMarkers(path, playback.DefaultPattern)
	if len(markers) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(markers))
	}
	if markers[0].Position != (domain.GeoPoint{Lat: 5, Lon: 5}) {
		t.Errorf("unexpected position %+v", markers[0].Position)
	}
}

func TestPhaseAt(t *testing.T) {
	tests := []struct {
		cursor, n int
		want      domain.Phase
	}{
		{0, 0, domain.PhaseLoaded},
		{0, 1, domain.PhaseLoaded},
		{0, 3, domain.PhaseLoaded},
		{1, 3, domain.PhaseAdvancing},
		{2, 3, domain.PhaseCompleted},
	}
	for _, tt := range tests {
		if got := playback.PhaseAt(tt.cursor, tt.n); got != tt.want {
			t.Errorf("PhaseAt(%d, %d) = %s, want %s", tt.cursor, tt.n, got, tt.want)
		}
	}
}
