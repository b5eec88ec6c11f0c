package domain

// Phase is the lifecycle state of a playback session.
type Phase string

const (
	PhaseUninitialized Phase = "uninitialized" // No route loaded (initial, or fetch failed)
	PhaseLoaded        Phase = "loaded"        // Route loaded, cursor at 0
	PhaseAdvancing     Phase = "advancing"     // Cursor moved, end not reached
	PhaseCompleted     Phase = "completed"     // Holding at the last record
	PhaseStopped       Phase = "stopped"       // Torn down; no further ticks apply
)

// DirectionalMarker is an arrowhead drawn on the path to show travel direction.
type DirectionalMarker struct {
	Position GeoPoint `json:"position"`
	Bearing  float64  `json:"bearing"` // degrees clockwise from north, [0, 360)
	Segment  int      `json:"segment"` // index of the segment start record
}

// Frame is everything the map layer needs for one render pass.
// Current is nil when the route is empty or not yet loaded.
type Frame struct {
	SessionID          string              `json:"session_id,omitempty"`
	Phase              Phase               `json:"phase"`
	Cursor             int                 `json:"cursor"`
	Total              int                 `json:"total"`
	FullPath           []GeoPoint          `json:"full_path"`
	Current            *LocationRecord     `json:"current,omitempty"`
	DirectionalMarkers []DirectionalMarker `json:"directional_markers"`
}
