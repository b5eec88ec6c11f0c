package playback

import "github.com/samirrijal/vehicle-tracker/internal/core/domain"

// State is the owned playback state: an immutable route and a cursor into it.
// It has no clock and no locking; Controller and the replay workflow drive it.
type State struct {
	route  domain.Route
	loaded bool
	failed bool
	cursor int
	phase  domain.Phase
}

// NewState returns an uninitialized state.
func NewState() *State {
	return &State{phase: domain.PhaseUninitialized}
}

// Load installs the route and places the cursor at 0. A state loads at most
// once; later calls, calls after Fail and calls after Stop are ignored and
// return false. An empty route is accepted: the state is loaded but has no
// current record.
func (s *State) Load(route domain.Route) bool {
	if s.loaded || s.failed || s.phase == domain.PhaseStopped {
		return false
	}
	s.route = route.Clone()
	s.loaded = true
	s.cursor = 0
	s.phase = domain.PhaseLoaded
	return true
}

// Fail records that the route could not be fetched. The state stays
// uninitialized for good. No-op once loaded.
func (s *State) Fail() {
	if !s.loaded {
		s.failed = true
	}
}

// Advance applies one tick and reports whether the cursor moved.
// Ticks before Load, after Stop, on an empty route, or at the last record
// are no-ops.
func (s *State) Advance() bool {
	if !s.loaded || s.phase == domain.PhaseStopped {
		return false
	}
	n := len(s.route)
	if n == 0 {
		return false
	}
	if s.cursor+1 < n {
		s.cursor++
		if s.cursor == n-1 {
			s.phase = domain.PhaseCompleted
		} else {
			s.phase = domain.PhaseAdvancing
		}
		return true
	}
	// Single-record routes reach here on the first tick.
	s.phase = domain.PhaseCompleted
	return false
}

// Stop freezes the state. Idempotent.
func (s *State) Stop() {
	s.phase = domain.PhaseStopped
}

func (s *State) Phase() domain.Phase { return s.phase }
func (s *State) Cursor() int         { return s.cursor }
func (s *State) Loaded() bool        { return s.loaded }
func (s *State) Failed() bool        { return s.failed }
func (s *State) Len() int            { return len(s.route) }

// Current returns route[cursor]. ok is false before load and for empty routes.
func (s *State) Current() (rec domain.LocationRecord, ok bool) {
	if !s.loaded || s.cursor >= len(s.route) {
		return domain.LocationRecord{}, false
	}
	return s.route[s.cursor], true
}

// Frame renders the current state.
func (s *State) Frame(p Pattern) domain.Frame {
	return Render(s.route, s.cursor, s.phase, p)
}
