package player

// State represents the controller's playback state.
type State int

const (
	// StateIdle means no media source is loaded. A snapshot may still be
	// displayed (the server's current track before first play).
	StateIdle State = iota
	// StateLoading spans from issuing a playback-affecting request until
	// the resulting media is playable or errored. It serializes
	// transitions: no second next/prev is issued while Loading.
	StateLoading
	// StatePlaying means audio is advancing.
	StatePlaying
	// StatePaused means a source is loaded and suspended.
	StatePaused
	// StateErrored means the current source failed to play; an auto-skip
	// is pending.
	StateErrored
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLoading:
		return "Loading"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateErrored:
		return "Errored"
	default:
		return "Unknown"
	}
}

// Ready returns true if a source is loaded (playing or paused).
func (s State) Ready() bool {
	return s == StatePlaying || s == StatePaused
}
