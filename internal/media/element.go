// Package media abstracts the audio output element. The player controller
// only sets a stream URL on it and observes its lifecycle events; it never
// parses audio bytes itself.
package media

import (
	"context"
	"time"

	"github.com/demotape/demotape/internal/core"
)

// EventKind classifies element lifecycle events.
type EventKind int

const (
	// EventCanPlay fires once per Load, when the source is decodable and
	// playback can start.
	EventCanPlay EventKind = iota
	// EventTimeUpdate fires periodically while playing.
	EventTimeUpdate
	// EventEnded fires when the current source plays to completion.
	EventEnded
	// EventError fires when the source cannot be played.
	EventError
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventCanPlay:
		return "canplay"
	case EventTimeUpdate:
		return "timeupdate"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a single element lifecycle event.
type Event struct {
	Kind EventKind
	Err  error // set for EventError
}

// Element is the playback surface contract. Exactly one component (the
// player controller) may own an element at a time.
type Element interface {
	// Load fetches and prepares the source. On success an EventCanPlay is
	// delivered on Events(); on failure an EventError is delivered and
	// Load returns the error. Loading replaces any current source.
	Load(ctx context.Context, url string, format core.Format) error

	// Play starts or resumes playback of the loaded source.
	Play()

	// Pause suspends playback, keeping the loaded source.
	Pause()

	// Playing reports whether audio is currently advancing.
	Playing() bool

	// Position returns the playback position in the current source.
	Position() time.Duration

	// Duration returns the total length of the current source, or 0 if
	// unknown (live transcode streams may not report one).
	Duration() time.Duration

	// SeekTo jumps to an absolute position. Best effort; not all sources
	// are seekable.
	SeekTo(pos time.Duration) error

	// Events delivers lifecycle events. The channel is closed by Close.
	Events() <-chan Event

	// Close releases the audio device and closes the event channel.
	Close() error
}
