package media

import (
	"context"
	"sync"
	"time"

	"github.com/demotape/demotape/internal/core"
)

// Mock is a test double for Element.
type Mock struct {
	mu sync.Mutex

	loadErr   error
	loadCalls []string
	seekCalls []time.Duration
	playing   bool
	loaded    bool
	position  time.Duration
	duration  time.Duration

	events chan Event
	closed bool
}

// NewMock creates a new mock element for testing.
func NewMock() *Mock {
	return &Mock{
		events: make(chan Event, eventBufferSize),
	}
}

func (m *Mock) Load(_ context.Context, url string, _ core.Format) error {
	m.mu.Lock()
	m.loadCalls = append(m.loadCalls, url)
	err := m.loadErr
	if err == nil {
		m.loaded = true
		m.playing = false
		m.position = 0
	}
	m.mu.Unlock()

	if err != nil {
		m.emit(Event{Kind: EventError, Err: err})
		return err
	}
	m.emit(Event{Kind: EventCanPlay})
	return nil
}

func (m *Mock) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded {
		m.playing = true
	}
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
}

func (m *Mock) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) SeekTo(pos time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekCalls = append(m.seekCalls, pos)
	m.position = pos
	return nil
}

func (m *Mock) Events() <-chan Event {
	return m.events
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.events)
	return nil
}

func (m *Mock) emit(ev Event) {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return
	}
	select {
	case m.events <- ev:
	default:
	}
}

// Test helpers

// SetLoadError makes subsequent Loads fail with err.
func (m *Mock) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// SetDuration sets the reported source duration.
func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

// SetPosition sets the reported playback position.
func (m *Mock) SetPosition(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = d
}

// LoadCalls returns the URLs passed to Load.
func (m *Mock) LoadCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.loadCalls))
	copy(out, m.loadCalls)
	return out
}

// SeekCalls returns the positions passed to SeekTo.
func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.seekCalls))
	copy(out, m.seekCalls)
	return out
}

// FireTimeUpdate simulates a timeupdate event.
func (m *Mock) FireTimeUpdate() {
	m.emit(Event{Kind: EventTimeUpdate})
}

// FireEnded simulates the source playing to completion.
func (m *Mock) FireEnded() {
	m.mu.Lock()
	m.playing = false
	m.mu.Unlock()
	m.emit(Event{Kind: EventEnded})
}

// FireError simulates a playback failure.
func (m *Mock) FireError(err error) {
	m.mu.Lock()
	m.playing = false
	m.mu.Unlock()
	m.emit(Event{Kind: EventError, Err: err})
}

// Verify Mock implements Element at compile time.
var _ Element = (*Mock)(nil)
