// Package notify holds ephemeral user-facing messages. Notices are
// fire-and-forget and auto-dismiss after a fixed lifetime.
package notify

import (
	"sync"
	"time"
)

// DefaultLifetime is how long a notice stays visible.
const DefaultLifetime = 4 * time.Second

// Notifier is the interface components use to surface messages to the user.
type Notifier interface {
	Notify(text string)
}

// Notice is a single toast message.
type Notice struct {
	Text   string
	Expiry time.Time
}

// Sink collects notices for the view layer to render.
type Sink struct {
	mu       sync.Mutex
	notices  []Notice
	lifetime time.Duration
	now      func() time.Time
}

// NewSink creates a sink with the default notice lifetime.
func NewSink() *Sink {
	return &Sink{
		lifetime: DefaultLifetime,
		now:      time.Now,
	}
}

// SetLifetime overrides how long notices stay visible.
func (s *Sink) SetLifetime(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lifetime = d
}

// Notify queues a notice.
func (s *Sink) Notify(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, Notice{
		Text:   text,
		Expiry: s.now().Add(s.lifetime),
	})
}

// Active returns the notices that have not expired, pruning the rest.
func (s *Sink) Active() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	kept := s.notices[:0]
	for _, n := range s.notices {
		if n.Expiry.After(now) {
			kept = append(kept, n)
		}
	}
	s.notices = kept

	out := make([]Notice, len(kept))
	copy(out, kept)
	return out
}

// Verify Sink implements Notifier at compile time.
var _ Notifier = (*Sink)(nil)
