// Package status polls the server's crawl progress in the background.
// It is a best-effort indicator: failures are swallowed entirely and never
// surface as user-facing errors.
package status

import (
	"context"
	"sync"
	"time"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/demotape/demotape/internal/core"
)

// DefaultInterval is the default poll period.
const DefaultInterval = 5 * time.Second

// Service is the API surface the poller consumes.
type Service interface {
	Status(ctx context.Context) (*core.Status, error)
}

// Poller periodically fetches catalog readiness.
type Poller struct {
	mu sync.Mutex

	api      Service
	interval time.Duration

	status   *core.Status
	lastHash uint64

	changed chan struct{}
}

// New creates a poller. Call Run to start it.
func New(svc Service, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		api:      svc,
		interval: interval,
		changed:  make(chan struct{}, 1),
	}
}

// Status returns the last successful report, or nil before the first one.
func (p *Poller) Status() *core.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Changed is poked when a poll produced a report different from the last.
func (p *Poller) Changed() <-chan struct{} {
	return p.changed
}

// Run polls until ctx is cancelled. The first poll happens immediately.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// Poll fetches once. Exposed for callers that drive their own schedule.
func (p *Poller) Poll(ctx context.Context) {
	p.poll(ctx)
}

func (p *Poller) poll(ctx context.Context) {
	st, err := p.api.Status(ctx)
	if err != nil {
		// Best effort only.
		return
	}

	hash, err := hashstructure.Hash(st, hashstructure.FormatV2, nil)
	if err != nil {
		hash = 0
	}

	p.mu.Lock()
	unchanged := p.status != nil && hash != 0 && hash == p.lastHash
	p.status = st
	p.lastHash = hash
	p.mu.Unlock()

	if !unchanged {
		select {
		case p.changed <- struct{}{}:
		default:
		}
	}
}
