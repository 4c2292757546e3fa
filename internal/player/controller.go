// Package player owns now-playing state and drives playback transitions
// against the discovery server. All mutations go through a single state
// machine; media element events and user actions interleave safely.
package player

import (
	"context"
	"sync"
	"time"

	"github.com/demotape/demotape/internal/api"
	"github.com/demotape/demotape/internal/core"
	"github.com/demotape/demotape/internal/errors"
	"github.com/demotape/demotape/internal/media"
	"github.com/demotape/demotape/internal/notify"
)

// Service is the API surface the controller consumes.
type Service interface {
	Current(ctx context.Context) (*core.Snapshot, error)
	Next(ctx context.Context, scope core.Scope) (*core.Snapshot, error)
	Prev(ctx context.Context) (*core.Snapshot, error)
	Upvote(ctx context.Context, trackID int) (*api.UpvoteResult, error)
	RemoveUpvote(ctx context.Context, trackID int) (*api.UpvoteResult, error)
	StreamURL(trackID int) string
}

// Verify the API client satisfies Service at compile time.
var _ Service = (*api.Client)(nil)

// RetryPolicy bounds the startup retry loop used when the server has no
// tracks yet. MaxAttempts of 0 retries forever, matching the reference
// behavior.
type RetryPolicy struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultRetryPolicy matches the reference client: retry every 3s, forever.
var DefaultRetryPolicy = RetryPolicy{Interval: 3 * time.Second}

// DefaultErrorSkipDelay is the pause before auto-skipping an unplayable
// track, to avoid request storms on repeated bad media.
const DefaultErrorSkipDelay = 2 * time.Second

// Progress is a read-only projection of playback position.
type Progress struct {
	Fraction float64 // 0-100
	Elapsed  time.Duration
	Total    time.Duration
}

// Options configures a Controller.
type Options struct {
	Scope          core.Scope
	Retry          RetryPolicy
	ErrorSkipDelay time.Duration
}

// Controller is the playback state machine. It exclusively owns the media
// element: no other component may set its source or invoke its controls.
type Controller struct {
	mu sync.Mutex

	api      Service
	element  media.Element
	notifier notify.Notifier

	state        State
	snapshot     *core.Snapshot
	scope        core.Scope
	awaitCanPlay bool // one-shot canplay binding, rearmed per load

	retry          RetryPolicy
	retryAttempts  int
	retryTimer     *time.Timer
	errorSkipDelay time.Duration
	skipTimer      *time.Timer

	// onUpvote mirrors upvote flips into other components holding the
	// same track (the browse navigator's track list).
	onUpvote func(trackID int, upvoted bool)

	subs   []*Subscription
	subsMu sync.RWMutex

	closed bool
	done   chan struct{}
}

// New creates a controller and starts consuming element events.
func New(svc Service, element media.Element, notifier notify.Notifier, opts Options) *Controller {
	if opts.Scope == "" {
		opts.Scope = core.ScopeTrack
	}
	if opts.Retry.Interval == 0 {
		opts.Retry = DefaultRetryPolicy
	}
	if opts.ErrorSkipDelay == 0 {
		opts.ErrorSkipDelay = DefaultErrorSkipDelay
	}

	c := &Controller{
		api:            svc,
		element:        element,
		notifier:       notifier,
		state:          StateIdle,
		scope:          opts.Scope,
		retry:          opts.Retry,
		errorSkipDelay: opts.ErrorSkipDelay,
		done:           make(chan struct{}),
	}
	go c.eventLoop()
	return c
}

// State returns the current playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Loading reports whether a playback transition is in flight.
func (c *Controller) Loading() bool {
	return c.State() == StateLoading
}

// Snapshot returns the current snapshot. Callers must treat it as
// read-only.
func (c *Controller) Snapshot() *core.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// HasPrev reports whether the server has playback history to step back to.
func (c *Controller) HasPrev() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot != nil && c.snapshot.HasPrev
}

// Scope returns the active next-track scope.
func (c *Controller) Scope() core.Scope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scope
}

// SetScope changes the selection universe for subsequent Next calls. It
// persists until changed again.
func (c *Controller) SetScope(scope core.Scope) {
	if !scope.Valid() {
		return
	}
	c.mu.Lock()
	c.scope = scope
	c.mu.Unlock()
	c.emit(Change{Kind: ChangeState})
}

// Progress returns the seek fraction and time display values.
func (c *Controller) Progress() Progress {
	elapsed := c.element.Position()
	total := c.element.Duration()
	p := Progress{Elapsed: elapsed, Total: total}
	if total > 0 {
		p.Fraction = float64(elapsed) / float64(total) * 100
	}
	return p
}

// SetUpvoteMirror registers a hook called after a confirmed upvote flip so
// other holders of the same track stay in sync.
func (c *Controller) SetUpvoteMirror(fn func(trackID int, upvoted bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUpvote = fn
}

// Subscribe creates a new change subscription.
func (c *Controller) Subscribe() *Subscription {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	sub := newSubscription()
	c.subs = append(c.subs, sub)
	return sub
}

// LoadCurrent fetches the server's current track without affecting
// playback history. Failures never surface to the user: an empty catalog
// is an expected startup condition while the crawl fills, so this path
// schedules a silent retry instead.
func (c *Controller) LoadCurrent(ctx context.Context) {
	snap, err := c.api.Current(ctx)
	if err != nil || !snap.HasTrack() {
		c.scheduleRetry()
		return
	}

	c.mu.Lock()
	c.snapshot = snap
	c.retryAttempts = 0
	c.mu.Unlock()
	c.emit(Change{Kind: ChangeSnapshot})
}

func (c *Controller) scheduleRetry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.retryTimer != nil {
		return
	}
	if c.retry.MaxAttempts > 0 && c.retryAttempts >= c.retry.MaxAttempts {
		return
	}
	c.retryAttempts++
	c.retryTimer = time.AfterFunc(c.retry.Interval, func() {
		c.mu.Lock()
		c.retryTimer = nil
		c.mu.Unlock()
		c.LoadCurrent(context.Background())
	})
}

// Next advances to a fresh track under the active scope and starts
// playback. A call while a transition is in flight is dropped, not queued.
func (c *Controller) Next(ctx context.Context) error {
	return c.transition(ctx, func(ctx context.Context) (*core.Snapshot, error) {
		return c.api.Next(ctx, c.Scope())
	}, "Couldn't get the next track")
}

// Prev steps back through playback history. Same in-flight discipline as
// Next. A failure is a request failure, not a playback error: the current
// track keeps playing and is not reloaded.
func (c *Controller) Prev(ctx context.Context) error {
	return c.transition(ctx, func(ctx context.Context) (*core.Snapshot, error) {
		return c.api.Prev(ctx)
	}, "Couldn't go back")
}

func (c *Controller) transition(ctx context.Context, fetch func(context.Context) (*core.Snapshot, error), failText string) error {
	c.mu.Lock()
	if c.state == StateLoading {
		c.mu.Unlock()
		return errors.ErrBusy
	}
	prev := c.state
	c.state = StateLoading
	c.mu.Unlock()
	c.emit(Change{Kind: ChangeState})

	snap, err := fetch(ctx)
	if err != nil {
		// Keep the previous snapshot displayed; just report and clear.
		c.mu.Lock()
		c.state = prev
		c.mu.Unlock()
		c.notify(failText)
		c.emit(Change{Kind: ChangeState})
		return err
	}

	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()
	c.emit(Change{Kind: ChangeSnapshot})

	return c.playCurrent(ctx)
}

// PlayTrack starts playback of a specific track chosen in the browser,
// bypassing the server's shuffle. The snapshot is synthesized locally; the
// server's history is not consulted until the next transition.
func (c *Controller) PlayTrack(ctx context.Context, track core.Track, coll *core.Collection, categoryName string) error {
	c.mu.Lock()
	if c.state == StateLoading {
		c.mu.Unlock()
		return errors.ErrBusy
	}
	c.state = StateLoading
	c.snapshot = &core.Snapshot{
		Track:        &track,
		Collection:   coll,
		CategoryName: categoryName,
		HasPrev:      c.snapshot != nil && c.snapshot.HasPrev,
	}
	c.mu.Unlock()
	c.emit(Change{Kind: ChangeSnapshot})
	c.emit(Change{Kind: ChangeState})

	return c.playCurrent(ctx)
}

// playCurrent loads the snapshot's track into the element and arms the
// one-shot canplay binding. Playback starts when the element reports the
// source is playable; the binding disarms after firing so later loads
// cannot double-trigger.
func (c *Controller) playCurrent(ctx context.Context) error {
	c.mu.Lock()
	snap := c.snapshot
	if !snap.HasTrack() {
		c.state = StateIdle
		c.mu.Unlock()
		c.emit(Change{Kind: ChangeState})
		return errors.ErrNoTrack
	}
	track := *snap.Track
	c.state = StateLoading
	c.awaitCanPlay = true
	c.mu.Unlock()
	c.emit(Change{Kind: ChangeState})

	// A load failure is reported through the element's error event, which
	// notifies and schedules the auto-skip; no separate handling here.
	return c.element.Load(ctx, c.api.StreamURL(track.ID), track.Format)
}

// TogglePlayback resumes or pauses. With no track at all it behaves as
// Next; with a displayed track that was never started it begins playback
// without re-requesting the server.
func (c *Controller) TogglePlayback(ctx context.Context) error {
	c.mu.Lock()
	state := c.state
	hasTrack := c.snapshot.HasTrack()
	c.mu.Unlock()

	switch {
	case state == StateLoading:
		return errors.ErrBusy
	case !hasTrack:
		return c.Next(ctx)
	case state == StatePlaying:
		c.element.Pause()
		c.setState(StatePaused)
		return nil
	case state == StatePaused:
		// Reuse the already-loaded source.
		c.element.Play()
		c.setState(StatePlaying)
		return nil
	default:
		// Displayed but never started (startup snapshot).
		return c.playCurrent(ctx)
	}
}

// Seek jumps to a fraction (0-100) of the current track. Position only;
// the state machine is not involved.
func (c *Controller) Seek(fraction float64) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 100 {
		fraction = 100
	}
	total := c.element.Duration()
	if total <= 0 {
		return
	}
	_ = c.element.SeekTo(time.Duration(float64(total) * fraction / 100))
	c.emit(Change{Kind: ChangeProgress})
}

// ToggleUpvote flips the current track's saved flag, waiting for server
// confirmation before changing local state.
func (c *Controller) ToggleUpvote(ctx context.Context) error {
	c.mu.Lock()
	if !c.snapshot.HasTrack() {
		c.mu.Unlock()
		return errors.ErrNoTrack
	}
	track := c.snapshot.Track
	id, wasUpvoted := track.ID, track.Upvoted
	c.mu.Unlock()

	var err error
	if wasUpvoted {
		_, err = c.api.RemoveUpvote(ctx, id)
	} else {
		_, err = c.api.Upvote(ctx, id)
	}
	if err != nil {
		c.notify("Couldn't update saved tracks")
		return err
	}

	c.ApplyUpvote(id, !wasUpvoted)

	c.mu.Lock()
	mirror := c.onUpvote
	c.mu.Unlock()
	if mirror != nil {
		mirror(id, !wasUpvoted)
	}
	return nil
}

// ApplyUpvote updates the snapshot's copy of a track flipped elsewhere
// (the browse panel), keeping the two views mirrored.
func (c *Controller) ApplyUpvote(trackID int, upvoted bool) {
	c.mu.Lock()
	changed := c.snapshot.HasTrack() && c.snapshot.Track.ID == trackID &&
		c.snapshot.Track.Upvoted != upvoted
	if changed {
		c.snapshot.Track.Upvoted = upvoted
	}
	c.mu.Unlock()
	if changed {
		c.emit(Change{Kind: ChangeSnapshot})
	}
}

// Close stops timers and the event loop and releases the media element.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	if c.skipTimer != nil {
		c.skipTimer.Stop()
		c.skipTimer = nil
	}
	close(c.done)
	c.mu.Unlock()

	err := c.element.Close()

	c.subsMu.Lock()
	for _, sub := range c.subs {
		sub.close()
	}
	c.subs = nil
	c.subsMu.Unlock()

	return err
}

// eventLoop consumes media element lifecycle events.
func (c *Controller) eventLoop() {
	for {
		select {
		case <-c.done:
			return
		case ev, ok := <-c.element.Events():
			if !ok {
				return
			}
			switch ev.Kind {
			case media.EventCanPlay:
				c.handleCanPlay()
			case media.EventTimeUpdate:
				c.emit(Change{Kind: ChangeProgress})
			case media.EventEnded:
				c.handleEnded()
			case media.EventError:
				c.handleMediaError()
			}
		}
	}
}

// handleCanPlay is the one-shot readiness binding: start playback, clear
// Loading, disarm.
func (c *Controller) handleCanPlay() {
	c.mu.Lock()
	if !c.awaitCanPlay {
		c.mu.Unlock()
		return
	}
	c.awaitCanPlay = false
	c.state = StatePlaying
	c.mu.Unlock()

	c.element.Play()
	c.emit(Change{Kind: ChangeState})
}

// handleEnded auto-advances unconditionally under the active scope.
func (c *Controller) handleEnded() {
	c.mu.Lock()
	if c.state != StatePlaying {
		c.mu.Unlock()
		return
	}
	c.state = StateIdle
	c.mu.Unlock()
	c.emit(Change{Kind: ChangeState})

	_ = c.Next(context.Background())
}

// handleMediaError treats the track as unplayable: clear Loading, tell the
// user, and skip after a short delay so repeated bad media cannot storm
// the server.
func (c *Controller) handleMediaError() {
	c.mu.Lock()
	c.awaitCanPlay = false
	c.state = StateErrored
	alreadyPending := c.skipTimer != nil
	if !alreadyPending && !c.closed {
		c.skipTimer = time.AfterFunc(c.errorSkipDelay, func() {
			c.mu.Lock()
			c.skipTimer = nil
			c.state = StateIdle
			c.mu.Unlock()
			_ = c.Next(context.Background())
		})
	}
	c.mu.Unlock()

	if !alreadyPending {
		c.notify("Track failed to play, skipping...")
	}
	c.emit(Change{Kind: ChangeState})
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	c.emit(Change{Kind: ChangeState})
}

func (c *Controller) notify(text string) {
	if c.notifier != nil {
		c.notifier.Notify(text)
	}
}

func (c *Controller) emit(change Change) {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for _, sub := range c.subs {
		sub.send(change)
	}
}
