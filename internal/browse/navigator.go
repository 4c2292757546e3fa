// Package browse owns the catalog navigation stack: category list at the
// root, collections inside a category, tracks inside a collection. Going
// back always lands exactly where the user was.
package browse

import (
	"context"
	"sync"
	"time"

	"github.com/demotape/demotape/internal/api"
	"github.com/demotape/demotape/internal/core"
)

// DefaultSearchDebounce is the typing pause that triggers a search.
const DefaultSearchDebounce = 300 * time.Millisecond

// Service is the API surface the navigator consumes.
type Service interface {
	Categories(ctx context.Context) ([]core.Category, error)
	Collections(ctx context.Context, q api.CollectionsQuery) ([]core.Collection, error)
	Collection(ctx context.Context, id int) (*core.CollectionDetail, error)
	Upvote(ctx context.Context, trackID int) (*api.UpvoteResult, error)
	RemoveUpvote(ctx context.Context, trackID int) (*api.UpvoteResult, error)
}

// Verify the API client satisfies Service at compile time.
var _ Service = (*api.Client)(nil)

// Player receives tracks picked directly from a collection listing,
// bypassing the server-side shuffle.
type Player interface {
	PlayTrack(ctx context.Context, track core.Track, coll *core.Collection, categoryName string) error
}

// Options configures a Navigator.
type Options struct {
	// ResetOnOpen makes Open always return to the category list, the
	// reference behavior. When false, reopening resumes where the user
	// left off.
	ResetOnOpen bool
	// PageSize bounds collection listings.
	PageSize int
	// SearchDebounce is the typing pause before a search request fires.
	SearchDebounce time.Duration
}

// Navigator owns the browse panel state. Loads are fenced with a sequence
// token: a response that resolves after a newer load was issued is
// discarded, so the displayed list always matches the latest action.
type Navigator struct {
	mu sync.Mutex

	api    Service
	player Player

	open    bool
	stack   []Frame
	listing Listing
	query   string

	resetOnOpen bool
	pageSize    int

	debounce      time.Duration
	debounceTimer *time.Timer

	loadSeq uint64

	changed chan struct{}
	closed  bool
}

// New creates a navigator.
func New(svc Service, player Player, opts Options) *Navigator {
	if opts.PageSize == 0 {
		opts.PageSize = 50
	}
	if opts.SearchDebounce == 0 {
		opts.SearchDebounce = DefaultSearchDebounce
	}
	return &Navigator{
		api:         svc,
		player:      player,
		resetOnOpen: opts.ResetOnOpen,
		pageSize:    opts.PageSize,
		debounce:    opts.SearchDebounce,
		changed:     make(chan struct{}, 1),
	}
}

// Changed is poked whenever navigator state moves; the view re-reads
// through the accessors.
func (n *Navigator) Changed() <-chan struct{} {
	return n.changed
}

// IsOpen reports whether the panel is showing.
func (n *Navigator) IsOpen() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.open
}

// Stack returns a copy of the navigation stack, bottom first.
func (n *Navigator) Stack() []Frame {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Frame, len(n.stack))
	copy(out, n.stack)
	return out
}

// Top returns the top frame, or nil at the root.
func (n *Navigator) Top() *Frame {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.topLocked()
}

func (n *Navigator) topLocked() *Frame {
	if len(n.stack) == 0 {
		return nil
	}
	f := n.stack[len(n.stack)-1]
	return &f
}

// Listing returns the current frame's content. Callers must treat it as
// read-only.
func (n *Navigator) Listing() Listing {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.listing
}

// Query returns the active search text.
func (n *Navigator) Query() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.query
}

// Open shows the panel. Depending on policy it either resets to the
// category list or resumes the previous position.
func (n *Navigator) Open(ctx context.Context) {
	n.mu.Lock()
	n.open = true
	reset := n.resetOnOpen || len(n.stack) == 0 && n.listing.State != ContentLoaded
	if n.resetOnOpen {
		n.stack = nil
		n.query = ""
	}
	n.mu.Unlock()
	n.poke()

	if reset {
		n.reloadTop(ctx)
	}
}

// ClosePanel hides the panel. The stack is kept; Open decides whether to
// reset it.
func (n *Navigator) ClosePanel() {
	n.mu.Lock()
	n.open = false
	n.cancelDebounceLocked()
	n.mu.Unlock()
	n.poke()
}

// PushCategory descends into a category and loads its collections.
func (n *Navigator) PushCategory(ctx context.Context, name string) {
	n.mu.Lock()
	n.stack = append(n.stack, Frame{Kind: FrameCategory, Name: name})
	n.query = ""
	n.cancelDebounceLocked()
	n.mu.Unlock()
	n.poke()

	n.reloadTop(ctx)
}

// PushCollection descends into a collection and loads its tracks.
func (n *Navigator) PushCollection(ctx context.Context, id int, name string) {
	n.mu.Lock()
	n.stack = append(n.stack, Frame{Kind: FrameCollection, ID: id, Name: name})
	n.query = ""
	n.cancelDebounceLocked()
	n.mu.Unlock()
	n.poke()

	n.reloadTop(ctx)
}

// Reload refetches the current frame's content, for retrying after a
// failed load.
func (n *Navigator) Reload(ctx context.Context) {
	n.reloadTop(ctx)
}

// Back pops one frame and reloads whatever is now on top. Popping an
// already-empty stack is a no-op.
func (n *Navigator) Back(ctx context.Context) {
	n.mu.Lock()
	if len(n.stack) == 0 {
		n.mu.Unlock()
		return
	}
	n.stack = n.stack[:len(n.stack)-1]
	n.query = ""
	n.cancelDebounceLocked()
	n.mu.Unlock()
	n.poke()

	n.reloadTop(ctx)
}

// Search filters the current category's collections server-side. Debounced:
// each keystroke cancels the previous pending request scheduling, so at
// most one search fires per pause in typing. Meaningful only when the top
// frame is a category; the stack is never affected.
func (n *Navigator) Search(query string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	top := n.topLocked()
	if top == nil || top.Kind != FrameCategory {
		return
	}

	n.query = query
	n.cancelDebounceLocked()
	if n.closed {
		return
	}
	n.debounceTimer = time.AfterFunc(n.debounce, func() {
		n.mu.Lock()
		// A newer keystroke may have rescheduled while this fired.
		stale := n.query != query
		n.mu.Unlock()
		if !stale {
			n.reloadTop(context.Background())
		}
	})
}

func (n *Navigator) cancelDebounceLocked() {
	if n.debounceTimer != nil {
		n.debounceTimer.Stop()
		n.debounceTimer = nil
	}
}

// SelectTrack hands a track from the current collection listing directly
// to the player and closes the panel.
func (n *Navigator) SelectTrack(ctx context.Context, index int) error {
	n.mu.Lock()
	detail := n.listing.Detail
	if detail == nil || index < 0 || index >= len(detail.Tracks) {
		n.mu.Unlock()
		return nil
	}
	track := detail.Tracks[index]
	coll := detail.Collection
	categoryName := detail.CategoryName
	n.mu.Unlock()

	n.ClosePanel()
	return n.player.PlayTrack(ctx, track, &coll, categoryName)
}

// ToggleUpvote flips a track's saved flag from the collection listing,
// waiting for server confirmation before changing local state. It returns
// the new flag value so the caller can mirror it into the player.
func (n *Navigator) ToggleUpvote(ctx context.Context, trackID int) (bool, error) {
	n.mu.Lock()
	detail := n.listing.Detail
	var wasUpvoted, found bool
	if detail != nil {
		for i := range detail.Tracks {
			if detail.Tracks[i].ID == trackID {
				wasUpvoted = detail.Tracks[i].Upvoted
				found = true
				break
			}
		}
	}
	n.mu.Unlock()
	if !found {
		return false, nil
	}

	var err error
	if wasUpvoted {
		_, err = n.api.RemoveUpvote(ctx, trackID)
	} else {
		_, err = n.api.Upvote(ctx, trackID)
	}
	if err != nil {
		return wasUpvoted, err
	}

	n.ApplyUpvote(trackID, !wasUpvoted)
	return !wasUpvoted, nil
}

// ApplyUpvote updates the listing's copy of a track flipped elsewhere (the
// player), keeping the two views mirrored.
func (n *Navigator) ApplyUpvote(trackID int, upvoted bool) {
	n.mu.Lock()
	changed := false
	if n.listing.Detail != nil {
		for i := range n.listing.Detail.Tracks {
			if n.listing.Detail.Tracks[i].ID == trackID &&
				n.listing.Detail.Tracks[i].Upvoted != upvoted {
				n.listing.Detail.Tracks[i].Upvoted = upvoted
				changed = true
			}
		}
	}
	n.mu.Unlock()
	if changed {
		n.poke()
	}
}

// Close stops any pending debounce.
func (n *Navigator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	n.cancelDebounceLocked()
}

// reloadTop loads the content for whatever frame is on top of the stack.
// Each load takes a fresh sequence token; completions carrying a stale
// token are discarded (a fast double action cannot leave an older
// response displayed).
func (n *Navigator) reloadTop(ctx context.Context) {
	n.mu.Lock()
	n.loadSeq++
	seq := n.loadSeq
	top := n.topLocked()
	query := n.query
	n.listing = Listing{State: ContentLoading}
	n.mu.Unlock()
	n.poke()

	var loaded Listing
	switch {
	case top == nil:
		cats, err := n.api.Categories(ctx)
		loaded = listingFor(err, len(cats))
		loaded.Categories = cats
	case top.Kind == FrameCategory:
		colls, err := n.api.Collections(ctx, api.CollectionsQuery{
			Category: top.Name,
			Search:   query,
			Limit:    n.pageSize,
		})
		loaded = listingFor(err, len(colls))
		loaded.Collections = colls
	default:
		detail, err := n.api.Collection(ctx, top.ID)
		count := 0
		if detail != nil {
			count = len(detail.Tracks)
		}
		loaded = listingFor(err, count)
		loaded.Detail = detail
	}

	n.mu.Lock()
	if seq != n.loadSeq {
		// A newer load was issued while this one was in flight.
		n.mu.Unlock()
		return
	}
	n.listing = loaded
	n.mu.Unlock()
	n.poke()
}

// listingFor maps a load outcome to a content state. A failure leaves the
// stack untouched; an empty result is not a failure.
func listingFor(err error, count int) Listing {
	switch {
	case err != nil:
		return Listing{State: ContentFailed}
	case count == 0:
		return Listing{State: ContentEmpty}
	default:
		return Listing{State: ContentLoaded}
	}
}

func (n *Navigator) poke() {
	select {
	case n.changed <- struct{}{}:
	default:
	}
}
