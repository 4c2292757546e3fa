package browse_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demotape/demotape/internal/api"
	"github.com/demotape/demotape/internal/browse"
	"github.com/demotape/demotape/internal/core"
)

type fakeCatalog struct {
	mu sync.Mutex

	categories    []core.Category
	categoryErr   error
	categoryGate  chan struct{} // when set, Categories blocks until closed
	categoryCalls int

	collections    []core.Collection
	collectionsErr error
	queries        []api.CollectionsQuery

	detail    *core.CollectionDetail
	detailErr error

	upvoteErr error
	upvoted   []int
	removed   []int
}

func (f *fakeCatalog) Categories(context.Context) ([]core.Category, error) {
	f.mu.Lock()
	f.categoryCalls++
	gate := f.categoryGate
	cats, err := f.categories, f.categoryErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return cats, err
}

func (f *fakeCatalog) Collections(_ context.Context, q api.CollectionsQuery) ([]core.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.collections, f.collectionsErr
}

func (f *fakeCatalog) Collection(context.Context, int) (*core.CollectionDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detail, f.detailErr
}

func (f *fakeCatalog) Upvote(_ context.Context, trackID int) (*api.UpvoteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upvoteErr != nil {
		return nil, f.upvoteErr
	}
	f.upvoted = append(f.upvoted, trackID)
	return &api.UpvoteResult{Status: "upvoted", TrackID: trackID}, nil
}

func (f *fakeCatalog) RemoveUpvote(_ context.Context, trackID int) (*api.UpvoteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upvoteErr != nil {
		return nil, f.upvoteErr
	}
	f.removed = append(f.removed, trackID)
	return &api.UpvoteResult{Status: "removed", TrackID: trackID}, nil
}

func (f *fakeCatalog) collectionQueries() []api.CollectionsQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]api.CollectionsQuery, len(f.queries))
	copy(out, f.queries)
	return out
}

type fakePlayer struct {
	mu     sync.Mutex
	tracks []core.Track
}

func (f *fakePlayer) PlayTrack(_ context.Context, track core.Track, _ *core.Collection, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracks = append(f.tracks, track)
	return nil
}

func populatedCatalog() *fakeCatalog {
	return &fakeCatalog{
		categories: []core.Category{
			{ID: 1, Name: "DEMOS", CollectionCount: 2, TrackCount: 10},
			{ID: 2, Name: "MUSIC", CollectionCount: 1, TrackCount: 5},
		},
		collections: []core.Collection{
			{ID: 11, CategoryID: 1, Name: "group-a", TrackCount: 4},
			{ID: 12, CategoryID: 1, Name: "group-b", TrackCount: 6},
		},
		detail: &core.CollectionDetail{
			Collection:   core.Collection{ID: 11, Name: "group-a", TrackCount: 2},
			CategoryName: "DEMOS",
			Tracks: []core.Track{
				{ID: 101, Title: "intro", Format: core.FormatMOD},
				{ID: 102, Title: "loader", Format: core.FormatSID, Upvoted: true},
			},
		},
	}
}

func newNavigator(svc browse.Service, p browse.Player, opts browse.Options) *browse.Navigator {
	if opts.SearchDebounce == 0 {
		opts.SearchDebounce = 5 * time.Millisecond
	}
	return browse.New(svc, p, opts)
}

func TestStackRoundTrip(t *testing.T) {
	svc := populatedCatalog()
	nav := newNavigator(svc, &fakePlayer{}, browse.Options{ResetOnOpen: true})
	defer nav.Close()
	ctx := context.Background()

	nav.Open(ctx)
	require.Equal(t, browse.ContentLoaded, nav.Listing().State)
	assert.Len(t, nav.Listing().Categories, 2)
	assert.Nil(t, nav.Top())

	nav.PushCategory(ctx, "DEMOS")
	require.NotNil(t, nav.Top())
	assert.Equal(t, browse.FrameCategory, nav.Top().Kind)
	assert.Len(t, nav.Listing().Collections, 2)

	nav.PushCollection(ctx, 11, "group-a")
	assert.Equal(t, browse.FrameCollection, nav.Top().Kind)
	require.NotNil(t, nav.Listing().Detail)
	assert.Len(t, nav.Listing().Detail.Tracks, 2)

	// Back lands exactly where the user was: the DEMOS collections.
	nav.Back(ctx)
	require.NotNil(t, nav.Top())
	assert.Equal(t, "DEMOS", nav.Top().Name)
	assert.Len(t, nav.Listing().Collections, 2)

	nav.Back(ctx)
	assert.Nil(t, nav.Top())
	assert.Len(t, nav.Listing().Categories, 2)
}

func TestBackAtRootIsNoOp(t *testing.T) {
	svc := populatedCatalog()
	nav := newNavigator(svc, &fakePlayer{}, browse.Options{ResetOnOpen: true})
	defer nav.Close()
	ctx := context.Background()

	nav.Open(ctx)
	nav.Back(ctx)
	nav.Back(ctx)

	assert.Nil(t, nav.Top())
	assert.Equal(t, browse.ContentLoaded, nav.Listing().State)
}

func TestSearchDebouncesToSingleRequest(t *testing.T) {
	svc := populatedCatalog()
	nav := newNavigator(svc, &fakePlayer{}, browse.Options{
		ResetOnOpen:    true,
		SearchDebounce: 20 * time.Millisecond,
	})
	defer nav.Close()
	ctx := context.Background()

	nav.Open(ctx)
	nav.PushCategory(ctx, "DEMOS")
	before := len(svc.collectionQueries())

	// Three quick keystrokes, one request with the final text.
	nav.Search("f")
	nav.Search("fa")
	nav.Search("far")

	require.Eventually(t, func() bool {
		return len(svc.collectionQueries()) == before+1
	}, time.Second, 2*time.Millisecond)

	queries := svc.collectionQueries()
	assert.Equal(t, "far", queries[len(queries)-1].Search)
	assert.Equal(t, "DEMOS", queries[len(queries)-1].Category)

	// No trailing extra request.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, svc.collectionQueries(), before+1)
}

func TestSearchIgnoredOutsideCategoryFrame(t *testing.T) {
	svc := populatedCatalog()
	nav := newNavigator(svc, &fakePlayer{}, browse.Options{ResetOnOpen: true})
	defer nav.Close()
	ctx := context.Background()

	nav.Open(ctx)
	nav.Search("nope") // root shows categories, nothing to filter
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, svc.collectionQueries())
	assert.Empty(t, nav.Query())
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	svc := populatedCatalog()
	gate := make(chan struct{})
	svc.categoryGate = gate

	nav := newNavigator(svc, &fakePlayer{}, browse.Options{ResetOnOpen: true})
	defer nav.Close()
	ctx := context.Background()

	// The root load hangs on the gate.
	done := make(chan struct{})
	go func() {
		nav.Open(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return svc.categoryCalls == 1
	}, time.Second, time.Millisecond)

	// A faster descend supersedes it.
	nav.PushCategory(ctx, "DEMOS")
	require.Equal(t, browse.ContentLoaded, nav.Listing().State)
	require.Len(t, nav.Listing().Collections, 2)

	close(gate)
	<-done

	// The slow categories response must not replace the collections.
	assert.Len(t, nav.Listing().Collections, 2)
	assert.Nil(t, nav.Listing().Categories)
}

func TestEmptyAndFailedStates(t *testing.T) {
	svc := populatedCatalog()
	svc.collections = nil
	nav := newNavigator(svc, &fakePlayer{}, browse.Options{ResetOnOpen: true})
	defer nav.Close()
	ctx := context.Background()

	nav.Open(ctx)
	nav.PushCategory(ctx, "DEMOS")
	assert.Equal(t, browse.ContentEmpty, nav.Listing().State)

	svc.mu.Lock()
	svc.collectionsErr = errors.New("boom")
	svc.mu.Unlock()

	nav.Reload(ctx)
	assert.Equal(t, browse.ContentFailed, nav.Listing().State)
	// A failed load leaves the stack alone so retry reloads in place.
	require.NotNil(t, nav.Top())
	assert.Equal(t, "DEMOS", nav.Top().Name)
}

func TestReopenPolicies(t *testing.T) {
	ctx := context.Background()

	t.Run("reset on open", func(t *testing.T) {
		nav := newNavigator(populatedCatalog(), &fakePlayer{}, browse.Options{ResetOnOpen: true})
		defer nav.Close()

		nav.Open(ctx)
		nav.PushCategory(ctx, "DEMOS")
		nav.ClosePanel()
		nav.Open(ctx)

		assert.Nil(t, nav.Top())
		assert.Len(t, nav.Listing().Categories, 2)
	})

	t.Run("resume where left off", func(t *testing.T) {
		nav := newNavigator(populatedCatalog(), &fakePlayer{}, browse.Options{ResetOnOpen: false})
		defer nav.Close()

		nav.Open(ctx)
		nav.PushCategory(ctx, "DEMOS")
		nav.ClosePanel()
		nav.Open(ctx)

		require.NotNil(t, nav.Top())
		assert.Equal(t, "DEMOS", nav.Top().Name)
		assert.Len(t, nav.Listing().Collections, 2)
	})
}

func TestSelectTrackClosesPanelAndPlays(t *testing.T) {
	svc := populatedCatalog()
	p := &fakePlayer{}
	nav := newNavigator(svc, p, browse.Options{ResetOnOpen: true})
	defer nav.Close()
	ctx := context.Background()

	nav.Open(ctx)
	nav.PushCategory(ctx, "DEMOS")
	nav.PushCollection(ctx, 11, "group-a")

	require.NoError(t, nav.SelectTrack(ctx, 1))
	assert.False(t, nav.IsOpen())

	p.mu.Lock()
	defer p.mu.Unlock()
	require.Len(t, p.tracks, 1)
	assert.Equal(t, 102, p.tracks[0].ID)
}

func TestSelectTrackOutOfRange(t *testing.T) {
	svc := populatedCatalog()
	p := &fakePlayer{}
	nav := newNavigator(svc, p, browse.Options{ResetOnOpen: true})
	defer nav.Close()
	ctx := context.Background()

	nav.Open(ctx)
	nav.PushCategory(ctx, "DEMOS")
	nav.PushCollection(ctx, 11, "group-a")

	require.NoError(t, nav.SelectTrack(ctx, 99))
	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Empty(t, p.tracks)
}

func TestToggleUpvoteInListing(t *testing.T) {
	svc := populatedCatalog()
	nav := newNavigator(svc, &fakePlayer{}, browse.Options{ResetOnOpen: true})
	defer nav.Close()
	ctx := context.Background()

	nav.Open(ctx)
	nav.PushCategory(ctx, "DEMOS")
	nav.PushCollection(ctx, 11, "group-a")

	upvoted, err := nav.ToggleUpvote(ctx, 101)
	require.NoError(t, err)
	assert.True(t, upvoted)
	assert.True(t, nav.Listing().Detail.Tracks[0].Upvoted)
	assert.Equal(t, []int{101}, svc.upvoted)

	// Track 102 starts saved, so toggling removes.
	upvoted, err = nav.ToggleUpvote(ctx, 102)
	require.NoError(t, err)
	assert.False(t, upvoted)
	assert.Equal(t, []int{102}, svc.removed)
}

func TestToggleUpvoteFailureLeavesListing(t *testing.T) {
	svc := populatedCatalog()
	svc.upvoteErr = errors.New("boom")
	nav := newNavigator(svc, &fakePlayer{}, browse.Options{ResetOnOpen: true})
	defer nav.Close()
	ctx := context.Background()

	nav.Open(ctx)
	nav.PushCategory(ctx, "DEMOS")
	nav.PushCollection(ctx, 11, "group-a")

	_, err := nav.ToggleUpvote(ctx, 101)
	require.Error(t, err)
	assert.False(t, nav.Listing().Detail.Tracks[0].Upvoted)
}

func TestApplyUpvoteMirrorsPlayerFlip(t *testing.T) {
	svc := populatedCatalog()
	nav := newNavigator(svc, &fakePlayer{}, browse.Options{ResetOnOpen: true})
	defer nav.Close()
	ctx := context.Background()

	nav.Open(ctx)
	nav.PushCategory(ctx, "DEMOS")
	nav.PushCollection(ctx, 11, "group-a")

	nav.ApplyUpvote(101, true)
	assert.True(t, nav.Listing().Detail.Tracks[0].Upvoted)

	nav.ApplyUpvote(999, true) // unknown track, no effect
	assert.True(t, nav.Listing().Detail.Tracks[0].Upvoted)
}
