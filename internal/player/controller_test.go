package player_test

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demotape/demotape/internal/api"
	"github.com/demotape/demotape/internal/core"
	"github.com/demotape/demotape/internal/errors"
	"github.com/demotape/demotape/internal/media"
	"github.com/demotape/demotape/internal/player"
)

// fakeService is a scriptable stand-in for the API client.
type fakeService struct {
	mu sync.Mutex

	currentSnap *core.Snapshot
	currentErr  error

	nextSnap  *core.Snapshot
	nextErr   error
	nextCalls int
	nextScope []core.Scope
	nextGate  chan struct{} // when set, Next blocks until closed

	prevSnap  *core.Snapshot
	prevErr   error
	prevCalls int

	upvoted   []int
	removed   []int
	upvoteErr error
}

func (f *fakeService) Current(context.Context) (*core.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentSnap, f.currentErr
}

func (f *fakeService) Next(_ context.Context, scope core.Scope) (*core.Snapshot, error) {
	f.mu.Lock()
	f.nextCalls++
	f.nextScope = append(f.nextScope, scope)
	gate := f.nextGate
	snap, err := f.nextSnap, f.nextErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return snap, err
}

func (f *fakeService) Prev(context.Context) (*core.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prevCalls++
	return f.prevSnap, f.prevErr
}

func (f *fakeService) Upvote(_ context.Context, trackID int) (*api.UpvoteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upvoteErr != nil {
		return nil, f.upvoteErr
	}
	f.upvoted = append(f.upvoted, trackID)
	return &api.UpvoteResult{Status: "upvoted", TrackID: trackID}, nil
}

func (f *fakeService) RemoveUpvote(_ context.Context, trackID int) (*api.UpvoteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upvoteErr != nil {
		return nil, f.upvoteErr
	}
	f.removed = append(f.removed, trackID)
	return &api.UpvoteResult{Status: "removed", TrackID: trackID}, nil
}

func (f *fakeService) StreamURL(trackID int) string {
	return fmt.Sprintf("http://test/api/player/stream/%d", trackID)
}

func (f *fakeService) calls() (next, prev int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nextCalls, f.prevCalls
}

// recorder collects notifications.
type recorder struct {
	mu    sync.Mutex
	texts []string
}

func (r *recorder) Notify(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.texts))
	copy(out, r.texts)
	return out
}

func snapshotFor(trackID int) *core.Snapshot {
	return &core.Snapshot{
		Track:        &core.Track{ID: trackID, Title: fmt.Sprintf("track-%d", trackID), Format: core.FormatMP3},
		Collection:   &core.Collection{ID: 1, Name: "some-demo-group"},
		CategoryName: "DEMOS",
		HasPrev:      trackID > 1,
	}
}

func newController(t *testing.T, svc *fakeService, opts player.Options) (*player.Controller, *media.Mock, *recorder) {
	t.Helper()
	element := media.NewMock()
	notes := &recorder{}
	c := player.New(svc, element, notes, opts)
	t.Cleanup(func() { _ = c.Close() })
	return c, element, notes
}

func waitState(t *testing.T, c *player.Controller, want player.State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.State() == want
	}, time.Second, 2*time.Millisecond, "state never became %s", want)
}

func TestLoadCurrentDisplaysWithoutPlaying(t *testing.T) {
	svc := &fakeService{currentSnap: snapshotFor(7)}
	c, element, notes := newController(t, svc, player.Options{})

	c.LoadCurrent(context.Background())

	require.NotNil(t, c.Snapshot())
	assert.Equal(t, 7, c.Snapshot().Track.ID)
	assert.Equal(t, player.StateIdle, c.State())
	assert.Empty(t, element.LoadCalls(), "startup display must not start playback")
	assert.Empty(t, notes.all())
}

func TestLoadCurrentRetriesSilentlyUntilCatalogFills(t *testing.T) {
	svc := &fakeService{currentSnap: &core.Snapshot{}} // no track yet
	c, _, notes := newController(t, svc, player.Options{
		Retry: player.RetryPolicy{Interval: 5 * time.Millisecond},
	})

	c.LoadCurrent(context.Background())
	assert.False(t, c.Snapshot().HasTrack())

	// The crawl produces a track; a pending retry should pick it up.
	svc.mu.Lock()
	svc.currentSnap = snapshotFor(1)
	svc.mu.Unlock()

	require.Eventually(t, func() bool {
		return c.Snapshot().HasTrack()
	}, time.Second, 2*time.Millisecond)
	assert.Empty(t, notes.all(), "startup emptiness is not an error")
	assert.Equal(t, player.StateIdle, c.State())
}

func TestLoadCurrentRespectsRetryCap(t *testing.T) {
	svc := &fakeService{currentErr: stderrors.New("connection refused")}
	c, _, notes := newController(t, svc, player.Options{
		Retry: player.RetryPolicy{Interval: 2 * time.Millisecond, MaxAttempts: 2},
	})

	c.LoadCurrent(context.Background())
	time.Sleep(50 * time.Millisecond)

	assert.Nil(t, c.Snapshot())
	assert.Empty(t, notes.all())
}

func TestNextStartsPlayback(t *testing.T) {
	svc := &fakeService{nextSnap: snapshotFor(3)}
	c, element, _ := newController(t, svc, player.Options{})

	require.NoError(t, c.Next(context.Background()))
	waitState(t, c, player.StatePlaying)

	require.Len(t, element.LoadCalls(), 1)
	assert.Equal(t, "http://test/api/player/stream/3", element.LoadCalls()[0])
	assert.Equal(t, 3, c.Snapshot().Track.ID)
	assert.True(t, element.Playing())
}

func TestNextUsesActiveScope(t *testing.T) {
	svc := &fakeService{nextSnap: snapshotFor(3)}
	c, _, _ := newController(t, svc, player.Options{})

	c.SetScope(core.ScopeCollection)
	require.NoError(t, c.Next(context.Background()))
	waitState(t, c, player.StatePlaying)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	require.Len(t, svc.nextScope, 1)
	assert.Equal(t, core.ScopeCollection, svc.nextScope[0])
}

func TestNextWhileLoadingIsDropped(t *testing.T) {
	gate := make(chan struct{})
	svc := &fakeService{nextSnap: snapshotFor(3), nextGate: gate}
	c, _, _ := newController(t, svc, player.Options{})

	done := make(chan error, 1)
	go func() { done <- c.Next(context.Background()) }()
	waitState(t, c, player.StateLoading)

	err := c.Next(context.Background())
	assert.ErrorIs(t, err, errors.ErrBusy)

	svc.mu.Lock()
	svc.nextGate = nil
	svc.mu.Unlock()
	close(gate)

	require.NoError(t, <-done)
	waitState(t, c, player.StatePlaying)

	next, _ := svc.calls()
	assert.Equal(t, 1, next, "dropped call must not reach the server")
}

func TestTransitionFailureKeepsCurrentTrack(t *testing.T) {
	svc := &fakeService{nextSnap: snapshotFor(3)}
	c, _, notes := newController(t, svc, player.Options{})

	require.NoError(t, c.Next(context.Background()))
	waitState(t, c, player.StatePlaying)

	svc.mu.Lock()
	svc.nextErr = stderrors.New("boom")
	svc.mu.Unlock()

	require.Error(t, c.Next(context.Background()))
	assert.Equal(t, 3, c.Snapshot().Track.ID, "failed transition must keep the old snapshot")
	assert.Equal(t, player.StatePlaying, c.State(), "loading must clear on failure")
	assert.Equal(t, []string{"Couldn't get the next track"}, notes.all())
}

func TestPrevFailureDoesNotReloadTrack(t *testing.T) {
	svc := &fakeService{nextSnap: snapshotFor(3), prevErr: stderrors.New("boom")}
	c, element, notes := newController(t, svc, player.Options{})

	require.NoError(t, c.Next(context.Background()))
	waitState(t, c, player.StatePlaying)

	require.Error(t, c.Prev(context.Background()))
	assert.Equal(t, player.StatePlaying, c.State())
	assert.Len(t, element.LoadCalls(), 1, "current track must not be reloaded")
	assert.Equal(t, []string{"Couldn't go back"}, notes.all())
}

func TestAutoAdvanceOnEnded(t *testing.T) {
	svc := &fakeService{nextSnap: snapshotFor(3)}
	c, element, _ := newController(t, svc, player.Options{})

	require.NoError(t, c.Next(context.Background()))
	waitState(t, c, player.StatePlaying)

	svc.mu.Lock()
	svc.nextSnap = snapshotFor(4)
	svc.mu.Unlock()

	element.FireEnded()
	require.Eventually(t, func() bool {
		return c.Snapshot().HasTrack() && c.Snapshot().Track.ID == 4
	}, time.Second, 2*time.Millisecond)
	waitState(t, c, player.StatePlaying)

	next, _ := svc.calls()
	assert.Equal(t, 2, next, "ended must advance exactly once")
}

func TestEndedWhilePausedDoesNotAdvance(t *testing.T) {
	svc := &fakeService{nextSnap: snapshotFor(3)}
	c, element, _ := newController(t, svc, player.Options{})

	require.NoError(t, c.Next(context.Background()))
	waitState(t, c, player.StatePlaying)
	require.NoError(t, c.TogglePlayback(context.Background()))
	waitState(t, c, player.StatePaused)

	element.FireEnded()
	time.Sleep(20 * time.Millisecond)

	next, _ := svc.calls()
	assert.Equal(t, 1, next)
	assert.Equal(t, player.StatePaused, c.State())
}

func TestMediaErrorNotifiesOnceAndSkipsAfterDelay(t *testing.T) {
	svc := &fakeService{nextSnap: snapshotFor(3)}
	c, element, notes := newController(t, svc, player.Options{
		ErrorSkipDelay: 20 * time.Millisecond,
	})

	require.NoError(t, c.Next(context.Background()))
	waitState(t, c, player.StatePlaying)

	svc.mu.Lock()
	svc.nextSnap = snapshotFor(4)
	svc.mu.Unlock()

	element.FireError(stderrors.New("decode failed"))
	element.FireError(stderrors.New("decode failed")) // repeated error, one skip
	waitState(t, c, player.StateErrored)

	require.Eventually(t, func() bool {
		next, _ := svc.calls()
		return next == 2
	}, time.Second, 2*time.Millisecond)
	waitState(t, c, player.StatePlaying)

	assert.Equal(t, []string{"Track failed to play, skipping..."}, notes.all())
}

func TestLoadFailureClearsLoading(t *testing.T) {
	svc := &fakeService{nextSnap: snapshotFor(3)}
	c, element, notes := newController(t, svc, player.Options{
		ErrorSkipDelay: time.Minute, // keep the skip out of this test
	})
	element.SetLoadError(stderrors.New("404"))

	_ = c.Next(context.Background())
	waitState(t, c, player.StateErrored)

	assert.Equal(t, []string{"Track failed to play, skipping..."}, notes.all())
}

func TestTogglePlaybackWithNoTrackActsAsNext(t *testing.T) {
	svc := &fakeService{nextSnap: snapshotFor(3)}
	c, _, _ := newController(t, svc, player.Options{})

	require.NoError(t, c.TogglePlayback(context.Background()))
	waitState(t, c, player.StatePlaying)

	next, _ := svc.calls()
	assert.Equal(t, 1, next)
}

func TestTogglePlaybackPausesAndResumesWithoutServer(t *testing.T) {
	svc := &fakeService{nextSnap: snapshotFor(3)}
	c, element, _ := newController(t, svc, player.Options{})

	require.NoError(t, c.Next(context.Background()))
	waitState(t, c, player.StatePlaying)

	require.NoError(t, c.TogglePlayback(context.Background()))
	assert.Equal(t, player.StatePaused, c.State())
	assert.False(t, element.Playing())

	require.NoError(t, c.TogglePlayback(context.Background()))
	assert.Equal(t, player.StatePlaying, c.State())
	assert.True(t, element.Playing())

	next, _ := svc.calls()
	assert.Equal(t, 1, next, "pause/resume must not touch the server")
	assert.Len(t, element.LoadCalls(), 1, "resume must reuse the loaded source")
}

func TestTogglePlaybackStartsDisplayedStartupTrack(t *testing.T) {
	svc := &fakeService{currentSnap: snapshotFor(7)}
	c, element, _ := newController(t, svc, player.Options{})

	c.LoadCurrent(context.Background())
	require.NoError(t, c.TogglePlayback(context.Background()))
	waitState(t, c, player.StatePlaying)

	next, _ := svc.calls()
	assert.Equal(t, 0, next, "displayed track plays without a new server pick")
	require.Len(t, element.LoadCalls(), 1)
	assert.Equal(t, "http://test/api/player/stream/7", element.LoadCalls()[0])
}

func TestPlayTrackSynthesizesSnapshot(t *testing.T) {
	svc := &fakeService{}
	c, element, _ := newController(t, svc, player.Options{})

	track := core.Track{ID: 42, Title: "picked", Format: core.FormatXM}
	coll := &core.Collection{ID: 9, Name: "chosen-collection"}
	require.NoError(t, c.PlayTrack(context.Background(), track, coll, "MUSIC"))
	waitState(t, c, player.StatePlaying)

	snap := c.Snapshot()
	require.True(t, snap.HasTrack())
	assert.Equal(t, 42, snap.Track.ID)
	assert.Equal(t, "chosen-collection", snap.Collection.Name)
	assert.Equal(t, "MUSIC", snap.CategoryName)
	assert.Equal(t, "http://test/api/player/stream/42", element.LoadCalls()[0])
}

func TestToggleUpvoteWaitsForServer(t *testing.T) {
	svc := &fakeService{currentSnap: snapshotFor(7)}
	c, _, notes := newController(t, svc, player.Options{})
	c.LoadCurrent(context.Background())

	var mirrored []int
	c.SetUpvoteMirror(func(trackID int, upvoted bool) {
		mirrored = append(mirrored, trackID)
	})

	require.NoError(t, c.ToggleUpvote(context.Background()))
	assert.True(t, c.Snapshot().Track.Upvoted)
	assert.Equal(t, []int{7}, svc.upvoted)
	assert.Equal(t, []int{7}, mirrored)

	require.NoError(t, c.ToggleUpvote(context.Background()))
	assert.False(t, c.Snapshot().Track.Upvoted)
	assert.Equal(t, []int{7}, svc.removed)

	assert.Empty(t, notes.all())
}

func TestToggleUpvoteFailureLeavesFlag(t *testing.T) {
	svc := &fakeService{currentSnap: snapshotFor(7), upvoteErr: stderrors.New("boom")}
	c, _, notes := newController(t, svc, player.Options{})
	c.LoadCurrent(context.Background())

	require.Error(t, c.ToggleUpvote(context.Background()))
	assert.False(t, c.Snapshot().Track.Upvoted, "flag only flips on confirmation")
	assert.Equal(t, []string{"Couldn't update saved tracks"}, notes.all())
}

func TestToggleUpvoteWithoutTrack(t *testing.T) {
	svc := &fakeService{}
	c, _, _ := newController(t, svc, player.Options{})

	err := c.ToggleUpvote(context.Background())
	assert.ErrorIs(t, err, errors.ErrNoTrack)
}

func TestApplyUpvoteMirrorsExternalFlip(t *testing.T) {
	svc := &fakeService{currentSnap: snapshotFor(7)}
	c, _, _ := newController(t, svc, player.Options{})
	c.LoadCurrent(context.Background())

	c.ApplyUpvote(7, true)
	assert.True(t, c.Snapshot().Track.Upvoted)

	// A different track's flip must not touch the snapshot.
	c.ApplyUpvote(99, false)
	assert.True(t, c.Snapshot().Track.Upvoted)
}

func TestSeekClampsFraction(t *testing.T) {
	svc := &fakeService{nextSnap: snapshotFor(3)}
	c, element, _ := newController(t, svc, player.Options{})
	element.SetDuration(100 * time.Second)

	require.NoError(t, c.Next(context.Background()))
	waitState(t, c, player.StatePlaying)

	c.Seek(150)
	c.Seek(-10)
	c.Seek(25)

	calls := element.SeekCalls()
	require.Len(t, calls, 3)
	assert.Equal(t, 100*time.Second, calls[0])
	assert.Equal(t, time.Duration(0), calls[1])
	assert.Equal(t, 25*time.Second, calls[2])
}

func TestSubscriptionDeliversChanges(t *testing.T) {
	svc := &fakeService{nextSnap: snapshotFor(3)}
	c, _, _ := newController(t, svc, player.Options{})
	sub := c.Subscribe()

	require.NoError(t, c.Next(context.Background()))

	select {
	case <-sub.Changes:
	case <-time.After(time.Second):
		t.Fatal("no change delivered")
	}
}

func TestHasPrevFollowsSnapshot(t *testing.T) {
	svc := &fakeService{currentSnap: &core.Snapshot{
		Track:   &core.Track{ID: 1, Format: core.FormatMP3},
		HasPrev: false,
	}}
	c, _, _ := newController(t, svc, player.Options{})

	c.LoadCurrent(context.Background())
	assert.False(t, c.HasPrev())

	svc.mu.Lock()
	svc.nextSnap = snapshotFor(2) // HasPrev true for id > 1
	svc.mu.Unlock()

	require.NoError(t, c.Next(context.Background()))
	waitState(t, c, player.StatePlaying)
	assert.True(t, c.HasPrev())
}
