package status_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demotape/demotape/internal/core"
	"github.com/demotape/demotape/internal/status"
)

type fakeStatus struct {
	mu  sync.Mutex
	st  *core.Status
	err error
}

func (f *fakeStatus) Status(context.Context) (*core.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.st, f.err
}

func (f *fakeStatus) set(st *core.Status, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.st, f.err = st, err
}

func drained(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestPollPublishesStatus(t *testing.T) {
	svc := &fakeStatus{st: &core.Status{CrawlStatus: core.CrawlRunning, TotalTracks: 10}}
	p := status.New(svc, 0)

	require.Nil(t, p.Status())
	p.Poll(context.Background())

	require.NotNil(t, p.Status())
	assert.Equal(t, 10, p.Status().TotalTracks)
	assert.True(t, drained(p.Changed()))
}

func TestUnchangedReportDoesNotPoke(t *testing.T) {
	svc := &fakeStatus{st: &core.Status{CrawlStatus: core.CrawlRunning, TotalTracks: 10}}
	p := status.New(svc, 0)

	p.Poll(context.Background())
	require.True(t, drained(p.Changed()))

	p.Poll(context.Background())
	assert.False(t, drained(p.Changed()), "identical report must not poke")

	svc.set(&core.Status{CrawlStatus: core.CrawlRunning, TotalTracks: 11}, nil)
	p.Poll(context.Background())
	assert.True(t, drained(p.Changed()))
}

func TestPollFailureKeepsLastReport(t *testing.T) {
	svc := &fakeStatus{st: &core.Status{CrawlStatus: core.CrawlComplete, TotalTracks: 10}}
	p := status.New(svc, 0)

	p.Poll(context.Background())
	require.NotNil(t, p.Status())

	svc.set(nil, errors.New("connection refused"))
	p.Poll(context.Background())

	require.NotNil(t, p.Status(), "failures are swallowed, last report stays")
	assert.Equal(t, 10, p.Status().TotalTracks)
}
