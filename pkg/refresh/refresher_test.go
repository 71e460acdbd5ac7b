package refresh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanorepuser4/dagster/pkg/models"
)

type fakeSource struct {
	mu      sync.Mutex
	results []result
	calls   atomic.Int32
}

type result struct {
	snap *models.Snapshot
	err  error
}

func (f *fakeSource) Load(ctx context.Context) (*models.Snapshot, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.results) == 0 {
		return &models.Snapshot{FetchedAt: time.Now()}, nil
	}
	r := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return r.snap, r.err
}

func okSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Assets:    models.AssetsResult{Assets: []models.Asset{{ID: "a"}}},
		FetchedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestPhases(t *testing.T) {
	assert.Equal(t, PhaseLoading, State{}.Phase())
	assert.Equal(t, PhaseLoading, State{Loading: true}.Phase())
	assert.Equal(t, PhaseTransportError, State{Err: errors.New("down")}.Phase())
	assert.Equal(t, PhaseReady, State{Snapshot: okSnapshot(), Err: errors.New("down")}.Phase())

	failed := &models.Snapshot{Assets: models.AssetsResult{Error: &models.PythonError{Message: "boom"}}}
	assert.Equal(t, PhaseFailed, State{Snapshot: failed}.Phase())
}

func TestRefreshKeepsDataOnError(t *testing.T) {
	src := &fakeSource{results: []result{
		{snap: okSnapshot()},
		{err: errors.New("connection refused")},
	}}
	r := New(src, time.Hour, nil)

	r.Refresh(context.Background())
	st := r.State()
	require.NotNil(t, st.Snapshot)
	assert.NoError(t, st.Err)
	assert.False(t, st.Loading)
	assert.Equal(t, okSnapshot().FetchedAt, st.LastFetched)

	r.Refresh(context.Background())
	st = r.State()
	require.NotNil(t, st.Snapshot, "prior data survives a failed refresh")
	assert.EqualError(t, st.Err, "connection refused")
	assert.Equal(t, PhaseReady, st.Phase())
}

func TestSubscribeSeesLoadingThenResult(t *testing.T) {
	src := &fakeSource{results: []result{{snap: okSnapshot()}}}
	r := New(src, time.Hour, nil)
	ch := r.Subscribe()

	r.Refresh(context.Background())

	st := <-ch
	assert.False(t, st.Loading, "only the newest state is kept")
	assert.NotNil(t, st.Snapshot)
}

func TestRunPollsAndStops(t *testing.T) {
	src := &fakeSource{}
	r := New(src, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return src.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRequestTriggersRefresh(t *testing.T) {
	src := &fakeSource{}
	r := New(src, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	r.Request()
	require.Eventually(t, func() bool { return src.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestDefaultInterval(t *testing.T) {
	r := New(&fakeSource{}, 0, nil)
	assert.Equal(t, DefaultInterval, r.interval)
}
