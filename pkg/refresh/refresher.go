// Package refresh keeps the latest catalog snapshot current by polling a
// source on a fixed interval.
package refresh

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yanorepuser4/dagster/pkg/catalog"
	"github.com/yanorepuser4/dagster/pkg/models"
)

// DefaultInterval matches the overview's fifteen second refresh.
const DefaultInterval = 15 * time.Second

// State is what a view observes: the latest data plus loading and error flags.
type State struct {
	Snapshot    *models.Snapshot
	Loading     bool
	Err         error // last transport error; cleared by the next success
	LastFetched time.Time
	NextFetch   time.Time
}

// Phase classifies a State for rendering.
type Phase int

const (
	// PhaseLoading: a request is in flight and there is no prior data.
	PhaseLoading Phase = iota
	// PhaseFailed: the latest data resolved to an error payload.
	PhaseFailed
	// PhaseTransportError: no data could be fetched at all.
	PhaseTransportError
	// PhaseReady: assets are available to render.
	PhaseReady
)

// Phase reports how the state should be rendered. Prior data wins over a
// newer transport error so a flaky endpoint does not blank the screen.
func (s State) Phase() Phase {
	if s.Snapshot == nil {
		if s.Err != nil && !s.Loading {
			return PhaseTransportError
		}
		return PhaseLoading
	}
	if s.Snapshot.Assets.Failed() {
		return PhaseFailed
	}
	return PhaseReady
}

// Refresher polls a source and publishes state changes to subscribers.
type Refresher struct {
	source   catalog.Source
	interval time.Duration
	log      logrus.FieldLogger

	mu          sync.Mutex
	state       State
	subscribers []chan State
	inflight    bool

	trigger chan struct{}
}

// New creates a refresher. A non-positive interval uses DefaultInterval.
func New(source catalog.Source, interval time.Duration, log logrus.FieldLogger) *Refresher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Refresher{
		source:   source,
		interval: interval,
		log:      log,
		trigger:  make(chan struct{}, 1),
	}
}

// State returns the current state.
func (r *Refresher) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Subscribe returns a channel receiving every state change. The channel keeps
// only the newest undelivered state.
func (r *Refresher) Subscribe() <-chan State {
	ch := make(chan State, 1)
	r.mu.Lock()
	r.subscribers = append(r.subscribers, ch)
	r.mu.Unlock()
	return ch
}

// Request asks a running loop to refresh now.
func (r *Refresher) Request() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run fetches immediately, then every interval, until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Refresh(ctx)
		case <-r.trigger:
			r.Refresh(ctx)
			ticker.Reset(r.interval)
		}
	}
}

// Refresh performs one fetch. Concurrent calls while a fetch is in flight
// return without fetching again.
func (r *Refresher) Refresh(ctx context.Context) {
	r.mu.Lock()
	if r.inflight {
		r.mu.Unlock()
		return
	}
	r.inflight = true
	r.state.Loading = true
	r.publishLocked()
	r.mu.Unlock()

	snap, err := r.source.Load(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inflight = false
	r.state.Loading = false
	r.state.NextFetch = time.Now().Add(r.interval)
	if err != nil {
		if ctx.Err() == nil {
			r.log.WithError(err).Warn("Refresh failed")
		}
		r.state.Err = err
	} else {
		r.state.Snapshot = snap
		r.state.Err = nil
		r.state.LastFetched = snap.FetchedAt
		if r.state.LastFetched.IsZero() {
			r.state.LastFetched = time.Now()
		}
	}
	r.publishLocked()
}

func (r *Refresher) publishLocked() {
	for _, ch := range r.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- r.state
	}
}
