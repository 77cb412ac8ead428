package display

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-logr/logr"
	"github.com/paragor/answer-store/pkg/client"
)

const errorPlaceholder = "Error loading data"

type State int

const (
	Loading State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is what the watcher knows after a poll.
type Snapshot struct {
	State State
	Value string
	// Err is set in the Failed state.
	Err error
	// Unreachable reports that the server could not be reached at all.
	Unreachable bool
	// Next is the delay until the next poll.
	Next time.Duration
}

// API is the part of the answer API the watcher talks to.
type API interface {
	FetchLatest(ctx context.Context) (string, error)
	Submit(ctx context.Context, value string) (string, error)
}

type Renderer interface {
	Render(Snapshot)
}

// Watcher polls the API for the latest answer and hands every state change to
// a Renderer. After a failed poll the interval grows exponentially up to
// maxInterval; a successful poll resets it.
type Watcher struct {
	logr.Logger

	api      API
	renderer Renderer
	interval time.Duration
	backoff  *backoff.ExponentialBackOff
	refresh  chan struct{}

	mu   sync.Mutex
	last Snapshot
}

func NewWatcher(logger logr.Logger, api API, renderer Renderer, interval, maxInterval time.Duration) *Watcher {
	initial := min(2*interval, maxInterval)
	return &Watcher{
		Logger:   logger.WithName("watcher"),
		api:      api,
		renderer: renderer,
		interval: interval,
		backoff: backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(initial),
			backoff.WithMaxInterval(maxInterval),
			backoff.WithMultiplier(2),
			backoff.WithRandomizationFactor(0),
			backoff.WithMaxElapsedTime(0),
		),
		refresh: make(chan struct{}, 1),
		last:    Snapshot{State: Loading},
	}
}

// Run polls immediately and then on every tick until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.renderer.Render(w.Snapshot())

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.V(1).Info("stopping watcher")
			return nil
		case <-timer.C:
		case <-w.refresh:
		}

		snap, ok := w.poll(ctx)
		if !ok {
			return nil
		}
		w.renderer.Render(snap)
		timer.Reset(snap.Next)
	}
}

// Refresh asks a running watcher to poll now.
func (w *Watcher) Refresh() {
	select {
	case w.refresh <- struct{}{}:
	default:
	}
}

// Submit stores value and triggers an immediate refresh on success.
func (w *Watcher) Submit(ctx context.Context, value string) (string, error) {
	msg, err := w.api.Submit(ctx, value)
	if err != nil {
		return "", err
	}
	w.Refresh()
	return msg, nil
}

func (w *Watcher) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// poll fetches once and records the result. It reports false when ctx was
// cancelled mid-flight.
func (w *Watcher) poll(ctx context.Context) (Snapshot, bool) {
	value, err := w.api.FetchLatest(ctx)
	if ctx.Err() != nil {
		return Snapshot{}, false
	}

	var snap Snapshot
	if err != nil {
		next := w.backoff.NextBackOff()
		if next == backoff.Stop {
			next = w.backoff.MaxInterval
		}
		snap = Snapshot{
			State:       Failed,
			Value:       errorPlaceholder,
			Err:         err,
			Unreachable: errors.Is(err, client.ErrNetworkUnreachable),
			Next:        next,
		}
		w.Error(err, "fetching answer", "retry", next)
	} else {
		w.backoff.Reset()
		snap = Snapshot{State: Ready, Value: value, Next: w.interval}
	}

	w.mu.Lock()
	w.last = snap
	w.mu.Unlock()
	return snap, true
}
