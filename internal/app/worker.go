package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/frudas24/ddc-spotlight/internal/session"
	"github.com/frudas24/ddc-spotlight/internal/spotlight"
)

// ErrStopped is returned for requests sent after the worker stopped.
var ErrStopped = errors.New("display worker stopped")

// ErrNotStarted is returned for requests sent before Start.
var ErrNotStarted = errors.New("display worker not started")

// ErrPanicked is returned for a request that panicked. The worker restores
// every display and stops.
var ErrPanicked = errors.New("display worker request panicked")

type job struct {
	fn   func(*spotlight.Monitors)
	done chan error
}

// Worker owns the Monitors aggregate on a single goroutine. Requests from every
// control surface are queued and applied one at a time; callers block until theirs ran.
type Worker struct {
	log     zerolog.Logger
	session *session.Session
	opts    []spotlight.Option
	now     func() time.Time

	jobs     chan job
	quit     chan struct{}
	stopped  chan struct{}
	started  bool
	stopOnce sync.Once
	closeErr error
}

// NewWorker returns a worker that will build Monitors with opts on Start.
func NewWorker(sess *session.Session, log zerolog.Logger, opts ...spotlight.Option) *Worker {
	return &Worker{
		log:     log,
		session: sess,
		opts:    append([]spotlight.Option{spotlight.WithLogger(log)}, opts...),
		now:     time.Now,
		jobs:    make(chan job),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start enumerates and probes the displays, then starts serving requests.
// It blocks for the whole probe, which can take seconds with many displays.
func (w *Worker) Start() error {
	if w.started {
		return errors.New("display worker already started")
	}
	m, err := spotlight.New(w.opts...)
	if err != nil {
		return err
	}
	w.started = true
	go w.loop(m)
	return nil
}

// loop applies jobs until Stop or a panicking job, then restores and releases every display.
func (w *Worker) loop(m *spotlight.Monitors) {
	defer close(w.stopped)
	for {
		select {
		case j := <-w.jobs:
			err := w.run(m, j.fn)
			j.done <- err
			if err != nil {
				w.log.Error().Err(err).Msg("worker: restoring displays after panic")
				w.stopOnce.Do(func() { close(w.quit) })
				w.closeErr = m.Close()
				return
			}
		case <-w.quit:
			w.log.Info().Msg("worker: restoring displays")
			w.closeErr = m.Close()
			return
		}
	}
}

// run applies fn and turns a panic into ErrPanicked.
func (w *Worker) run(m *spotlight.Monitors, fn func(*spotlight.Monitors)) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrPanicked, p)
		}
	}()
	fn(m)
	return nil
}

// Stop restores every display, releases the handles and waits for the worker to exit.
func (w *Worker) Stop() error {
	w.stopOnce.Do(func() {
		close(w.quit)
	})
	if !w.started {
		return nil
	}
	<-w.stopped
	return w.closeErr
}

// Do runs fn on the worker goroutine and waits for it to finish.
// A cancelled ctx fails before fn is queued.
func (w *Worker) Do(ctx context.Context, fn func(*spotlight.Monitors)) error {
	if !w.started {
		return ErrNotStarted
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	j := job{fn: fn, done: make(chan error, 1)}
	select {
	case w.jobs <- j:
	case <-w.quit:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-j.done
}

// Spotlight keeps the displays behind names lit and dims the others.
func (w *Worker) Spotlight(ctx context.Context, names []string, source string) error {
	err := w.Do(ctx, func(m *spotlight.Monitors) { m.Spotlight(names) })
	w.record(session.ActionSpotlight, names, source, err)
	return err
}

// DimAll dims every display.
func (w *Worker) DimAll(ctx context.Context, source string) error {
	err := w.Do(ctx, func(m *spotlight.Monitors) { m.DimAll() })
	w.record(session.ActionDimAll, nil, source, err)
	return err
}

// RestoreAll restores every display to its baseline.
func (w *Worker) RestoreAll(ctx context.Context, source string) error {
	err := w.Do(ctx, func(m *spotlight.Monitors) { m.RestoreAll() })
	w.record(session.ActionRestoreAll, nil, source, err)
	return err
}

// Displays returns a summary of every display.
func (w *Worker) Displays(ctx context.Context) ([]spotlight.DisplayInfo, error) {
	var out []spotlight.DisplayInfo
	err := w.Do(ctx, func(m *spotlight.Monitors) { out = m.Describe() })
	return out, err
}

// Identity returns the OS name to display identity mapping.
func (w *Worker) Identity(ctx context.Context) (map[string][]string, error) {
	var out map[string][]string
	err := w.Do(ctx, func(m *spotlight.Monitors) { out = m.Identity().Entries() })
	return out, err
}

// record stores a completed request on the session.
func (w *Worker) record(action string, names []string, source string, err error) {
	if w.session == nil {
		return
	}
	req := session.Request{Action: action, Names: names, Source: source, At: w.now()}
	if err != nil {
		req.Error = err.Error()
		w.log.Warn().Err(err).Str("action", action).Str("source", source).Msg("worker: request failed")
	}
	w.session.Record(req)
}

