package app

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frudas24/ddc-spotlight/internal/ddc"
	"github.com/frudas24/ddc-spotlight/internal/identity"
	"github.com/frudas24/ddc-spotlight/internal/session"
	"github.com/frudas24/ddc-spotlight/internal/spotlight"
	"github.com/frudas24/ddc-spotlight/internal/testutil"
	"github.com/frudas24/ddc-spotlight/internal/vcp"
)

type rig struct {
	a, b   *testutil.FakeMonitor
	sess   *session.Session
	worker *Worker
}

// newRig builds a worker over two fake displays: OS1 drives A, OS2 drives B.
func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{
		a:    testutil.NewFakeMonitor(50, 50),
		b:    testutil.NewFakeMonitor(70, 30),
		sess: session.New(""),
	}
	clock := testutil.NewFakeClock()
	r.worker = NewWorker(r.sess, zerolog.Nop(),
		spotlight.WithPacer(ddc.NewPacer(ddc.CommandDelay, ddc.WithClock(clock.Now, clock.Sleep))),
		spotlight.WithEnumerator(func(p *ddc.Pacer, _ zerolog.Logger) ([]*ddc.Display, error) {
			return []*ddc.Display{
				ddc.NewI2CDisplay("A", "FAKE A", r.a, p),
				ddc.NewI2CDisplay("B", "FAKE B", r.b, p),
			}, nil
		}),
		spotlight.WithOutputSource(identity.StaticSource(
			[]string{"OS1", "OS2"},
			map[string][]string{"OS1": {"A"}, "OS2": {"B"}},
		)),
	)
	return r
}

// TestWorker_SpotlightAndStop verifies requests apply in order and Stop restores.
func TestWorker_SpotlightAndStop(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.worker.Start())
	ctx := context.Background()

	require.NoError(t, r.worker.Spotlight(ctx, []string{"OS1"}, session.SourceMPV))
	assert.Equal(t, uint16(0), r.b.Current(vcp.Luminance))
	assert.Equal(t, uint16(50), r.a.Current(vcp.Luminance))

	last, ok := r.sess.Last()
	require.True(t, ok)
	assert.Equal(t, session.ActionSpotlight, last.Action)
	assert.Equal(t, []string{"OS1"}, last.Names)
	assert.Equal(t, session.SourceMPV, last.Source)

	require.NoError(t, r.worker.DimAll(ctx, session.SourceControl))
	assert.Equal(t, uint16(0), r.a.Current(vcp.Contrast))

	require.NoError(t, r.worker.Stop())
	assert.Equal(t, uint16(50), r.a.Current(vcp.Luminance))
	assert.Equal(t, uint16(30), r.b.Current(vcp.Contrast))
	assert.True(t, r.a.Closed)
	assert.True(t, r.b.Closed)

	require.ErrorIs(t, r.worker.DimAll(ctx, session.SourceControl), ErrStopped)
	last, _ = r.sess.Last()
	assert.NotEmpty(t, last.Error)
	require.NoError(t, r.worker.Stop())
}

// TestWorker_ConcurrentCallers verifies requests from many goroutines are serialised.
func TestWorker_ConcurrentCallers(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.worker.Start())
	defer r.worker.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			names := []string{"OS1"}
			if i%2 == 1 {
				names = []string{"OS2"}
			}
			assert.NoError(t, r.worker.Spotlight(context.Background(), names, session.SourceControl))
		}()
	}
	wg.Wait()

	require.NoError(t, r.worker.RestoreAll(context.Background(), session.SourceControl))
	displays, err := r.worker.Displays(context.Background())
	require.NoError(t, err)
	require.Len(t, displays, 2)
	for _, d := range displays {
		assert.Equal(t, spotlight.StateRestored, d.State)
	}
	assert.Equal(t, 9, r.sess.Snapshot().Requests)
}

// TestWorker_PanicRestoresAndStops verifies a panicking request restores every display and stops the worker.
func TestWorker_PanicRestoresAndStops(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.worker.Start())
	ctx := context.Background()

	require.NoError(t, r.worker.Spotlight(ctx, []string{"OS1"}, session.SourceMPV))
	require.Equal(t, uint16(0), r.b.Current(vcp.Luminance))

	err := r.worker.Do(ctx, func(*spotlight.Monitors) { panic("boom") })
	require.ErrorIs(t, err, ErrPanicked)
	assert.Contains(t, err.Error(), "boom")

	require.NoError(t, r.worker.Stop())
	assert.Equal(t, uint16(70), r.b.Current(vcp.Luminance))
	assert.Equal(t, uint16(30), r.b.Current(vcp.Contrast))
	assert.True(t, r.a.Closed)
	assert.True(t, r.b.Closed)
	require.ErrorIs(t, r.worker.DimAll(ctx, session.SourceControl), ErrStopped)
}

// TestWorker_CancelledContext verifies a cancelled request never reaches the displays.
func TestWorker_CancelledContext(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.worker.Start())
	defer r.worker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, r.worker.DimAll(ctx, session.SourceControl), context.Canceled)
	assert.Equal(t, uint16(50), r.a.Current(vcp.Luminance))
}

// TestWorker_NotStarted verifies requests fail before Start.
func TestWorker_NotStarted(t *testing.T) {
	r := newRig(t)
	require.ErrorIs(t, r.worker.DimAll(context.Background(), session.SourceControl), ErrNotStarted)
	require.NoError(t, r.worker.Stop())
}

// TestWorker_StartFailure verifies an enumeration failure surfaces from Start.
func TestWorker_StartFailure(t *testing.T) {
	w := NewWorker(nil, zerolog.Nop(), spotlight.WithEnumerator(func(*ddc.Pacer, zerolog.Logger) ([]*ddc.Display, error) {
		return nil, ddc.ErrUnsupported
	}))
	require.ErrorIs(t, w.Start(), ddc.ErrUnsupported)
}

// TestWorker_Identity verifies the identity map is exposed.
func TestWorker_Identity(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.worker.Start())
	defer r.worker.Stop()

	ids, err := r.worker.Identity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"OS1": {"A"}, "OS2": {"B"}}, ids)
}
