package status

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/udaycodespace/credify/internal/backend"
	"github.com/udaycodespace/credify/pkg/logger"
)

type fetcherFunc func(ctx context.Context) (backend.StatusPayload, error)

func (f fetcherFunc) Status(ctx context.Context) (backend.StatusPayload, error) {
	return f(ctx)
}

func healthyPayload(blocks, credentials int64) backend.StatusPayload {
	hash := "0000abcd"
	return backend.StatusPayload{
		TotalBlocks:      &blocks,
		TotalCredentials: &credentials,
		IPFSStatus:       true,
		LastBlockHash:    &hash,
	}
}

// manualScheduler records the scheduled job and runs it only when fired.
type manualScheduler struct {
	mu        sync.Mutex
	interval  time.Duration
	job       func()
	stopped   bool
	schedules int
	stops     int
}

func (m *manualScheduler) Schedule(interval time.Duration, job func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interval, m.job, m.stopped = interval, job, false
	m.schedules++
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.stopped = true
		m.stops++
	}
}

// Fire runs the job as a tick would, unless the schedule was stopped.
func (m *manualScheduler) Fire() {
	m.mu.Lock()
	job, stopped := m.job, m.stopped
	m.mu.Unlock()
	if job != nil && !stopped {
		job()
	}
}

// FireStale runs the last job even after stop, like a tick already in flight.
func (m *manualScheduler) FireStale() {
	m.mu.Lock()
	job := m.job
	m.mu.Unlock()
	job()
}

func collect() (func(Snapshot), <-chan Snapshot) {
	ch := make(chan Snapshot, 16)
	return func(s Snapshot) { ch <- s }, ch
}

func receive(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(3 * time.Second):
		t.Fatal("no snapshot delivered")
		return Snapshot{}
	}
}

func assertNothing(t *testing.T, ch <-chan Snapshot) {
	t.Helper()
	select {
	case s := <-ch:
		t.Fatalf("unexpected snapshot delivered: %+v", s)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPollHealthyBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, backend.StatusPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total_blocks": 12, "total_credentials": 3, "ipfs_status": true, "last_block_hash": "00ab"}`))
	}))
	defer srv.Close()

	fixed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	p := New(backend.NewClient(srv.URL), nil, WithLogger(logger.Nop()), WithClock(func() time.Time { return fixed }))

	snap := p.Poll(context.Background())

	assert.Equal(t, Snapshot{
		TotalBlocks:      Number(12),
		TotalCredentials: Number(3),
		IPFSConnected:    true,
		LastBlockHash:    "00ab",
		ReceivedAt:       fixed,
	}, snap)
	assert.False(t, snap.IsError())
}

func TestPollFailuresYieldErrorSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": "boom"}`))
		}},
		{"not json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>maintenance</html>`))
		}},
		{"missing counts", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"ipfs_status": true}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			p := New(backend.NewClient(srv.URL), nil, WithLogger(logger.Nop()))
			snap := p.Poll(context.Background())

			assertErrorSnapshot(t, snap)
		})
	}

	t.Run("network failure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		p := New(backend.NewClient(url), nil, WithLogger(logger.Nop()))
		assertErrorSnapshot(t, p.Poll(context.Background()))
	})
}

func assertErrorSnapshot(t *testing.T, snap Snapshot) {
	t.Helper()
	want := ErrorSnapshot()
	assert.Equal(t, want.TotalBlocks, snap.TotalBlocks)
	assert.Equal(t, want.TotalCredentials, snap.TotalCredentials)
	assert.False(t, snap.IPFSConnected)
	assert.True(t, snap.IsError())
}

func TestStartPollsImmediatelyThenOnEachTick(t *testing.T) {
	var calls atomic.Int64
	fetcher := fetcherFunc(func(ctx context.Context) (backend.StatusPayload, error) {
		n := calls.Add(1)
		return healthyPayload(n, n), nil
	})
	sched := &manualScheduler{}
	display, ch := collect()
	p := New(fetcher, display, WithScheduler(sched), WithLogger(logger.Nop()))

	require.NoError(t, p.Start(20*time.Millisecond))
	defer p.Stop()

	first := receive(t, ch)
	blocks, ok := first.TotalBlocks.Int64()
	require.True(t, ok)
	assert.EqualValues(t, 1, blocks)
	assert.Equal(t, 20*time.Millisecond, sched.interval)
	assertNothing(t, ch)

	sched.Fire()
	second := receive(t, ch)
	blocks, _ = second.TotalBlocks.Int64()
	assert.EqualValues(t, 2, blocks)

	last, ok := p.Last()
	require.True(t, ok)
	assert.Equal(t, second, last)
}

func TestStartForwardsErrorSnapshots(t *testing.T) {
	fetcher := fetcherFunc(func(ctx context.Context) (backend.StatusPayload, error) {
		return backend.StatusPayload{}, backend.ErrNetwork
	})
	display, ch := collect()
	p := New(fetcher, display, WithScheduler(&manualScheduler{}), WithLogger(logger.Nop()))

	require.NoError(t, p.Start(time.Minute))
	defer p.Stop()

	assertErrorSnapshot(t, receive(t, ch))
}

func TestStopPreventsFurtherCallbacks(t *testing.T) {
	fetcher := fetcherFunc(func(ctx context.Context) (backend.StatusPayload, error) {
		return healthyPayload(1, 1), nil
	})
	sched := &manualScheduler{}
	display, ch := collect()
	p := New(fetcher, display, WithScheduler(sched), WithLogger(logger.Nop()))

	require.NoError(t, p.Start(time.Minute))
	receive(t, ch)
	assert.True(t, p.Running())

	p.Stop()
	assert.False(t, p.Running())
	assert.Equal(t, 1, sched.stops)

	sched.Fire()
	sched.FireStale()
	assertNothing(t, ch)

	p.Stop()
	assert.Equal(t, 1, sched.stops)
}

func TestStopCancelsInFlightPoll(t *testing.T) {
	started := make(chan struct{})
	fetcher := fetcherFunc(func(ctx context.Context) (backend.StatusPayload, error) {
		close(started)
		<-ctx.Done()
		return backend.StatusPayload{}, ctx.Err()
	})
	display, ch := collect()
	p := New(fetcher, display, WithScheduler(&manualScheduler{}), WithLogger(logger.Nop()))

	require.NoError(t, p.Start(time.Minute))
	<-started
	p.Stop()

	assertNothing(t, ch)
	_, ok := p.Last()
	assert.False(t, ok)
}

func TestStartWhileRunningRestartsWithNewInterval(t *testing.T) {
	fetcher := fetcherFunc(func(ctx context.Context) (backend.StatusPayload, error) {
		return healthyPayload(1, 1), nil
	})
	sched := &manualScheduler{}
	display, ch := collect()
	p := New(fetcher, display, WithScheduler(sched), WithLogger(logger.Nop()))

	require.NoError(t, p.Start(time.Minute))
	receive(t, ch)
	require.NoError(t, p.Start(2*time.Minute))
	receive(t, ch)
	defer p.Stop()

	assert.Equal(t, 2, sched.schedules)
	assert.Equal(t, 1, sched.stops)
	assert.Equal(t, 2*time.Minute, sched.interval)
}

func TestStartRejectsNonPositiveInterval(t *testing.T) {
	p := New(fetcherFunc(nil), nil, WithScheduler(&manualScheduler{}), WithLogger(logger.Nop()))

	assert.ErrorIs(t, p.Start(0), ErrInvalidInterval)
	assert.ErrorIs(t, p.Start(-time.Second), ErrInvalidInterval)
	assert.False(t, p.Running())
}

func TestRefreshDeliversOutsideSchedule(t *testing.T) {
	fetcher := fetcherFunc(func(ctx context.Context) (backend.StatusPayload, error) {
		return healthyPayload(7, 2), nil
	})
	display, ch := collect()
	p := New(fetcher, display, WithScheduler(&manualScheduler{}), WithLogger(logger.Nop()))

	_, ok := p.Last()
	assert.False(t, ok)

	snap := p.Refresh(context.Background())

	assert.Equal(t, snap, receive(t, ch))
	last, ok := p.Last()
	require.True(t, ok)
	assert.Equal(t, snap, last)
}

func TestCronSchedulerStopsCleanly(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var calls atomic.Int64
	fetcher := fetcherFunc(func(ctx context.Context) (backend.StatusPayload, error) {
		calls.Add(1)
		return backend.StatusPayload{}, errors.New("offline")
	})
	display, ch := collect()
	p := New(fetcher, display, WithLogger(logger.Nop()))

	require.NoError(t, p.Start(time.Second))
	receive(t, ch)
	receive(t, ch)
	p.Stop()

	assert.GreaterOrEqual(t, calls.Load(), int64(2))
}

func TestCronSchedulerKeepsCallbacksIntervalApart(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	const interval = 600 * time.Millisecond

	var calls atomic.Int64
	fetcher := fetcherFunc(func(ctx context.Context) (backend.StatusPayload, error) {
		n := calls.Add(1)
		if n == 1 {
			// A slow first poll must not pull the next callback closer.
			time.Sleep(80 * time.Millisecond)
		}
		return healthyPayload(n, n), nil
	})

	var mu sync.Mutex
	var seen []time.Time
	done := make(chan struct{})
	display := func(Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, time.Now())
		if len(seen) == 4 {
			close(done)
		}
	}
	p := New(fetcher, display, WithLogger(logger.Nop()))

	// Start off a second boundary so second-aligned ticks would show up.
	time.Sleep(time.Until(time.Now().Truncate(time.Second).Add(time.Second + 300*time.Millisecond)))
	require.NoError(t, p.Start(interval))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled callbacks did not arrive")
	}
	p.Stop()

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < 4; i++ {
		gap := seen[i].Sub(seen[i-1])
		assert.GreaterOrEqual(t, gap, interval, "gap %d", i)
		assert.Less(t, gap, interval+300*time.Millisecond, "gap %d", i)
	}
}
