// Package status polls the backend status endpoint and hands each snapshot
// to a display callback.
package status

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udaycodespace/credify/internal/backend"
	"github.com/udaycodespace/credify/pkg/logger"
	"github.com/udaycodespace/credify/pkg/utilities/timeutil"
)

var ErrInvalidInterval = errors.New("poll interval must be positive")

// Fetcher reads the backend status. *backend.Client implements it.
type Fetcher interface {
	Status(ctx context.Context) (backend.StatusPayload, error)
}

type Option func(*Poller)

func WithScheduler(s Scheduler) Option {
	return func(p *Poller) { p.scheduler = s }
}

func WithLogger(l *logger.Logger) Option {
	return func(p *Poller) { p.log = l }
}

func WithClock(c timeutil.Clock) Option {
	return func(p *Poller) { p.clock = c }
}

// Poller fetches status snapshots on demand or on a schedule.
//
// The display callback is never invoked concurrently with itself. It must
// not call Start or Stop.
type Poller struct {
	fetcher   Fetcher
	display   func(Snapshot)
	scheduler Scheduler
	log       *logger.Logger
	clock     timeutil.Clock

	// deliverMu serialises display calls and lets Stop wait for one in
	// progress.
	deliverMu sync.Mutex
	mu        sync.Mutex
	current   *run

	lastMu  sync.RWMutex
	last    Snapshot
	hasLast bool
}

type run struct {
	ctx          context.Context
	cancel       context.CancelFunc
	interval     time.Duration
	stopSchedule func()
	immediate    sync.WaitGroup

	seq atomic.Uint64
	// paceMu orders scheduled deliveries and keeps them at least interval
	// apart. lastTick and delivered are guarded by it.
	paceMu    sync.Mutex
	lastTick  time.Time
	delivered uint64
}

func New(fetcher Fetcher, display func(Snapshot), opts ...Option) *Poller {
	p := &Poller{
		fetcher:   fetcher,
		display:   display,
		scheduler: CronScheduler{},
		log:       logger.Default().Named("status"),
		clock:     timeutil.SystemClock,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.display == nil {
		p.display = func(Snapshot) {}
	}
	return p
}

// Poll fetches the status once. Failures of any kind yield ErrorSnapshot.
func (p *Poller) Poll(ctx context.Context) Snapshot {
	payload, err := p.fetcher.Status(ctx)
	if err != nil {
		p.log.Warnf("Status poll failed: %v", err)
		snap := ErrorSnapshot()
		snap.ReceivedAt = p.clock()
		return snap
	}

	snap := Snapshot{
		TotalBlocks:      Number(*payload.TotalBlocks),
		TotalCredentials: Number(*payload.TotalCredentials),
		IPFSConnected:    payload.IPFSStatus,
		ReceivedAt:       p.clock(),
	}
	if payload.LastBlockHash != nil {
		snap.LastBlockHash = *payload.LastBlockHash
	}
	return snap
}

// Start polls immediately and then every interval, forwarding snapshots to
// the display callback. Consecutive scheduled callbacks are at least
// interval apart. A running schedule is replaced.
func (p *Poller) Start(interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	r := &run{ctx: ctx, cancel: cancel, interval: interval}

	r.immediate.Add(1)
	go func() {
		defer r.immediate.Done()
		p.tick(r)
	}()
	r.stopSchedule = p.scheduler.Schedule(interval, func() { p.tick(r) })
	p.current = r

	p.log.Debugf("Status polling started every %s", interval)
	return nil
}

// Stop cancels the schedule. Once it returns the display callback is not
// called again for that schedule. Stopping an idle poller is a no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Poller) stopLocked() {
	r := p.current
	if r == nil {
		return
	}
	p.current = nil

	r.cancel()
	r.stopSchedule()
	r.immediate.Wait()

	// Wait out a delivery that passed its cancellation check.
	p.deliverMu.Lock()
	p.deliverMu.Unlock()

	p.log.Debug("Status polling stopped")
}

// Running reports whether a schedule is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

// Refresh polls once outside the schedule and forwards the result to the
// display callback.
func (p *Poller) Refresh(ctx context.Context) Snapshot {
	snap := p.Poll(ctx)
	p.deliver(ctx, snap)
	return snap
}

// Last returns the most recent snapshot handed to the display callback.
func (p *Poller) Last() (Snapshot, bool) {
	p.lastMu.RLock()
	defer p.lastMu.RUnlock()
	return p.last, p.hasLast
}

func (p *Poller) tick(r *run) {
	if r.ctx.Err() != nil {
		return
	}
	seq := r.seq.Add(1)
	snap := p.Poll(r.ctx)

	r.paceMu.Lock()
	defer r.paceMu.Unlock()
	if seq < r.delivered {
		// A later poll already reached the display.
		return
	}
	if !r.lastTick.IsZero() {
		if wait := time.Until(r.lastTick.Add(r.interval)); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-r.ctx.Done():
				return
			}
		}
	}
	if p.deliver(r.ctx, snap) {
		r.lastTick = time.Now()
		r.delivered = seq
	}
}

func (p *Poller) deliver(ctx context.Context, snap Snapshot) bool {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()
	if ctx.Err() != nil {
		return false
	}
	p.lastMu.Lock()
	p.last, p.hasLast = snap, true
	p.lastMu.Unlock()
	p.display(snap)
	return true
}
