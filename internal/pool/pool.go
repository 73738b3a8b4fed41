// Package pool implements the session pool: free-session queue, active
// set, capacity elasticity, and the borrow/return protocol. It is the
// core described in spec §4.3 — everything else in dbpool (Settings,
// SessionFactory, LeakDetector, Scheduler) exists to support this type.
package pool

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AlexsanderHamir/dbpool/internal/freequeue"
	"github.com/AlexsanderHamir/dbpool/internal/leak"
	"github.com/AlexsanderHamir/dbpool/internal/poolerr"
	"github.com/AlexsanderHamir/dbpool/internal/scheduler"
	"github.com/AlexsanderHamir/dbpool/internal/session"
	"github.com/AlexsanderHamir/dbpool/internal/settings"
)

// Pool is a bounded cache of live database sessions. The zero value is
// not usable; construct with New.
type Pool struct {
	settings settings.Settings
	factory  session.Factory
	logger   *slog.Logger
	now      func() time.Time

	// sizingMu serializes the three sizing reconfigurations
	// (maybeGrow, topUp, evaluateShrink), per spec §5.
	// Borrow/return paths outside these regions stay off this lock.
	sizingMu sync.Mutex

	// freeMu guards the *freequeue.Queue pointer itself, so a grow/
	// shrink swap is atomic with respect to readers that already
	// captured the old pointer.
	freeMu sync.RWMutex
	free   *freequeue.Queue

	active sync.Map // map[session.Session]struct{}

	capacity      atomic.Int64
	activeCount   atomic.Int64
	lowLoadStreak atomic.Int64
	leakArmed     atomic.Bool

	detector  *leak.Detector
	scheduler *scheduler.Scheduler

	opened  atomic.Int64
	closed  atomic.Int64
	leaked  atomic.Int64
	grows   atomic.Int64
	shrinks atomic.Int64
}

// Option customizes Pool construction. Callers that need no
// customization call New(settings, factory) with no options.
type Option func(*Pool)

// WithClock injects a monotonic clock, so leak-threshold tests don't
// need a real-time sleep (SPEC_FULL §6.1).
func WithClock(now func() time.Time) Option {
	return func(p *Pool) { p.now = now }
}

// WithLogger overrides the default slog.Default() sink.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) { p.logger = logger }
}

// New constructs a Pool: it fills the free queue with
// min(InitialFill, BaselineCapacity) sessions opened eagerly through
// factory, per spec §4.3's "Startup" paragraph.
func New(set settings.Settings, factory session.Factory, opts ...Option) (*Pool, error) {
	if set == nil || factory == nil {
		return nil, poolerr.ErrNullArgument
	}

	p := &Pool{
		settings: set,
		factory:  factory,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	baseline := int64(set.BaselineCapacity())
	p.capacity.Store(baseline)
	p.free = freequeue.New(int(baseline))

	p.detector = leak.New(set.LeakThreshold(), p.reclaimLeaked, p.now, p.logger)
	p.scheduler = scheduler.New(p.detector.Scan, set.LeakScanInterval())

	fill := set.InitialFill()
	if int64(fill) > baseline {
		fill = int(baseline)
	}
	ctx := context.Background()
	for i := 0; i < fill; i++ {
		s, err := factory.Open(ctx)
		if err != nil {
			return nil, err
		}
		p.opened.Add(1)
		p.free.Offer(s)
	}

	return p, nil
}

// Acquire returns a validated session, growing and/or topping up the
// pool first if load demands it. On success the session is recorded in
// the active set, registered with the leak detector, and the leak
// scanner is armed.
func (p *Pool) Acquire(ctx context.Context) (session.Session, error) {
	p.maybeGrow()

	if p.freeLen() == 0 {
		if err := p.topUp(ctx); err != nil {
			return nil, err
		}
	}

	s, err := p.popWithWait(ctx)
	if err != nil {
		return nil, err
	}

	s, err = p.validateOrReplace(ctx, s)
	if err != nil {
		return nil, err
	}

	p.active.Store(s, struct{}{})
	p.activeCount.Add(1)
	_ = p.detector.Register(s)

	if p.leakArmed.CompareAndSwap(false, true) {
		p.scheduler.Start()
	}

	return s, nil
}

// Release returns s to the pool. It is removed from the active set,
// revalidated, and either re-queued or closed, then shrink policy is
// evaluated.
func (p *Pool) Release(s session.Session) error {
	if s == nil {
		return poolerr.ErrNullArgument
	}

	_, wasActive := p.active.LoadAndDelete(s)
	p.detector.Deregister(s)

	if s.IsAlive(context.Background(), p.settings.ValidationTimeout()) && p.freeOffer(s) {
		p.logger.Debug("session released back to free queue")
	} else {
		_ = s.Close()
		p.closed.Add(1)
	}
	if wasActive {
		p.activeCount.Add(-1)
	}

	p.evaluateShrink()
	return nil
}

// reclaimLeaked is the LeakDetector's callback: it closes s, removes
// it from the active set, and decrements activeCount. It never touches
// the free queue, capacity, or shrink hysteresis (spec §4.3), and it
// must not take sizingMu (spec §5 back-edge rule).
func (p *Pool) reclaimLeaked(s session.Session) {
	_ = s.Close()
	p.closed.Add(1)
	p.leaked.Add(1)
	p.active.Delete(s)
	p.activeCount.Add(-1)
	p.logger.Warn("reclaimed leaked session")
}

// FreeCount returns the number of idle sessions currently queued.
func (p *Pool) FreeCount() int { return p.freeLen() }

// ActiveCount returns the number of sessions currently held by
// borrowers.
func (p *Pool) ActiveCount() int64 { return p.activeCount.Load() }

// Capacity returns the current capacity bound.
func (p *Pool) Capacity() int64 { return p.capacity.Load() }

// IsActive reports whether s is currently held by a borrower. Callers
// must pass the exact handle returned by Acquire — identity is
// reference equality (spec §9 note 4).
func (p *Pool) IsActive(s session.Session) bool {
	_, ok := p.active.Load(s)
	return ok
}

// IsLeakScanArmed reports whether the leak scanner has been started.
func (p *Pool) IsLeakScanArmed() bool { return p.leakArmed.Load() }

// Shutdown stops the leak scanner, waits (up to ctx's deadline) for
// outstanding borrows to be released, then force-closes whatever is
// still active and drains and closes the free queue.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.scheduler.Stop()
	p.waitForDrain(ctx)

	p.active.Range(func(key, _ any) bool {
		s, _ := key.(session.Session)
		_ = s.Close()
		p.closed.Add(1)
		p.active.Delete(s)
		p.activeCount.Add(-1)
		return true
	})

	q := p.currentFree()
	for _, s := range q.Drain() {
		_ = s.Close()
		p.closed.Add(1)
	}
	return q.Close()
}

func (p *Pool) waitForDrain(ctx context.Context) {
	const pollInterval = 10 * time.Millisecond
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for p.activeCount.Load() > 0 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Pool) currentFree() *freequeue.Queue {
	p.freeMu.RLock()
	defer p.freeMu.RUnlock()
	return p.free
}

func (p *Pool) freeLen() int { return p.currentFree().Len() }

func (p *Pool) freeOffer(s session.Session) bool { return p.currentFree().Offer(s) }

// popWithWait waits up to AcquireTimeout for a session to appear in
// the free queue, surfacing ErrInterrupted if ctx is cancelled first.
func (p *Pool) popWithWait(ctx context.Context) (session.Session, error) {
	q := p.currentFree()

	type result struct {
		s  session.Session
		ok bool
	}
	ch := make(chan result, 1)
	go func() {
		s, ok := q.Poll(p.settings.AcquireTimeout())
		ch <- result{s, ok}
	}()

	select {
	case <-ctx.Done():
		return nil, poolerr.ErrInterrupted
	case r := <-ch:
		if !r.ok {
			return nil, poolerr.ErrAcquireTimeout
		}
		return r.s, nil
	}
}

// validateOrReplace invokes IsAlive on s; a dead session is closed and
// swapped transparently for a fresh one from the factory.
func (p *Pool) validateOrReplace(ctx context.Context, s session.Session) (session.Session, error) {
	if s.IsAlive(ctx, p.settings.ValidationTimeout()) {
		return s, nil
	}

	p.detector.Deregister(s) // defensive: not yet registered on this path
	_ = s.Close()
	p.closed.Add(1)

	fresh, err := p.factory.Open(ctx)
	if err != nil {
		return nil, err
	}
	p.opened.Add(1)
	return fresh, nil
}
