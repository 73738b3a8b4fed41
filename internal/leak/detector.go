// Package leak implements the LeakDetector: a timestamped registry of
// handed-out sessions, scanned periodically so that a session held
// past its threshold is forcibly reclaimed. The detector makes no
// decision beyond the threshold comparison — closure is delegated to
// the callback supplied at construction, breaking the Pool<->detector
// cycle the teacher's single-process pool never had to deal with (spec
// §9, "cyclic reference").
package leak

import (
	"log/slog"
	"sync"
	"time"

	"github.com/AlexsanderHamir/dbpool/internal/poolerr"
	"github.com/AlexsanderHamir/dbpool/internal/session"
)

// Reclaim is invoked by Scan for every session whose age exceeds the
// configured threshold. Implemented by the Pool as reclaimLeaked; it
// must not take the pool's sizing lock (spec §5 back-edge rule).
type Reclaim func(s session.Session)

// Detector tracks handout timestamps and reclaims stragglers.
type Detector struct {
	threshold time.Duration
	reclaim   Reclaim
	now       func() time.Time
	logger    *slog.Logger

	mu      sync.Mutex
	started map[session.Session]time.Time
}

// New builds a Detector. now defaults to time.Now when nil, so tests
// can inject a controllable clock (SPEC_FULL §6.1's WithClock seam)
// instead of sleeping for the production leak threshold.
func New(threshold time.Duration, reclaim Reclaim, now func() time.Time, logger *slog.Logger) *Detector {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		threshold: threshold,
		reclaim:   reclaim,
		now:       now,
		logger:    logger,
		started:   make(map[session.Session]time.Time),
	}
}

// Register records the handout time for s. ErrNullArgument if s is nil.
func (d *Detector) Register(s session.Session) error {
	if s == nil {
		return poolerr.ErrNullArgument
	}
	d.mu.Lock()
	d.started[s] = d.now()
	d.mu.Unlock()
	return nil
}

// Deregister removes s from tracking. No-op if s was never registered.
func (d *Detector) Deregister(s session.Session) {
	d.mu.Lock()
	delete(d.started, s)
	d.mu.Unlock()
}

// IsRegistered reports whether s is currently tracked.
func (d *Detector) IsRegistered(s session.Session) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.started[s]
	return ok
}

// Scan examines every registered session and reclaims the ones that
// have outlived the leak threshold. A panic or error from one
// reclamation must not skip the rest — each is isolated behind a
// recover, logged, and the scan continues (spec §4.4 and §9 error
// table's LeakReclaimFailed row).
func (d *Detector) Scan() {
	now := d.now()

	d.mu.Lock()
	var leaked []session.Session
	for s, startedAt := range d.started {
		if now.Sub(startedAt) > d.threshold {
			leaked = append(leaked, s)
		}
	}
	d.mu.Unlock()

	if len(leaked) == 0 {
		return
	}

	reclaimed := make([]session.Session, 0, len(leaked))
	for _, s := range leaked {
		if d.reclaimOne(s) {
			reclaimed = append(reclaimed, s)
		}
	}

	d.mu.Lock()
	for _, s := range reclaimed {
		delete(d.started, s)
	}
	d.mu.Unlock()
}

// reclaimOne isolates a single reclaim call so a panicking or
// misbehaving callback can't abort the scan of the remaining sessions.
// It always returns true — success or failure, the session is marked
// for removal from tracking per spec §4.4 ("on success or on any error
// from reclamation, mark s for removal and continue").
func (d *Detector) reclaimOne(s session.Session) (removed bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("leak reclaim panicked", "recover", r)
			removed = true
		}
	}()
	d.reclaim(s)
	return true
}
