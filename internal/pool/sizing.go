package pool

import (
	"context"

	"github.com/AlexsanderHamir/dbpool/internal/freequeue"
	"github.com/AlexsanderHamir/dbpool/internal/session"
)

// maybeGrow raises the capacity ceiling when load is high, per spec
// §4.3's "Sizing policy — grow". Growth never opens new sessions by
// itself — it only enlarges the bound a subsequent top-up can fill
// (spec §9 Open Question 3).
func (p *Pool) maybeGrow() {
	p.sizingMu.Lock()
	defer p.sizingMu.Unlock()

	curCap := p.capacity.Load()
	maxCap := int64(p.settings.MaxCapacity())
	if curCap >= maxCap {
		return
	}

	loadRatio := float64(p.activeCount.Load()) / float64(curCap)
	if loadRatio <= p.settings.HighLoadRatio() {
		return
	}

	newCap := int64(float64(curCap) * p.settings.GrowFactor())
	if newCap > maxCap {
		newCap = maxCap
	}
	if newCap <= curCap {
		return
	}

	p.reconfigure(newCap)
	p.grows.Add(1)
	p.logger.Info("pool grew", "from", curCap, "to", newCap)
}

// topUp opens fresh sessions into the free queue when it has emptied
// during an acquire, per spec §4.3's "Top-up" paragraph, including the
// "open exactly one if n rounds to zero" forward-progress guarantee.
func (p *Pool) topUp(ctx context.Context) error {
	p.sizingMu.Lock()
	defer p.sizingMu.Unlock()

	if p.freeLen() > 0 {
		return nil
	}

	curCap := p.capacity.Load()
	n := int64(float64(curCap) * p.settings.TopUpFactor())
	if maxTopUp := int64(p.settings.MaxTopUpCount()); n > maxTopUp {
		n = maxTopUp
	}
	if n <= 0 {
		n = 1
	}

	for i := int64(0); i < n; i++ {
		if int64(p.freeLen()) >= curCap {
			break
		}
		s, err := p.factory.Open(ctx)
		if err != nil {
			return err
		}
		p.opened.Add(1)
		if !p.freeOffer(s) {
			_ = s.Close()
			p.closed.Add(1)
			break
		}
	}

	p.logger.Debug("pool topped up", "opened", n)
	return nil
}

// evaluateShrink implements spec §4.3's "Sizing policy — shrink",
// tracking consecutive low-load observations across releases and
// shrinking with hysteresis once the streak reaches the configured
// threshold.
func (p *Pool) evaluateShrink() {
	baseline := int64(p.settings.BaselineCapacity())
	curCap := p.capacity.Load()
	if curCap == baseline {
		return
	}

	active := p.activeCount.Load()
	loadRatio := float64(active) / float64(curCap)
	if loadRatio >= p.settings.LowLoadRatio() {
		p.lowLoadStreak.Store(0)
		return
	}

	streak := p.lowLoadStreak.Add(1)
	if streak < int64(p.settings.LowLoadHysteresis()) {
		return
	}

	p.sizingMu.Lock()
	curCap = p.capacity.Load()
	if curCap != baseline {
		active = p.activeCount.Load()
		floorShrink := int64(float64(curCap) * p.settings.ShrinkFactor())
		atLeast := active
		if baseline > atLeast {
			atLeast = baseline
		}
		target := floorShrink
		if atLeast < target {
			target = atLeast
		}
		p.shrinkTo(target)
		p.shrinks.Add(1)
		p.logger.Info("pool shrank", "from", curCap, "to", target)
	}
	p.sizingMu.Unlock()

	p.lowLoadStreak.Store(0)
}

// reconfigure swaps the free queue for one of newCapacity, preserving
// every idle session's FIFO order. Called only while holding sizingMu.
func (p *Pool) reconfigure(newCapacity int64) {
	old := p.currentFree()
	drained := old.Drain()

	next := freequeue.New(int(newCapacity))
	for _, s := range drained {
		next.Offer(s)
	}

	p.freeMu.Lock()
	p.free = next
	p.freeMu.Unlock()

	_ = old.Close()
	p.capacity.Store(newCapacity)
}

// shrinkTo lowers the capacity bound to newCapacity, closing whatever
// idle sessions don't fit and carrying the rest into a freshly sized
// queue. Called only while holding sizingMu.
//
// Spec §9 Open Question 2: a session cannot be in both the free queue
// and the active set under the documented protocol. Rather than
// silently re-queuing such a session (the source's apparent defensive
// workaround for a bug elsewhere), this closes it and logs — the
// correct response to an invariant violation, not a routine code path.
func (p *Pool) shrinkTo(newCapacity int64) {
	old := p.currentFree()
	drained := old.Drain()

	for int64(len(drained)) > newCapacity {
		s := drained[0]
		drained = drained[1:]
		p.closeOverflow(s)
	}

	next := freequeue.New(int(newCapacity))
	for _, s := range drained {
		next.Offer(s)
	}

	p.freeMu.Lock()
	p.free = next
	p.freeMu.Unlock()

	_ = old.Close()
	p.capacity.Store(newCapacity)
}

func (p *Pool) closeOverflow(s session.Session) {
	if _, stillActive := p.active.Load(s); stillActive {
		p.logger.Error("shrink drained a session also present in the active set; closing it anyway")
	}
	_ = s.Close()
	p.closed.Add(1)
}
