package pool

// PoolStats is a point-in-time snapshot of the pool's bookkeeping,
// supplementing the distilled spec with the observability a complete
// pool of this kind ships (SPEC_FULL §6.1), grounded on the teacher's
// poolStats struct and PrintPoolStats method.
type PoolStats struct {
	Capacity      int64
	ActiveCount   int64
	FreeCount     int
	LowLoadStreak int64
	LeakArmed     bool

	SessionsOpened  int64
	SessionsClosed  int64
	SessionsLeaked  int64
	GrowthEvents    int64
	ShrinkEvents    int64
}

// Stats returns a snapshot of the pool's current state and cumulative
// counters. It never blocks on the sizing lock.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Capacity:       p.capacity.Load(),
		ActiveCount:    p.activeCount.Load(),
		FreeCount:      p.freeLen(),
		LowLoadStreak:  p.lowLoadStreak.Load(),
		LeakArmed:      p.leakArmed.Load(),
		SessionsOpened: p.opened.Load(),
		SessionsClosed: p.closed.Load(),
		SessionsLeaked: p.leaked.Load(),
		GrowthEvents:   p.grows.Load(),
		ShrinkEvents:   p.shrinks.Load(),
	}
}

// LogStats writes the current snapshot through the pool's logger, the
// slog-based analogue of the teacher's PrintPoolStats.
func (p *Pool) LogStats() {
	s := p.Stats()
	p.logger.Info("pool stats",
		"capacity", s.Capacity,
		"active", s.ActiveCount,
		"free", s.FreeCount,
		"lowLoadStreak", s.LowLoadStreak,
		"leakArmed", s.LeakArmed,
		"opened", s.SessionsOpened,
		"closed", s.SessionsClosed,
		"leaked", s.SessionsLeaked,
		"grows", s.GrowthEvents,
		"shrinks", s.ShrinkEvents,
	)
}
