package settings

import "time"

// Builder provides a fluent interface for assembling a custom Settings,
// mirroring the teacher's PoolConfigBuilder pattern (pool/config-builder.go)
// for constructing pool configuration field by field instead of through
// one of the two standard providers. Primarily useful to tests and to
// callers who already hold parsed values from a non-file source.
type Builder struct {
	s static
}

// NewBuilder seeds a Builder with the hardcoded defaults, so callers
// only need to override the fields their scenario cares about.
func NewBuilder() *Builder {
	return &Builder{s: static{
		baselineCapacity:  DefaultBaselineCapacity,
		initialFill:       DefaultInitialFill,
		maxCapacity:       DefaultMaxCapacity,
		acquireTimeout:    DefaultAcquireTimeout,
		validationTimeout: DefaultValidationTimeout,
		leakThreshold:     DefaultLeakThreshold,
		leakScanInterval:  DefaultLeakScanInterval,
		highLoadRatio:     DefaultHighLoadRatio,
		lowLoadRatio:      DefaultLowLoadRatio,
		growFactor:        DefaultGrowFactor,
		topUpFactor:       DefaultTopUpFactor,
		maxTopUpCount:     DefaultMaxTopUpCount,
		shrinkFactor:      DefaultShrinkFactor,
		lowLoadHysteresis: DefaultLowLoadHysteresis,
	}}
}

func (b *Builder) BaselineCapacity(v int) *Builder             { b.s.baselineCapacity = v; return b }
func (b *Builder) InitialFill(v int) *Builder                  { b.s.initialFill = v; return b }
func (b *Builder) MaxCapacity(v int) *Builder                  { b.s.maxCapacity = v; return b }
func (b *Builder) AcquireTimeout(v time.Duration) *Builder     { b.s.acquireTimeout = v; return b }
func (b *Builder) ValidationTimeout(v time.Duration) *Builder  { b.s.validationTimeout = v; return b }
func (b *Builder) LeakThreshold(v time.Duration) *Builder      { b.s.leakThreshold = v; return b }
func (b *Builder) LeakScanInterval(v time.Duration) *Builder   { b.s.leakScanInterval = v; return b }
func (b *Builder) HighLoadRatio(v float64) *Builder            { b.s.highLoadRatio = v; return b }
func (b *Builder) LowLoadRatio(v float64) *Builder             { b.s.lowLoadRatio = v; return b }
func (b *Builder) GrowFactor(v float64) *Builder               { b.s.growFactor = v; return b }
func (b *Builder) TopUpFactor(v float64) *Builder              { b.s.topUpFactor = v; return b }
func (b *Builder) MaxTopUpCount(v int) *Builder                { b.s.maxTopUpCount = v; return b }
func (b *Builder) ShrinkFactor(v float64) *Builder             { b.s.shrinkFactor = v; return b }
func (b *Builder) LowLoadHysteresis(v int) *Builder            { b.s.lowLoadHysteresis = v; return b }

// Build validates the assembled fields and returns a Settings, or the
// first invariant violation found.
func (b *Builder) Build() (Settings, error) {
	s := b.s
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
