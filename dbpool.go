// Package dbpool is a bounded cache of live database sessions:
// borrow/return protocol, active-set bookkeeping, capacity elasticity
// under load, and a background leak detector for borrowers that hold a
// session too long. The database driver itself, configuration sources,
// and credential carriers are external collaborators — dbpool only
// assumes a session can report liveness and close.
package dbpool

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/AlexsanderHamir/dbpool/internal/pool"
	"github.com/AlexsanderHamir/dbpool/internal/poolerr"
	"github.com/AlexsanderHamir/dbpool/internal/session"
	"github.com/AlexsanderHamir/dbpool/internal/settings"
)

// Re-exported so callers never need to import the internal packages
// directly — the public surface is this one package, per spec §6.
type (
	Session     = session.Session
	Credentials = session.Credentials
	Dialer      = session.Dialer
	Settings    = settings.Settings
	PoolStats   = pool.PoolStats
	// Option customizes Pool construction; build one with WithClock or
	// WithLogger, never by naming the underlying internal type.
	Option = pool.Option
)

// WithClock injects a monotonic clock into the pool and its leak
// detector, so tests can simulate leak-threshold expiry without
// sleeping for the production duration.
func WithClock(now func() time.Time) Option { return pool.WithClock(now) }

// WithLogger overrides the pool's default slog.Default() sink.
func WithLogger(logger *slog.Logger) Option { return pool.WithLogger(logger) }

// Sentinel errors, re-exported from internal/poolerr so callers can use
// errors.Is(err, dbpool.ErrAcquireTimeout) without an internal import.
var (
	ErrNullArgument       = poolerr.ErrNullArgument
	ErrNotInitialized     = poolerr.ErrNotInitialized
	ErrConfigMissing      = poolerr.ErrConfigMissing
	ErrBackendUnavailable = poolerr.ErrBackendUnavailable
	ErrAcquireTimeout     = poolerr.ErrAcquireTimeout
	ErrInterrupted        = poolerr.ErrInterrupted
)

// DefaultSettings returns the hardcoded Settings provider (spec §4.2).
func DefaultSettings() (Settings, error) { return settings.NewDefaultProvider() }

// LoadSettingsFile parses the key/value external form from spec §6.
func LoadSettingsFile(path string) (Settings, error) { return settings.ParseFile(path) }

// LoadCredentialsFile parses the user/password/url external form from
// spec §6.
func LoadCredentialsFile(path string) (Credentials, error) { return session.ParseCredentialsFile(path) }

// Pool is the borrow/return handle applications interact with.
type Pool struct {
	inner *pool.Pool
}

// Acquire returns a validated session or fails with ErrAcquireTimeout /
// ErrBackendUnavailable / ErrInterrupted.
func (p *Pool) Acquire(ctx context.Context) (Session, error) { return p.inner.Acquire(ctx) }

// Release returns s to the pool. Fails with ErrNullArgument if s is nil.
func (p *Pool) Release(s Session) error { return p.inner.Release(s) }

// FreeCount, ActiveCount, Capacity, IsActive, and IsLeakScanArmed are
// the observers from spec §4.3.
func (p *Pool) FreeCount() int             { return p.inner.FreeCount() }
func (p *Pool) ActiveCount() int64         { return p.inner.ActiveCount() }
func (p *Pool) Capacity() int64            { return p.inner.Capacity() }
func (p *Pool) IsActive(s Session) bool    { return p.inner.IsActive(s) }
func (p *Pool) IsLeakScanArmed() bool      { return p.inner.IsLeakScanArmed() }

// Stats returns a point-in-time snapshot of pool bookkeeping.
func (p *Pool) Stats() PoolStats { return p.inner.Stats() }

// LogStats writes the current snapshot through the pool's logger.
func (p *Pool) LogStats() { p.inner.LogStats() }

// Shutdown stops the leak scanner and closes every session, waiting up
// to ctx's deadline for outstanding borrows to be released first.
func (p *Pool) Shutdown(ctx context.Context) error { return p.inner.Shutdown(ctx) }

var (
	instanceMu sync.Mutex
	instance   *Pool
)

// Initialize builds the process-wide Pool singleton. It is idempotent
// after the first success — later calls return silently without
// re-initializing, per spec §6. dialer supplies the actual database
// connection logic; dbpool never speaks a wire protocol itself.
func Initialize(set Settings, creds Credentials, dialer Dialer, opts ...Option) error {
	if set == nil || dialer == nil {
		return ErrNullArgument
	}

	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instance != nil {
		return nil
	}

	factory, err := session.NewFactory(creds, dialer)
	if err != nil {
		return err
	}

	p, err := pool.New(set, factory, opts...)
	if err != nil {
		return err
	}

	instance = &Pool{inner: p}
	return nil
}

// Instance returns the singleton built by Initialize, or
// ErrNotInitialized if Initialize has not yet completed successfully.
func Instance() (*Pool, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instance == nil {
		return nil, ErrNotInitialized
	}
	return instance, nil
}

// resetForTest tears the singleton down so package tests can exercise
// Initialize/Instance repeatedly. It is unexported, so callers outside
// this package have no path to it.
func resetForTest() {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instance != nil {
		_ = instance.Shutdown(context.Background())
	}
	instance = nil
}
