// Package session defines the Session handle contract and the factory
// that opens fresh ones. The real database driver is an external
// collaborator: this package only assumes a session can report liveness
// and close itself, per the pool's dependency boundary.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/AlexsanderHamir/dbpool/internal/poolerr"
)

// Session is an opaque handle to an open database connection. Identity
// is reference equality: callers must not wrap a returned Session in a
// proxy before passing it back to the pool, since active-set membership
// is keyed on the handle itself.
type Session interface {
	// IsAlive reports whether the underlying connection still answers,
	// waiting at most timeout for a response.
	IsAlive(ctx context.Context, timeout time.Duration) bool
	// Close releases the underlying connection. The pool does not
	// record which sessions it has already closed, so Close can be
	// called again on a session that is released after the leak
	// detector reclaimed it.
	Close() error
}

// Credentials carries the fields required to open a session: user,
// password, url. Absence of any of them is a ConfigMissing error at the
// credentials provider, not here.
type Credentials struct {
	User     string
	Password string
	URL      string
}

// Dialer opens one fresh database session using creds. It is supplied
// by the embedding application; dbpool never speaks a wire protocol
// itself.
type Dialer func(ctx context.Context, creds Credentials) (Session, error)

// Factory opens new sessions on demand. It does no pooling or caching
// of its own — every call to Open establishes a new connection.
type Factory interface {
	Open(ctx context.Context) (Session, error)
}

type factory struct {
	creds Credentials
	dial  Dialer
}

// NewFactory builds a Factory that opens sessions by invoking dial with
// creds. It fails fast with ErrNullArgument if dial is nil.
func NewFactory(creds Credentials, dial Dialer) (Factory, error) {
	if dial == nil {
		return nil, poolerr.ErrNullArgument
	}
	return &factory{creds: creds, dial: dial}, nil
}

func (f *factory) Open(ctx context.Context) (Session, error) {
	s, err := f.dial(ctx, f.creds)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", poolerr.ErrBackendUnavailable, err)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: dialer returned a nil session", poolerr.ErrBackendUnavailable)
	}
	return s, nil
}
