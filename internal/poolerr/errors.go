// Package poolerr defines the sentinel error taxonomy shared by every
// dbpool component, so callers can branch with errors.Is instead of
// matching on strings.
package poolerr

import "errors"

var (
	// ErrNullArgument is returned by any API that received a required
	// object it cannot operate on (nil settings, nil factory or dialer,
	// nil session).
	ErrNullArgument = errors.New("dbpool: null argument")

	// ErrNotInitialized is returned by Instance before Initialize has
	// completed successfully at least once.
	ErrNotInitialized = errors.New("dbpool: not initialized")

	// ErrConfigMissing is returned by a Settings provider when a
	// required key is absent.
	ErrConfigMissing = errors.New("dbpool: required configuration missing")

	// ErrBackendUnavailable is returned by SessionFactory.Open when the
	// backing database cannot be reached.
	ErrBackendUnavailable = errors.New("dbpool: backend unavailable")

	// ErrAcquireTimeout is returned by Acquire when no session became
	// free within the configured wait.
	ErrAcquireTimeout = errors.New("dbpool: acquire timed out")

	// ErrInterrupted is returned by Acquire when its context is
	// cancelled while waiting on the free queue.
	ErrInterrupted = errors.New("dbpool: acquire interrupted")
)
