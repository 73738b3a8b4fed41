package pool_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AlexsanderHamir/dbpool/internal/session"
)

// fakeSession is a controllable Session used across this package's
// tests, mirroring the teacher's testObject pattern (pool/test/helpers.go)
// of a minimal fake fed to the allocator/cleaner functions.
type fakeSession struct {
	id      int
	alive   atomic.Bool
	closed  atomic.Bool
	closeFn func() error
}

func newFakeSession(id int) *fakeSession {
	s := &fakeSession{id: id}
	s.alive.Store(true)
	return s
}

func (s *fakeSession) IsAlive(ctx context.Context, timeout time.Duration) bool {
	return s.alive.Load()
}

func (s *fakeSession) Close() error {
	s.closed.Store(true)
	if s.closeFn != nil {
		return s.closeFn()
	}
	return nil
}

func (s *fakeSession) setAlive(v bool) { s.alive.Store(v) }

// fakeFactory opens fakeSessions with sequential ids, and can be told
// to fail the next N opens to exercise BackendUnavailable.
type fakeFactory struct {
	mu         sync.Mutex
	nextID     int
	failNext   int
	failAlways bool
}

func (f *fakeFactory) Open(ctx context.Context) (session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAlways || f.failNext > 0 {
		if f.failNext > 0 {
			f.failNext--
		}
		return nil, fmt.Errorf("fake backend unavailable")
	}

	f.nextID++
	return newFakeSession(f.nextID), nil
}

func (f *fakeFactory) failNextOpens(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = n
}
