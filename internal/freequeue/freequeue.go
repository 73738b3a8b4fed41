// Package freequeue implements the pool's "free queue": a bounded FIFO
// of idle Sessions with a blocking, timeout-bounded pop and a
// non-blocking offer. It is a thin adapter over
// github.com/AlexsanderHamir/ringbuffer, the teacher pool's own
// concurrency-safe ring buffer, reused here for exactly the purpose it
// already served: a resizable, blocking-with-timeout FIFO.
package freequeue

import (
	"time"

	"github.com/AlexsanderHamir/ringbuffer"

	"github.com/AlexsanderHamir/dbpool/internal/session"
)

// Queue is a bounded, concurrency-safe FIFO of idle sessions.
type Queue struct {
	rb *ringbuffer.RingBuffer[session.Session]
}

// New allocates a Queue with the given bound. Reads block (up to the
// per-call timeout passed to Poll); writes never block — Offer always
// returns immediately, matching spec §4.3's "pop with bounded wait" /
// "non-blocking offer" split.
func New(capacity int) *Queue {
	rb := ringbuffer.NewRingBuffer[session.Session](capacity)
	rb.WithBlocking(true)
	return &Queue{rb: rb}
}

// Capacity returns the queue's current bound.
func (q *Queue) Capacity() int {
	return q.rb.Capacity()
}

// Len returns the number of idle sessions currently queued.
func (q *Queue) Len() int {
	return q.rb.Length()
}

// Poll waits up to timeout for a session to become available. ok is
// false on timeout; the caller surfaces AcquireTimeout in that case.
func (q *Queue) Poll(timeout time.Duration) (session.Session, bool) {
	q.rb.WithReadTimeout(timeout)
	s, err := q.rb.GetOne()
	if err != nil {
		var zero session.Session
		return zero, false
	}
	return s, true
}

// Offer attempts a non-blocking insert. It returns false if the queue
// is already at capacity, signalling the caller to close s instead.
func (q *Queue) Offer(s session.Session) bool {
	if q.rb.IsFull() {
		return false
	}
	return q.rb.Write(s) == nil
}

// Drain removes every idle session currently queued and returns them
// in FIFO order, used during grow/shrink reconfiguration to move
// sessions into a freshly sized Queue.
func (q *Queue) Drain() []session.Session {
	q.rb.WithBlocking(false)
	defer q.rb.WithBlocking(true)

	var out []session.Session
	for {
		s, err := q.rb.GetOne()
		if err != nil {
			break
		}
		out = append(out, s)
	}
	return out
}

// Close releases the underlying ring buffer. It does not close the
// sessions still queued inside it — callers drain first.
func (q *Queue) Close() error {
	return q.rb.Close()
}
