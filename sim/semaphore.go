// Implements the counting semaphore primitive. The semaphore owns its permit
// count and waiter queue and returns scheduling decisions; applying thread
// state transitions is the engine's job, so the primitive stays independently
// testable.

package sim

import (
	"github.com/sirupsen/logrus"
)

// Semaphore models a counting semaphore with FIFO waiters.
//
// A release while threads are queued passes the permit directly to the head
// waiter: the count is not incremented and no other thread can slip in
// between. This makes the grant order exactly the park order.
//
// Thread IDs are positive; 0 means "no thread" in return values.
type Semaphore struct {
	Name string

	permits int64         // currently available permits
	max     int64         // permit ceiling; 0 = unbounded
	waiters []int         // FIFO queue of parked thread IDs
	held    map[int]int64 // thread ID -> permits currently held
	closed  bool
}

// NewSemaphore creates a semaphore with the given initial permit count.
// max caps the count (0 = unbounded); a release that would exceed it is
// rejected with an OverflowError.
func NewSemaphore(name string, initial, max int64) (*Semaphore, error) {
	if initial < 0 {
		return nil, &ConfigError{Field: "semaphore " + name, Reason: "initial permits must be non-negative"}
	}
	if max < 0 {
		return nil, &ConfigError{Field: "semaphore " + name, Reason: "max permits must be non-negative"}
	}
	if max > 0 && initial > max {
		return nil, &ConfigError{Field: "semaphore " + name, Reason: "initial permits exceed max"}
	}
	return &Semaphore{
		Name:    name,
		permits: initial,
		max:     max,
		held:    make(map[int]int64),
	}, nil
}

// Acquire attempts to take one permit for the given thread.
// granted=false with a nil error means the thread was appended to the FIFO
// waiter queue and must park; a later release will wake it with the permit
// already assigned. Returns a ClosedError once the semaphore is closed.
func (s *Semaphore) Acquire(id int) (granted bool, err error) {
	if s.closed {
		return false, &ClosedError{Kind: "semaphore", Name: s.Name}
	}
	if s.permits > 0 {
		s.permits--
		s.held[id]++
		return true, nil
	}
	s.waiters = append(s.waiters, id)
	return false, nil
}

// Release returns one permit on behalf of the given thread.
// If a waiter is queued, the permit passes directly to the head waiter and
// woken is its thread ID (the count stays unchanged). Otherwise the count
// increments; if that would exceed the configured max the release is
// rejected with an OverflowError and no state changes.
//
// Any thread may release, not just holders: signaling patterns such as
// producer/consumer mint permits the releasing thread never acquired.
func (s *Semaphore) Release(id int) (woken int, err error) {
	if s.closed {
		return 0, &ClosedError{Kind: "semaphore", Name: s.Name}
	}
	if len(s.waiters) > 0 {
		woken = s.waiters[0]
		s.waiters = s.waiters[1:]
		s.unhold(id)
		s.held[woken]++
		return woken, nil
	}
	if s.max > 0 && s.permits >= s.max {
		return 0, &OverflowError{Semaphore: s.Name, Max: s.max}
	}
	s.unhold(id)
	s.permits++
	return 0, nil
}

// unhold drops one unit of holder accounting for id, if any is recorded.
func (s *Semaphore) unhold(id int) {
	if s.held[id] > 0 {
		s.held[id]--
		if s.held[id] == 0 {
			delete(s.held, id)
		}
	}
}

// Close poisons the semaphore: subsequent Acquire and Release calls return a
// ClosedError. Queued waiters are drained and returned in FIFO order so the
// caller can fail them.
func (s *Semaphore) Close() (drained []int) {
	if s.closed {
		return nil
	}
	s.closed = true
	drained = s.waiters
	s.waiters = nil
	return drained
}

// Discard removes the thread from the waiter queue, if present.
// Used when a parked thread is terminated out from under the semaphore.
func (s *Semaphore) Discard(id int) {
	kept := s.waiters[:0]
	for _, w := range s.waiters {
		if w != id {
			kept = append(kept, w)
		}
	}
	s.waiters = kept
}

// ReleaseHoldings returns every permit the given thread still holds, waking
// queued waiters with the usual direct hand-off. Permits that would overflow
// the max are dropped with a warning. Works on a closed semaphore: holder
// accounting must settle even after poisoning.
func (s *Semaphore) ReleaseHoldings(id int) (woken []int) {
	n := s.held[id]
	delete(s.held, id)
	for ; n > 0; n-- {
		if len(s.waiters) > 0 {
			w := s.waiters[0]
			s.waiters = s.waiters[1:]
			s.held[w]++
			woken = append(woken, w)
			continue
		}
		if s.max > 0 && s.permits >= s.max {
			logrus.Warnf("semaphore %q: dropping permit held by thread %d, count already at max %d", s.Name, id, s.max)
			continue
		}
		s.permits++
	}
	return woken
}

// Available returns the number of permits currently in the pool.
func (s *Semaphore) Available() int64 {
	return s.permits
}

// QueueLen returns the number of parked waiters.
func (s *Semaphore) QueueLen() int {
	return len(s.waiters)
}

// Waiters returns a copy of the waiter queue in FIFO order.
func (s *Semaphore) Waiters() []int {
	out := make([]int, len(s.waiters))
	copy(out, s.waiters)
	return out
}

// HeldBy returns how many permits the given thread currently holds.
func (s *Semaphore) HeldBy(id int) int64 {
	return s.held[id]
}

// Closed reports whether Close has been called.
func (s *Semaphore) Closed() bool {
	return s.closed
}
