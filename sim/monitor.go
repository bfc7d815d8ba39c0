// Implements the monitor primitive: a mutual-exclusion lock with a condition
// wait set. Like the semaphore, the monitor owns its queues and returns
// scheduling decisions for the engine to apply.

package sim

// Monitor models a non-reentrant mutual-exclusion lock with an associated
// condition variable.
//
// Two FIFO queues hang off the lock: the entry queue holds threads parked on
// Enter (or re-parked after a notify), the wait set holds threads that
// released the lock via Wait. On Exit the lock passes directly to the head
// of the entry queue, so lock grant order is exactly park order.
//
// Thread IDs are positive; 0 means "no thread" in Owner and return values.
type Monitor struct {
	Name string

	owner   int   // thread holding the lock; 0 when unlocked
	entryQ  []int // FIFO queue of threads parked for the lock
	waitSet []int // FIFO queue of threads parked in Wait
	closed  bool
}

// NewMonitor creates an unlocked monitor.
func NewMonitor(name string) *Monitor {
	return &Monitor{Name: name}
}

// Enter attempts to take the lock for the given thread.
// granted=false with a nil error means the thread was appended to the FIFO
// entry queue and must park; a later exit will wake it with the lock already
// transferred. Entering while already holding the lock is an OwnershipError:
// the monitor is not reentrant. Returns a ClosedError once closed.
func (m *Monitor) Enter(id int) (granted bool, err error) {
	if m.closed {
		return false, &ClosedError{Kind: "monitor", Name: m.Name}
	}
	if m.owner == id {
		return false, &OwnershipError{Monitor: m.Name, ThreadID: id, Reason: "already holds the lock (no reentrancy)"}
	}
	if m.owner == 0 {
		m.owner = id
		return true, nil
	}
	m.entryQ = append(m.entryQ, id)
	return false, nil
}

// Exit releases the lock. If threads are parked on the entry queue the lock
// passes directly to the head and woken is its thread ID; otherwise the
// monitor unlocks and woken is 0. Exiting without holding the lock is an
// OwnershipError.
func (m *Monitor) Exit(id int) (woken int, err error) {
	if m.closed {
		return 0, &ClosedError{Kind: "monitor", Name: m.Name}
	}
	if m.owner != id {
		return 0, &OwnershipError{Monitor: m.Name, ThreadID: id, Reason: "exit without holding the lock"}
	}
	return m.handoff(), nil
}

// Wait atomically releases the lock and parks the calling thread on the wait
// set. The lock passes to the entry queue head as in Exit; woken is that
// thread's ID or 0. The caller stays parked until a notify moves it back to
// the entry queue and a subsequent hand-off grants it the lock again.
func (m *Monitor) Wait(id int) (woken int, err error) {
	if m.closed {
		return 0, &ClosedError{Kind: "monitor", Name: m.Name}
	}
	if m.owner != id {
		return 0, &OwnershipError{Monitor: m.Name, ThreadID: id, Reason: "wait without holding the lock"}
	}
	m.waitSet = append(m.waitSet, id)
	return m.handoff(), nil
}

// Notify moves the head of the wait set to the tail of the entry queue and
// returns its thread ID, or 0 when the wait set is empty. The caller keeps
// the lock: the notified thread must re-acquire it through the entry queue
// before it runs again.
func (m *Monitor) Notify(id int) (moved int, err error) {
	if m.closed {
		return 0, &ClosedError{Kind: "monitor", Name: m.Name}
	}
	if m.owner != id {
		return 0, &OwnershipError{Monitor: m.Name, ThreadID: id, Reason: "notify without holding the lock"}
	}
	if len(m.waitSet) == 0 {
		return 0, nil
	}
	moved = m.waitSet[0]
	m.waitSet = m.waitSet[1:]
	m.entryQ = append(m.entryQ, moved)
	return moved, nil
}

// NotifyAll moves every thread in the wait set to the entry queue,
// preserving wait order. Returns the moved thread IDs.
func (m *Monitor) NotifyAll(id int) (moved []int, err error) {
	if m.closed {
		return nil, &ClosedError{Kind: "monitor", Name: m.Name}
	}
	if m.owner != id {
		return nil, &OwnershipError{Monitor: m.Name, ThreadID: id, Reason: "notify without holding the lock"}
	}
	moved = m.waitSet
	m.waitSet = nil
	m.entryQ = append(m.entryQ, moved...)
	return moved, nil
}

// handoff passes the lock to the head of the entry queue, or unlocks.
func (m *Monitor) handoff() (woken int) {
	if len(m.entryQ) > 0 {
		m.owner = m.entryQ[0]
		m.entryQ = m.entryQ[1:]
		return m.owner
	}
	m.owner = 0
	return 0
}

// Close poisons the monitor: subsequent operations return a ClosedError.
// Both queues are drained and returned in FIFO order so the caller can fail
// the parked threads. The owner, if any, keeps the lock until its holdings
// are released.
func (m *Monitor) Close() (drainedEntry, drainedWait []int) {
	if m.closed {
		return nil, nil
	}
	m.closed = true
	drainedEntry = m.entryQ
	drainedWait = m.waitSet
	m.entryQ = nil
	m.waitSet = nil
	return drainedEntry, drainedWait
}

// Discard removes the thread from the entry queue and wait set, if present.
// Used when a parked thread is terminated out from under the monitor.
func (m *Monitor) Discard(id int) {
	m.entryQ = remove(m.entryQ, id)
	m.waitSet = remove(m.waitSet, id)
}

func remove(ids []int, id int) []int {
	kept := ids[:0]
	for _, v := range ids {
		if v != id {
			kept = append(kept, v)
		}
	}
	return kept
}

// ReleaseHoldings releases the lock if the given thread holds it, handing it
// to the entry queue head as usual. woken is the new owner's ID or 0.
// Works on a closed monitor: the lock must settle even after poisoning.
func (m *Monitor) ReleaseHoldings(id int) (woken int) {
	if m.owner != id {
		return 0
	}
	return m.handoff()
}

// Owner returns the thread currently holding the lock, 0 when unlocked.
func (m *Monitor) Owner() int {
	return m.owner
}

// EntryLen returns the number of threads parked for the lock.
func (m *Monitor) EntryLen() int {
	return len(m.entryQ)
}

// WaitLen returns the number of threads parked in the wait set.
func (m *Monitor) WaitLen() int {
	return len(m.waitSet)
}

// EntryQueue returns a copy of the entry queue in FIFO order.
func (m *Monitor) EntryQueue() []int {
	out := make([]int, len(m.entryQ))
	copy(out, m.entryQ)
	return out
}

// WaitSet returns a copy of the wait set in FIFO order.
func (m *Monitor) WaitSet() []int {
	out := make([]int, len(m.waitSet))
	copy(out, m.waitSet)
	return out
}

// Closed reports whether Close has been called.
func (m *Monitor) Closed() bool {
	return m.closed
}
