package sim

import "testing"

func TestMonitor_Enter_Unlocked_Grants(t *testing.T) {
	// GIVEN an unlocked monitor
	mon := NewMonitor("buffer")

	// WHEN thread 1 enters
	granted, err := mon.Enter(1)

	// THEN it takes the lock immediately
	if err != nil {
		t.Fatalf("Enter: %v", err)
	}
	if !granted {
		t.Error("Enter on unlocked monitor: got granted=false, want true")
	}
	if mon.Owner() != 1 {
		t.Errorf("Owner: got %d, want 1", mon.Owner())
	}
}

func TestMonitor_Enter_Locked_QueuesFIFO(t *testing.T) {
	// GIVEN a monitor locked by thread 1
	mon := NewMonitor("buffer")
	mon.Enter(1)

	// WHEN threads 2 and 3 enter
	g2, _ := mon.Enter(2)
	g3, _ := mon.Enter(3)

	// THEN both park on the entry queue in arrival order
	if g2 || g3 {
		t.Errorf("Enter on locked monitor: got granted=(%v,%v), want (false,false)", g2, g3)
	}
	entry := mon.EntryQueue()
	if len(entry) != 2 || entry[0] != 2 || entry[1] != 3 {
		t.Errorf("EntryQueue: got %v, want [2 3]", entry)
	}
}

func TestMonitor_Enter_Reentry_IsOwnershipError(t *testing.T) {
	// GIVEN a monitor locked by thread 1
	mon := NewMonitor("buffer")
	mon.Enter(1)

	// WHEN thread 1 enters again
	_, err := mon.Enter(1)

	// THEN the re-entry is rejected; the monitor is not reentrant
	if !IsOwnershipError(err) {
		t.Errorf("reentrant Enter: got err=%v, want OwnershipError", err)
	}
	if mon.Owner() != 1 {
		t.Errorf("Owner after rejected re-entry: got %d, want 1", mon.Owner())
	}
}

func TestMonitor_Exit_WithQueue_HandsOffToHead(t *testing.T) {
	// GIVEN a monitor locked by 1 with 2 and 3 parked
	mon := NewMonitor("buffer")
	mon.Enter(1)
	mon.Enter(2)
	mon.Enter(3)

	// WHEN thread 1 exits
	woken, err := mon.Exit(1)

	// THEN the lock passes directly to thread 2
	if err != nil {
		t.Fatalf("Exit: %v", err)
	}
	if woken != 2 {
		t.Errorf("Exit hand-off: got woken=%d, want 2", woken)
	}
	if mon.Owner() != 2 {
		t.Errorf("Owner after hand-off: got %d, want 2", mon.Owner())
	}
	if mon.EntryLen() != 1 {
		t.Errorf("EntryLen after hand-off: got %d, want 1", mon.EntryLen())
	}
}

func TestMonitor_Exit_EmptyQueue_Unlocks(t *testing.T) {
	// GIVEN a monitor locked by thread 1 with nobody parked
	mon := NewMonitor("buffer")
	mon.Enter(1)

	// WHEN thread 1 exits
	woken, err := mon.Exit(1)

	// THEN the monitor unlocks
	if err != nil {
		t.Fatalf("Exit: %v", err)
	}
	if woken != 0 {
		t.Errorf("Exit with empty queue: got woken=%d, want 0", woken)
	}
	if mon.Owner() != 0 {
		t.Errorf("Owner: got %d, want 0", mon.Owner())
	}
}

func TestMonitor_Exit_NonOwner_IsOwnershipError(t *testing.T) {
	// GIVEN a monitor locked by thread 1
	mon := NewMonitor("buffer")
	mon.Enter(1)

	// WHEN thread 2 exits
	_, err := mon.Exit(2)

	// THEN the exit is rejected and ownership is unchanged
	if !IsOwnershipError(err) {
		t.Errorf("Exit by non-owner: got err=%v, want OwnershipError", err)
	}
	if mon.Owner() != 1 {
		t.Errorf("Owner: got %d, want 1", mon.Owner())
	}
}

func TestMonitor_Wait_ReleasesLockAndParks(t *testing.T) {
	// GIVEN a monitor locked by 1 with thread 2 parked on entry
	mon := NewMonitor("buffer")
	mon.Enter(1)
	mon.Enter(2)

	// WHEN thread 1 waits
	woken, err := mon.Wait(1)

	// THEN 1 joins the wait set and the lock hands off to 2
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if woken != 2 {
		t.Errorf("Wait hand-off: got woken=%d, want 2", woken)
	}
	if mon.Owner() != 2 {
		t.Errorf("Owner: got %d, want 2", mon.Owner())
	}
	ws := mon.WaitSet()
	if len(ws) != 1 || ws[0] != 1 {
		t.Errorf("WaitSet: got %v, want [1]", ws)
	}
}

func TestMonitor_Wait_NonOwner_IsOwnershipError(t *testing.T) {
	// GIVEN an unlocked monitor
	mon := NewMonitor("buffer")

	// WHEN a thread waits without the lock
	_, err := mon.Wait(1)

	// THEN the wait is rejected
	if !IsOwnershipError(err) {
		t.Errorf("Wait by non-owner: got err=%v, want OwnershipError", err)
	}
}

func TestMonitor_Notify_MovesHeadWaiterToEntryQueue(t *testing.T) {
	// GIVEN threads 2 and 3 in the wait set, lock held by 1
	mon := NewMonitor("buffer")
	mon.Enter(2)
	mon.Wait(2)
	mon.Enter(3)
	mon.Wait(3)
	mon.Enter(1)

	// WHEN thread 1 notifies
	moved, err := mon.Notify(1)

	// THEN thread 2 moves to the entry queue tail; 1 keeps the lock
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if moved != 2 {
		t.Errorf("Notify: got moved=%d, want 2", moved)
	}
	if mon.Owner() != 1 {
		t.Errorf("Owner after notify: got %d, want 1", mon.Owner())
	}
	entry := mon.EntryQueue()
	if len(entry) != 1 || entry[0] != 2 {
		t.Errorf("EntryQueue after notify: got %v, want [2]", entry)
	}
	ws := mon.WaitSet()
	if len(ws) != 1 || ws[0] != 3 {
		t.Errorf("WaitSet after notify: got %v, want [3]", ws)
	}
}

func TestMonitor_Notify_EmptyWaitSet_IsNoOp(t *testing.T) {
	// GIVEN a locked monitor with an empty wait set
	mon := NewMonitor("buffer")
	mon.Enter(1)

	// WHEN thread 1 notifies
	moved, err := mon.Notify(1)

	// THEN nothing moves and no error is raised
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if moved != 0 {
		t.Errorf("Notify on empty wait set: got moved=%d, want 0", moved)
	}
}

func TestMonitor_NotifyAll_MovesEveryWaiterInOrder(t *testing.T) {
	// GIVEN threads 2, 3, 4 in the wait set, lock held by 1
	mon := NewMonitor("buffer")
	for _, id := range []int{2, 3, 4} {
		mon.Enter(id)
		mon.Wait(id)
	}
	mon.Enter(1)

	// WHEN thread 1 notifies all
	moved, err := mon.NotifyAll(1)

	// THEN the whole wait set moves to the entry queue, order preserved
	if err != nil {
		t.Fatalf("NotifyAll: %v", err)
	}
	if len(moved) != 3 || moved[0] != 2 || moved[1] != 3 || moved[2] != 4 {
		t.Errorf("NotifyAll moved: got %v, want [2 3 4]", moved)
	}
	if mon.WaitLen() != 0 {
		t.Errorf("WaitLen after NotifyAll: got %d, want 0", mon.WaitLen())
	}
	entry := mon.EntryQueue()
	if len(entry) != 3 || entry[0] != 2 || entry[1] != 3 || entry[2] != 4 {
		t.Errorf("EntryQueue after NotifyAll: got %v, want [2 3 4]", entry)
	}
}

func TestMonitor_Close_DrainsBothQueuesAndPoisons(t *testing.T) {
	// GIVEN a monitor with an entry queue and a wait set
	mon := NewMonitor("buffer")
	mon.Enter(2)
	mon.Wait(2)
	mon.Enter(1)
	mon.Enter(3)

	// WHEN the monitor is closed
	drainedEntry, drainedWait := mon.Close()

	// THEN both queues are returned and later ops fail closed
	if len(drainedEntry) != 1 || drainedEntry[0] != 3 {
		t.Errorf("Close drained entry: got %v, want [3]", drainedEntry)
	}
	if len(drainedWait) != 1 || drainedWait[0] != 2 {
		t.Errorf("Close drained wait: got %v, want [2]", drainedWait)
	}
	if _, err := mon.Enter(4); !IsClosedError(err) {
		t.Errorf("Enter after close: got err=%v, want ClosedError", err)
	}
	if _, err := mon.Exit(1); !IsClosedError(err) {
		t.Errorf("Exit after close: got err=%v, want ClosedError", err)
	}
}

func TestMonitor_Discard_RemovesFromBothQueues(t *testing.T) {
	// GIVEN thread 2 in the wait set and thread 3 on the entry queue
	mon := NewMonitor("buffer")
	mon.Enter(2)
	mon.Wait(2)
	mon.Enter(1)
	mon.Enter(3)

	// WHEN both are discarded
	mon.Discard(2)
	mon.Discard(3)

	// THEN the queues no longer contain them
	if mon.WaitLen() != 0 {
		t.Errorf("WaitLen after Discard: got %d, want 0", mon.WaitLen())
	}
	if mon.EntryLen() != 0 {
		t.Errorf("EntryLen after Discard: got %d, want 0", mon.EntryLen())
	}
}

func TestMonitor_ReleaseHoldings_OwnerHandsOff(t *testing.T) {
	// GIVEN a monitor locked by 1 with thread 2 parked
	mon := NewMonitor("buffer")
	mon.Enter(1)
	mon.Enter(2)

	// WHEN thread 1's holdings are force-released
	woken := mon.ReleaseHoldings(1)

	// THEN the lock hands off to thread 2 as in a normal exit
	if woken != 2 {
		t.Errorf("ReleaseHoldings: got woken=%d, want 2", woken)
	}
	if mon.Owner() != 2 {
		t.Errorf("Owner: got %d, want 2", mon.Owner())
	}
}

func TestMonitor_ReleaseHoldings_NonOwner_IsNoOp(t *testing.T) {
	// GIVEN a monitor locked by thread 1
	mon := NewMonitor("buffer")
	mon.Enter(1)

	// WHEN a non-owner's holdings are force-released
	woken := mon.ReleaseHoldings(2)

	// THEN nothing changes
	if woken != 0 {
		t.Errorf("ReleaseHoldings by non-owner: got woken=%d, want 0", woken)
	}
	if mon.Owner() != 1 {
		t.Errorf("Owner: got %d, want 1", mon.Owner())
	}
}
