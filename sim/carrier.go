// Defines the Carrier struct that models a kernel-level execution carrier.
// Carriers are the schedulable units the thread models hand out; a thread
// makes progress only while bound to at least one carrier.

package sim

import "fmt"

// Carrier models a single kernel-level execution slot.
// The thread models own placement; the engine owns the bookkeeping on
// bind and unbind.
type Carrier struct {
	ID     int
	Thread *Thread // Thread currently bound, nil when idle

	LastID    int   // ID of the previous thread this carrier ran, 0 when never used
	BusyTicks int64 // Ticks this carrier spent doing work (compute units and sync ops)
}

// Idle reports whether the carrier has no thread bound.
func (c *Carrier) Idle() bool {
	return c.Thread == nil
}

// This method returns a human-readable string representation of a Carrier.
func (c *Carrier) String() string {
	if c.Thread == nil {
		return fmt.Sprintf("Carrier: (ID: %d, idle)", c.ID)
	}
	return fmt.Sprintf("Carrier: (ID: %d, Thread: %d)", c.ID, c.Thread.ID)
}
