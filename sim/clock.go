package sim

import "sync/atomic"

// seqClock issues strictly increasing sequence numbers for transition
// records. Safe for concurrent use; Stop() may observe it from another
// goroutine while the event loop runs.
type seqClock struct {
	v atomic.Int64
}

// Next returns the next sequence number, starting from 1.
func (c *seqClock) Next() int64 {
	return c.v.Add(1)
}

// Current returns the most recently issued sequence number.
func (c *seqClock) Current() int64 {
	return c.v.Load()
}
