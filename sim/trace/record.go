// Package trace provides timeline recording for scheduling analysis.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// Record captures a single thread state transition.
type Record struct {
	Seq    int64  `json:"seq"`
	Tick   int64  `json:"tick"`
	Thread int    `json:"thread"`
	Name   string `json:"name"`
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason,omitempty"`
}

// DeadlockRecord captures a detected scheduling stall: the tick, the stuck
// thread IDs in ascending order, and one diagnostic note per thread.
type DeadlockRecord struct {
	Tick    int64    `json:"tick"`
	Threads []int    `json:"threads"`
	Notes   []string `json:"notes"`
}
