package trace

// Summary aggregates statistics from a Timeline.
type Summary struct {
	TotalTransitions int            `json:"total_transitions"`
	PerThread        map[int]int    `json:"per_thread"` // thread ID → transition count
	PerState         map[string]int `json:"per_state"`  // to-state → transition count
	Deadlocked       bool           `json:"deadlocked"`
	StuckThreads     int            `json:"stuck_threads"`
	FinalTick        int64          `json:"final_tick"`
}

// Summarize computes aggregate statistics from a Timeline.
// Safe for nil or empty timelines (returns zero-value fields).
func Summarize(tl *Timeline) *Summary {
	summary := &Summary{
		PerThread: make(map[int]int),
		PerState:  make(map[string]int),
	}
	if tl == nil {
		return summary
	}

	summary.TotalTransitions = len(tl.Records)
	for _, r := range tl.Records {
		summary.PerThread[r.Thread]++
		summary.PerState[r.To]++
		if r.Tick > summary.FinalTick {
			summary.FinalTick = r.Tick
		}
	}

	for _, d := range tl.Deadlocks {
		summary.Deadlocked = true
		summary.StuckThreads += len(d.Threads)
		if d.Tick > summary.FinalTick {
			summary.FinalTick = d.Tick
		}
	}

	return summary
}
