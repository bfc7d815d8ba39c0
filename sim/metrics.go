// Tracks simulation-wide and per-thread scheduling metrics.

package sim

import "fmt"

// Metrics aggregates statistics about the simulation
// for final reporting. Useful for evaluating how a thread model behaves
// under a given workload and for debugging scheduling decisions.
type Metrics struct {
	StartedThreads   int `json:"started_threads"`   // threads admitted to the ready queue
	CompletedThreads int `json:"completed_threads"` // threads that ran their program to the end
	FaultedThreads   int `json:"faulted_threads"`   // threads terminated by a primitive misuse error
	CancelledThreads int `json:"cancelled_threads"` // threads terminated by cancellation

	WorkUnitsDone       int64 `json:"work_units_done"`      // compute units executed across all threads
	ContextSwitches     int64 `json:"context_switches"`     // carrier handovers to a different thread
	ResourceContentions int64 `json:"resource_contentions"` // acquire/enter attempts that parked the caller
	Preemptions         int64 `json:"preemptions"`          // quantum expiries

	BusyCarrierTicks int64 `json:"busy_carrier_ticks"` // integral of busy carriers over time
	CarrierCount     int   `json:"carrier_count"`
	Ticks            int64 `json:"ticks"`    // scheduling rounds executed
	EndTick          int64 `json:"end_tick"` // clock value when the run ended

	PerThread map[int]*ThreadStats `json:"per_thread"` // thread ID -> per-thread accounting
}

// ThreadStats is the per-thread slice of the final accounting.
type ThreadStats struct {
	Name         string                `json:"name"`
	StateTicks   map[ThreadState]int64 `json:"state_ticks"`
	CtxSwitches  int64                 `json:"context_switches"`
	FirstRunTick int64                 `json:"first_run_tick"` // -1 = never dispatched
	DoneTick     int64                 `json:"done_tick"`      // -1 = still live when the run ended
	Fault        string                `json:"fault,omitempty"`
}

// NewMetrics creates an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		PerThread: make(map[int]*ThreadStats),
	}
}

// CarrierUtilization returns the fraction of carrier capacity spent busy:
// busy ticks over pool size times scheduling rounds.
func (m *Metrics) CarrierUtilization() float64 {
	capacity := int64(m.CarrierCount) * m.Ticks
	if capacity == 0 {
		return 0
	}
	return float64(m.BusyCarrierTicks) / float64(capacity)
}

// Print displays aggregated metrics at the end of the simulation.
// Includes thread outcomes, work done, switching overhead, and carrier usage.
func (m *Metrics) Print() {
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Started Threads      : %d\n", m.StartedThreads)
	fmt.Printf("Completed Threads    : %d\n", m.CompletedThreads)
	fmt.Printf("Faulted Threads      : %d\n", m.FaultedThreads)
	fmt.Printf("Cancelled Threads    : %d\n", m.CancelledThreads)
	fmt.Printf("Work Units Done      : %d\n", m.WorkUnitsDone)
	fmt.Printf("Context Switches     : %d\n", m.ContextSwitches)
	fmt.Printf("Resource Contentions : %d\n", m.ResourceContentions)
	fmt.Printf("Preemptions          : %d\n", m.Preemptions)
	if m.Ticks > 0 {
		fmt.Printf("Carrier Utilization  : %.2f (%d busy ticks on %d carriers over %d rounds)\n",
			m.CarrierUtilization(), m.BusyCarrierTicks, m.CarrierCount, m.Ticks)
	}
	fmt.Printf("End Tick             : %d\n", m.EndTick)
}
