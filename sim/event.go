package sim

import "github.com/sirupsen/logrus"

// Event defines the interface for all simulation events.
// Each event must have a Timestamp (in ticks) and an Execute method
// that advances simulation state when invoked.
type Event interface {
	Timestamp() int64
	Execute(*Engine)
}

// SpawnEvent represents the admission of a thread into the scheduler.
type SpawnEvent struct {
	time   int64   // Simulation time of admission (in ticks)
	Thread *Thread // The thread being admitted
}

// Timestamp returns the scheduled time of the SpawnEvent.
func (e *SpawnEvent) Timestamp() int64 {
	return e.time
}

// Execute admits the thread and schedules the next StepEvent, if no such
// event is scheduled.
func (e *SpawnEvent) Execute(eng *Engine) {
	logrus.Infof("<< Spawn: %s at %d ticks", e.Thread.Name, e.time)

	eng.pendingSpawns--
	eng.admit(e.Thread, e.time)

	// If there's no scheduling round pending, trigger one immediately
	if !eng.stepPending {
		eng.scheduleStep(e.time)
	}
}

// StepEvent represents one scheduling round at a single tick:
//   - Dispatch: bind ready threads to carriers per the thread model
//   - Execute: advance every running thread by one op step
//   - Check for completion, quantum expiry, and stalls
type StepEvent struct {
	time int64 // Scheduled execution time (in ticks)
}

// Timestamp returns the scheduled time of the StepEvent.
func (e *StepEvent) Timestamp() int64 {
	return e.time
}

// Execute the StepEvent
func (e *StepEvent) Execute(eng *Engine) {
	logrus.Infof("<< StepEvent at %d ticks", e.time)
	eng.stepPending = false
	eng.step(e.time)
}

// HaltEvent cancels the run from inside the timeline, at a scripted tick.
// Scenarios use it to exercise the cancellation path deterministically.
type HaltEvent struct {
	time int64
}

// Timestamp returns the scheduled time of the HaltEvent.
func (e *HaltEvent) Timestamp() int64 {
	return e.time
}

// Execute cancels every live thread and poisons the primitives.
func (e *HaltEvent) Execute(eng *Engine) {
	logrus.Infof("<< Halt at %d ticks", e.time)
	eng.cancel(e.time, "halted")
}
