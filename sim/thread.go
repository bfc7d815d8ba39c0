// Defines the Thread struct that models a simulated user-level thread.
// Tracks its work program, scheduling state, carrier bindings, and
// per-thread accounting used for final reporting.

package sim

import (
	"fmt"
)

// ThreadState represents the lifecycle state of a simulated thread.
type ThreadState string

const (
	StateNew        ThreadState = "new"
	StateReady      ThreadState = "ready"
	StateRunning    ThreadState = "running"
	StateBlocked    ThreadState = "blocked"
	StateWaiting    ThreadState = "waiting"
	StateTerminated ThreadState = "terminated"
)

// legalTransitions encodes the thread state machine. The engine is the only
// writer of thread state and panics on an illegal transition.
var legalTransitions = map[ThreadState]map[ThreadState]bool{
	StateNew:     {StateReady: true, StateTerminated: true},
	StateReady:   {StateRunning: true, StateTerminated: true},
	StateRunning: {StateReady: true, StateBlocked: true, StateWaiting: true, StateTerminated: true},
	StateBlocked: {StateReady: true, StateTerminated: true},
	StateWaiting: {StateBlocked: true, StateReady: true, StateTerminated: true},
}

// CanTransition reports whether the state machine permits moving from one
// state to another.
func CanTransition(from, to ThreadState) bool {
	return legalTransitions[from][to]
}

// Thread models a single user-level thread in the simulation.
// Each thread has:
// - a work program (ordered list of ops) it executes one step per tick
// - a lifecycle state driven by the engine
// - carrier bindings while running (more than one only under fan-out)
// - accounting fields for the final report
type Thread struct {
	ID   int    // Unique identifier, assigned sequentially from 1
	Name string // Human-readable name (e.g. "worker-1")

	State ThreadState // new, ready, running, blocked, waiting, terminated

	Program   []Op  // The full work program; never mutated after construction
	PC        int   // Index of the current op in Program
	UnitsLeft int64 // Remaining units of the current compute op

	Carriers []*Carrier // Carriers currently bound to this thread (empty unless running)

	StartTick int64  // Tick at which the thread is admitted (spawn time)
	BlockedOn string // Name of the primitive this thread is parked on, "" otherwise

	// Accounting, aggregated into Metrics when the run finishes.
	SliceTicks   int64                 // Consecutive ticks executed since last dispatch (quantum tracking)
	StateTicks   map[ThreadState]int64 // Ticks spent per state after admission
	CtxSwitches  int64                 // Times this thread was dispatched onto a carrier that last ran another thread
	FirstRunTick int64                 // Tick of first dispatch; -1 until it runs
	DoneTick     int64                 // Tick the thread terminated; -1 while live
	FaultMsg     string                // Error text when terminated by a fault, "" otherwise
}

// NewThread constructs a thread in the new state with the given program.
func NewThread(id int, name string, startTick int64, program []Op) *Thread {
	t := &Thread{
		ID:           id,
		Name:         name,
		State:        StateNew,
		Program:      program,
		StartTick:    startTick,
		StateTicks:   make(map[ThreadState]int64),
		FirstRunTick: -1,
		DoneTick:     -1,
	}
	t.prime()
	return t
}

// CurrentOp returns the op the thread is positioned on.
// ok is false once the program is exhausted.
func (t *Thread) CurrentOp() (Op, bool) {
	if t.PC < 0 || t.PC >= len(t.Program) {
		return Op{}, false
	}
	return t.Program[t.PC], true
}

// advancePC moves to the next op and primes its unit counter.
func (t *Thread) advancePC() {
	t.PC++
	t.prime()
}

// prime resets UnitsLeft from the current op, if it is a compute op.
func (t *Thread) prime() {
	if op, ok := t.CurrentOp(); ok && op.Kind == OpCompute {
		t.UnitsLeft = op.Units
	} else {
		t.UnitsLeft = 0
	}
}

// fanout returns how many carriers the thread could use this tick:
// the remaining units of a compute op, or 1 for everything else.
// Models that do not fan out ignore anything above 1.
func (t *Thread) fanout() int64 {
	if op, ok := t.CurrentOp(); ok && op.Kind == OpCompute && t.UnitsLeft > 1 {
		return t.UnitsLeft
	}
	return 1
}

// Terminal reports whether the thread has reached its final state.
func (t *Thread) Terminal() bool {
	return t.State == StateTerminated
}

// This method returns a human-readable string representation of a Thread.
func (t *Thread) String() string {
	return fmt.Sprintf("Thread: (ID: %d, Name: %s, State: %s, PC: %d/%d)", t.ID, t.Name, t.State, t.PC, len(t.Program))
}
