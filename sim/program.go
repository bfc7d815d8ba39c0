// Defines the op vocabulary for thread work programs and the builders for
// the builtin workloads selectable from the CLI.

package sim

import "fmt"

// OpKind identifies one kind of step in a thread's work program.
type OpKind string

const (
	OpCompute   OpKind = "compute"    // burn Units work units
	OpAcquire   OpKind = "acquire"    // take one permit from a semaphore
	OpRelease   OpKind = "release"    // return one permit to a semaphore
	OpEnter     OpKind = "enter"      // acquire a monitor's lock
	OpExit      OpKind = "exit"       // release a monitor's lock
	OpWait      OpKind = "wait"       // release the lock and join the monitor's wait set
	OpNotify    OpKind = "notify"     // move one waiting thread to the monitor's entry queue
	OpNotifyAll OpKind = "notify_all" // move every waiting thread to the entry queue
	OpYield     OpKind = "yield"      // give up the carrier voluntarily
)

// validOpKinds maps recognized op kinds.
var validOpKinds = map[OpKind]bool{
	OpCompute: true, OpAcquire: true, OpRelease: true,
	OpEnter: true, OpExit: true, OpWait: true,
	OpNotify: true, OpNotifyAll: true, OpYield: true,
}

// IsValidOpKind reports whether kind names a recognized op.
func IsValidOpKind(kind string) bool {
	return validOpKinds[OpKind(kind)]
}

// semaphoreOps and monitorOps partition the sync ops by the primitive
// they address. Used by validation to check Target references.
var (
	semaphoreOps = map[OpKind]bool{OpAcquire: true, OpRelease: true}
	monitorOps   = map[OpKind]bool{OpEnter: true, OpExit: true, OpWait: true, OpNotify: true, OpNotifyAll: true}
)

// Op is a single step in a thread's work program. A thread executes one op
// step per tick: a compute op takes Units ticks of carrier time (fewer under
// fan-out), every other op takes one.
type Op struct {
	Kind   OpKind `json:"kind"`
	Target string `json:"target,omitempty"` // primitive name; empty for compute and yield
	Units  int64  `json:"units,omitempty"`  // compute units; zero for everything else
}

// This method returns a human-readable string representation of an Op.
func (op Op) String() string {
	switch {
	case op.Kind == OpCompute:
		return fmt.Sprintf("%s %d", op.Kind, op.Units)
	case op.Target != "":
		return fmt.Sprintf("%s %s", op.Kind, op.Target)
	default:
		return string(op.Kind)
	}
}

// IndependentProgram builds the builtin "independent" workload:
// a single compute op of the given length, touching no primitives.
func IndependentProgram(units int64) []Op {
	return []Op{{Kind: OpCompute, Units: units}}
}

// ContendedProgram builds the builtin "contended" workload:
// acquire a shared semaphore, compute, release. With one permit this
// serializes the compute sections of every thread running it.
func ContendedProgram(target string, units int64) []Op {
	return []Op{
		{Kind: OpAcquire, Target: target},
		{Kind: OpCompute, Units: units},
		{Kind: OpRelease, Target: target},
	}
}
