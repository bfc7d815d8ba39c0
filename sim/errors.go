package sim

import (
	"errors"
	"fmt"
)

// The simulator distinguishes configuration errors (rejected before the run
// starts), misuse errors raised by primitives (which fault only the acting
// thread), and the deadlock stall (which halts the run and is returned from
// Run). All carry structured fields for diagnostics; match them with the
// Is* helpers, which handle wrapped errors via errors.As.

// ConfigError reports an invalid engine or scenario configuration.
type ConfigError struct {
	// Field names the offending configuration field (e.g. "model.threads").
	Field string

	// Reason is a human-readable description of the problem.
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config: %s", e.Reason)
	}
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// OwnershipError reports a monitor operation by a thread that does not hold
// the lock, or a re-entry attempt by the thread that does.
type OwnershipError struct {
	// Monitor is the name of the monitor involved.
	Monitor string

	// ThreadID identifies the offending thread.
	ThreadID int

	// Reason describes the violation.
	Reason string
}

// Error implements the error interface.
func (e *OwnershipError) Error() string {
	return fmt.Sprintf("monitor %q: thread %d: %s", e.Monitor, e.ThreadID, e.Reason)
}

// ClosedError reports an operation on a primitive that has been closed.
type ClosedError struct {
	// Kind is "semaphore" or "monitor".
	Kind string

	// Name is the primitive's name.
	Name string
}

// Error implements the error interface.
func (e *ClosedError) Error() string {
	return fmt.Sprintf("%s %q is closed", e.Kind, e.Name)
}

// OverflowError reports a semaphore release that would push the permit count
// past its configured maximum.
type OverflowError struct {
	// Semaphore is the semaphore's name.
	Semaphore string

	// Max is the configured permit ceiling.
	Max int64
}

// Error implements the error interface.
func (e *OverflowError) Error() string {
	return fmt.Sprintf("semaphore %q: release would exceed max permits (%d)", e.Semaphore, e.Max)
}

// DeadlockError reports that the simulation stalled: no thread was ready or
// running while at least one was blocked or waiting. It carries the stuck
// thread IDs in ascending order and one diagnostic note per thread.
type DeadlockError struct {
	// Tick is the simulation tick at which the stall was detected.
	Tick int64

	// ThreadIDs lists the blocked and waiting threads, ascending.
	ThreadIDs []int

	// Notes holds one "thread <name> blocked on <primitive>" line per thread.
	Notes []string
}

// Error implements the error interface.
func (e *DeadlockError) Error() string {
	return fmt.Sprintf("deadlock detected at tick %d: %d thread(s) stuck %v", e.Tick, len(e.ThreadIDs), e.ThreadIDs)
}

// IsConfigError returns true if the error is a configuration error.
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsOwnershipError returns true if the error is a monitor ownership violation.
// Uses errors.As to handle wrapped errors.
func IsOwnershipError(err error) bool {
	var oe *OwnershipError
	return errors.As(err, &oe)
}

// IsClosedError returns true if the error reports a closed primitive.
// Uses errors.As to handle wrapped errors.
func IsClosedError(err error) bool {
	var ce *ClosedError
	return errors.As(err, &ce)
}

// IsOverflowError returns true if the error is a semaphore overflow.
// Uses errors.As to handle wrapped errors.
func IsOverflowError(err error) bool {
	var oe *OverflowError
	return errors.As(err, &oe)
}

// IsDeadlockError returns true if the error reports a simulation stall.
// Uses errors.As to handle wrapped errors.
func IsDeadlockError(err error) bool {
	var de *DeadlockError
	return errors.As(err, &de)
}
