// Package sim provides the discrete-time engine for simulating how user
// threads map onto kernel carriers under the classic threading models.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - thread.go: Thread lifecycle (new → ready → running → ... → terminated) and state machine
//   - event.go: Event types that drive the simulation (Spawn, Step, Halt)
//   - engine.go: The event loop, dispatch, op execution, and stall detection
//
// # Architecture
//
// The sim package holds the engine and the primitives; supporting packages
// stay free of scheduling logic:
//   - sim/scenario/: YAML scenario loading and validation
//   - sim/trace/: Transition timeline recording and summarization
//
// A run is a chain of StepEvents, one per tick. Each step dispatches ready
// threads onto carriers according to the configured ThreadModel, advances
// every running thread by exactly one op, and reschedules itself while any
// thread can still make progress. When nothing can run but parked threads
// remain, the engine reports a deadlock and stops.
//
// Synchronization primitives (Semaphore, Monitor) never mutate thread state.
// They record queueing and ownership decisions and return the IDs the engine
// must wake; the engine applies every state transition itself and pushes a
// record to the registered sinks. Primitives hand off directly: a released
// permit or exited lock goes to the head waiter, in park order, without
// returning to the free pool first.
//
// # Key Interfaces
//
// The extension points are small interfaces:
//   - ThreadModel: bind ready threads to carriers (the four mapping models)
//   - Event: timestamped unit of work in the event loop
//   - Sink: observer of thread state transitions and deadlock reports
package sim
