// sim/engine.go
package sim

import (
	"container/heap"
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// eventEntry pairs an event with its enqueue sequence so that events at the
// same tick dispatch in schedule order.
type eventEntry struct {
	ev  Event
	seq int64
}

// EventQueue implements heap.Interface and orders events by timestamp,
// breaking ties by schedule order.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type EventQueue []eventEntry

func (eq EventQueue) Len() int { return len(eq) }
func (eq EventQueue) Less(i, j int) bool {
	if eq[i].ev.Timestamp() != eq[j].ev.Timestamp() {
		return eq[i].ev.Timestamp() < eq[j].ev.Timestamp()
	}
	return eq[i].seq < eq[j].seq
}
func (eq EventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(eventEntry))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	*eq = old[0 : n-1]
	return item
}

// Engine is the core object that holds simulation time, system state, and the event loop.
type Engine struct {
	Clock   int64
	Horizon int64
	// EventQueue has all the simulator events, like spawn and step events
	EventQueue EventQueue
	// StepCount is the number of scheduling rounds executed so far
	StepCount int64

	Config Config
	Model  ThreadModel
	// Threads indexed by ID-1; IDs are assigned 1..n in setup order
	Threads []*Thread
	// ReadyQ aka run queue of threads eligible for dispatch
	ReadyQ     *ReadyQueue
	Semaphores map[string]*Semaphore
	Monitors   map[string]*Monitor
	Metrics    *Metrics

	// primitive names in sorted order, for deterministic iteration
	semNames []string
	monNames []string

	sinks []Sink
	seq   seqClock // transition sequence numbers

	eventSeq      int64 // enqueue order tiebreaker for same-tick events
	stepPending   bool  // a StepEvent is already queued
	pendingSpawns int   // SpawnEvents scheduled but not yet executed
	deadlock      *DeadlockError
	cancelled     bool
	stopped       atomic.Bool
}

// NewEngine builds an engine from a validated configuration and a setup.
// A nil setup means the builtin workload described by cfg.Workload.
// Spawn events for every thread (and the optional halt) are scheduled here;
// Run drains them.
func NewEngine(cfg Config, setup *Setup, sinks ...Sink) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if setup == nil {
		setup = BuiltinSetup(cfg)
	}
	if err := setup.Validate(); err != nil {
		return nil, err
	}

	horizon := cfg.Run.Horizon
	if horizon == 0 {
		horizon = int64(1)<<62 - 1
	}

	eng := &Engine{
		Horizon:    horizon,
		EventQueue: make(EventQueue, 0),
		Config:     cfg,
		ReadyQ:     &ReadyQueue{},
		Semaphores: make(map[string]*Semaphore),
		Monitors:   make(map[string]*Monitor),
		Metrics:    NewMetrics(),
		sinks:      sinks,
	}

	for _, ss := range setup.Semaphores {
		sem, err := NewSemaphore(ss.Name, ss.Permits, ss.Max)
		if err != nil {
			return nil, err
		}
		eng.Semaphores[ss.Name] = sem
		eng.semNames = append(eng.semNames, ss.Name)
	}
	for _, ms := range setup.Monitors {
		eng.Monitors[ms.Name] = NewMonitor(ms.Name)
		eng.monNames = append(eng.monNames, ms.Name)
	}
	sort.Strings(eng.semNames)
	sort.Strings(eng.monNames)

	eng.Model = NewThreadModel(cfg.Model.Name, len(setup.Threads), cfg.Model.Carriers)

	for i, ts := range setup.Threads {
		name := ts.Name
		if name == "" {
			name = fmt.Sprintf("thread-%d", i+1)
		}
		t := NewThread(i+1, name, ts.StartTick, ts.Program)
		eng.Threads = append(eng.Threads, t)
		eng.Schedule(&SpawnEvent{time: ts.StartTick, Thread: t})
		eng.pendingSpawns++
	}
	if setup.HaltAt > 0 {
		eng.Schedule(&HaltEvent{time: setup.HaltAt})
	}

	return eng, nil
}

// Pushes an event (SpawnEvent/StepEvent/HaltEvent) into the engine's EventQueue.
func (eng *Engine) Schedule(ev Event) {
	heap.Push(&eng.EventQueue, eventEntry{ev: ev, seq: eng.eventSeq})
	eng.eventSeq++
}

// scheduleStep queues the next scheduling round and marks it pending.
func (eng *Engine) scheduleStep(at int64) {
	eng.Schedule(&StepEvent{time: at})
	eng.stepPending = true
}

// Run drives the event loop until the simulation completes, stalls, or is
// cancelled. ctx cancellation and Stop() both terminate every live thread,
// release whatever they hold, and poison the primitives before returning.
// Returns the DeadlockError on a stall, ctx.Err() on context cancellation,
// nil otherwise.
func (eng *Engine) Run(ctx context.Context) error {
	var runErr error
	for len(eng.EventQueue) > 0 {
		if err := ctx.Err(); err != nil {
			eng.cancel(eng.Clock, "cancelled")
			runErr = err
			break
		}
		if eng.stopped.Load() {
			eng.cancel(eng.Clock, "cancelled")
			break
		}

		// get the next event to be simulated
		entry := heap.Pop(&eng.EventQueue).(eventEntry)
		ev := entry.ev
		// account time spent in each state since the previous event
		if delta := ev.Timestamp() - eng.Clock; delta > 0 {
			eng.accrueStateTicks(delta)
		}
		// advance the clock
		eng.Clock = ev.Timestamp()
		logrus.Infof("[tick %07d] Executing %T", eng.Clock, ev)
		// end the simulation if the horizon is reached
		if eng.Clock > eng.Horizon {
			logrus.Warnf("[tick %07d] Horizon %d reached before completion", eng.Clock, eng.Horizon)
			eng.cancel(eng.Clock, "horizon reached")
			break
		}
		// process the event
		ev.Execute(eng)
		if eng.deadlock != nil {
			runErr = eng.deadlock
			break
		}
		if eng.cancelled {
			break
		}
		// optional live pacing, for watching a run unfold in real time
		if ms := eng.Config.Run.TickMs; ms > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(time.Duration(ms) * time.Millisecond):
			}
		}
	}
	eng.finalize()
	logrus.Infof("[tick %07d] Simulation ended", eng.Clock)
	return runErr
}

// Stop requests cancellation. Safe to call from another goroutine; the event
// loop honors it between events.
func (eng *Engine) Stop() {
	eng.stopped.Store(true)
}

// Deadlock returns the stall report, or nil if the run did not deadlock.
func (eng *Engine) Deadlock() *DeadlockError {
	return eng.deadlock
}

// admit moves a spawned thread into the ready queue.
func (eng *Engine) admit(t *Thread, now int64) {
	eng.Metrics.StartedThreads++
	eng.transition(t, StateReady, now, "spawn")
	eng.ReadyQ.Enqueue(t)
}

// step runs one scheduling round: dispatch ready threads per the model,
// advance every running thread by one op step, then decide whether the
// simulation continues, stalls, or is done.
func (eng *Engine) step(now int64) {
	eng.StepCount++

	eng.dispatch(now)

	for _, t := range eng.runningThreads() {
		if t.State != StateRunning {
			continue
		}
		eng.advance(t, now)
	}

	ready := eng.ReadyQ.Len() > 0
	running := eng.stateCount(StateRunning) > 0
	parked := eng.parkedThreads()
	switch {
	case ready || running:
		eng.scheduleStep(now + 1)
	case len(parked) > 0 && eng.pendingSpawns == 0:
		eng.reportDeadlock(now, parked)
	case len(parked) > 0:
		// a future spawn may release them; its SpawnEvent restarts stepping
	default:
		// every thread terminated; the queue drains and Run returns
	}
}

// dispatch binds ready threads to carriers until the model declines.
// The head of the ready queue is never skipped: if it cannot be placed,
// nothing behind it can run this tick either.
func (eng *Engine) dispatch(now int64) {
	for eng.ReadyQ.Len() > 0 {
		t := eng.ReadyQ.Peek()
		granted := eng.Model.AssignCarriers(t, eng.clampWant(t))
		if len(granted) == 0 {
			break
		}
		eng.ReadyQ.Dequeue()
		for _, c := range granted {
			if c.LastID != 0 && c.LastID != t.ID {
				eng.Metrics.ContextSwitches++
				t.CtxSwitches++
			}
		}
		if t.FirstRunTick < 0 {
			t.FirstRunTick = now
		}
		t.SliceTicks = 0
		eng.transition(t, StateRunning, now, "dispatch")
		logrus.Debugf("[tick %07d] dispatch %s onto %d carrier(s), ready=%s", now, t.Name, len(granted), eng.ReadyQ)
	}
}

// clampWant limits a thread's fan-out request to the pool size.
func (eng *Engine) clampWant(t *Thread) int {
	want := t.fanout()
	if n := int64(len(eng.Model.Carriers())); want > n {
		want = n
	}
	return int(want)
}

// advance executes one op step for a running thread.
func (eng *Engine) advance(t *Thread, now int64) {
	op, ok := t.CurrentOp()
	if !ok {
		// parked on its final op and woken into completion
		eng.complete(t, now)
		return
	}

	switch op.Kind {
	case OpCompute:
		done := min(int64(len(t.Carriers)), t.UnitsLeft)
		t.UnitsLeft -= done
		eng.Metrics.WorkUnitsDone += done
		eng.creditBusy(t, done)
		if t.UnitsLeft == 0 {
			t.advancePC()
		}

	case OpYield:
		eng.creditBusy(t, 1)
		t.advancePC()
		if t.PC >= len(t.Program) {
			eng.complete(t, now)
			return
		}
		eng.relinquish(t, now, "yield")
		return

	case OpAcquire:
		eng.creditBusy(t, 1)
		sem, err := eng.semaphore(op.Target)
		if err != nil {
			eng.fault(t, now, err)
			return
		}
		granted, err := sem.Acquire(t.ID)
		if err != nil {
			eng.fault(t, now, err)
			return
		}
		// the op is consumed either way: a waking hand-off resumes past it
		t.advancePC()
		if !granted {
			eng.park(t, now, StateBlocked, op, sem.Name)
			return
		}

	case OpRelease:
		eng.creditBusy(t, 1)
		sem, err := eng.semaphore(op.Target)
		if err != nil {
			eng.fault(t, now, err)
			return
		}
		woken, err := sem.Release(t.ID)
		if err != nil {
			eng.fault(t, now, err)
			return
		}
		t.advancePC()
		if woken != 0 {
			eng.wake(woken, now, "granted "+sem.Name)
		}

	case OpEnter:
		eng.creditBusy(t, 1)
		mon, err := eng.monitor(op.Target)
		if err != nil {
			eng.fault(t, now, err)
			return
		}
		granted, err := mon.Enter(t.ID)
		if err != nil {
			eng.fault(t, now, err)
			return
		}
		t.advancePC()
		if !granted {
			eng.park(t, now, StateBlocked, op, mon.Name)
			return
		}

	case OpExit:
		eng.creditBusy(t, 1)
		mon, err := eng.monitor(op.Target)
		if err != nil {
			eng.fault(t, now, err)
			return
		}
		woken, err := mon.Exit(t.ID)
		if err != nil {
			eng.fault(t, now, err)
			return
		}
		t.advancePC()
		if woken != 0 {
			eng.wake(woken, now, "granted "+mon.Name)
		}

	case OpWait:
		eng.creditBusy(t, 1)
		mon, err := eng.monitor(op.Target)
		if err != nil {
			eng.fault(t, now, err)
			return
		}
		woken, err := mon.Wait(t.ID)
		if err != nil {
			eng.fault(t, now, err)
			return
		}
		t.advancePC()
		if woken != 0 {
			eng.wake(woken, now, "granted "+mon.Name)
		}
		eng.park(t, now, StateWaiting, op, mon.Name)
		return

	case OpNotify:
		eng.creditBusy(t, 1)
		mon, err := eng.monitor(op.Target)
		if err != nil {
			eng.fault(t, now, err)
			return
		}
		moved, err := mon.Notify(t.ID)
		if err != nil {
			eng.fault(t, now, err)
			return
		}
		t.advancePC()
		if moved != 0 {
			eng.notified(moved, now, mon.Name)
		}

	case OpNotifyAll:
		eng.creditBusy(t, 1)
		mon, err := eng.monitor(op.Target)
		if err != nil {
			eng.fault(t, now, err)
			return
		}
		moved, err := mon.NotifyAll(t.ID)
		if err != nil {
			eng.fault(t, now, err)
			return
		}
		t.advancePC()
		for _, id := range moved {
			eng.notified(id, now, mon.Name)
		}

	default:
		eng.fault(t, now, &ConfigError{Field: "program", Reason: fmt.Sprintf("unknown op kind %q", op.Kind)})
		return
	}

	if t.State != StateRunning {
		return
	}
	if t.PC >= len(t.Program) {
		eng.complete(t, now)
		return
	}
	t.SliceTicks++
	if q := eng.Config.Run.Quantum; q > 0 && t.SliceTicks >= q && eng.ReadyQ.Len() > 0 {
		eng.Metrics.Preemptions++
		eng.relinquish(t, now, "quantum")
		return
	}
	eng.Model.Resize(t, eng.clampWant(t))
}

// creditBusy charges one tick of work to the first n carriers bound to t.
func (eng *Engine) creditBusy(t *Thread, n int64) {
	for i := int64(0); i < n && i < int64(len(t.Carriers)); i++ {
		t.Carriers[i].BusyTicks++
	}
	eng.Metrics.BusyCarrierTicks += n
}

// park moves a running thread off its carriers into blocked or waiting.
func (eng *Engine) park(t *Thread, now int64, to ThreadState, op Op, primitive string) {
	t.BlockedOn = primitive
	if to == StateBlocked {
		eng.Metrics.ResourceContentions++
	}
	eng.transition(t, to, now, op.String())
	eng.Model.OnBlock(t)
}

// relinquish moves a running thread back to the tail of the ready queue.
func (eng *Engine) relinquish(t *Thread, now int64, reason string) {
	eng.transition(t, StateReady, now, reason)
	eng.Model.OnBlock(t)
	eng.ReadyQ.Enqueue(t)
}

// wake readies a thread that a hand-off granted its primitive to.
func (eng *Engine) wake(id int, now int64, reason string) {
	t := eng.thread(id)
	t.BlockedOn = ""
	eng.transition(t, StateReady, now, reason)
	eng.ReadyQ.Enqueue(t)
}

// notified moves a waiting thread to blocked: it is now parked on the
// monitor's entry queue and becomes ready only when the lock hands off.
func (eng *Engine) notified(id int, now int64, monitor string) {
	t := eng.thread(id)
	t.BlockedOn = monitor
	eng.transition(t, StateBlocked, now, "notified "+monitor)
}

// complete terminates a thread whose program is exhausted.
func (eng *Engine) complete(t *Thread, now int64) {
	eng.Metrics.CompletedThreads++
	eng.terminate(t, now, "complete")
}

// fault terminates only the offending thread; siblings keep running.
func (eng *Engine) fault(t *Thread, now int64, err error) {
	logrus.Warnf("[tick %07d] thread %s faulted: %v", now, t.Name, err)
	t.FaultMsg = err.Error()
	eng.Metrics.FaultedThreads++
	eng.terminate(t, now, "fault: "+err.Error())
}

// terminate retires a thread and returns anything it still holds, waking
// waiters through the usual hand-off.
func (eng *Engine) terminate(t *Thread, now int64, reason string) {
	t.DoneTick = now
	t.BlockedOn = ""
	eng.transition(t, StateTerminated, now, reason)
	eng.Model.OnTerminate(t)
	for _, name := range eng.semNames {
		for _, w := range eng.Semaphores[name].ReleaseHoldings(t.ID) {
			eng.wake(w, now, "granted "+name)
		}
	}
	for _, name := range eng.monNames {
		if w := eng.Monitors[name].ReleaseHoldings(t.ID); w != 0 {
			eng.wake(w, now, "granted "+name)
		}
	}
}

// cancel terminates every live thread, settles primitive accounting, and
// poisons the primitives. Idempotent; used by Stop, ctx cancellation,
// HaltEvent, and the horizon guard.
func (eng *Engine) cancel(now int64, reason string) {
	if eng.cancelled {
		return
	}
	eng.cancelled = true
	logrus.Infof("[tick %07d] cancelling run: %s", now, reason)

	// Retire threads in ID order, pulling parked ones out of the primitive
	// queues first so that releasing holdings below wakes nobody.
	for _, t := range eng.Threads {
		if t.Terminal() {
			continue
		}
		for _, name := range eng.semNames {
			eng.Semaphores[name].Discard(t.ID)
		}
		for _, name := range eng.monNames {
			eng.Monitors[name].Discard(t.ID)
		}
		t.DoneTick = now
		t.BlockedOn = ""
		eng.Metrics.CancelledThreads++
		eng.transition(t, StateTerminated, now, reason)
		eng.Model.OnTerminate(t)
	}

	// Return held permits and locks so the counts end consistent.
	for _, t := range eng.Threads {
		for _, name := range eng.semNames {
			eng.Semaphores[name].ReleaseHoldings(t.ID)
		}
		for _, name := range eng.monNames {
			eng.Monitors[name].ReleaseHoldings(t.ID)
		}
	}

	for _, name := range eng.semNames {
		eng.Semaphores[name].Close()
	}
	for _, name := range eng.monNames {
		eng.Monitors[name].Close()
	}
}

// reportDeadlock records the stall and pushes it to every sink.
// The engine does not diagnose cycles; it reports that nothing can run.
func (eng *Engine) reportDeadlock(now int64, parked []*Thread) {
	ids := make([]int, 0, len(parked))
	notes := make([]string, 0, len(parked))
	for _, t := range parked {
		ids = append(ids, t.ID)
		notes = append(notes, fmt.Sprintf("thread %s is %s on %s %q", t.Name, t.State, eng.primitiveKind(t.BlockedOn), t.BlockedOn))
	}
	eng.deadlock = &DeadlockError{Tick: now, ThreadIDs: ids, Notes: notes}
	for _, s := range eng.sinks {
		s.OnDeadlock(eng.deadlock)
	}
}

func (eng *Engine) primitiveKind(name string) string {
	if _, ok := eng.Semaphores[name]; ok {
		return "semaphore"
	}
	if _, ok := eng.Monitors[name]; ok {
		return "monitor"
	}
	return "primitive"
}

// transition applies a thread state change and emits the record to sinks.
func (eng *Engine) transition(t *Thread, to ThreadState, now int64, reason string) {
	from := t.State
	if !CanTransition(from, to) {
		panic(fmt.Sprintf("illegal transition %s -> %s for thread %d", from, to, t.ID))
	}
	t.State = to
	tr := Transition{
		Seq:    eng.seq.Next(),
		Tick:   now,
		Thread: t.ID,
		Name:   t.Name,
		From:   from,
		To:     to,
		Reason: reason,
	}
	for _, s := range eng.sinks {
		s.OnTransition(tr)
	}
}

// runningThreads returns the distinct running threads in carrier order.
func (eng *Engine) runningThreads() []*Thread {
	seen := make(map[int]bool)
	out := make([]*Thread, 0, len(eng.Threads))
	for _, c := range eng.Model.Carriers() {
		if c.Thread == nil || seen[c.Thread.ID] {
			continue
		}
		seen[c.Thread.ID] = true
		out = append(out, c.Thread)
	}
	return out
}

// parkedThreads returns the blocked and waiting threads in ID order.
func (eng *Engine) parkedThreads() []*Thread {
	out := make([]*Thread, 0)
	for _, t := range eng.Threads {
		if t.State == StateBlocked || t.State == StateWaiting {
			out = append(out, t)
		}
	}
	return out
}

func (eng *Engine) stateCount(st ThreadState) int {
	n := 0
	for _, t := range eng.Threads {
		if t.State == st {
			n++
		}
	}
	return n
}

// accrueStateTicks integrates per-state time over the interval just before
// a clock advance. Terminated threads accrue nothing.
func (eng *Engine) accrueStateTicks(delta int64) {
	for _, t := range eng.Threads {
		if t.State != StateTerminated {
			t.StateTicks[t.State] += delta
		}
	}
}

func (eng *Engine) thread(id int) *Thread {
	return eng.Threads[id-1]
}

func (eng *Engine) semaphore(name string) (*Semaphore, error) {
	s, ok := eng.Semaphores[name]
	if !ok {
		return nil, &ConfigError{Field: "program", Reason: fmt.Sprintf("unknown semaphore %q", name)}
	}
	return s, nil
}

func (eng *Engine) monitor(name string) (*Monitor, error) {
	m, ok := eng.Monitors[name]
	if !ok {
		return nil, &ConfigError{Field: "program", Reason: fmt.Sprintf("unknown monitor %q", name)}
	}
	return m, nil
}

// finalize folds per-thread and per-carrier accounting into Metrics.
func (eng *Engine) finalize() {
	eng.Metrics.EndTick = eng.Clock
	eng.Metrics.Ticks = eng.StepCount
	eng.Metrics.CarrierCount = len(eng.Model.Carriers())
	for _, t := range eng.Threads {
		eng.Metrics.PerThread[t.ID] = &ThreadStats{
			Name:         t.Name,
			StateTicks:   t.StateTicks,
			CtxSwitches:  t.CtxSwitches,
			FirstRunTick: t.FirstRunTick,
			DoneTick:     t.DoneTick,
			Fault:        t.FaultMsg,
		}
	}
}

// SemaphoreStatus is a point-in-time view of one semaphore.
type SemaphoreStatus struct {
	Available int64 `json:"available"`
	QueueLen  int   `json:"queue_len"`
	Closed    bool  `json:"closed"`
}

// MonitorStatus is a point-in-time view of one monitor.
type MonitorStatus struct {
	Owner    int  `json:"owner"`
	EntryLen int  `json:"entry_len"`
	WaitLen  int  `json:"wait_len"`
	Closed   bool `json:"closed"`
}

// EngineSnapshot is a point-in-time view of the whole simulation, safe to
// take between events (e.g. from a test after Run returns).
type EngineSnapshot struct {
	Tick        int64                      `json:"tick"`
	StateCounts map[ThreadState]int        `json:"state_counts"`
	ReadyIDs    []int                      `json:"ready_ids"`
	Semaphores  map[string]SemaphoreStatus `json:"semaphores"`
	Monitors    map[string]MonitorStatus   `json:"monitors"`
}

// Snapshot captures the current scheduler and primitive state.
func (eng *Engine) Snapshot() EngineSnapshot {
	snap := EngineSnapshot{
		Tick:        eng.Clock,
		StateCounts: make(map[ThreadState]int),
		ReadyIDs:    make([]int, 0, eng.ReadyQ.Len()),
		Semaphores:  make(map[string]SemaphoreStatus),
		Monitors:    make(map[string]MonitorStatus),
	}
	for _, t := range eng.Threads {
		snap.StateCounts[t.State]++
	}
	for _, t := range eng.ReadyQ.Items() {
		snap.ReadyIDs = append(snap.ReadyIDs, t.ID)
	}
	for name, s := range eng.Semaphores {
		snap.Semaphores[name] = SemaphoreStatus{Available: s.Available(), QueueLen: s.QueueLen(), Closed: s.Closed()}
	}
	for name, m := range eng.Monitors {
		snap.Monitors[name] = MonitorStatus{Owner: m.Owner(), EntryLen: m.EntryLen(), WaitLen: m.WaitLen(), Closed: m.Closed()}
	}
	return snap
}
