// The push-based observer surface. The engine emits a Transition record for
// every thread state change, in the order the changes happen; sinks consume
// them synchronously and must not call back into the engine.

package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/threadsim/threadsim/sim/trace"
)

// Transition records a single thread state change.
// Seq increases strictly with emission order across the whole run.
type Transition struct {
	Seq    int64       `json:"seq"`
	Tick   int64       `json:"tick"`
	Thread int         `json:"thread"`
	Name   string      `json:"name"`
	From   ThreadState `json:"from"`
	To     ThreadState `json:"to"`
	Reason string      `json:"reason,omitempty"`
}

// Sink consumes engine emissions. OnTransition is called once per state
// change; OnDeadlock at most once per run, before Run returns the same
// error.
type Sink interface {
	OnTransition(Transition)
	OnDeadlock(*DeadlockError)
}

// LogSink renders transitions through logrus. Transitions log at debug
// level; a deadlock logs at error level.
type LogSink struct{}

func (LogSink) OnTransition(tr Transition) {
	logrus.Debugf("[tick %07d] thread %s: %s -> %s (%s)", tr.Tick, tr.Name, tr.From, tr.To, tr.Reason)
}

func (LogSink) OnDeadlock(d *DeadlockError) {
	logrus.Errorf("[tick %07d] %v", d.Tick, d)
	for _, note := range d.Notes {
		logrus.Errorf("[tick %07d]   %s", d.Tick, note)
	}
}

// TimelineSink appends every emission to a trace.Timeline for later export
// or golden comparison.
type TimelineSink struct {
	Timeline *trace.Timeline
}

func (s TimelineSink) OnTransition(tr Transition) {
	s.Timeline.RecordTransition(trace.Record{
		Seq:    tr.Seq,
		Tick:   tr.Tick,
		Thread: tr.Thread,
		Name:   tr.Name,
		From:   string(tr.From),
		To:     string(tr.To),
		Reason: tr.Reason,
	})
}

func (s TimelineSink) OnDeadlock(d *DeadlockError) {
	s.Timeline.RecordDeadlock(trace.DeadlockRecord{
		Tick:    d.Tick,
		Threads: d.ThreadIDs,
		Notes:   d.Notes,
	})
}
