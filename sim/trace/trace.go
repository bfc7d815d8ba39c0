package trace

// Timeline collects transition records during a simulation run.
type Timeline struct {
	Records   []Record
	Deadlocks []DeadlockRecord
}

// NewTimeline creates a Timeline ready for recording.
func NewTimeline() *Timeline {
	return &Timeline{
		Records:   make([]Record, 0),
		Deadlocks: make([]DeadlockRecord, 0),
	}
}

// RecordTransition appends a thread state transition record.
func (tl *Timeline) RecordTransition(record Record) {
	tl.Records = append(tl.Records, record)
}

// RecordDeadlock appends a deadlock record.
func (tl *Timeline) RecordDeadlock(record DeadlockRecord) {
	tl.Deadlocks = append(tl.Deadlocks, record)
}
