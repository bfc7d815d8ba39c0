// Implements the ReadyQueue, which holds all threads eligible to run.
// Threads are enqueued on admission, on wake-up, and after a yield.

package sim

import (
	"fmt"
	"strings"
)

// ReadyQueue represents a FIFO queue of threads waiting to be dispatched
// onto a carrier. In the simulator, this models the scheduler's run queue:
// the pool of runnable threads waiting for their next opportunity to execute.
type ReadyQueue struct {
	queue []*Thread // FIFO queue of threads
}

// Enqueue adds a thread to the back of the ready queue.
func (rq *ReadyQueue) Enqueue(t *Thread) {
	if t == nil {
		panic("Enqueue: thread must not be nil")
	}
	rq.queue = append(rq.queue, t)
}

func (rq *ReadyQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, val := range rq.queue {
		sb.WriteString(fmt.Sprint(val.ID))
		if i < len(rq.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Len returns the number of threads in the queue.
func (rq *ReadyQueue) Len() int {
	return len(rq.queue)
}

// Peek returns the thread at the front of the queue without removing it.
// Returns nil if the queue is empty.
func (rq *ReadyQueue) Peek() *Thread {
	if len(rq.queue) == 0 {
		return nil
	}
	return rq.queue[0]
}

// Dequeue removes and returns the thread at the front of the queue.
// Returns nil if the queue is empty.
func (rq *ReadyQueue) Dequeue() *Thread {
	if len(rq.queue) == 0 {
		return nil
	}
	head := rq.queue[0]
	rq.queue = rq.queue[1:]
	return head
}

// Items returns the queue contents for iteration.
// The returned slice is the queue's internal storage -- callers within the
// sim package may iterate over it but MUST NOT append to or reslice it.
func (rq *ReadyQueue) Items() []*Thread {
	return rq.queue
}
