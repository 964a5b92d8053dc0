package sched

import (
	"sync"

	"github.com/me/remsh/pkg/model"
)

// waitingQueue is the central pool of pending tasks. Order is arrival
// order; that ordering is the FCFS tie-break for the selector.
type waitingQueue struct {
	mu             sync.Mutex
	cond           *sync.Cond
	tasks          []*model.Task
	lastSelectedID int
	max            int
	stopped        bool
}

func newWaitingQueue(max int) *waitingQueue {
	q := &waitingQueue{
		lastSelectedID: -1,
		max:            max,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// size returns the current task count.
func (q *waitingQueue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// removeByID removes and returns the task with the given id, or nil.
// Order among the surviving tasks is preserved.
func (q *waitingQueue) removeByID(id int) *model.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, t := range q.tasks {
		if t.ID == id {
			q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
			return t
		}
	}
	return nil
}

// removeClient purges every queued task belonging to the client and
// returns how many were dropped. Idempotent.
func (q *waitingQueue) removeClient(clientNum int) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.tasks[:0]
	removed := 0
	for _, t := range q.tasks {
		if t.ClientNum == clientNum {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	for i := len(kept); i < len(q.tasks); i++ {
		q.tasks[i] = nil
	}
	q.tasks = kept
	return removed
}

// shouldPreempt is the between-seconds poll made by a running program
// task: true when any shell task is queued, or any queued program has
// strictly less (positive) remaining work than the runner.
func (q *waitingQueue) shouldPreempt(selfRemaining int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, t := range q.tasks {
		if t.RemainingBurst == model.ShellBurst {
			return true
		}
	}
	for _, t := range q.tasks {
		if t.RemainingBurst > 0 && t.RemainingBurst < selfRemaining {
			return true
		}
	}
	return false
}

// awaitNext blocks until a task is available or the queue is stopped,
// then drains the selector's choice. Returns nil on stop.
func (q *waitingQueue) awaitNext() *model.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.tasks) == 0 && !q.stopped {
		q.cond.Wait()
	}
	if q.stopped {
		return nil
	}
	return q.drainSelectedLocked()
}

// interrupt wakes the scheduler worker and makes awaitNext return nil.
func (q *waitingQueue) interrupt() {
	q.mu.Lock()
	q.stopped = true
	q.cond.Broadcast()
	q.mu.Unlock()
}

// drainAll empties the queue and returns whatever was left. Used at
// teardown; the remaining tasks are simply discarded.
func (q *waitingQueue) drainAll() []*model.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	left := q.tasks
	q.tasks = nil
	return left
}
