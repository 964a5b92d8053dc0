package sched

import "github.com/me/remsh/pkg/model"

// selectIndex picks the queue index of the next task to run, or -1 when
// the queue is empty. Caller must hold q.mu.
//
// Selection policy, in order:
//  1. Shell tasks first, in FCFS order, skipping the previously selected
//     id unless it is the only task in the queue.
//  2. Otherwise the program with the shortest remaining burst, with the
//     same no-consecutive filter; the strict < comparison makes the
//     earliest queued task win ties.
//  3. If the filter excluded everything, the FCFS head runs anyway.
func (q *waitingQueue) selectIndex() int {
	n := len(q.tasks)
	if n == 0 {
		return -1
	}

	for i, t := range q.tasks {
		if t.RemainingBurst == model.ShellBurst && (t.ID != q.lastSelectedID || n == 1) {
			return i
		}
	}

	best := -1
	for i, t := range q.tasks {
		if t.ID == q.lastSelectedID && n > 1 {
			continue
		}
		if best == -1 || t.RemainingBurst < q.tasks[best].RemainingBurst {
			best = i
		}
	}
	if best == -1 {
		best = 0
	}
	return best
}

// drainSelectedLocked removes and returns the selector's choice,
// recording it as the last selected id. Caller must hold q.mu.
func (q *waitingQueue) drainSelectedLocked() *model.Task {
	i := q.selectIndex()
	if i < 0 {
		return nil
	}
	t := q.tasks[i]
	q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
	q.lastSelectedID = t.ID
	return t
}
