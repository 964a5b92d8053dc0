package sched

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/me/remsh/pkg/model"
)

// SummaryEntry is one scheduling event: a program task finished a round
// at the given elapsed second.
type SummaryEntry struct {
	TaskID         int `json:"task_id"`
	CompletionTime int `json:"completion_time"`
}

// summary is the append-only schedule log, plus the shared bookkeeping
// that the idle-reset rule depends on (the running task id and the
// epoch the elapsed clock measures from). One mutex guards all of it.
type summary struct {
	mu        sync.Mutex
	entries   []SummaryEntry
	start     time.Time
	runningID int
	max       int
}

func newSummary() *summary {
	return &summary{
		start:     time.Now(),
		runningID: -1,
		max:       model.MaxTasks * 10,
	}
}

// elapsedSeconds returns whole seconds since the summary epoch.
func (s *summary) elapsedSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(time.Since(s.start) / time.Second)
}

// append records a scheduling event for the task. Entries beyond the
// capacity are silently dropped.
func (s *summary) append(taskID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) >= s.max {
		return
	}
	s.entries = append(s.entries, SummaryEntry{
		TaskID:         taskID,
		CompletionTime: int(time.Since(s.start) / time.Second),
	})
}

// maybeResetIdle moves the epoch to now, but only when the whole system
// is idle at this instant: empty queue, empty summary, nothing running.
// Called with the queue lock held so the emptiness check is atomic with
// the enqueue that follows.
func (s *summary) maybeResetIdle(queueEmpty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if queueEmpty && len(s.entries) == 0 && s.runningID == -1 {
		s.start = time.Now()
	}
}

// setRunning records which task currently holds the executor (-1 for none).
func (s *summary) setRunning(id int) {
	s.mu.Lock()
	s.runningID = id
	s.mu.Unlock()
}

func (s *summary) running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runningID
}

func (s *summary) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// render formats the entries as P{id}-({t})-P{id}-({t})-… without
// consuming them.
func (s *summary) render() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return renderEntries(s.entries)
}

// drain renders the entries and resets the log for the next batch.
// Returns "" when there is nothing to report.
func (s *summary) drain() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return ""
	}
	body := renderEntries(s.entries)
	s.entries = s.entries[:0]
	return body
}

// snapshot copies the current entries for the admin API.
func (s *summary) snapshot() []SummaryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SummaryEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func renderEntries(entries []SummaryEntry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('-')
		}
		fmt.Fprintf(&b, "P%d-(%d)", e.TaskID, e.CompletionTime)
	}
	return b.String()
}
