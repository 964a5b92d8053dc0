package model

import "time"

// Scheduling constants fixed by the service contract.
const (
	// FirstRoundQuantum is the quantum (in seconds) granted to a program
	// task on its first scheduling round.
	FirstRoundQuantum = 3

	// DefaultQuantum is the quantum (in seconds) for every later round.
	DefaultQuantum = 7

	// ShellBurst is the sentinel burst value carried by shell tasks.
	ShellBurst = -1

	// DefaultBurst is the simulated duration assumed when a program
	// command names no (valid) duration argument.
	DefaultBurst = 10

	// MaxTasks bounds the waiting queue.
	MaxTasks = 100

	// OutputBufferSize bounds the captured output of a shell task.
	OutputBufferSize = 4096
)

// Sink is a client-owned output channel a task writes to while running.
// The scheduler borrows the sink and never closes it; a failed Send is
// non-fatal (the client may already be gone).
type Sink interface {
	Send(p []byte) error
}

// Task is a single unit of scheduling: one command submitted by one
// connected client. The identity fields are immutable after creation;
// the progress fields are owned by whoever holds the task (the queue
// while queued, the scheduler worker while running).
type Task struct {
	ID        int    `json:"id"`
	ClientNum int    `json:"client_num"`
	Command   string `json:"command"`

	Type  TaskType  `json:"type"`
	State TaskState `json:"state"`

	// TotalBurst is the simulated duration in seconds for program tasks,
	// or ShellBurst for shell tasks.
	TotalBurst int `json:"total_burst"`

	// RemainingBurst counts down once per simulated second. Stays at
	// ShellBurst for shell tasks.
	RemainingBurst int `json:"remaining_burst"`

	// CurrentIteration counts completed simulated seconds (program only).
	CurrentIteration int `json:"current_iteration"`

	// RoundNumber is 0 until the first quantum has been executed.
	RoundNumber int `json:"round_number"`

	ArrivalTime time.Time  `json:"arrival_time"`
	StartTime   *time.Time `json:"started_at,omitempty"`
	EndTime     *time.Time `json:"completed_at,omitempty"`

	Sink Sink `json:"-"`
}

// IsShell reports whether the task is an immediately-executed shell command.
func (t *Task) IsShell() bool {
	return t.Type == TaskTypeShell
}
