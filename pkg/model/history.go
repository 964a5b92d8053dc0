package model

import "time"

// ExecutionRecord is the audit entry written when a task finishes. It is
// an append-only history row; the scheduler never reads these back and
// the queue is never rebuilt from them.
type ExecutionRecord struct {
	ID         string     `json:"id"`
	TaskID     int        `json:"task_id"`
	ClientNum  int        `json:"client_num"`
	Command    string     `json:"command"`
	Type       TaskType   `json:"type"`
	TotalBurst int        `json:"total_burst"`
	Rounds     int        `json:"rounds"`
	BytesSent  int        `json:"bytes_sent"`
	State      TaskState  `json:"state"`
	ArrivalAt  time.Time  `json:"arrival_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}
