package sched

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/me/remsh/pkg/model"
)

// Config holds scheduler configuration. The quanta and tick default to
// the service contract values; tests shrink the tick to keep simulated
// seconds fast.
type Config struct {
	FirstRoundQuantum int
	DefaultQuantum    int
	Tick              time.Duration // duration of one simulated second
	MaxTasks          int
	Shell             string // interpreter for shell tasks
}

// DefaultConfig returns the contract defaults.
func DefaultConfig() Config {
	return Config{
		FirstRoundQuantum: model.FirstRoundQuantum,
		DefaultQuantum:    model.DefaultQuantum,
		Tick:              time.Second,
		MaxTasks:          model.MaxTasks,
		Shell:             "/bin/sh",
	}
}

// History records finished task executions. Implementations are called
// from the scheduler goroutine and must not block for long.
type History interface {
	RecordExecution(ctx context.Context, rec *model.ExecutionRecord) error
}

// Scheduler owns the waiting queue, the schedule summary, and the single
// worker that executes tasks one at a time.
type Scheduler struct {
	cfg     Config
	logger  *slog.Logger
	console *Console
	queue   *waitingQueue
	summary *summary
	exec    *executor
	history History

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// Option configures optional Scheduler dependencies.
type Option func(*Scheduler)

// WithHistory sets the execution-history recorder.
func WithHistory(h History) Option {
	return func(s *Scheduler) {
		s.history = h
	}
}

// New creates a Scheduler. Call Start to run the worker.
func New(cfg Config, console *Console, logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		cfg:     cfg,
		logger:  logger.With("component", "scheduler"),
		console: console,
		queue:   newWaitingQueue(cfg.MaxTasks),
		summary: newSummary(),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	s.exec = &executor{cfg: cfg, queue: s.queue, logger: s.logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add appends a task to the waiting queue and wakes the worker. When the
// whole system is idle at this instant the summary epoch resets, so the
// next batch of tasks is timed from zero. Returns model.ErrQueueFull
// when the queue is at capacity.
func (s *Scheduler) Add(t *model.Task) error {
	s.queue.mu.Lock()
	defer s.queue.mu.Unlock()

	if len(s.queue.tasks) >= s.queue.max {
		return model.ErrQueueFull
	}

	s.summary.maybeResetIdle(len(s.queue.tasks) == 0)

	t.State = model.TaskStateWaiting
	s.queue.tasks = append(s.queue.tasks, t)
	s.queue.cond.Signal()
	return nil
}

// RemoveTask removes a queued task by id and returns it, or nil when the
// id is not queued. A running task is not affected.
func (s *Scheduler) RemoveTask(id int) *model.Task {
	return s.queue.removeByID(id)
}

// RemoveClientTasks purges every queued task belonging to the client.
// A task of that client already running finishes its current quantum;
// its sends fail silently against the closed sink.
func (s *Scheduler) RemoveClientTasks(clientNum int) {
	if n := s.queue.removeClient(clientNum); n > 0 {
		s.logger.Info("purged client tasks", "client", clientNum, "count", n)
	}
}

// ElapsedSeconds returns whole seconds since the summary epoch.
func (s *Scheduler) ElapsedSeconds() int {
	return s.summary.elapsedSeconds()
}

// Close discards any tasks still queued. Call after Stop.
func (s *Scheduler) Close() error {
	if left := s.queue.drainAll(); len(left) > 0 {
		s.logger.Info("discarded queued tasks at shutdown", "count", len(left))
	}
	return nil
}

// QueueSnapshot is a point-in-time view of the scheduler for the admin API.
type QueueSnapshot struct {
	Tasks          []model.Task `json:"tasks"`
	LastSelectedID int          `json:"last_selected_id"`
	RunningTaskID  int          `json:"running_task_id"`
	SummaryEntries int          `json:"summary_entries"`
	ElapsedSeconds int          `json:"elapsed_seconds"`
}

// Snapshot copies the queue contents and scheduling bookkeeping.
func (s *Scheduler) Snapshot() QueueSnapshot {
	s.queue.mu.Lock()
	tasks := make([]model.Task, len(s.queue.tasks))
	for i, t := range s.queue.tasks {
		tasks[i] = *t
	}
	last := s.queue.lastSelectedID
	s.queue.mu.Unlock()

	return QueueSnapshot{
		Tasks:          tasks,
		LastSelectedID: last,
		RunningTaskID:  s.summary.running(),
		SummaryEntries: s.summary.count(),
		ElapsedSeconds: s.summary.elapsedSeconds(),
	}
}

// SummaryView returns the pending summary entries and their rendered
// form without draining them.
func (s *Scheduler) SummaryView() ([]SummaryEntry, string) {
	return s.summary.snapshot(), s.summary.render()
}

// record writes the execution-history row for a finished task.
func (s *Scheduler) record(ctx context.Context, t *model.Task, bytesSent int) {
	if s.history == nil {
		return
	}
	rec := &model.ExecutionRecord{
		ID:         "exec_" + uuid.New().String(),
		TaskID:     t.ID,
		ClientNum:  t.ClientNum,
		Command:    t.Command,
		Type:       t.Type,
		TotalBurst: t.TotalBurst,
		Rounds:     t.RoundNumber,
		BytesSent:  bytesSent,
		State:      t.State,
		ArrivalAt:  t.ArrivalTime,
		StartedAt:  t.StartTime,
		EndedAt:    t.EndTime,
	}
	if err := s.history.RecordExecution(ctx, rec); err != nil {
		s.logger.Warn("record execution", "client", t.ClientNum, "error", err)
	}
}
