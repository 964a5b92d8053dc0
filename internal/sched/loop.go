package sched

import (
	"context"
	"time"

	"github.com/me/remsh/pkg/model"
)

// Start runs the scheduler worker: block until a task is queued, drain
// the selector's choice, execute it for one round, then either finish
// it or re-enqueue it at the tail. Blocks until ctx is cancelled or
// Stop is called. Exactly one worker runs; tasks never execute in
// parallel with each other.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started",
		"first_quantum", s.cfg.FirstRoundQuantum,
		"quantum", s.cfg.DefaultQuantum,
		"capacity", s.cfg.MaxTasks,
	)

	go func() {
		select {
		case <-ctx.Done():
			s.queue.interrupt()
		case <-s.stopCh:
		}
	}()

	for {
		t := s.queue.awaitNext()
		if t == nil {
			break
		}
		s.runRound(ctx, t)
	}

	close(s.doneCh)
	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

// Stop signals the worker to exit, waits for the in-flight round to
// finish, and drains any pending schedule summary.
func (s *Scheduler) Stop() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.queue.interrupt()
	<-s.doneCh
	if body := s.summary.drain(); body != "" {
		s.console.Summary(body)
	}
	return nil
}

// runRound executes one scheduling round for the drained task.
func (s *Scheduler) runRound(ctx context.Context, t *model.Task) {
	if t.StartTime == nil {
		now := time.Now()
		t.StartTime = &now
	}
	t.State = model.TaskStateRunning
	s.summary.setRunning(t.ID)
	s.console.State(t.ClientNum, TagRunning, t.RemainingBurst)

	var res runResult
	var captured []byte
	if t.IsShell() {
		captured = s.exec.runShell(ctx, t)
		res = runCompleted
	} else {
		res = s.exec.runProgram(ctx, t)
	}
	s.summary.setRunning(-1)

	if res == runCompleted {
		s.finish(ctx, t, captured)
		return
	}

	// Quantum expired or a higher-priority peer arrived: back to the
	// tail so the no-consecutive rule can advance past this id.
	t.State = model.TaskStateWaiting
	s.console.State(t.ClientNum, TagWaiting, t.RemainingBurst)
	s.summary.append(t.ID)
	if err := s.Add(t); err != nil {
		s.logger.Warn("re-enqueue failed, dropping task",
			"client", t.ClientNum, "error", err)
	}
}

// finish ends the task: final logs, client delivery, history record,
// and the queue-drained summary print.
func (s *Scheduler) finish(ctx context.Context, t *model.Task, captured []byte) {
	now := time.Now()
	t.EndTime = &now
	t.State = model.TaskStateEnded
	s.console.State(t.ClientNum, TagEnded, t.RemainingBurst)

	var bytesSent int
	if t.IsShell() {
		if len(captured) == 0 {
			// Keep the client's prompt moving even for silent commands.
			captured = []byte("\n")
		}
		if err := t.Sink.Send(captured); err != nil {
			s.logger.Debug("output send failed", "client", t.ClientNum, "error", err)
		}
		bytesSent = len(captured)
		s.console.BytesSent(t.ClientNum, bytesSent)
	} else {
		s.summary.append(t.ID)
		bytesSent = t.CurrentIteration * 12
		s.console.BytesSent(t.ClientNum, bytesSent)
	}

	s.record(ctx, t, bytesSent)

	if s.queue.size() == 0 && s.summary.count() > 0 {
		if body := s.summary.drain(); body != "" {
			s.console.Summary(body)
		}
	}
}
