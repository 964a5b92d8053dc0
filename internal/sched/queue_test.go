package sched

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/me/remsh/pkg/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testScheduler(t *testing.T, opts ...Option) *Scheduler {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Tick = time.Millisecond
	return New(cfg, NewConsoleWriter(io.Discard, false), testLogger(), opts...)
}

func TestAddQueueFull(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTasks = 2
	s := New(cfg, NewConsoleWriter(io.Discard, false), testLogger())

	if err := s.Add(program(1, 5)); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := s.Add(program(2, 5)); err != nil {
		t.Fatalf("second add: %v", err)
	}
	if err := s.Add(program(3, 5)); err != model.ErrQueueFull {
		t.Fatalf("third add: got %v, want ErrQueueFull", err)
	}
}

func TestAddSetsWaitingState(t *testing.T) {
	s := testScheduler(t)
	task := program(1, 5)
	task.State = model.TaskStateCreated
	if err := s.Add(task); err != nil {
		t.Fatalf("add: %v", err)
	}
	if task.State != model.TaskStateWaiting {
		t.Errorf("state = %v, want WAITING", task.State)
	}
}

func TestRemoveByID(t *testing.T) {
	q := queueWith(program(1, 5), program(2, 6), program(3, 7))
	got := q.removeByID(2)
	if got == nil || got.ID != 2 {
		t.Fatalf("removeByID(2) = %v", got)
	}
	if q.removeByID(2) != nil {
		t.Error("second removal should return nil")
	}
	// Order among survivors is preserved.
	if q.tasks[0].ID != 1 || q.tasks[1].ID != 3 {
		t.Errorf("survivor order = [%d %d], want [1 3]", q.tasks[0].ID, q.tasks[1].ID)
	}
}

func TestRemoveClient(t *testing.T) {
	q := queueWith(program(1, 5), program(2, 6), program(1, 7), program(3, 8))
	if n := q.removeClient(1); n != 2 {
		t.Fatalf("removeClient(1) purged %d, want 2", n)
	}
	if len(q.tasks) != 2 || q.tasks[0].ID != 2 || q.tasks[1].ID != 3 {
		t.Errorf("unexpected queue contents after purge")
	}
	// Idempotent.
	if n := q.removeClient(1); n != 0 {
		t.Errorf("second purge removed %d, want 0", n)
	}
}

func TestShouldPreempt(t *testing.T) {
	q := queueWith(program(1, 8))
	if q.shouldPreempt(5) {
		t.Error("longer queued program must not preempt")
	}
	if !q.shouldPreempt(10) {
		t.Error("shorter queued program must preempt")
	}
	if q.shouldPreempt(8) {
		t.Error("equal remaining must not preempt")
	}

	q = queueWith(shell(2))
	if !q.shouldPreempt(100) {
		t.Error("queued shell task must always preempt")
	}

	q = newWaitingQueue(model.MaxTasks)
	if q.shouldPreempt(1) {
		t.Error("empty queue must not preempt")
	}
}

func TestIdleResetOnlyWhenFullyIdle(t *testing.T) {
	s := testScheduler(t)

	epoch := func() time.Time {
		s.summary.mu.Lock()
		defer s.summary.mu.Unlock()
		return s.summary.start
	}

	before := epoch()
	time.Sleep(5 * time.Millisecond)

	// Fully idle: the add resets the epoch.
	if err := s.Add(program(1, 5)); err != nil {
		t.Fatal(err)
	}
	afterFirst := epoch()
	if !afterFirst.After(before) {
		t.Error("epoch should reset on add into a fully idle system")
	}

	// Queue non-empty: no reset.
	time.Sleep(5 * time.Millisecond)
	if err := s.Add(program(2, 5)); err != nil {
		t.Fatal(err)
	}
	if got := epoch(); !got.Equal(afterFirst) {
		t.Error("epoch must not reset while the queue is non-empty")
	}

	// Empty queue but non-empty summary: no reset.
	s.queue.drainAll()
	s.summary.append(1)
	time.Sleep(5 * time.Millisecond)
	if err := s.Add(program(3, 5)); err != nil {
		t.Fatal(err)
	}
	if got := epoch(); !got.Equal(afterFirst) {
		t.Error("epoch must not reset while summary entries are pending")
	}

	// Empty queue and summary, but a task is running: no reset.
	s.queue.drainAll()
	s.summary.drain()
	s.summary.setRunning(9)
	time.Sleep(5 * time.Millisecond)
	if err := s.Add(program(4, 5)); err != nil {
		t.Fatal(err)
	}
	if got := epoch(); !got.Equal(afterFirst) {
		t.Error("epoch must not reset while a task is running")
	}
}

func TestAwaitNextReturnsNilOnInterrupt(t *testing.T) {
	q := newWaitingQueue(model.MaxTasks)
	done := make(chan *model.Task, 1)
	go func() { done <- q.awaitNext() }()

	q.interrupt()
	select {
	case got := <-done:
		if got != nil {
			t.Errorf("awaitNext after interrupt = %v, want nil", got)
		}
	case <-time.After(time.Second):
		t.Fatal("awaitNext did not return after interrupt")
	}
}
