package sched

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/me/remsh/pkg/model"
)

// runResult is the outcome of one executor round.
type runResult int

const (
	// runCompleted: the task finished all of its work.
	runCompleted runResult = iota
	// runYielded: the quantum expired with work left.
	runYielded
	// runPreempted: a shell task or a shorter program arrived mid-quantum.
	runPreempted
)

// executor runs one selected task for a quantum or to completion. It is
// only ever driven by the single scheduler worker, so the task it holds
// is single-owner for the duration of the round.
type executor struct {
	cfg    Config
	queue  *waitingQueue
	logger *slog.Logger
}

// runShell executes the command to completion in a child process with
// stdout and stderr captured, bounded at OutputBufferSize. Spawn
// failures are logged and yield empty output; the task still ends
// normally either way.
func (e *executor) runShell(ctx context.Context, t *model.Task) []byte {
	cmd := exec.CommandContext(ctx, e.cfg.Shell, "-c", t.Command)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if err := cmd.Run(); err != nil && buf.Len() == 0 {
		e.logger.Warn("shell command produced no output",
			"client", t.ClientNum, "command", t.Command, "error", err)
	}

	out := buf.Bytes()
	if len(out) > model.OutputBufferSize {
		out = out[:model.OutputBufferSize]
	}
	return out
}

// runProgram runs t for at most one quantum (FirstRoundQuantum on round
// zero, DefaultQuantum after). Each simulated second it streams one
// progress line to the task's sink, sleeps one tick, advances the
// counters, and polls the queue for preemption.
func (e *executor) runProgram(ctx context.Context, t *model.Task) runResult {
	quantum := e.cfg.DefaultQuantum
	if t.RoundNumber == 0 {
		quantum = e.cfg.FirstRoundQuantum
	}
	iterations := quantum
	if t.RemainingBurst < iterations {
		iterations = t.RemainingBurst
	}

	for i := 0; i < iterations; i++ {
		line := fmt.Sprintf("Demo %d/%d\n", t.CurrentIteration+1, t.TotalBurst)
		if err := t.Sink.Send([]byte(line)); err != nil {
			// Client may have disconnected; its queued work is purged
			// separately, this round just runs out.
			e.logger.Debug("output send failed", "client", t.ClientNum, "error", err)
		}

		select {
		case <-time.After(e.cfg.Tick):
		case <-ctx.Done():
		}

		t.CurrentIteration++
		t.RemainingBurst--

		if t.RemainingBurst > 0 && e.queue.shouldPreempt(t.RemainingBurst) {
			t.RoundNumber++
			return runPreempted
		}
	}

	t.RoundNumber++
	if t.RemainingBurst <= 0 {
		return runCompleted
	}
	return runYielded
}
