package sched

import (
	"strconv"
	"strings"
	"time"

	"github.com/me/remsh/pkg/model"
)

// shellCommands is the fixed set of first tokens treated as shell
// commands. Anything not listed here (and not a ./program) also runs
// as a shell command.
var shellCommands = map[string]struct{}{
	"ls": {}, "pwd": {}, "cd": {}, "echo": {}, "cat": {}, "mkdir": {},
	"rmdir": {}, "rm": {}, "cp": {}, "mv": {}, "touch": {}, "head": {},
	"tail": {}, "grep": {}, "find": {}, "wc": {}, "sort": {}, "uniq": {},
	"date": {}, "whoami": {}, "hostname": {}, "uname": {}, "env": {},
	"export": {}, "clear": {}, "man": {}, "help": {}, "ps": {}, "kill": {},
	"chmod": {}, "chown": {}, "df": {}, "du": {}, "tar": {}, "gzip": {},
	"gunzip": {},
}

// Classify decides whether a command line names a program (a ./ path)
// or a shell command. Unknown first tokens default to shell.
func Classify(command string) model.TaskType {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return model.TaskTypeShell
	}
	if strings.HasPrefix(fields[0], "./") {
		return model.TaskTypeProgram
	}
	return model.TaskTypeShell
}

// ExtractBurst returns the simulated duration in seconds for a program
// command. The duration is the second token when the program name
// contains "demo" and the token is a positive integer; everything else
// falls back to DefaultBurst.
func ExtractBurst(command string) int {
	fields := strings.Fields(command)
	if len(fields) >= 2 && strings.Contains(fields[0], "demo") {
		if n, err := strconv.Atoi(fields[1]); err == nil && n > 0 {
			return n
		}
	}
	return model.DefaultBurst
}

// NewTask builds a Task from a raw command line. The task id is the
// submitting client's number; the sink is borrowed, not owned.
func NewTask(command string, clientNum int, sink model.Sink) *model.Task {
	t := &model.Task{
		ID:          clientNum,
		ClientNum:   clientNum,
		Command:     command,
		Type:        Classify(command),
		State:       model.TaskStateCreated,
		ArrivalTime: time.Now(),
		Sink:        sink,
	}
	if t.Type == model.TaskTypeShell {
		t.TotalBurst = model.ShellBurst
		t.RemainingBurst = model.ShellBurst
	} else {
		t.TotalBurst = ExtractBurst(command)
		t.RemainingBurst = t.TotalBurst
	}
	return t
}
