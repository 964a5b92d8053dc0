package sched

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// State tags printed on the stdout protocol surface. "started" is a tag
// only, not a task state: the submitting session prints it before the
// task is enqueued.
const (
	TagCreated = "created"
	TagStarted = "started"
	TagWaiting = "waiting"
	TagRunning = "running"
	TagEnded   = "ended"
)

const (
	colourCyan    = "\033[1;36m"
	colourGreen   = "\033[1;32m"
	colourYellow  = "\033[1;33m"
	colourMagenta = "\033[1;35m"
	colourRed     = "\033[1;31m"
	colourSummary = "\033[1;37;44m"
	colourReset   = "\033[0m"
)

var tagColours = map[string]string{
	TagCreated: colourCyan,
	TagStarted: colourGreen,
	TagWaiting: colourYellow,
	TagRunning: colourMagenta,
	TagEnded:   colourRed,
}

// Console serializes the scheduler's protocol surface. All transition
// lines, summary drains, and client side-channel lines go through one
// mutex so concurrent sessions never interleave partial lines.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	colour bool
}

// NewConsole writes to stdout with colour when stdout is a terminal.
func NewConsole() *Console {
	fd := os.Stdout.Fd()
	colour := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	return &Console{out: os.Stdout, colour: colour}
}

// NewConsoleWriter writes to w with colour on or off as given; used by
// tests and when configuration turns colour off.
func NewConsoleWriter(w io.Writer, colour bool) *Console {
	return &Console{out: w, colour: colour}
}

// State prints a task state transition: [{cn}]--- {tag} ({remaining}).
// Colour escapes wrap the tag word only.
func (c *Console) State(clientNum int, tag string, remaining int) {
	open, reset := "", ""
	if c.colour {
		open, reset = tagColours[tag], colourReset
	}
	c.mu.Lock()
	fmt.Fprintf(c.out, "[%d]--- %s%s%s (%d)\n", clientNum, open, tag, reset, remaining)
	c.mu.Unlock()
}

// Summary prints a drained schedule summary on its own highlighted line.
func (c *Console) Summary(body string) {
	open, reset := "", ""
	if c.colour {
		open, reset = colourSummary, colourReset
	}
	c.mu.Lock()
	fmt.Fprintf(c.out, "\n%s%s%s\n", open, body, reset)
	c.mu.Unlock()
}

// Connected prints the client-connect side-channel line.
func (c *Console) Connected(clientNum int) {
	c.mu.Lock()
	fmt.Fprintf(c.out, "[%d]<<< client connected\n", clientNum)
	c.mu.Unlock()
}

// Received prints the command-received side-channel line.
func (c *Console) Received(clientNum int, command string) {
	c.mu.Lock()
	fmt.Fprintf(c.out, "[%d]>>> %s\n", clientNum, command)
	c.mu.Unlock()
}

// BytesSent prints the bytes-sent side-channel line.
func (c *Console) BytesSent(clientNum, n int) {
	c.mu.Lock()
	fmt.Fprintf(c.out, "[%d]<<< %d bytes sent\n", clientNum, n)
	c.mu.Unlock()
}
