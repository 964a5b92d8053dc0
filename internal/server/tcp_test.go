package server

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/me/remsh/internal/config"
	"github.com/me/remsh/internal/sched"
	"github.com/me/remsh/pkg/model"
)

// syncBuffer is a goroutine-safe console target.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// startTCP serves the given Server on a loopback listener and returns
// its address.
func startTCP(t *testing.T, srv *Server) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go srv.Serve(ctx, ln)
	t.Cleanup(cancel)
	return ln.Addr().String()
}

func TestSessionSubmitsTasks(t *testing.T) {
	out := &syncBuffer{}
	svc := &fakeService{}
	srv := New(config.DefaultServerConfig(), svc, sched.NewConsoleWriter(out, false), nil, testLogger())
	addr := startTCP(t, srv)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitFor(t, 5*time.Second, "connect line", func() bool {
		return strings.Contains(out.String(), "[1]<<< client connected")
	})

	if _, err := conn.Write([]byte("ls -la\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, 5*time.Second, "task submission", func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return len(svc.added) == 1
	})

	svc.mu.Lock()
	task := svc.added[0]
	svc.mu.Unlock()
	if task.ClientNum != 1 || task.Command != "ls -la" || task.Type != model.TaskTypeShell {
		t.Errorf("submitted task = %+v", task)
	}

	// The session logs created and started before the enqueue, and
	// echoes the received command.
	for _, line := range []string{"[1]>>> ls -la", "[1]--- created (-1)", "[1]--- started (-1)"} {
		if !strings.Contains(out.String(), line) {
			t.Errorf("console missing %q in:\n%s", line, out.String())
		}
	}
}

func TestSessionExit(t *testing.T) {
	svc := &fakeService{}
	srv := New(config.DefaultServerConfig(), svc, sched.NewConsoleWriter(&syncBuffer{}, false), nil, testLogger())
	addr := startTCP(t, srv)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("exit\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if reply != "Disconnected from server.\n" {
		t.Errorf("reply = %q", reply)
	}

	// Disconnect purges the client's queued tasks.
	waitFor(t, 5*time.Second, "client purge", func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return len(svc.purged) == 1 && svc.purged[0] == 1
	})
}

func TestSessionQueueFull(t *testing.T) {
	svc := &fakeService{addErr: model.ErrQueueFull}
	srv := New(config.DefaultServerConfig(), svc, sched.NewConsoleWriter(&syncBuffer{}, false), nil, testLogger())
	addr := startTCP(t, srv)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("./demo 5\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(reply, "queue is full") {
		t.Errorf("reply = %q, want queue-full error line", reply)
	}
}

func TestClientNumbersIncrease(t *testing.T) {
	out := &syncBuffer{}
	svc := &fakeService{}
	srv := New(config.DefaultServerConfig(), svc, sched.NewConsoleWriter(out, false), nil, testLogger())
	addr := startTCP(t, srv)

	for i := 0; i < 2; i++ {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			t.Fatalf("dial %d: %v", i, err)
		}
		defer conn.Close()
	}
	waitFor(t, 5*time.Second, "both connect lines", func() bool {
		return strings.Contains(out.String(), "[1]<<< client connected") &&
			strings.Contains(out.String(), "[2]<<< client connected")
	})

	if got := len(srv.clients()); got != 2 {
		t.Errorf("clients() returned %d entries, want 2", got)
	}
}

// TestEndToEndShellCommand wires a real scheduler behind the TCP
// surface: a connected client's command runs and the output lands back
// on the connection.
func TestEndToEndShellCommand(t *testing.T) {
	out := &syncBuffer{}
	cfg := sched.DefaultConfig()
	cfg.Tick = time.Millisecond
	console := sched.NewConsoleWriter(out, false)
	scheduler := sched.New(cfg, console, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go scheduler.Start(ctx)
	t.Cleanup(func() {
		scheduler.Stop()
		cancel()
	})

	srv := New(config.DefaultServerConfig(), scheduler, console, nil, testLogger())
	addr := startTCP(t, srv)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("echo over-the-wire\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if reply != "over-the-wire\n" {
		t.Errorf("reply = %q", reply)
	}
}
