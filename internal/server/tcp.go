package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/me/remsh/internal/sched"
	"github.com/me/remsh/pkg/model"
)

// session is one connected TCP client. It implements model.Sink, so the
// scheduler streams task output straight onto the client's connection.
type session struct {
	conn        net.Conn
	num         int
	remoteAddr  string
	connectedAt time.Time
	commands    atomic.Int64
	writeMu     sync.Mutex
}

// Send implements model.Sink. Writes are serialized so a shell result
// and a streaming program line never interleave mid-line.
func (c *session) Send(p []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.conn.Write(p)
	return err
}

// ListenAndServe accepts TCP clients on the configured listen address
// until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.ListenAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the accept loop on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("command service listening", "addr", ln.Addr().String())
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Error("accept", "error", err)
			continue
		}
		go s.handleConn(conn)
	}
}

// handleConn owns one client connection: assign the client number,
// announce it, then read one command per line until disconnect.
func (s *Server) handleConn(conn net.Conn) {
	s.mu.Lock()
	s.counter++
	sess := &session{
		conn:        conn,
		num:         s.counter,
		remoteAddr:  conn.RemoteAddr().String(),
		connectedAt: time.Now(),
	}
	s.sessions[sess.num] = sess
	s.mu.Unlock()

	s.console.Connected(sess.num)
	s.logger.Info("client connected", "client", sess.num, "remote", sess.remoteAddr)

	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.sessions, sess.num)
		s.mu.Unlock()
		// Purge whatever the client still had queued; a task of theirs
		// already running finishes its quantum against the dead sink.
		s.sched.RemoveClientTasks(sess.num)
		s.logger.Info("client disconnected", "client", sess.num)
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, model.OutputBufferSize), model.OutputBufferSize)

	for scanner.Scan() {
		command := strings.TrimSpace(scanner.Text())
		if command == "" {
			continue
		}
		s.console.Received(sess.num, command)
		sess.commands.Add(1)

		if command == "exit" {
			sess.Send([]byte("Disconnected from server.\n"))
			return
		}
		s.submit(sess, command)
	}
	if err := scanner.Err(); err != nil {
		s.logger.Debug("client read", "client", sess.num, "error", err)
	}
}

// submit classifies the command into a task and hands it to the
// scheduler. The created and started tags are printed here, from the
// session's goroutine, before the task is enqueued; the scheduler
// prints running when the task is actually selected.
func (s *Server) submit(sess *session, command string) {
	task := sched.NewTask(command, sess.num, sess)
	s.console.State(sess.num, sched.TagCreated, task.RemainingBurst)
	s.console.State(sess.num, sched.TagStarted, task.RemainingBurst)

	if err := s.sched.Add(task); err != nil {
		s.logger.Warn("task rejected", "client", sess.num, "error", err)
		sess.Send([]byte("server busy: task queue is full\n"))
	}
}
