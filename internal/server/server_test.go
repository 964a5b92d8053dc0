package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/me/remsh/internal/config"
	"github.com/me/remsh/internal/sched"
	"github.com/me/remsh/internal/store"
	"github.com/me/remsh/pkg/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeService records scheduler calls without running anything.
type fakeService struct {
	mu     sync.Mutex
	added  []*model.Task
	purged []int
	addErr error
}

func (f *fakeService) Add(t *model.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, t)
	return nil
}

func (f *fakeService) RemoveClientTasks(clientNum int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purged = append(f.purged, clientNum)
}

func (f *fakeService) Snapshot() sched.QueueSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	tasks := make([]model.Task, len(f.added))
	for i, t := range f.added {
		tasks[i] = *t
	}
	return sched.QueueSnapshot{Tasks: tasks, LastSelectedID: -1, RunningTaskID: -1}
}

func (f *fakeService) SummaryView() ([]sched.SummaryEntry, string) {
	return []sched.SummaryEntry{{TaskID: 5, CompletionTime: 3}}, "P5-(3)"
}

func (f *fakeService) ElapsedSeconds() int { return 0 }

func testServer(t *testing.T, st store.Store) (*Server, *fakeService) {
	t.Helper()
	svc := &fakeService{}
	console := sched.NewConsoleWriter(io.Discard, false)
	return New(config.DefaultServerConfig(), svc, console, st, testLogger()), svc
}

// envelope is used to decode the standard response envelope.
type envelope struct {
	Status     string            `json:"status"`
	RequestID  string            `json:"request_id"`
	Data       json.RawMessage   `json:"data"`
	Pagination *model.Pagination `json:"pagination"`
	Error      *model.APIError   `json:"error"`
}

func doGet(t *testing.T, srv *Server, path string, wantStatus int) envelope {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != wantStatus {
		t.Fatalf("GET %s: status=%d, want %d, body=%s", path, w.Code, wantStatus, w.Body.String())
	}
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("GET %s: invalid JSON: %v", path, err)
	}
	return env
}

func TestDiscovery(t *testing.T) {
	srv, _ := testServer(t, nil)
	env := doGet(t, srv, "/api/v1/", http.StatusOK)
	if env.Status != "ok" {
		t.Errorf("status = %q, want ok", env.Status)
	}
	if env.RequestID == "" {
		t.Error("request_id is empty")
	}
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t, nil)
	env := doGet(t, srv, "/api/v1/health", http.StatusOK)

	var data struct {
		Status         string `json:"status"`
		QueuedTasks    int    `json:"queued_tasks"`
		RunningTaskID  int    `json:"running_task_id"`
		HistoryEnabled bool   `json:"history_enabled"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("parse data: %v", err)
	}
	if data.Status != "healthy" {
		t.Errorf("status = %q, want healthy", data.Status)
	}
	if data.RunningTaskID != -1 {
		t.Errorf("running_task_id = %d, want -1", data.RunningTaskID)
	}
	if data.HistoryEnabled {
		t.Error("history should be disabled without a store")
	}
}

func TestQueueSnapshotEndpoint(t *testing.T) {
	srv, svc := testServer(t, nil)
	svc.Add(&model.Task{ID: 1, ClientNum: 1, Type: model.TaskTypeProgram, RemainingBurst: 5})

	env := doGet(t, srv, "/api/v1/queue", http.StatusOK)
	var snap sched.QueueSnapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("parse data: %v", err)
	}
	if len(snap.Tasks) != 1 || snap.Tasks[0].ID != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	srv, _ := testServer(t, nil)
	env := doGet(t, srv, "/api/v1/summary", http.StatusOK)

	var data struct {
		Entries  []sched.SummaryEntry `json:"entries"`
		Rendered string               `json:"rendered"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("parse data: %v", err)
	}
	if data.Rendered != "P5-(3)" {
		t.Errorf("rendered = %q, want P5-(3)", data.Rendered)
	}
}

func TestHistoryDisabled(t *testing.T) {
	srv, _ := testServer(t, nil)
	env := doGet(t, srv, "/api/v1/history/", http.StatusNotFound)
	if env.Error == nil || env.Error.Code != model.ErrNotFound {
		t.Errorf("error = %+v, want NOT_FOUND", env.Error)
	}
}

func TestHistoryListAndGet(t *testing.T) {
	st, err := store.NewSQLiteStore(":memory:", testLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	ended := time.Now().UTC()
	rec := &model.ExecutionRecord{
		ID: "exec_test", TaskID: 4, ClientNum: 4, Command: "./demo 2",
		Type: model.TaskTypeProgram, TotalBurst: 2, Rounds: 1, BytesSent: 24,
		State: model.TaskStateEnded, ArrivalAt: ended.Add(-3 * time.Second), EndedAt: &ended,
	}
	if err := st.RecordExecution(context.Background(), rec); err != nil {
		t.Fatalf("RecordExecution: %v", err)
	}

	srv, _ := testServer(t, st)

	env := doGet(t, srv, "/api/v1/history/", http.StatusOK)
	var recs []*model.ExecutionRecord
	if err := json.Unmarshal(env.Data, &recs); err != nil {
		t.Fatalf("parse data: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "exec_test" {
		t.Errorf("records = %+v", recs)
	}
	if env.Pagination == nil || env.Pagination.Total != 1 {
		t.Errorf("pagination = %+v", env.Pagination)
	}

	env = doGet(t, srv, "/api/v1/history/exec_test", http.StatusOK)
	var got model.ExecutionRecord
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("parse data: %v", err)
	}
	if got.Command != "./demo 2" {
		t.Errorf("command = %q", got.Command)
	}

	doGet(t, srv, "/api/v1/history/exec_absent", http.StatusNotFound)
}

func TestHistoryBadClientParam(t *testing.T) {
	st, err := store.NewSQLiteStore(":memory:", testLogger())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatal(err)
	}

	srv, _ := testServer(t, st)
	env := doGet(t, srv, "/api/v1/history/?client=abc", http.StatusBadRequest)
	if env.Error == nil || env.Error.Code != model.ErrValidation {
		t.Errorf("error = %+v, want VALIDATION_ERROR", env.Error)
	}
}
