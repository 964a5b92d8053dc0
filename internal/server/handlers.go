package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/me/remsh/pkg/model"
)

// handleDiscovery lists the admin API endpoints.
func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, map[string]any{
		"name": "remsh admin API",
		"endpoints": []map[string]string{
			{"path": "/api/v1/health", "description": "service health and uptime"},
			{"path": "/api/v1/queue", "description": "waiting queue snapshot"},
			{"path": "/api/v1/summary", "description": "pending schedule summary"},
			{"path": "/api/v1/clients", "description": "connected clients"},
			{"path": "/api/v1/history", "description": "execution history"},
		},
	})
}

// handleHealth reports liveness plus a glance at the scheduler.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	snap := s.sched.Snapshot()
	respondOK(w, reqID, map[string]any{
		"status":          "healthy",
		"uptime":          time.Since(s.startTime).String(),
		"queued_tasks":    len(snap.Tasks),
		"running_task_id": snap.RunningTaskID,
		"elapsed_seconds": snap.ElapsedSeconds,
		"clients":         len(s.clients()),
		"history_enabled": s.store != nil,
	})
}

// handleQueue returns a point-in-time queue snapshot.
func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, s.sched.Snapshot())
}

// handleSummary returns the pending schedule summary without draining it.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	entries, rendered := s.sched.SummaryView()
	respondOK(w, reqID, map[string]any{
		"entries":         entries,
		"rendered":        rendered,
		"elapsed_seconds": s.sched.ElapsedSeconds(),
	})
}

// handleClients lists the connected TCP clients.
func (s *Server) handleClients(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, s.clients())
}

// handleListHistory lists execution-history rows, newest first.
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if s.store == nil {
		respondError(w, reqID, http.StatusNotFound,
			&model.APIError{Code: model.ErrNotFound, Message: "execution history is disabled"})
		return
	}

	opts := model.DefaultListOptions()
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Offset = n
		}
	}
	if v := q.Get("client"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, reqID, http.StatusBadRequest,
				model.NewValidationError("client must be an integer"))
			return
		}
		opts.Client = n
	}
	opts.Type = q.Get("type")
	opts.Clamp()

	recs, total, err := s.store.ListExecutions(r.Context(), opts)
	if err != nil {
		s.logger.Error("list history", "error", err)
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: "list executions failed"})
		return
	}
	respondList(w, reqID, recs, &model.Pagination{
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		HasMore: opts.Offset+len(recs) < total,
	})
}

// handleGetHistory fetches a single execution-history row.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if s.store == nil {
		respondError(w, reqID, http.StatusNotFound,
			&model.APIError{Code: model.ErrNotFound, Message: "execution history is disabled"})
		return
	}

	id := chi.URLParam(r, "id")
	rec, err := s.store.GetExecution(r.Context(), id)
	if err != nil {
		s.logger.Error("get history", "id", id, "error", err)
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: "get execution failed"})
		return
	}
	if rec == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("execution", id))
		return
	}
	respondOK(w, reqID, rec)
}
