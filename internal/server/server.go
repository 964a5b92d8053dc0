package server

import (
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/me/remsh/internal/config"
	"github.com/me/remsh/internal/sched"
	"github.com/me/remsh/internal/store"
	"github.com/me/remsh/pkg/model"
)

// TaskService is the scheduler surface the server drives: sessions
// submit tasks and purge them on disconnect, admin handlers read the
// queue state.
type TaskService interface {
	Add(t *model.Task) error
	RemoveClientTasks(clientNum int)
	Snapshot() sched.QueueSnapshot
	SummaryView() ([]sched.SummaryEntry, string)
	ElapsedSeconds() int
}

// Server is the remsh front end: the TCP command service the clients
// connect to, and the HTTP admin API beside it.
type Server struct {
	cfg       config.ServerConfig
	logger    *slog.Logger
	console   *sched.Console
	sched     TaskService
	store     store.Store // optional; nil disables /history
	router    chi.Router
	startTime time.Time

	mu       sync.Mutex
	counter  int
	sessions map[int]*session
}

// New creates a Server with all admin routes registered. st may be nil
// when execution history is disabled.
func New(cfg config.ServerConfig, svc TaskService, console *sched.Console, st store.Store, logger *slog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		logger:    logger.With("component", "server"),
		console:   console,
		sched:     svc,
		store:     st,
		router:    chi.NewRouter(),
		startTime: time.Now(),
		sessions:  make(map[int]*session),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler for the admin API.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the admin API http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.handleDiscovery)
		r.Get("/health", s.handleHealth)
		r.Get("/queue", s.handleQueue)
		r.Get("/summary", s.handleSummary)
		r.Get("/clients", s.handleClients)
		r.Route("/history", func(r chi.Router) {
			r.Get("/", s.handleListHistory)
			r.Get("/{id}", s.handleGetHistory)
		})
	})
}

// ClientInfo describes one connected TCP client for the admin API.
type ClientInfo struct {
	ClientNum   int       `json:"client_num"`
	RemoteAddr  string    `json:"remote_addr"`
	ConnectedAt time.Time `json:"connected_at"`
	Commands    int64     `json:"commands"`
}

// clients returns the connected sessions ordered by client number.
func (s *Server) clients() []ClientInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ClientInfo, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, ClientInfo{
			ClientNum:   sess.num,
			RemoteAddr:  sess.remoteAddr,
			ConnectedAt: sess.connectedAt,
			Commands:    sess.commands.Load(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientNum < out[j].ClientNum })
	return out
}
