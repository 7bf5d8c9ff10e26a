package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"daromad/internal/core"
	"daromad/internal/log"
	"daromad/internal/middleware/ratelimit"
	"daromad/internal/middleware/security"
	"daromad/internal/middleware/trace"
	"daromad/internal/services"
	"daromad/internal/storage"
)

// RecurringRunner triggers the recurring engine for an explicit date.
type RecurringRunner interface {
	RunFor(ctx context.Context, today core.Date) (core.RunReport, error)
	Today() core.Date
}

type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]storage.RunSummary, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the API serves. Logger may be nil.
type Deps struct {
	Health       Pinger
	Runner       RecurringRunner
	Runs         RunLister
	Schedules    *services.ScheduleService
	Transactions *services.TransactionService
	Categories   *services.CategoryService
	Budgets      *services.BudgetService
	Summary      *services.SummaryService
	Logger       *log.Logger
	RateLimit    ratelimit.Config
}

type Server struct {
	http.Server
	deps Deps

	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.New(log.Config{Component: log.ComponentHTTP})
	}

	s := &Server{
		deps:     deps,
		detector: security.NewDetector(),
		limiter:  ratelimit.NewLimiter(deps.RateLimit),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, deps.Logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /api/recurring/run", s.handleRunRecurring)
	mux.HandleFunc("GET /api/recurring/runs", s.handleListRuns)

	mux.HandleFunc("GET /api/schedules", s.handleListSchedules)
	mux.HandleFunc("POST /api/schedules", s.handleCreateSchedule)
	mux.HandleFunc("PATCH /api/schedules/{id}", s.handleUpdateSchedule)
	mux.HandleFunc("DELETE /api/schedules/{id}", s.handleDeleteSchedule)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("GET /api/budgets/{id}/status", s.handleBudgetStatus)

	mux.HandleFunc("GET /api/summary", s.handleSummary)

	s.Server = http.Server{
		Addr:    addr,
		Handler: s.chain(mux),
	}
	return s
}

// chain runs, in order: detector, security headers, trace, request logger,
// rate limit. Suspicious requests are rejected before they are traced.
func (s *Server) chain(h http.Handler) http.Handler {
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)(h)
	h = log.RequestIDMiddleware(trace.RequestIDFromRequest)(h)
	h = log.Middleware(s.deps.Logger)(h)
	h = s.tracer.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.detector.Middleware(h)
	return h
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	s.writeJSONError(w, r, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}

// Shutdown gracefully shuts down the server and the limiter cleanup routine
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// today is the civil date API defaults are taken from.
func (s *Server) today() core.Date {
	if s.deps.Runner != nil {
		return s.deps.Runner.Today()
	}
	return core.DateOf(time.Now().UTC())
}
