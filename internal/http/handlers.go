package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"daromad/internal/core"
	"daromad/internal/log"
	"daromad/internal/middleware/trace"
	"daromad/internal/services"
)

const (
	healthTimeout   = 2 * time.Second
	defaultRunLimit = 20
	maxRunLimit     = 100
)

// writeError maps err to a status code and writes it as JSON. Server-side
// failures are logged and their details withheld from the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, r.Method+" "+r.URL.Path, nil)
		msg = "internal error"
	}
	s.writeJSONError(w, r, status, msg)
}

func (s *Server) writeJSONError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	NewJSONResponse().
		Status(status).
		Data(ErrorBody{Error: msg, RequestID: trace.GetRequestID(r.Context())}).
		Write(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := s.deps.Health.Ping(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Health check failed", log.FieldError, err)
			s.writeJSONError(w, r, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
	}
	NewJSONResponse().Data(map[string]string{"status": "ok"}).Write(w)
}

// handleRunRecurring runs the engine for ?date= (default today). The run
// report is returned even when some schedules failed.
func (s *Server) handleRunRecurring(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runner == nil {
		s.writeJSONError(w, r, http.StatusServiceUnavailable, "recurring engine not configured")
		return
	}
	now := s.today()
	today, err := dateParam(r, "date", now)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if today.After(now) {
		s.writeError(w, r, fmt.Errorf("%w: %s", core.ErrFutureRunDate, today))
		return
	}

	report, err := s.deps.Runner.RunFor(r.Context(), today)
	if errors.Is(err, services.ErrRunInProgress) {
		s.writeJSONError(w, r, http.StatusConflict, err.Error())
		return
	}
	if s.deps.Budgets != nil {
		s.deps.Budgets.InvalidateAll()
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogRunCompleted(r.Context(), "Recurring run triggered via API", report)
	NewJSONResponse().Data(report).Write(w)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runs == nil {
		s.writeJSONError(w, r, http.StatusServiceUnavailable, "run log not configured")
		return
	}
	limit, err := intParam(r, "limit", defaultRunLimit, maxRunLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	runs, err := s.deps.Runs.ListRuns(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(emptyIfNil(runs)).Write(w)
}
