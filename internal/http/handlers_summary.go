package http

import "net/http"

// handleSummary returns the income/expense overview of ?month= (default
// current month).
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	today := s.today()
	month, err := monthParam(r, "month", today)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	summary, err := s.deps.Summary.Monthly(r.Context(), owner, month, today)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(summary).Write(w)
}
