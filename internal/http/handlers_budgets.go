package http

import (
	"net/http"

	"daromad/internal/core"
	"daromad/internal/log"
)

type createBudgetRequest struct {
	CategoryID       int64      `json:"category_id"`
	Amount           core.Money `json:"amount"`
	Month            string     `json:"month"`
	WarningThreshold int        `json:"warning_threshold"`
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req createBudgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	month := s.today().FirstOfMonth()
	if req.Month != "" {
		if month, err = parseMonth(req.Month); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	created, err := s.deps.Budgets.Create(r.Context(), core.Budget{
		OwnerID:          owner,
		CategoryID:       req.CategoryID,
		Amount:           req.Amount,
		Month:            month,
		WarningThreshold: req.WarningThreshold,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Budget created",
		log.NewFields().WithOwner(owner).WithID("budget_id", created.ID).WithOperation(log.OpCreate).ToSlice()...)
	NewJSONResponse().Status(http.StatusCreated).Data(created).Write(w)
}

// handleListBudgets returns the status of each budget set for ?month=.
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	month, err := monthParam(r, "month", s.today())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	statuses, err := s.deps.Budgets.ListStatuses(r.Context(), owner, month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(statuses).Write(w)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.deps.Budgets.Status(r.Context(), owner, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(st).Write(w)
}
