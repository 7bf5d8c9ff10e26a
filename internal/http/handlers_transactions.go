package http

import (
	"net/http"
	"strconv"
	"strings"

	"daromad/internal/core"
	"daromad/internal/log"
)

type createTransactionRequest struct {
	Amount      core.Money `json:"amount"`
	CategoryID  *int64     `json:"category_id"`
	Date        core.Date  `json:"date"`
	Description string     `json:"description"`
}

// handleListTransactions lists the owner's ledger for ?month= (default
// current month) or, with ?schedule_id=, the transactions one schedule
// generated. ?type=INCOME|EXPENSE narrows the month to one category type
// and returns entries with their category resolved, newest first.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if v := strings.TrimSpace(r.URL.Query().Get("schedule_id")); v != "" {
		scheduleID, err := strconv.ParseInt(v, 10, 64)
		if err != nil || scheduleID <= 0 {
			s.writeJSONError(w, r, http.StatusBadRequest, "invalid schedule_id")
			return
		}
		txs, err := s.deps.Transactions.ListBySchedule(r.Context(), scheduleID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		owned := make([]core.Transaction, 0, len(txs))
		for _, t := range txs {
			if t.OwnerID == owner {
				owned = append(owned, t)
			}
		}
		NewJSONResponse().Data(owned).Write(w)
		return
	}

	month, err := monthParam(r, "month", s.today())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if v := strings.TrimSpace(r.URL.Query().Get("type")); v != "" {
		typ := core.CategoryType(strings.ToUpper(v))
		if !typ.Valid() {
			s.writeJSONError(w, r, http.StatusBadRequest, "invalid type")
			return
		}
		entries, err := s.deps.Summary.Entries(r.Context(), owner, month, typ)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		NewJSONResponse().Data(emptyIfNil(entries)).Write(w)
		return
	}

	txs, err := s.deps.Transactions.ListByMonth(r.Context(), owner, month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(emptyIfNil(txs)).Write(w)
}

// handleCreateTransaction records a manual transaction. A missing date
// means today.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req createTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Date.IsZero() {
		req.Date = s.today()
	}

	created, err := s.deps.Transactions.CreateTransaction(r.Context(), core.Transaction{
		OwnerID:     owner,
		Amount:      req.Amount,
		CategoryID:  req.CategoryID,
		Date:        req.Date,
		Description: sanitizeInput(req.Description),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction created",
		log.NewFields().WithOwner(owner).WithID(log.FieldTransactionID, created.ID).WithOperation(log.OpCreate).ToSlice()...)
	NewJSONResponse().Status(http.StatusCreated).Data(created).Write(w)
}
