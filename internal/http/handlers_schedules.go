package http

import (
	"net/http"

	"daromad/internal/core"
	"daromad/internal/log"
	"daromad/internal/services"
)

type createScheduleRequest struct {
	CategoryID *int64     `json:"category_id"`
	Amount     core.Money `json:"amount"`
	DayOfMonth int        `json:"day_of_month"`
	StartDate  core.Date  `json:"start_date"`
	EndDate    *core.Date `json:"end_date"`
	IsActive   *bool      `json:"is_active"`
	Note       string     `json:"note"`
}

// handleListSchedules lists the owner's schedules with their state on
// ?date= (default today).
func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	on, err := dateParam(r, "date", s.today())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	views, err := s.deps.Schedules.List(r.Context(), owner, on)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(views).Write(w)
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req createScheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	created, err := s.deps.Schedules.Create(r.Context(), core.RecurringSchedule{
		OwnerID:    owner,
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		DayOfMonth: req.DayOfMonth,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		IsActive:   active,
		Note:       sanitizeInput(req.Note),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Schedule created",
		log.NewFields().WithOwner(owner).WithID(log.FieldScheduleID, created.ID).WithOperation(log.OpCreate).ToSlice()...)
	NewJSONResponse().
		Status(http.StatusCreated).
		Data(services.ScheduleView{RecurringSchedule: created, State: created.StateOn(s.today())}).
		Write(w)
}

func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
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
	var patch services.SchedulePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	if patch.Note != nil {
		note := sanitizeInput(*patch.Note)
		patch.Note = &note
	}

	updated, err := s.deps.Schedules.Update(r.Context(), owner, id, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Data(services.ScheduleView{RecurringSchedule: updated, State: updated.StateOn(s.today())}).
		Write(w)
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
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
	if err := s.deps.Schedules.Delete(r.Context(), owner, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Schedule deleted",
		log.NewFields().WithOwner(owner).WithID(log.FieldScheduleID, id).WithOperation(log.OpDelete).ToSlice()...)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
