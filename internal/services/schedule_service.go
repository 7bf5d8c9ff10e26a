package services

import (
	"context"
	"fmt"
	"strings"

	"daromad/internal/core"
)

type ScheduleRepository interface {
	CreateSchedule(ctx context.Context, s core.RecurringSchedule) (core.RecurringSchedule, error)
	GetSchedule(ctx context.Context, id int64) (core.RecurringSchedule, error)
	UpdateSchedule(ctx context.Context, s core.RecurringSchedule) error
	DeleteSchedule(ctx context.Context, id int64) error
	ListSchedulesByOwner(ctx context.Context, ownerID int64) ([]core.RecurringSchedule, error)
	GetCategory(ctx context.Context, id int64) (core.Category, error)
}

// ScheduleView is a schedule with its state on a given date.
type ScheduleView struct {
	core.RecurringSchedule
	State core.ScheduleState `json:"state"`
}

// SchedulePatch carries the fields of a partial update. Nil means unchanged.
// ClearEndDate makes the schedule open-ended.
type SchedulePatch struct {
	CategoryID   *int64      `json:"category_id"`
	Amount       *core.Money `json:"amount"`
	DayOfMonth   *int        `json:"day_of_month"`
	StartDate    *core.Date  `json:"start_date"`
	EndDate      *core.Date  `json:"end_date"`
	ClearEndDate bool        `json:"clear_end_date"`
	IsActive     *bool       `json:"is_active"`
	Note         *string     `json:"note"`
}

// ScheduleService manages recurring schedules on behalf of their owner.
// The execution marker is never written here.
type ScheduleService struct {
	store ScheduleRepository
}

func NewScheduleService(store ScheduleRepository) *ScheduleService {
	return &ScheduleService{store: store}
}

// Create validates and stores a new schedule. A new schedule has never fired.
func (s *ScheduleService) Create(ctx context.Context, sched core.RecurringSchedule) (core.RecurringSchedule, error) {
	sched.LastExecuted = nil
	sched.Note = strings.TrimSpace(sched.Note)

	if err := sched.Validate(); err != nil {
		return core.RecurringSchedule{}, err
	}
	if err := s.checkCategory(ctx, sched.OwnerID, sched.CategoryID); err != nil {
		return core.RecurringSchedule{}, err
	}
	return s.store.CreateSchedule(ctx, sched)
}

// Update applies patch to a schedule owned by ownerID.
func (s *ScheduleService) Update(ctx context.Context, ownerID, id int64, patch SchedulePatch) (core.RecurringSchedule, error) {
	current, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return core.RecurringSchedule{}, err
	}

	if patch.CategoryID != nil {
		current.CategoryID = patch.CategoryID
	}
	if patch.Amount != nil {
		current.Amount = *patch.Amount
	}
	if patch.DayOfMonth != nil {
		current.DayOfMonth = *patch.DayOfMonth
	}
	if patch.StartDate != nil {
		current.StartDate = *patch.StartDate
	}
	if patch.ClearEndDate {
		current.EndDate = nil
	} else if patch.EndDate != nil {
		current.EndDate = patch.EndDate
	}
	if patch.IsActive != nil {
		current.IsActive = *patch.IsActive
	}
	if patch.Note != nil {
		current.Note = strings.TrimSpace(*patch.Note)
	}

	if err := current.Validate(); err != nil {
		return core.RecurringSchedule{}, err
	}
	if patch.CategoryID != nil {
		if err := s.checkCategory(ctx, ownerID, current.CategoryID); err != nil {
			return core.RecurringSchedule{}, err
		}
	}

	if err := s.store.UpdateSchedule(ctx, current); err != nil {
		return core.RecurringSchedule{}, err
	}
	return current, nil
}

// Delete removes a schedule owned by ownerID. Generated transactions stay.
func (s *ScheduleService) Delete(ctx context.Context, ownerID, id int64) error {
	if _, err := s.owned(ctx, ownerID, id); err != nil {
		return err
	}
	return s.store.DeleteSchedule(ctx, id)
}

// List returns the owner's schedules with their state on today.
func (s *ScheduleService) List(ctx context.Context, ownerID int64, today core.Date) ([]ScheduleView, error) {
	if ownerID == 0 {
		return nil, core.ErrMissingOwner
	}
	if err := today.Validate(); err != nil {
		return nil, err
	}
	scheds, err := s.store.ListSchedulesByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	views := make([]ScheduleView, 0, len(scheds))
	for _, sched := range scheds {
		views = append(views, ScheduleView{RecurringSchedule: sched, State: sched.StateOn(today)})
	}
	return views, nil
}

// owned hides schedules of other owners behind ErrNotFound.
func (s *ScheduleService) owned(ctx context.Context, ownerID, id int64) (core.RecurringSchedule, error) {
	sched, err := s.store.GetSchedule(ctx, id)
	if err != nil {
		return core.RecurringSchedule{}, err
	}
	if sched.OwnerID != ownerID {
		return core.RecurringSchedule{}, fmt.Errorf("schedule %d: %w", id, core.ErrNotFound)
	}
	return sched, nil
}

func (s *ScheduleService) checkCategory(ctx context.Context, ownerID int64, categoryID *int64) error {
	if categoryID == nil {
		return core.ErrMissingCategory
	}
	category, err := s.store.GetCategory(ctx, *categoryID)
	if err != nil {
		return fmt.Errorf("resolve category: %w", err)
	}
	if !category.VisibleTo(ownerID) {
		return core.ErrCategoryOwnerMatch
	}
	return nil
}
