package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  CategoryType = "INCOME"
	Expense CategoryType = "EXPENSE"
)

const (
	MinDayOfMonth = 1
	MaxDayOfMonth = 30

	DefaultWarningThreshold = 80
)

type (
	CategoryType string

	Category struct {
		ID        int64        `json:"id"`
		OwnerID   *int64       `json:"owner_id"`   // nil for global categories
		Name      string       `json:"name"`
		Type      CategoryType `json:"type"`
		ParentID  *int64       `json:"parent_id"`
		IsActive  bool         `json:"is_active"`
		CreatedAt time.Time    `json:"created_at"`
	}

	RecurringSchedule struct {
		ID           int64     `json:"id"`
		OwnerID      int64     `json:"owner_id"`
		CategoryID   *int64    `json:"category_id"`   // nil once the category has been deleted
		Amount       Money     `json:"amount"`
		DayOfMonth   int       `json:"day_of_month"`
		StartDate    Date      `json:"start_date"`
		EndDate      *Date     `json:"end_date"`
		LastExecuted *Date     `json:"last_executed"`
		IsActive     bool      `json:"is_active"`
		Note         string    `json:"note"`
		CreatedAt    time.Time `json:"created_at"`
	}

	Transaction struct {
		ID                  int64     `json:"id"`
		OwnerID             int64     `json:"owner_id"`
		Amount              Money     `json:"amount"`
		CategoryID          *int64    `json:"category_id"`
		Date                Date      `json:"date"`
		Description         string    `json:"description"`
		IsAutomated         bool      `json:"is_automated"`
		RecurringScheduleID *int64    `json:"recurring_schedule_id"`
		CreatedAt           time.Time `json:"created_at"`
	}

	Budget struct {
		ID               int64 `json:"id"`
		OwnerID          int64 `json:"owner_id"`
		CategoryID       int64 `json:"category_id"`
		Amount           Money `json:"amount"`
		Month            Date  `json:"month"`
		WarningThreshold int   `json:"warning_threshold"`
		IsActive         bool  `json:"is_active"`
	}
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrConfiguration = errors.New("configuration error")
	ErrDataIntegrity = errors.New("data integrity violation")
	ErrNotDue        = errors.New("schedule is not due")
	ErrFutureRunDate = errors.New("run date is after today")

	ErrZeroDate            = errors.New("date cannot be zero")
	ErrInvalidDay          = errors.New("invalid day")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidDayOfMonth   = errors.New("day of month must be between 1 and 30")
	ErrInvalidDateRange    = errors.New("end date must not be before start date")
	ErrEmptyName           = errors.New("empty name")
	ErrInvalidCategoryType = errors.New("invalid category type")
	ErrCategoryTypeMatch   = errors.New("category type must match its parent")
	ErrCategoryOwnerMatch  = errors.New("category must share its parent's owner")
	ErrCategoryCycle       = errors.New("category cannot be its own ancestor")
	ErrBudgetCategoryType  = errors.New("budgets can only track expense categories")
	ErrInvalidThreshold    = errors.New("warning threshold must be between 1 and 100")
	ErrMissingOwner        = errors.New("missing owner")
	ErrMissingCategory     = errors.New("missing category")
	ErrNameTooLong         = errors.New("name too long (max 100 characters)")
	ErrNoteTooLong         = errors.New("note too long (max 500 characters)")
	ErrDescriptionTooLong  = errors.New("description too long (max 500 characters)")
	ErrMarkerBeforeStart   = errors.New("last execution cannot precede start date")
)

func (t CategoryType) Valid() bool {
	return t == Income || t == Expense
}

func (c Category) IsGlobal() bool {
	return c.OwnerID == nil
}

// VisibleTo reports whether the category can be used by the given owner.
func (c Category) VisibleTo(ownerID int64) bool {
	return c.OwnerID == nil || *c.OwnerID == ownerID
}

// Validate checks the category on its own and, when parent is non-nil,
// against its parent.
func (c Category) Validate(parent *Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return ErrNameTooLong
	}
	if !c.Type.Valid() {
		return ErrInvalidCategoryType
	}
	if parent == nil {
		return nil
	}
	if parent.Type != c.Type {
		return ErrCategoryTypeMatch
	}
	if parent.OwnerID != nil {
		if c.OwnerID == nil || *c.OwnerID != *parent.OwnerID {
			return ErrCategoryOwnerMatch
		}
	}
	return nil
}

func (s RecurringSchedule) Validate() error {
	if s.OwnerID == 0 {
		return ErrMissingOwner
	}
	if err := s.Amount.Validate(); err != nil {
		return err
	}
	if s.DayOfMonth < MinDayOfMonth || s.DayOfMonth > MaxDayOfMonth {
		return ErrInvalidDayOfMonth
	}
	if err := s.StartDate.Validate(); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	if s.EndDate != nil {
		if err := s.EndDate.Validate(); err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
		if s.EndDate.Before(s.StartDate) {
			return ErrInvalidDateRange
		}
	}
	if s.LastExecuted != nil && s.LastExecuted.Before(s.StartDate) {
		return ErrMarkerBeforeStart
	}
	if len(s.Note) > 500 {
		return ErrNoteTooLong
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.OwnerID == 0 {
		return ErrMissingOwner
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 500 {
		return ErrDescriptionTooLong
	}
	return nil
}

// Normalize moves Month to the first day of its calendar month.
func (b *Budget) Normalize() {
	b.Month = b.Month.FirstOfMonth()
	if b.WarningThreshold == 0 {
		b.WarningThreshold = DefaultWarningThreshold
	}
}

func (b Budget) Validate() error {
	if b.OwnerID == 0 {
		return ErrMissingOwner
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if err := b.Month.Validate(); err != nil {
		return err
	}
	if b.WarningThreshold < 1 || b.WarningThreshold > 100 {
		return ErrInvalidThreshold
	}
	return nil
}
