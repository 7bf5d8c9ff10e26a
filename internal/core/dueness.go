package core

import "strings"

// DuenessRule is one clause of the due predicate. A schedule is due on a
// date when every registered rule holds.
type DuenessRule interface {
	Name() string
	Holds(s RecurringSchedule, today Date) bool
}

// ActiveRule requires the schedule to be switched on.
type ActiveRule struct{}

func (ActiveRule) Name() string { return "active" }

func (ActiveRule) Holds(s RecurringSchedule, _ Date) bool {
	return s.IsActive
}

// DayOfMonthRule matches the schedule day against today's day. There is no
// end-of-month rollover: a day-30 schedule does not fire in February.
type DayOfMonthRule struct{}

func (DayOfMonthRule) Name() string { return "day_of_month" }

func (DayOfMonthRule) Holds(s RecurringSchedule, today Date) bool {
	return s.DayOfMonth == today.Day()
}

// StartedRule requires start_date <= today.
type StartedRule struct{}

func (StartedRule) Name() string { return "started" }

func (StartedRule) Holds(s RecurringSchedule, today Date) bool {
	return !s.StartDate.After(today)
}

// NotEndedRule treats a missing end date as open-ended.
type NotEndedRule struct{}

func (NotEndedRule) Name() string { return "not_ended" }

func (NotEndedRule) Holds(s RecurringSchedule, today Date) bool {
	return s.EndDate == nil || !s.EndDate.Before(today)
}

// NotExecutedRule requires last_executed to be absent or strictly before today.
type NotExecutedRule struct{}

func (NotExecutedRule) Name() string { return "not_executed" }

func (NotExecutedRule) Holds(s RecurringSchedule, today Date) bool {
	return s.LastExecuted == nil || s.LastExecuted.Before(today)
}

var duenessRules = []DuenessRule{
	ActiveRule{},
	DayOfMonthRule{},
	StartedRule{},
	NotEndedRule{},
	NotExecutedRule{},
}

// FailedRule returns the first rule that rejects the schedule on today,
// or nil when the schedule is due.
func FailedRule(s RecurringSchedule, today Date) DuenessRule {
	for _, r := range duenessRules {
		if !r.Holds(s, today) {
			return r
		}
	}
	return nil
}

// IsDueOn reports whether the schedule should fire on today.
func (s RecurringSchedule) IsDueOn(today Date) bool {
	return FailedRule(s, today) == nil
}

// ScheduleState is the lifecycle state of a schedule relative to a date.
type ScheduleState string

const (
	StatePendingToday  ScheduleState = "PENDING_TODAY"
	StateExecutedToday ScheduleState = "EXECUTED_TODAY"
	StateInactive      ScheduleState = "INACTIVE"
	StateExpired       ScheduleState = "EXPIRED"
	// StateWaiting covers active, in-range schedules whose day is not today.
	StateWaiting ScheduleState = "WAITING"
)

// StateOn derives the schedule state on today.
func (s RecurringSchedule) StateOn(today Date) ScheduleState {
	switch {
	case !s.IsActive:
		return StateInactive
	case s.EndDate != nil && s.EndDate.Before(today):
		return StateExpired
	case s.LastExecuted != nil && s.LastExecuted.Equal(today):
		return StateExecutedToday
	case s.IsDueOn(today):
		return StatePendingToday
	default:
		return StateWaiting
	}
}

// GeneratedDescription is the description of a transaction materialized
// from the schedule: the note when set, otherwise derived from the category.
func (s RecurringSchedule) GeneratedDescription(categoryName string) string {
	if note := strings.TrimSpace(s.Note); note != "" {
		return note
	}
	return "Recurring: " + categoryName
}
