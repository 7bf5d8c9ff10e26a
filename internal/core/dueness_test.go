package core

import "testing"

func baseSchedule() RecurringSchedule {
	return RecurringSchedule{
		ID:         1,
		OwnerID:    1,
		CategoryID: int64p(1),
		Amount:     MustMoney("500000"),
		DayOfMonth: 5,
		StartDate:  NewDate(2025, 1, 1),
		IsActive:   true,
	}
}

func TestIsDueOn(t *testing.T) {
	today := NewDate(2025, 3, 5)

	tests := []struct {
		name   string
		mutate func(*RecurringSchedule)
		today  Date
		want   bool
		rule   string
	}{
		{name: "never executed, matching day", want: true},
		{name: "executed last month", mutate: func(s *RecurringSchedule) { s.LastExecuted = datep(2025, 2, 5) }, want: true},
		{name: "executed today", mutate: func(s *RecurringSchedule) { s.LastExecuted = datep(2025, 3, 5) }, rule: "not_executed"},
		{name: "inactive", mutate: func(s *RecurringSchedule) { s.IsActive = false }, rule: "active"},
		{name: "other day", mutate: func(s *RecurringSchedule) { s.DayOfMonth = 6 }, rule: "day_of_month"},
		{name: "not started", mutate: func(s *RecurringSchedule) { s.StartDate = NewDate(2025, 3, 6) }, rule: "started"},
		{name: "starts today", mutate: func(s *RecurringSchedule) { s.StartDate = today }, want: true},
		{name: "expired", mutate: func(s *RecurringSchedule) { s.EndDate = datep(2025, 3, 4) }, rule: "not_ended"},
		{name: "ends today", mutate: func(s *RecurringSchedule) { s.EndDate = datep(2025, 3, 5) }, want: true},
		{name: "open-ended", mutate: func(s *RecurringSchedule) { s.EndDate = nil }, want: true},
		{
			name:   "day 30 skipped in February",
			mutate: func(s *RecurringSchedule) { s.DayOfMonth = 30 },
			today:  NewDate(2025, 2, 28),
			rule:   "day_of_month",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseSchedule()
			if tt.mutate != nil {
				tt.mutate(&s)
			}
			day := today
			if !tt.today.IsZero() {
				day = tt.today
			}
			if got := s.IsDueOn(day); got != tt.want {
				t.Errorf("IsDueOn() = %v, want %v", got, tt.want)
			}
			failed := FailedRule(s, day)
			if tt.rule == "" {
				if failed != nil {
					t.Errorf("FailedRule() = %s, want none", failed.Name())
				}
				return
			}
			if failed == nil || failed.Name() != tt.rule {
				t.Errorf("FailedRule() = %v, want %s", failed, tt.rule)
			}
		})
	}
}

func TestDay30NeverFiresInFebruary(t *testing.T) {
	s := baseSchedule()
	s.DayOfMonth = 30
	for _, year := range []int{2024, 2025} {
		feb := NewDate(year, 2, 1)
		for d := feb; d.Month() == 2; d = d.AddDays(1) {
			if s.IsDueOn(d) {
				t.Fatalf("day-30 schedule due on %s", d)
			}
		}
	}
	if !s.IsDueOn(NewDate(2025, 3, 30)) {
		t.Fatal("day-30 schedule should fire on March 30")
	}
}

func TestStateOn(t *testing.T) {
	today := NewDate(2025, 3, 5)

	tests := []struct {
		name   string
		mutate func(*RecurringSchedule)
		want   ScheduleState
	}{
		{"pending", nil, StatePendingToday},
		{"executed", func(s *RecurringSchedule) { s.LastExecuted = datep(2025, 3, 5) }, StateExecutedToday},
		{"inactive", func(s *RecurringSchedule) { s.IsActive = false }, StateInactive},
		{"inactive wins over expired", func(s *RecurringSchedule) {
			s.IsActive = false
			s.EndDate = datep(2025, 2, 1)
		}, StateInactive},
		{"expired", func(s *RecurringSchedule) { s.EndDate = datep(2025, 3, 4) }, StateExpired},
		{"waiting", func(s *RecurringSchedule) { s.DayOfMonth = 20 }, StateWaiting},
		{"waiting before start", func(s *RecurringSchedule) { s.StartDate = NewDate(2025, 4, 1) }, StateWaiting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseSchedule()
			if tt.mutate != nil {
				tt.mutate(&s)
			}
			if got := s.StateOn(today); got != tt.want {
				t.Errorf("StateOn() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGeneratedDescription(t *testing.T) {
	s := baseSchedule()
	if got := s.GeneratedDescription("Rent"); got != "Recurring: Rent" {
		t.Errorf("GeneratedDescription() = %q", got)
	}
	s.Note = "  "
	if got := s.GeneratedDescription("Rent"); got != "Recurring: Rent" {
		t.Errorf("blank note: GeneratedDescription() = %q", got)
	}
	s.Note = "Flat rent"
	if got := s.GeneratedDescription("Rent"); got != "Flat rent" {
		t.Errorf("GeneratedDescription() = %q", got)
	}
}
