package core

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleFailure records why a single schedule could not be materialized.
type ScheduleFailure struct {
	ScheduleID int64  `json:"schedule_id"`
	Message    string `json:"message"`
}

// RunReport summarizes one invocation of the recurring engine.
type RunReport struct {
	RunID      uuid.UUID         `json:"run_id"`
	Date       Date              `json:"date"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	TotalDue   int               `json:"total_due"`
	Successes  []int64           `json:"successes"`
	Failures   []ScheduleFailure `json:"failures"`
	Skipped    []int64           `json:"skipped"`
}

// NewRunReport starts an empty report for a run on today.
func NewRunReport(today Date, startedAt time.Time) RunReport {
	return RunReport{
		RunID:     uuid.New(),
		Date:      today,
		StartedAt: startedAt,
		Successes: []int64{},
		Failures:  []ScheduleFailure{},
		Skipped:   []int64{},
	}
}

func (r *RunReport) Succeeded(id int64) {
	r.Successes = append(r.Successes, id)
}

func (r *RunReport) Failed(id int64, err error) {
	r.Failures = append(r.Failures, ScheduleFailure{ScheduleID: id, Message: err.Error()})
}

func (r *RunReport) Skip(id int64) {
	r.Skipped = append(r.Skipped, id)
}

// Processed is the number of due schedules that reached an outcome.
func (r RunReport) Processed() int {
	return len(r.Successes) + len(r.Failures) + len(r.Skipped)
}
