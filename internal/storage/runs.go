package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"daromad/internal/core"

	"github.com/google/uuid"
)

// RunSummary is one row of the recurring run log.
type RunSummary struct {
	ID         uuid.UUID              `json:"id"`
	RunDate    core.Date              `json:"run_date"`
	TotalDue   int                    `json:"total_due"`
	Succeeded  int                    `json:"succeeded"`
	Failed     int                    `json:"failed"`
	Skipped    int                    `json:"skipped"`
	Failures   []core.ScheduleFailure `json:"failures"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
}

func (q *Queries) InsertRun(ctx context.Context, r core.RunReport) error {
	failures, err := json.Marshal(r.Failures)
	if err != nil {
		return fmt.Errorf("encode failures: %w", err)
	}
	_, err = q.db.ExecContext(ctx,
		`INSERT INTO recurring_runs
		   (id, run_date, started_at, finished_at, total_due, succeeded, failed, skipped, failures)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID.String(), r.Date, r.StartedAt.UTC(), r.FinishedAt.UTC(), r.TotalDue,
		len(r.Successes), len(r.Failures), len(r.Skipped), string(failures))
	return err
}

func (q *Queries) ListRuns(ctx context.Context, limit int64) ([]RunSummary, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, run_date, started_at, finished_at, total_due, succeeded, failed, skipped, failures
		 FROM recurring_runs
		 ORDER BY started_at DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			s        RunSummary
			id       string
			failures string
			started  sqlTime
			finished sqlTime
		)
		if err := rows.Scan(&id, &s.RunDate, &started, &finished, &s.TotalDue,
			&s.Succeeded, &s.Failed, &s.Skipped, &failures); err != nil {
			return nil, err
		}
		s.StartedAt, s.FinishedAt = started.Time, finished.Time
		if s.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse run id: %w", err)
		}
		if err := json.Unmarshal([]byte(failures), &s.Failures); err != nil {
			return nil, fmt.Errorf("decode failures: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SaveRun appends a finished run to the run log.
func (r *SQLiteRepository) SaveRun(ctx context.Context, report core.RunReport) error {
	if err := r.queries.InsertRun(ctx, report); err != nil {
		return fmt.Errorf("save run %s: %w", report.RunID, mapErr(err))
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (r *SQLiteRepository) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	out, err := r.queries.ListRuns(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", mapErr(err))
	}
	return out, nil
}
