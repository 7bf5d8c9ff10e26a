package storage

import (
	"context"
	"database/sql"
	"fmt"

	"daromad/internal/core"
)

const scheduleColumns = `id, owner_id, category_id, amount, day_of_month, start_date, end_date,
	last_executed, is_active, note, created_at`

func scanSchedule(row rowScanner) (core.RecurringSchedule, error) {
	var (
		s            core.RecurringSchedule
		categoryID   sql.NullInt64
		endDate      core.Date
		lastExecuted core.Date
		created      sqlTime
	)
	err := row.Scan(&s.ID, &s.OwnerID, &categoryID, &s.Amount, &s.DayOfMonth, &s.StartDate,
		&endDate, &lastExecuted, &s.IsActive, &s.Note, &created)
	if err != nil {
		return core.RecurringSchedule{}, err
	}
	s.CategoryID = int64Ptr(categoryID)
	s.EndDate = datePtr(endDate)
	s.LastExecuted = datePtr(lastExecuted)
	s.CreatedAt = created.Time
	return s, nil
}

func collectSchedules(rows *sql.Rows) ([]core.RecurringSchedule, error) {
	defer rows.Close()
	var out []core.RecurringSchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (q *Queries) CreateSchedule(ctx context.Context, s core.RecurringSchedule) (core.RecurringSchedule, error) {
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO recurring_schedules
		   (owner_id, category_id, amount, day_of_month, start_date, end_date, last_executed, is_active, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING `+scheduleColumns,
		s.OwnerID, nullInt64(s.CategoryID), s.Amount, s.DayOfMonth, s.StartDate,
		nullDate(s.EndDate), nullDate(s.LastExecuted), s.IsActive, s.Note)
	return scanSchedule(row)
}

func (q *Queries) GetSchedule(ctx context.Context, id int64) (core.RecurringSchedule, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+scheduleColumns+` FROM recurring_schedules WHERE id = ?`, id)
	return scanSchedule(row)
}

// UpdateSchedule writes the user-editable fields. last_executed is owned
// by the engine and is never touched here.
func (q *Queries) UpdateSchedule(ctx context.Context, s core.RecurringSchedule) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE recurring_schedules
		 SET category_id = ?, amount = ?, day_of_month = ?, start_date = ?, end_date = ?,
		     is_active = ?, note = ?
		 WHERE id = ?`,
		nullInt64(s.CategoryID), s.Amount, s.DayOfMonth, s.StartDate, nullDate(s.EndDate),
		s.IsActive, s.Note, s.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteSchedule(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM recurring_schedules WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) ListSchedulesByOwner(ctx context.Context, ownerID int64) ([]core.RecurringSchedule, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM recurring_schedules WHERE owner_id = ? ORDER BY day_of_month, id`,
		ownerID)
	if err != nil {
		return nil, err
	}
	return collectSchedules(rows)
}

// ListDueSchedules is the storage form of the due predicate.
func (q *Queries) ListDueSchedules(ctx context.Context, today core.Date) ([]core.RecurringSchedule, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM recurring_schedules
		 WHERE is_active = 1
		   AND day_of_month = ?
		   AND start_date <= ?
		   AND (end_date IS NULL OR end_date >= ?)
		   AND (last_executed IS NULL OR last_executed < ?)
		 ORDER BY id`,
		today.Day(), today, today, today)
	if err != nil {
		return nil, err
	}
	return collectSchedules(rows)
}

// AdvanceLastExecuted moves the marker to today only if it is still behind
// today. Zero affected rows means another writer got there first.
func (q *Queries) AdvanceLastExecuted(ctx context.Context, id int64, today core.Date) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE recurring_schedules SET last_executed = ?
		 WHERE id = ? AND (last_executed IS NULL OR last_executed < ?)`,
		today, id, today)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) CreateSchedule(ctx context.Context, s core.RecurringSchedule) (core.RecurringSchedule, error) {
	created, err := r.queries.CreateSchedule(ctx, s)
	if err != nil {
		return core.RecurringSchedule{}, fmt.Errorf("create schedule: %w", mapErr(err))
	}
	return created, nil
}

func (r *SQLiteRepository) GetSchedule(ctx context.Context, id int64) (core.RecurringSchedule, error) {
	s, err := r.queries.GetSchedule(ctx, id)
	if err != nil {
		return core.RecurringSchedule{}, fmt.Errorf("get schedule %d: %w", id, mapErr(err))
	}
	return s, nil
}

// UpdateSchedule writes s's editable fields. The edit is validated against
// the marker as stored inside the same transaction, so a run that advanced
// it after the caller's read is taken into account.
func (r *SQLiteRepository) UpdateSchedule(ctx context.Context, s core.RecurringSchedule) error {
	return r.inTx(ctx, func(q *Queries) error {
		current, err := q.GetSchedule(ctx, s.ID)
		if err != nil {
			return fmt.Errorf("update schedule %d: %w", s.ID, mapErr(err))
		}
		s.LastExecuted = current.LastExecuted
		if err := s.Validate(); err != nil {
			return fmt.Errorf("update schedule %d: %w", s.ID, err)
		}

		n, err := q.UpdateSchedule(ctx, s)
		if err != nil {
			return fmt.Errorf("update schedule %d: %w", s.ID, mapErr(err))
		}
		if n == 0 {
			return fmt.Errorf("update schedule %d: %w", s.ID, core.ErrNotFound)
		}
		return nil
	})
}

// DeleteSchedule hard-deletes a schedule. Transactions it generated stay
// with their back-reference nulled.
func (r *SQLiteRepository) DeleteSchedule(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteSchedule(ctx, id)
	if err != nil {
		return fmt.Errorf("delete schedule %d: %w", id, mapErr(err))
	}
	if n == 0 {
		return fmt.Errorf("delete schedule %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) ListSchedulesByOwner(ctx context.Context, ownerID int64) ([]core.RecurringSchedule, error) {
	out, err := r.queries.ListSchedulesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", mapErr(err))
	}
	return out, nil
}

func (r *SQLiteRepository) ListDueSchedules(ctx context.Context, today core.Date) ([]core.RecurringSchedule, error) {
	out, err := r.queries.ListDueSchedules(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("list due schedules: %w", mapErr(err))
	}
	return out, nil
}
