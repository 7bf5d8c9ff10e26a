package storage

import (
	"context"
	"errors"
	"fmt"

	"daromad/internal/core"
)

// ExecuteSchedule materializes one schedule for today as a single unit:
// the row is re-read and re-checked under the write lock, the marker is
// advanced with a guarded update and the automated transaction is inserted.
// Either both writes commit or neither does.
//
// It returns core.ErrNotDue when the fresh row is no longer due (another
// runner claimed it, or a user edit changed it) and core.ErrDataIntegrity
// when the schedule's category cannot be resolved.
func (r *SQLiteRepository) ExecuteSchedule(ctx context.Context, scheduleID int64, today core.Date) (core.Transaction, error) {
	var created core.Transaction

	err := r.inTx(ctx, func(q *Queries) error {
		s, err := q.GetSchedule(ctx, scheduleID)
		if err != nil {
			if errors.Is(mapErr(err), core.ErrNotFound) {
				return fmt.Errorf("schedule %d was deleted: %w", scheduleID, core.ErrNotDue)
			}
			return fmt.Errorf("reload schedule: %w", mapErr(err))
		}

		if rule := core.FailedRule(s, today); rule != nil {
			return fmt.Errorf("schedule %d fails %s on %s: %w", scheduleID, rule.Name(), today, core.ErrNotDue)
		}

		if s.CategoryID == nil {
			return fmt.Errorf("schedule %d has no category: %w", scheduleID, core.ErrDataIntegrity)
		}
		category, err := q.GetCategory(ctx, *s.CategoryID)
		if err != nil {
			if errors.Is(mapErr(err), core.ErrNotFound) {
				return fmt.Errorf("category %d of schedule %d is missing: %w", *s.CategoryID, scheduleID, core.ErrDataIntegrity)
			}
			return fmt.Errorf("load category: %w", mapErr(err))
		}
		if !category.VisibleTo(s.OwnerID) {
			return fmt.Errorf("category %d is not visible to owner %d: %w", category.ID, s.OwnerID, core.ErrDataIntegrity)
		}

		n, err := q.AdvanceLastExecuted(ctx, scheduleID, today)
		if err != nil {
			return fmt.Errorf("advance last_executed: %w", mapErr(err))
		}
		if n != 1 {
			return fmt.Errorf("schedule %d already executed on %s: %w", scheduleID, today, core.ErrNotDue)
		}

		created, err = q.InsertTransaction(ctx, core.Transaction{
			OwnerID:             s.OwnerID,
			Amount:              s.Amount,
			CategoryID:          s.CategoryID,
			Date:                today,
			Description:         s.GeneratedDescription(category.Name),
			IsAutomated:         true,
			RecurringScheduleID: &s.ID,
		})
		if err != nil {
			return fmt.Errorf("insert transaction: %w", mapErr(err))
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return created, nil
}
