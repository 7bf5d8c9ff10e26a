package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"daromad/internal/core"
	"daromad/internal/log"
)

// ScheduleStore is the storage the engine needs: one read of the due set
// and one atomic unit per schedule.
type ScheduleStore interface {
	ListDueSchedules(ctx context.Context, today core.Date) ([]core.RecurringSchedule, error)
	ExecuteSchedule(ctx context.Context, scheduleID int64, today core.Date) (core.Transaction, error)
}

// RunLog persists finished run reports.
type RunLog interface {
	SaveRun(ctx context.Context, report core.RunReport) error
}

// SyncPublisher announces committed transactions to the ledger mirror.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id, version int64) error
}

// RecurringProcessor materializes due recurring schedules into transactions
type RecurringProcessor struct {
	store     ScheduleStore
	runs      RunLog
	publisher SyncPublisher
	now       func() time.Time
}

type ProcessorOption func(*RecurringProcessor)

// WithRunLog records every finished run. Save failures are logged only.
func WithRunLog(l RunLog) ProcessorOption {
	return func(p *RecurringProcessor) { p.runs = l }
}

// WithPublisher publishes a sync message after each committed unit.
func WithPublisher(pub SyncPublisher) ProcessorOption {
	return func(p *RecurringProcessor) { p.publisher = pub }
}

func WithClock(now func() time.Time) ProcessorOption {
	return func(p *RecurringProcessor) { p.now = now }
}

// NewRecurringProcessor creates a new recurring schedule processor
func NewRecurringProcessor(store ScheduleStore, opts ...ProcessorOption) *RecurringProcessor {
	p := &RecurringProcessor{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessDue runs the engine once for today. Every due schedule is handled
// in its own storage transaction; a failing schedule is recorded in the
// report and the batch moves on. The returned error is non-nil only for
// problems that prevent the batch from starting (core.ErrConfiguration) or
// for context cancellation, in which case the partial report is returned.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, today core.Date) (core.RunReport, error) {
	if p.store == nil {
		return core.RunReport{}, fmt.Errorf("%w: processor not properly initialized", core.ErrConfiguration)
	}
	if err := today.Validate(); err != nil {
		return core.RunReport{}, fmt.Errorf("%w: invalid run date: %v", core.ErrConfiguration, err)
	}

	report := core.NewRunReport(today, p.now())

	due, err := p.store.ListDueSchedules(ctx, today)
	if err != nil {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		return report, fmt.Errorf("%w: load due schedules: %v", core.ErrConfiguration, err)
	}
	report.TotalDue = len(due)

	slog.InfoContext(ctx, "Processing recurring schedules",
		"run_id", report.RunID.String(),
		"run_date", today.String(),
		"total_due", report.TotalDue)

	for _, s := range due {
		if err := ctx.Err(); err != nil {
			slog.WarnContext(ctx, "Recurring run interrupted",
				"run_id", report.RunID.String(),
				"processed", report.Processed(),
				"total_due", report.TotalDue)
			report.FinishedAt = p.now()
			// Processed schedules are committed; record what happened.
			p.saveRun(context.WithoutCancel(ctx), report)
			return report, err
		}
		p.processOne(ctx, &report, s, today)
	}

	report.FinishedAt = p.now()
	p.saveRun(ctx, report)

	log.NewStructuredLogger(log.Default(log.ComponentRecurring)).
		LogRunCompleted(ctx, "Recurring schedule processing complete", report)

	return report, nil
}

func (p *RecurringProcessor) processOne(ctx context.Context, report *core.RunReport, s core.RecurringSchedule, today core.Date) {
	tx, err := p.store.ExecuteSchedule(ctx, s.ID, today)
	switch {
	case err == nil:
		report.Succeeded(s.ID)
		slog.InfoContext(ctx, "Created transaction from recurring schedule",
			"schedule_id", s.ID,
			"transaction_id", tx.ID,
			"owner_id", tx.OwnerID,
			"amount", tx.Amount.String())
		p.publish(ctx, tx)

	case errors.Is(err, core.ErrNotDue):
		report.Skip(s.ID)
		slog.InfoContext(ctx, "Recurring schedule no longer due, skipping",
			"schedule_id", s.ID,
			"reason", err.Error())

	default:
		report.Failed(s.ID, err)
		fields := log.NewFields().
			WithSchedule(s.ID, today).
			WithComponent(log.ComponentRecurring).
			WithError(err)
		fields["data_integrity"] = errors.Is(err, core.ErrDataIntegrity)
		slog.ErrorContext(ctx, "Failed to process recurring schedule", fields.ToSlice()...)
	}
}

func (p *RecurringProcessor) publish(ctx context.Context, tx core.Transaction) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishTransactionSync(ctx, tx.ID, 1); err != nil {
		slog.WarnContext(ctx, "Failed to publish sync message",
			"transaction_id", tx.ID, "error", err)
	}
}

func (p *RecurringProcessor) saveRun(ctx context.Context, report core.RunReport) {
	if p.runs == nil {
		return
	}
	if err := p.runs.SaveRun(ctx, report); err != nil {
		slog.ErrorContext(ctx, "Failed to save run report",
			"run_id", report.RunID.String(), "error", err)
	}
}
