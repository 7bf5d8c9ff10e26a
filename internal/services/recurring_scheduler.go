package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"daromad/internal/core"
	"daromad/internal/lock"
)

// ErrRunInProgress is returned by RunOnce when another runner holds the
// run lock for the same date.
var ErrRunInProgress = errors.New("recurring run already in progress")

// RunLocker is an optional cross-process guard around a run.
type RunLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (*lock.Lease, error)
}

// RecurringSchedulerConfig holds configuration for the periodic runner
type RecurringSchedulerConfig struct {
	// Interval between runs (default: 1h). Re-running on the same date is
	// harmless, so the interval only bounds how late a due schedule fires.
	Interval time.Duration

	// Location defines the calendar "today" is taken from (default: UTC)
	Location *time.Location

	// LockTTL bounds how long a crashed runner can hold the run lock (default: 10m)
	LockTTL time.Duration
}

// DefaultRecurringSchedulerConfig returns sensible defaults
func DefaultRecurringSchedulerConfig() RecurringSchedulerConfig {
	return RecurringSchedulerConfig{
		Interval: time.Hour,
		Location: time.UTC,
		LockTTL:  10 * time.Minute,
	}
}

// RecurringScheduler triggers the processor on a ticker.
type RecurringScheduler struct {
	processor *RecurringProcessor
	locker    RunLocker
	config    RecurringSchedulerConfig
	now       func() time.Time

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRecurringScheduler creates a new runner. locker may be nil.
func NewRecurringScheduler(processor *RecurringProcessor, locker RunLocker, config RecurringSchedulerConfig) *RecurringScheduler {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}
	if config.LockTTL <= 0 {
		config.LockTTL = 10 * time.Minute
	}
	return &RecurringScheduler{
		processor: processor,
		locker:    locker,
		config:    config,
		now:       time.Now,
	}
}

// Today is the current civil date in the configured location.
func (s *RecurringScheduler) Today() core.Date {
	return core.DateOf(s.now().In(s.config.Location))
}

// RunOnce runs the engine for today.
func (s *RecurringScheduler) RunOnce(ctx context.Context) (core.RunReport, error) {
	return s.RunFor(ctx, s.Today())
}

// RunFor runs the engine for an explicit date under the run lock. Past
// dates are allowed for catch-up; a date after Today is rejected because
// the marker it would leave blocks the schedule until that date.
func (s *RecurringScheduler) RunFor(ctx context.Context, today core.Date) (core.RunReport, error) {
	if now := s.Today(); today.After(now) {
		return core.RunReport{}, fmt.Errorf("%w: %w: %s is after %s",
			core.ErrConfiguration, core.ErrFutureRunDate, today, now)
	}
	if s.locker != nil {
		lease, err := s.locker.Acquire(ctx, lockKey(today), s.config.LockTTL)
		switch {
		case errors.Is(err, lock.ErrNotAcquired):
			slog.InfoContext(ctx, "Recurring run already in progress, skipping",
				"run_date", today.String())
			return core.RunReport{}, ErrRunInProgress
		case err != nil:
			// The lock only saves work; the per-schedule transaction keeps runs correct.
			slog.WarnContext(ctx, "Run lock unavailable, continuing without it",
				"run_date", today.String(), "error", err)
		default:
			defer func() {
				if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
					slog.WarnContext(ctx, "Failed to release run lock", "error", err)
				}
			}()
		}
	}

	return s.processor.ProcessDue(ctx, today)
}

func lockKey(today core.Date) string {
	return fmt.Sprintf("daromad:recurring:%s", today)
}

// Start begins the processing loop. Returns an error if already running.
func (s *RecurringScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("recurring scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	go s.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Recurring scheduler started",
		"interval", s.config.Interval,
		"location", s.config.Location.String())

	return nil
}

// Stop signals the loop and waits for the current run. If ctx expires first
// the scheduler is still marked stopped; the in-flight run finishes on its own.
func (s *RecurringScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	doneCh := s.doneCh
	close(s.stopCh)
	s.mu.Unlock()

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Recurring scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Recurring scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *RecurringScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *RecurringScheduler) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.tick(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *RecurringScheduler) tick(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, ErrRunInProgress) {
		slog.ErrorContext(ctx, "Recurring run failed", "error", err)
	}
}
