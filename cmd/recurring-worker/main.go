package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"daromad/internal/cli"
	"daromad/internal/core"
	"daromad/internal/services"
)

func main() {
	once := flag.Bool("once", false, "run for today and exit")
	date := flag.String("date", "", "run for this date (YYYY-MM-DD) and exit")
	flag.Parse()

	cfg, logger := cli.Bootstrap()
	logger.Info("Starting recurring-worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	// Declared as the interface so a missing client stays a true nil.
	var publisher services.SyncPublisher
	if client := cli.InitAMQP(logger, cfg); client != nil {
		defer client.Close()
		publisher = client
	}

	var locker services.RunLocker
	if l := cli.InitRunLocker(ctx, logger, cfg.RedisURL); l != nil {
		defer l.Close()
		locker = l
	}

	processor := services.NewRecurringProcessor(repo,
		services.WithRunLog(repo),
		services.WithPublisher(publisher),
	)
	scheduler := services.NewRecurringScheduler(processor, locker, services.RecurringSchedulerConfig{
		Interval: cfg.RecurringInterval,
		Location: cfg.Location(),
		LockTTL:  cfg.RunLockTTL,
	})

	if *once || *date != "" {
		today := scheduler.Today()
		if *date != "" {
			d, err := core.ParseDate(*date)
			if err != nil {
				logger.Error("Invalid -date", "date", *date, "error", err)
				os.Exit(2)
			}
			today = d
		}

		if code := runOnce(ctx, logger, scheduler, today); code != 0 {
			os.Exit(code)
		}
		return
	}

	logger.Info("Recurring scheduler configured",
		"interval", cfg.RecurringInterval,
		"timezone", cfg.RecurringTimezone,
		"run_lock", locker != nil)

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start recurring scheduler", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn("Recurring scheduler did not stop cleanly", "error", err)
	}
	logger.Info("Recurring-worker shutdown complete")
}

type dateRunner interface {
	RunFor(ctx context.Context, today core.Date) (core.RunReport, error)
}

// runOnce executes a single run and returns the process exit code. A run
// with failed schedules still completed and exits 0; a held lock is not an
// error either.
func runOnce(ctx context.Context, logger *slog.Logger, runner dateRunner, today core.Date) int {
	report, err := runner.RunFor(ctx, today)
	switch {
	case errors.Is(err, services.ErrRunInProgress):
		logger.Warn("Another run holds the lock", "run_date", today.String())
		return 0
	case errors.Is(err, core.ErrFutureRunDate):
		logger.Error("Refusing to run for a future date", "run_date", today.String(), "error", err)
		return 2
	case err != nil:
		logger.Error("Recurring run failed", "run_date", today.String(), "error", err)
		return 1
	}

	for _, f := range report.Failures {
		logger.Error("Recurring schedule failed",
			"run_id", report.RunID.String(),
			"schedule_id", f.ScheduleID,
			"error", f.Message)
	}
	return 0
}
