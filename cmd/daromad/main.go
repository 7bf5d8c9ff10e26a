package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"daromad/internal/cache"
	"daromad/internal/cli"
	apphttp "daromad/internal/http"
	"daromad/internal/log"
	"daromad/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, stop := cli.SignalContext(logger)
	defer stop()

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

	// The scheduler is not started here; recurring-worker owns the ticker and
	// the API only triggers explicit runs through it.
	processor := services.NewRecurringProcessor(repo,
		services.WithRunLog(repo),
		services.WithPublisher(publisher),
	)
	runner := services.NewRecurringScheduler(processor, locker, services.RecurringSchedulerConfig{
		Interval: cfg.RecurringInterval,
		Location: cfg.Location(),
		LockTTL:  cfg.RunLockTTL,
	})

	budgets := services.NewBudgetService(repo)
	ledger := services.NewTransactionService(repo, publisher)
	ledger.SetInvalidator(budgets)

	caches := cache.NewManager()
	caches.Register(budgets.StatusCache())
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Health:       repo,
		Runner:       runner,
		Runs:         repo,
		Schedules:    services.NewScheduleService(repo),
		Transactions: ledger,
		Categories:   services.NewCategoryService(repo),
		Budgets:      budgets,
		Summary:      services.NewSummaryService(repo),
		Logger:       log.New(log.Config{Handler: logger.Handler(), Component: log.ComponentHTTP}),
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
