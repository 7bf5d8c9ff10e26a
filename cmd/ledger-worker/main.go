package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"daromad/internal/backend"
	"daromad/internal/cli"
	"daromad/internal/services"
	"daromad/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap()
	logger.Info("Starting ledger-worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	sinkCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid ledger sink configuration", "error", err)
		os.Exit(1)
	}
	sink, err := backend.NewFactory(logger).CreateLedgerWriter(ctx, sinkCfg)
	if err != nil {
		logger.Error("Failed to initialize ledger sink", "error", err, "sink", sinkCfg.Type.String())
		os.Exit(1)
	}
	if sink.Cleanup != nil {
		defer sink.Cleanup()
	}

	syncWorker := worker.NewSyncWorker(repo, sink.Writer, services.NewCategoryService(repo), cfg.SyncBatchSize)

	// Catch up on anything written while no worker was running.
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Startup sync check failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if client := cli.InitAMQP(logger, cfg); client != nil {
		defer client.Close()
		g.Go(func() error {
			err := client.ConsumeTransactionSync(gctx, syncWorker.HandleSyncMessage)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	} else {
		logger.Info("Running in sweep-only mode", "interval", cfg.SyncInterval)
	}

	g.Go(func() error {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := syncWorker.ProcessPendingTransactions(gctx); err != nil {
					logger.Error("Periodic sync failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Ledger worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Ledger-worker shutdown complete")
}
