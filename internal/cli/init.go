// Package cli provides common process bootstrap shared by the commands
// under cmd/.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"daromad/internal/amqp"
	"daromad/internal/config"
	"daromad/internal/lock"
	"daromad/internal/log"
	"daromad/internal/storage"
)

// SetupLogger installs the default text logger at the given level
// (debug, info, warn or error; anything else means info).
func SetupLogger(level string) *slog.Logger {
	lvl, err := config.ParseLogLevel(level)
	logger := log.New(log.Config{Level: lvl})
	log.SetDefault(logger)
	if err != nil {
		slog.Warn("Unknown log level, using info", "log_level", level)
	}
	return logger.Logger
}

// LoadEnvFile loads the .env file for local development.
// A missing file is not an error.
func LoadEnvFile() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Could not load .env file", "error", err)
	}
}

// Bootstrap loads .env, installs the logger and validates configuration.
// It exits the process when configuration is invalid.
func Bootstrap() (*config.Config, *slog.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg, logger
}

// InitSQLite opens the SQLite repository and applies migrations.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *slog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down")
	}()
	return ctx, stop
}

// InitAMQP connects the sync publisher. It returns nil when AMQP_URL is
// empty or the broker is unreachable; transactions then stay pending until
// the ledger worker's sweep picks them up.
func InitAMQP(logger *slog.Logger, cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled, transactions will be synced by the periodic sweep")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without publisher", "error", err)
		return nil
	}
	logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// InitRunLocker connects the cross-process run lock. It returns nil when
// REDIS_URL is empty or Redis is unreachable.
func InitRunLocker(ctx context.Context, logger *slog.Logger, url string) *lock.RedisLocker {
	if url == "" {
		return nil
	}
	locker, err := lock.NewRedisLocker(ctx, url)
	if err != nil {
		logger.Warn("Failed to connect run lock, continuing without it", "error", err)
		return nil
	}
	logger.Info("Run lock connected")
	return locker
}
