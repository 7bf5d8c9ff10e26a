package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"daromad/internal/amqp"
	"daromad/internal/core"
	"daromad/internal/sheets"
	"daromad/internal/storage"
)

// LedgerStore is the storage the mirror reads from and records progress in.
type LedgerStore interface {
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	GetSyncStatus(ctx context.Context, id int64) (string, error)
	GetPendingSyncTransactions(ctx context.Context, limit int) ([]storage.PendingSyncTransaction, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// CategoryPather renders a category as "Parent > Child".
type CategoryPather interface {
	FullPath(ctx context.Context, id int64) (string, error)
}

// SyncWorker mirrors ledger transactions from SQLite to Google Sheets
type SyncWorker struct {
	store      LedgerStore
	sheets     sheets.LedgerWriter
	categories CategoryPather
	batchSize  int
}

func NewSyncWorker(store LedgerStore, writer sheets.LedgerWriter, categories CategoryPather, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		store:      store,
		sheets:     writer,
		categories: categories,
		batchSize:  batchSize,
	}
}

// HandleSyncMessage processes a single transaction sync message from AMQP.
// Messages for transactions that are gone or already mirrored are dropped.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	status, err := w.store.GetSyncStatus(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Transaction no longer exists, dropping sync message", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get sync status: %w", err)
	}
	if status == storage.SyncSynced {
		slog.DebugContext(ctx, "Transaction already mirrored", "id", msg.ID, "version", msg.Version)
		return nil
	}

	return w.syncTransaction(ctx, msg.ID)
}

// ProcessPendingTransactions mirrors up to one batch of rows still pending
// or left in error by an earlier attempt.
// This is the backup path for lost or unpublished messages.
func (w *SyncWorker) ProcessPendingTransactions(ctx context.Context) error {
	_, _, err := w.sweep(ctx, w.batchSize)
	return err
}

// StartupSyncCheck runs a larger sweep when the worker starts, to recover
// from downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, failed, err := w.sweep(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync completed", "synced", synced, "errors", failed)
	return nil
}

func (w *SyncWorker) sweep(ctx context.Context, limit int) (synced, failed int, err error) {
	pending, err := w.store.GetPendingSyncTransactions(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return synced, failed, err
		}
		if err := w.syncTransaction(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction", "id", p.ID, "error", err)
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}

func (w *SyncWorker) syncTransaction(ctx context.Context, id int64) error {
	t, err := w.store.GetTransaction(ctx, id)
	if err != nil {
		w.markError(ctx, id)
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	row := sheets.LedgerRow{
		TransactionID: t.ID,
		Date:          t.Date,
		Description:   t.Description,
		Amount:        t.Amount,
		Automated:     t.IsAutomated,
	}
	if t.CategoryID != nil && w.categories != nil {
		path, err := w.categories.FullPath(ctx, *t.CategoryID)
		if err != nil {
			// Mirror the row without a category path.
			slog.WarnContext(ctx, "Could not resolve category path",
				"id", id, "category_id", *t.CategoryID, "error", err)
		}
		row.CategoryPath = path
	}

	ref, err := w.sheets.Append(ctx, row)
	if err != nil {
		w.markError(ctx, id)
		return fmt.Errorf("append to sheets: %w", err)
	}

	// The row is already in the sheet; a failed status update only risks a duplicate.
	if err := w.store.MarkSynced(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced transaction",
		"id", id,
		"sheets_ref", ref,
		"automated", t.IsAutomated,
		"amount", t.Amount.String())
	return nil
}

func (w *SyncWorker) markError(ctx context.Context, id int64) {
	if err := w.store.MarkSyncError(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", err)
	}
}
