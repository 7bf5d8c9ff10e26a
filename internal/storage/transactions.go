package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"daromad/internal/core"
)

const transactionColumns = `id, owner_id, amount, category_id, date, description, is_automated,
	recurring_schedule_id, created_at`

// Sync states of the ledger mirror.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

// PendingSyncTransaction is the minimal data needed to enqueue a mirror message.
type PendingSyncTransaction struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t          core.Transaction
		categoryID sql.NullInt64
		scheduleID sql.NullInt64
		created    sqlTime
	)
	err := row.Scan(&t.ID, &t.OwnerID, &t.Amount, &categoryID, &t.Date, &t.Description,
		&t.IsAutomated, &scheduleID, &created)
	if err != nil {
		return core.Transaction{}, err
	}
	t.CategoryID = int64Ptr(categoryID)
	t.RecurringScheduleID = int64Ptr(scheduleID)
	t.CreatedAt = created.Time
	return t, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (q *Queries) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO transactions
		   (owner_id, amount, category_id, date, description, is_automated, recurring_schedule_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 RETURNING `+transactionColumns,
		t.OwnerID, t.Amount, nullInt64(t.CategoryID), t.Date, t.Description, t.IsAutomated,
		nullInt64(t.RecurringScheduleID))
	return scanTransaction(row)
}

func (q *Queries) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	return scanTransaction(row)
}

func (q *Queries) ListTransactionsByOwner(ctx context.Context, ownerID int64, from, to core.Date) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE owner_id = ? AND date BETWEEN ? AND ?
		 ORDER BY date, id`,
		ownerID, from, to)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

// ListLedgerEntries returns ownerID's transactions between from and to
// inclusive with their category name and type, newest first.
func (q *Queries) ListLedgerEntries(ctx context.Context, ownerID int64, from, to core.Date) ([]core.LedgerEntry, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT t.id, t.owner_id, t.amount, t.category_id, t.date, t.description, t.is_automated,
		        t.recurring_schedule_id, t.created_at, c.name, c.type
		 FROM transactions t
		 LEFT JOIN categories c ON c.id = t.category_id
		 WHERE t.owner_id = ? AND t.date BETWEEN ? AND ?
		 ORDER BY t.date DESC, t.created_at DESC, t.id DESC`,
		ownerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.LedgerEntry
	for rows.Next() {
		var (
			e          core.LedgerEntry
			categoryID sql.NullInt64
			scheduleID sql.NullInt64
			created    sqlTime
			name       sql.NullString
			typ        sql.NullString
		)
		err := rows.Scan(&e.ID, &e.OwnerID, &e.Amount, &categoryID, &e.Date, &e.Description,
			&e.IsAutomated, &scheduleID, &created, &name, &typ)
		if err != nil {
			return nil, err
		}
		e.CategoryID = int64Ptr(categoryID)
		e.RecurringScheduleID = int64Ptr(scheduleID)
		e.CreatedAt = created.Time
		e.CategoryName = name.String
		e.CategoryType = core.CategoryType(typ.String)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (q *Queries) ListTransactionsBySchedule(ctx context.Context, scheduleID int64) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE recurring_schedule_id = ?
		 ORDER BY date, id`,
		scheduleID)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

// CategoryAmounts returns the amounts booked by ownerID on categoryID between
// from and to inclusive. Summation happens in decimal, not in SQL.
func (q *Queries) CategoryAmounts(ctx context.Context, ownerID, categoryID int64, from, to core.Date) ([]core.Money, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT amount FROM transactions
		 WHERE owner_id = ? AND category_id = ? AND date BETWEEN ? AND ?`,
		ownerID, categoryID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Money
	for rows.Next() {
		var m core.Money
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (q *Queries) GetPendingSyncTransactions(ctx context.Context, limit int64) ([]PendingSyncTransaction, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, version, created_at FROM transactions
		 WHERE sync_status IN (?, ?)
		 ORDER BY sync_status = ?, created_at, id
		 LIMIT ?`,
		SyncPending, SyncError, SyncError, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PendingSyncTransaction
	for rows.Next() {
		var (
			p       PendingSyncTransaction
			created sqlTime
		)
		if err := rows.Scan(&p.ID, &p.Version, &created); err != nil {
			return nil, err
		}
		p.CreatedAt = created.Time
		out = append(out, p)
	}
	return out, rows.Err()
}

func (q *Queries) SetSyncStatus(ctx context.Context, id int64, status string) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE transactions
		 SET sync_status = ?,
		     synced_at = CASE WHEN ? = 'synced' THEN CURRENT_TIMESTAMP ELSE synced_at END
		 WHERE id = ?`,
		status, status, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) GetSyncStatus(ctx context.Context, id int64) (string, error) {
	var status string
	err := q.db.QueryRowContext(ctx, `SELECT sync_status FROM transactions WHERE id = ?`, id).Scan(&status)
	return status, err
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	created, err := r.queries.InsertTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", mapErr(err))
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", created.ID,
		"owner_id", created.OwnerID,
		"amount", created.Amount.String(),
		"date", created.Date.String(),
		"is_automated", created.IsAutomated)

	return created, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	t, err := r.queries.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, mapErr(err))
	}
	return t, nil
}

func (r *SQLiteRepository) ListTransactionsByOwner(ctx context.Context, ownerID int64, from, to core.Date) ([]core.Transaction, error) {
	out, err := r.queries.ListTransactionsByOwner(ctx, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", mapErr(err))
	}
	return out, nil
}

func (r *SQLiteRepository) ListLedgerEntries(ctx context.Context, ownerID int64, from, to core.Date) ([]core.LedgerEntry, error) {
	out, err := r.queries.ListLedgerEntries(ctx, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", mapErr(err))
	}
	return out, nil
}

func (r *SQLiteRepository) ListTransactionsBySchedule(ctx context.Context, scheduleID int64) ([]core.Transaction, error) {
	out, err := r.queries.ListTransactionsBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("list schedule transactions: %w", mapErr(err))
	}
	return out, nil
}

// SumCategory totals what ownerID booked on categoryID in [from, to].
func (r *SQLiteRepository) SumCategory(ctx context.Context, ownerID, categoryID int64, from, to core.Date) (core.Money, error) {
	amounts, err := r.queries.CategoryAmounts(ctx, ownerID, categoryID, from, to)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum category %d: %w", categoryID, mapErr(err))
	}
	return core.Sum(amounts), nil
}

// GetPendingSyncTransactions returns transactions not yet mirrored to the
// sheet: pending rows first, then rows whose last attempt failed.
func (r *SQLiteRepository) GetPendingSyncTransactions(ctx context.Context, limit int) ([]PendingSyncTransaction, error) {
	out, err := r.queries.GetPendingSyncTransactions(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", mapErr(err))
	}
	return out, nil
}

// MarkSynced marks a transaction as successfully mirrored
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.queries.SetSyncStatus(ctx, id, SyncSynced); err != nil {
		return fmt.Errorf("mark transaction synced: %w", mapErr(err))
	}

	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// MarkSyncError marks a transaction as having sync errors
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if _, err := r.queries.SetSyncStatus(ctx, id, SyncError); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", mapErr(err))
	}

	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

func (r *SQLiteRepository) GetSyncStatus(ctx context.Context, id int64) (string, error) {
	status, err := r.queries.GetSyncStatus(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get sync status %d: %w", id, mapErr(err))
	}
	return status, nil
}
