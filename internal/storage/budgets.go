package storage

import (
	"context"
	"fmt"

	"daromad/internal/core"
)

const budgetColumns = `id, owner_id, category_id, amount, month, warning_threshold, is_active`

func scanBudget(row rowScanner) (core.Budget, error) {
	var b core.Budget
	err := row.Scan(&b.ID, &b.OwnerID, &b.CategoryID, &b.Amount, &b.Month, &b.WarningThreshold, &b.IsActive)
	return b, err
}

func (q *Queries) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO budgets (owner_id, category_id, amount, month, warning_threshold, is_active)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING `+budgetColumns,
		b.OwnerID, b.CategoryID, b.Amount, b.Month.FirstOfMonth(), b.WarningThreshold, b.IsActive)
	return scanBudget(row)
}

func (q *Queries) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id)
	return scanBudget(row)
}

func (q *Queries) ListBudgetsByOwner(ctx context.Context, ownerID int64, month core.Date) ([]core.Budget, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE owner_id = ? AND month = ? ORDER BY id`,
		ownerID, month.FirstOfMonth())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	created, err := r.queries.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", mapErr(err))
	}
	return created, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	b, err := r.queries.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %d: %w", id, mapErr(err))
	}
	return b, nil
}

func (r *SQLiteRepository) ListBudgetsByOwner(ctx context.Context, ownerID int64, month core.Date) ([]core.Budget, error) {
	out, err := r.queries.ListBudgetsByOwner(ctx, ownerID, month)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", mapErr(err))
	}
	return out, nil
}
