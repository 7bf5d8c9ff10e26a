package storage

import (
	"context"
	"database/sql"
	"fmt"

	"daromad/internal/core"
)

const categoryColumns = `id, owner_id, name, type, parent_id, is_active, created_at`

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c        core.Category
		ownerID  sql.NullInt64
		parentID sql.NullInt64
		created  sqlTime
	)
	if err := row.Scan(&c.ID, &ownerID, &c.Name, &c.Type, &parentID, &c.IsActive, &created); err != nil {
		return core.Category{}, err
	}
	c.OwnerID = int64Ptr(ownerID)
	c.ParentID = int64Ptr(parentID)
	c.CreatedAt = created.Time
	return c, nil
}

func (q *Queries) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO categories (owner_id, name, type, parent_id, is_active)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING `+categoryColumns,
		nullInt64(c.OwnerID), c.Name, string(c.Type), nullInt64(c.ParentID), c.IsActive)
	return scanCategory(row)
}

func (q *Queries) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	return scanCategory(row)
}

func (q *Queries) UpdateCategory(ctx context.Context, c core.Category) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, parent_id = ?, is_active = ? WHERE id = ?`,
		c.Name, nullInt64(c.ParentID), c.IsActive, c.ID)
	return err
}

func (q *Queries) DeleteCategory(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListVisibleCategories returns global categories plus those owned by ownerID.
func (q *Queries) ListVisibleCategories(ctx context.Context, ownerID int64) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories
		 WHERE owner_id IS NULL OR owner_id = ?
		 ORDER BY type, name, id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	created, err := r.queries.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", mapErr(err))
	}
	return created, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	c, err := r.queries.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, mapErr(err))
	}
	return c, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	if err := r.queries.UpdateCategory(ctx, c); err != nil {
		return fmt.Errorf("update category %d: %w", c.ID, mapErr(err))
	}
	return nil
}

// DeleteCategory removes a category together with its subtree and budgets.
// Transactions and schedules pointing at any removed category keep existing
// with a null category.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, mapErr(err))
	}
	if n == 0 {
		return fmt.Errorf("delete category %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) ListVisibleCategories(ctx context.Context, ownerID int64) ([]core.Category, error) {
	cats, err := r.queries.ListVisibleCategories(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", mapErr(err))
	}
	return cats, nil
}
