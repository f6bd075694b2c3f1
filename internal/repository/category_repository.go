package repository

import (
	"context"

	"github.com/iliyamo/croabboard/internal/dbx"
	"github.com/iliyamo/croabboard/internal/model"
)

// CategoryRepo persists rows of the `category` table. Names are unique
// and compared case-sensitively (utf8mb4_bin collation).
type CategoryRepo struct{ DB dbx.DBTX }

func NewCategoryRepo(db dbx.DBTX) *CategoryRepo { return &CategoryRepo{DB: db} }

func (r *CategoryRepo) Create(ctx context.Context, c model.Category) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO category (name, color) VALUES (?,?)", c.Name, c.Color)
	if err != nil {
		return 0, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func (r *CategoryRepo) Get(ctx context.Context, id uint64) (model.Category, error) {
	var c model.Category
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, color FROM category WHERE id=? LIMIT 1", id).Scan(&c.ID, &c.Name, &c.Color)
	return c, mapErr(err)
}

func (r *CategoryRepo) GetByName(ctx context.Context, name string) (model.Category, error) {
	var c model.Category
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, color FROM category WHERE name=? LIMIT 1", name).Scan(&c.ID, &c.Name, &c.Color)
	return c, mapErr(err)
}

// Update renames and recolours a category. A name taken by another
// category yields ErrConflict.
func (r *CategoryRepo) Update(ctx context.Context, c model.Category) error {
	if _, err := r.Get(ctx, c.ID); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx, "UPDATE category SET name=?, color=? WHERE id=?", c.Name, c.Color, c.ID)
	return mapErr(err)
}

// Delete removes a category. The RESTRICT foreign key from `uploaded`
// turns a delete of a referenced category into ErrConflict.
func (r *CategoryRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM category WHERE id=?", id)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsage lists categories by name with their button counts.
func (r *CategoryRepo) ListUsage(ctx context.Context) ([]model.CategoryUsage, error) {
	const q = `
SELECT c.id, c.name, c.color, COUNT(u.id)
FROM category c
LEFT JOIN uploaded u ON u.category_id = c.id
GROUP BY c.id, c.name, c.color
ORDER BY c.name`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.CategoryUsage, 0)
	for rows.Next() {
		var cu model.CategoryUsage
		if err := rows.Scan(&cu.ID, &cu.Name, &cu.Color, &cu.Buttons); err != nil {
			return nil, err
		}
		out = append(out, cu)
	}
	return out, rows.Err()
}
