package repository

import (
	"context"

	"github.com/iliyamo/croabboard/internal/dbx"
	"github.com/iliyamo/croabboard/internal/model"
)

// AssetRepo persists rows of the `file` table.
type AssetRepo struct{ DB dbx.DBTX }

func NewAssetRepo(db dbx.DBTX) *AssetRepo { return &AssetRepo{DB: db} }

func (r *AssetRepo) Create(ctx context.Context, a model.Asset) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO file (type, filename, display_name) VALUES (?,?,?)",
		string(a.Kind), a.Ref, a.Name)
	if err != nil {
		return 0, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func (r *AssetRepo) Get(ctx context.Context, id uint64) (model.Asset, error) {
	var (
		a    model.Asset
		kind string
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, type, filename, display_name, created_at FROM file WHERE id=? LIMIT 1", id).
		Scan(&a.ID, &kind, &a.Ref, &a.Name, &a.CreatedAt)
	a.Kind = model.AssetKind(kind)
	return a, mapErr(err)
}

// UpdateRef points the asset row at new content.
func (r *AssetRepo) UpdateRef(ctx context.Context, id uint64, ref, name string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE file SET filename=?, display_name=? WHERE id=?", ref, name, id)
	return mapErr(err)
}

// Delete removes an asset row; ErrNotFound when it does not exist.
func (r *AssetRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM file WHERE id=?", id)
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
