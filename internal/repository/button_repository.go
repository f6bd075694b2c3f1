package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/croabboard/internal/dbx"
	"github.com/iliyamo/croabboard/internal/model"
)

// ButtonRepo persists rows of the `uploaded` table.
type ButtonRepo struct{ DB dbx.DBTX }

func NewButtonRepo(db dbx.DBTX) *ButtonRepo { return &ButtonRepo{DB: db} }

const buttonColumns = "id, image_id, sound_id, uploaded_by, button_name, category_id, created_at"

func scanButton(row *sql.Row) (model.Button, error) {
	var (
		b        model.Button
		soundID  sql.NullInt64
		category sql.NullInt64
	)
	err := row.Scan(&b.ID, &b.ImageID, &soundID, &b.UploadedBy, &b.Name, &category, &b.CreatedAt)
	if err != nil {
		return b, mapErr(err)
	}
	b.SoundID = nullID(soundID)
	b.CategoryID = nullID(category)
	return b, nil
}

// Create inserts a button and returns its ID.
func (r *ButtonRepo) Create(ctx context.Context, b model.Button) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO uploaded (image_id, sound_id, uploaded_by, button_name, category_id) VALUES (?,?,?,?,?)",
		b.ImageID, idArg(b.SoundID), b.UploadedBy, b.Name, idArg(b.CategoryID))
	if err != nil {
		return 0, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func (r *ButtonRepo) Get(ctx context.Context, id uint64) (model.Button, error) {
	return scanButton(r.DB.QueryRowContext(ctx,
		"SELECT "+buttonColumns+" FROM uploaded WHERE id=? LIMIT 1", id))
}

// GetByImageID returns the button whose image asset is imageID.
func (r *ButtonRepo) GetByImageID(ctx context.Context, imageID uint64) (model.Button, error) {
	return scanButton(r.DB.QueryRowContext(ctx,
		"SELECT "+buttonColumns+" FROM uploaded WHERE image_id=? LIMIT 1", imageID))
}

// GetByAssetID returns the button referencing assetID as image or sound.
func (r *ButtonRepo) GetByAssetID(ctx context.Context, assetID uint64) (model.Button, error) {
	return scanButton(r.DB.QueryRowContext(ctx,
		"SELECT "+buttonColumns+" FROM uploaded WHERE image_id=? OR sound_id=? LIMIT 1", assetID, assetID))
}

func (r *ButtonRepo) Rename(ctx context.Context, id uint64, name string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE uploaded SET button_name=? WHERE id=?", name, id)
	return mapErr(err)
}

// SetCategory sets or (with nil) clears the button's category.
func (r *ButtonRepo) SetCategory(ctx context.Context, id uint64, categoryID *uint64) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE uploaded SET category_id=? WHERE id=?", idArg(categoryID), id)
	return mapErr(err)
}

// Delete removes a button row; ErrNotFound when it does not exist.
func (r *ButtonRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM uploaded WHERE id=?", id)
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

func (r *ButtonRepo) CountByCategory(ctx context.Context, categoryID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM uploaded WHERE category_id=?", categoryID).Scan(&n)
	return n, mapErr(err)
}
