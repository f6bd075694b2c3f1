package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/croabboard/internal/dbx"
	"github.com/iliyamo/croabboard/internal/model"
)

// HistoryRepo persists rows of the `deleted_button` table.
type HistoryRepo struct{ DB dbx.DBTX }

func NewHistoryRepo(db dbx.DBTX) *HistoryRepo { return &HistoryRepo{DB: db} }

// Create records a snapshot with status deleted and returns its ID.
func (r *HistoryRepo) Create(ctx context.Context, h model.DeletedButton) (uint64, error) {
	const q = `
INSERT INTO deleted_button
  (owner_id, button_name, category_name, image_filename, image_name, image_content,
   sound_filename, sound_name, sound_content, board_max_tri, delete_date, status)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := r.DB.ExecContext(ctx, q,
		h.OwnerID, h.Name, h.CategoryName, h.ImageRef, h.ImageName, h.ImageContent,
		h.SoundRef, h.SoundName, h.SoundContent, h.BoardMaxTri, h.DeletedAt, string(model.HistoryDeleted))
	if err != nil {
		return 0, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

const historyFull = `
SELECT id, owner_id, button_name, category_name, image_filename, image_name, image_content,
       sound_filename, sound_name, sound_content, board_max_tri, delete_date, status
FROM deleted_button
WHERE id=? AND owner_id=?
LIMIT 1`

func (r *HistoryRepo) get(ctx context.Context, q string, id, ownerID uint64) (model.DeletedButton, error) {
	var (
		h      model.DeletedButton
		status string
	)
	err := r.DB.QueryRowContext(ctx, q, id, ownerID).Scan(
		&h.ID, &h.OwnerID, &h.Name, &h.CategoryName, &h.ImageRef, &h.ImageName, &h.ImageContent,
		&h.SoundRef, &h.SoundName, &h.SoundContent, &h.BoardMaxTri, &h.DeletedAt, &status)
	h.Status = model.HistoryStatus(status)
	return h, mapErr(err)
}

// Get returns the snapshot, content included, when owned by ownerID.
func (r *HistoryRepo) Get(ctx context.Context, id, ownerID uint64) (model.DeletedButton, error) {
	return r.get(ctx, historyFull, id, ownerID)
}

// GetForUpdate is Get with a row lock so the status check and the
// flip to restored happen atomically.
func (r *HistoryRepo) GetForUpdate(ctx context.Context, id, ownerID uint64) (model.DeletedButton, error) {
	return r.get(ctx, historyFull+" FOR UPDATE", id, ownerID)
}

func (r *HistoryRepo) MarkRestored(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE deleted_button SET status=? WHERE id=? AND status=?",
		string(model.HistoryRestored), id, string(model.HistoryDeleted))
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

const historyList = `
SELECT id, owner_id, button_name, category_name, image_filename, image_name,
       sound_filename, sound_name, delete_date, status
FROM deleted_button`

// ListByOwner lists the owner's snapshots newest first, without content.
func (r *HistoryRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.DeletedButton, error) {
	rows, err := r.DB.QueryContext(ctx, historyList+" WHERE owner_id=? ORDER BY delete_date DESC, id DESC", ownerID)
	if err != nil {
		return nil, err
	}
	return scanHistory(rows)
}

// ListAll lists every snapshot newest first, without content.
func (r *HistoryRepo) ListAll(ctx context.Context) ([]model.DeletedButton, error) {
	rows, err := r.DB.QueryContext(ctx, historyList+" ORDER BY delete_date DESC, id DESC")
	if err != nil {
		return nil, err
	}
	return scanHistory(rows)
}

func scanHistory(rows *sql.Rows) ([]model.DeletedButton, error) {
	defer rows.Close()
	out := make([]model.DeletedButton, 0)
	for rows.Next() {
		var (
			h      model.DeletedButton
			status string
		)
		if err := rows.Scan(&h.ID, &h.OwnerID, &h.Name, &h.CategoryName, &h.ImageRef, &h.ImageName,
			&h.SoundRef, &h.SoundName, &h.DeletedAt, &status); err != nil {
			return nil, err
		}
		h.Status = model.HistoryStatus(status)
		out = append(out, h)
	}
	return out, rows.Err()
}
