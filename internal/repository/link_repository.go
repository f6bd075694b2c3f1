package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/croabboard/internal/dbx"
	"github.com/iliyamo/croabboard/internal/model"
)

// LinkRepo persists rows of the `linked` table, the per-user order.
type LinkRepo struct{ DB dbx.DBTX }

func NewLinkRepo(db dbx.DBTX) *LinkRepo { return &LinkRepo{DB: db} }

// MaxTri reads the user's largest tri. FOR UPDATE keeps the read-max and
// the following insert atomic when called inside a transaction.
func (r *LinkRepo) MaxTri(ctx context.Context, userID uint64) (int, error) {
	var max int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(tri), 0) FROM linked WHERE user_id=? FOR UPDATE", userID).Scan(&max)
	return max, mapErr(err)
}

// Create inserts an ordering entry. A second entry for the same
// (user, button) pair yields ErrConflict.
func (r *LinkRepo) Create(ctx context.Context, l model.Link) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO linked (user_id, uploaded_id, tri) VALUES (?,?,?)",
		l.UserID, l.ButtonID, l.Tri)
	if err != nil {
		return 0, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

const linkSelect = "SELECT id, user_id, uploaded_id, tri FROM linked WHERE user_id=? AND uploaded_id=? LIMIT 1"

func (r *LinkRepo) Get(ctx context.Context, userID, buttonID uint64) (model.Link, error) {
	var l model.Link
	err := r.DB.QueryRowContext(ctx, linkSelect, userID, buttonID).
		Scan(&l.ID, &l.UserID, &l.ButtonID, &l.Tri)
	return l, mapErr(err)
}

// GetForUpdate is Get with a row lock, used to validate a reposition
// batch before any entry is written.
func (r *LinkRepo) GetForUpdate(ctx context.Context, userID, buttonID uint64) (model.Link, error) {
	var l model.Link
	err := r.DB.QueryRowContext(ctx, linkSelect+" FOR UPDATE", userID, buttonID).
		Scan(&l.ID, &l.UserID, &l.ButtonID, &l.Tri)
	return l, mapErr(err)
}

// SetTri moves an entry. MySQL reports zero affected rows when the value
// is unchanged, so existence is checked by the caller beforehand.
func (r *LinkRepo) SetTri(ctx context.Context, userID, buttonID uint64, tri int) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE linked SET tri=? WHERE user_id=? AND uploaded_id=?", tri, userID, buttonID)
	return mapErr(err)
}

func (r *LinkRepo) Delete(ctx context.Context, userID, buttonID uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM linked WHERE user_id=? AND uploaded_id=?", userID, buttonID)
	if err != nil {
		return false, mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteByButton removes every user's entry for the button.
func (r *LinkRepo) DeleteByButton(ctx context.Context, buttonID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM linked WHERE uploaded_id=?", buttonID)
	return mapErr(err)
}

func (r *LinkRepo) CountByButton(ctx context.Context, buttonID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM linked WHERE uploaded_id=?", buttonID).Scan(&n)
	return n, mapErr(err)
}

// ListViews lists the user's buttons ordered by tri, joined with asset
// references and category.
func (r *LinkRepo) ListViews(ctx context.Context, userID uint64, category string) ([]model.ButtonView, error) {
	q := `
SELECT u.id, u.image_id, u.sound_id, fi.filename, COALESCE(fs.filename, ''), u.button_name, l.tri,
       COALESCE(c.name, ''), COALESCE(c.color, '')
FROM linked l
JOIN uploaded u ON u.id = l.uploaded_id
JOIN file fi ON fi.id = u.image_id
LEFT JOIN file fs ON fs.id = u.sound_id
LEFT JOIN category c ON c.id = u.category_id
WHERE l.user_id = ?`
	args := []any{userID}
	if category != "" {
		q += ` AND LOWER(c.name) LIKE ? ESCAPE '\\'`
		args = append(args, "%"+escapeLike(strings.ToLower(category))+"%")
	}
	q += ` ORDER BY l.tri ASC, l.id ASC`

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.ButtonView, 0)
	for rows.Next() {
		var (
			v       model.ButtonView
			soundID sql.NullInt64
		)
		if err := rows.Scan(&v.ID, &v.ImageID, &soundID, &v.ImageRef, &v.SoundRef, &v.Name, &v.Tri,
			&v.Category, &v.CategoryColor); err != nil {
			return nil, err
		}
		v.SoundID = nullID(soundID)
		out = append(out, v)
	}
	return out, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralises LIKE wildcards in user input.
func escapeLike(s string) string { return likeEscaper.Replace(s) }
