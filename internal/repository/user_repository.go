package repository

import (
	"context"

	"github.com/iliyamo/croabboard/internal/dbx"
	"github.com/iliyamo/croabboard/internal/model"
)

type UserRepo struct{ DB dbx.DBTX }

func NewUserRepo(db dbx.DBTX) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, username, password, btn_size, is_admin, created_at"

// Create inserts a user and returns its ID. A taken username yields ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u model.User) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password, btn_size, is_admin) VALUES (?,?,?,?)",
		u.Username, u.PasswordHash, u.BtnSize, u.IsAdmin)
	if err != nil {
		return 0, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.BtnSize, &u.IsAdmin, &u.CreatedAt)
	return u, mapErr(err)
}

// GetByUsername fetches a user by exact (case-sensitive) username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.BtnSize, &u.IsAdmin, &u.CreatedAt)
	return u, mapErr(err)
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET password=? WHERE id=?", hash, id)
	return mapErr(err)
}

func (r *UserRepo) UpdateButtonSize(ctx context.Context, id uint64, size int) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET btn_size=? WHERE id=?", size, id)
	return mapErr(err)
}

// ListSummaries returns every user with the number of buttons linked to them.
func (r *UserRepo) ListSummaries(ctx context.Context) ([]model.UserSummary, error) {
	const q = `
SELECT u.id, u.username, u.password, u.btn_size, u.is_admin, u.created_at, COUNT(l.id)
FROM users u
LEFT JOIN linked l ON l.user_id = u.id
GROUP BY u.id, u.username, u.password, u.btn_size, u.is_admin, u.created_at
ORDER BY u.id`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.UserSummary
	for rows.Next() {
		var s model.UserSummary
		if err := rows.Scan(&s.ID, &s.Username, &s.PasswordHash, &s.BtnSize, &s.IsAdmin, &s.CreatedAt, &s.Buttons); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
