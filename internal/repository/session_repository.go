package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/croabboard/internal/dbx"
	"github.com/iliyamo/croabboard/internal/model"
)

// SessionRepo persists login sessions. The session id is the only secret
// part of a session row; tokens carry it signed.
type SessionRepo struct{ DB dbx.DBTX }

func NewSessionRepo(db dbx.DBTX) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a session row.
func (r *SessionRepo) Create(ctx context.Context, s model.Session) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, expires_at) VALUES (?,?,?)",
		s.ID, s.UserID, s.ExpiresAt)
	return mapErr(err)
}

// Get returns the session row whatever its state; callers check Active.
func (r *SessionRepo) Get(ctx context.Context, id string) (model.Session, error) {
	var (
		s         model.Session
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, expires_at, revoked_at, created_at FROM sessions WHERE id=? LIMIT 1",
		id).Scan(&s.ID, &s.UserID, &s.ExpiresAt, &revokedAt, &s.CreatedAt)
	if err != nil {
		return s, mapErr(err)
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		s.RevokedAt = &t
	}
	return s, nil
}

// Revoke marks a session as revoked.
func (r *SessionRepo) Revoke(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=UTC_TIMESTAMP() WHERE id=? AND revoked_at IS NULL", id)
	return mapErr(err)
}

// RevokeAllForUser revokes the user's active sessions except the one
// with id except (which may be empty).
func (r *SessionRepo) RevokeAllForUser(ctx context.Context, userID uint64, except string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND id<>? AND revoked_at IS NULL",
		userID, except)
	return mapErr(err)
}
