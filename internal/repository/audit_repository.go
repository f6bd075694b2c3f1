package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/croabboard/internal/dbx"
	"github.com/iliyamo/croabboard/internal/model"
)

// AuditRepo persists rows of `audit_log`.
type AuditRepo struct{ DB dbx.DBTX }

func NewAuditRepo(db dbx.DBTX) *AuditRepo { return &AuditRepo{DB: db} }

func (r *AuditRepo) Insert(ctx context.Context, e model.AuditEntry) error {
	var details any
	if len(e.Details) > 0 {
		details = string(e.Details)
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO audit_log (user_id, username, action, ip_address, user_agent, details, created_at) VALUES (?,?,?,?,?,?,?)",
		idArg(e.UserID), e.Username, e.Action, e.IPAddress, e.UserAgent, details, e.CreatedAt)
	return mapErr(err)
}

// List returns the newest entries first.
func (r *AuditRepo) List(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, username, action, ip_address, user_agent, details, created_at FROM audit_log ORDER BY created_at DESC, id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.AuditEntry, 0)
	for rows.Next() {
		var (
			e       model.AuditEntry
			userID  sql.NullInt64
			details sql.NullString
		)
		if err := rows.Scan(&e.ID, &userID, &e.Username, &e.Action, &e.IPAddress, &e.UserAgent, &details, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.UserID = nullID(userID)
		if details.Valid {
			e.Details = []byte(details.String)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
