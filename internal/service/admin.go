package service

import (
	"context"

	"github.com/iliyamo/croabboard/internal/model"
	"github.com/iliyamo/croabboard/internal/repository"
)

// DefaultAuditLimit bounds AuditLogs when no limit is given.
const DefaultAuditLimit = 100

// Admin serves the read-only listings of the admin surface.
type Admin struct {
	repos repository.Manager
}

func NewAdmin(repos repository.Manager) *Admin { return &Admin{repos: repos} }

// Users lists every user with the number of buttons on their board.
func (a *Admin) Users(ctx context.Context) ([]model.UserSummary, error) {
	out, err := a.repos.Users(a.repos.Conn()).ListSummaries(ctx)
	if err != nil {
		return nil, classify(err, "users")
	}
	return out, nil
}

// History lists the delete history of all users, newest first.
func (a *Admin) History(ctx context.Context) ([]model.DeletedButton, error) {
	out, err := a.repos.History(a.repos.Conn()).ListAll(ctx)
	if err != nil {
		return nil, classify(err, "history")
	}
	return out, nil
}

// AuditLogs lists the newest audit entries.
func (a *Admin) AuditLogs(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	if limit == 0 {
		limit = DefaultAuditLimit
	}
	if limit < 1 || limit > MaxMostPlayed {
		return nil, validationf("limit must be between 1 and %d", MaxMostPlayed)
	}
	out, err := a.repos.Audit(a.repos.Conn()).List(ctx, limit)
	if err != nil {
		return nil, classify(err, "audit log")
	}
	return out, nil
}
