package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/croabboard/internal/dbx"
	"github.com/iliyamo/croabboard/internal/model"
)

// UserRepository persists users.
type UserRepository interface {
	Create(ctx context.Context, u model.User) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	UpdatePassword(ctx context.Context, id uint64, hash string) error
	UpdateButtonSize(ctx context.Context, id uint64, size int) error
	ListSummaries(ctx context.Context) ([]model.UserSummary, error)
}

// SessionRepository persists login sessions.
type SessionRepository interface {
	Create(ctx context.Context, s model.Session) error
	Get(ctx context.Context, id string) (model.Session, error)
	Revoke(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID uint64, except string) error
}

// AssetRepository persists asset rows (not their content).
type AssetRepository interface {
	Create(ctx context.Context, a model.Asset) (uint64, error)
	Get(ctx context.Context, id uint64) (model.Asset, error)
	UpdateRef(ctx context.Context, id uint64, ref, name string) error
	Delete(ctx context.Context, id uint64) error
}

// ButtonRepository persists buttons.
type ButtonRepository interface {
	Create(ctx context.Context, b model.Button) (uint64, error)
	Get(ctx context.Context, id uint64) (model.Button, error)
	GetByImageID(ctx context.Context, imageID uint64) (model.Button, error)
	GetByAssetID(ctx context.Context, assetID uint64) (model.Button, error)
	Rename(ctx context.Context, id uint64, name string) error
	SetCategory(ctx context.Context, id uint64, categoryID *uint64) error
	Delete(ctx context.Context, id uint64) error
	CountByCategory(ctx context.Context, categoryID uint64) (int, error)
}

// LinkRepository persists the per-user ordering entries.
type LinkRepository interface {
	// MaxTri returns the largest tri of the user (0 when none), locking the
	// user's entries when run inside a transaction.
	MaxTri(ctx context.Context, userID uint64) (int, error)
	Create(ctx context.Context, l model.Link) (uint64, error)
	Get(ctx context.Context, userID, buttonID uint64) (model.Link, error)
	GetForUpdate(ctx context.Context, userID, buttonID uint64) (model.Link, error)
	SetTri(ctx context.Context, userID, buttonID uint64, tri int) error
	// Delete removes the entry and reports whether one existed.
	Delete(ctx context.Context, userID, buttonID uint64) (bool, error)
	DeleteByButton(ctx context.Context, buttonID uint64) error
	CountByButton(ctx context.Context, buttonID uint64) (int, error)
	// ListViews lists the user's buttons by tri ascending. A non-empty
	// category keeps only buttons whose category name contains it,
	// ignoring case.
	ListViews(ctx context.Context, userID uint64, category string) ([]model.ButtonView, error)
}

// CategoryRepository persists categories.
type CategoryRepository interface {
	Create(ctx context.Context, c model.Category) (uint64, error)
	Get(ctx context.Context, id uint64) (model.Category, error)
	GetByName(ctx context.Context, name string) (model.Category, error)
	Update(ctx context.Context, c model.Category) error
	Delete(ctx context.Context, id uint64) error
	ListUsage(ctx context.Context) ([]model.CategoryUsage, error)
}

// HistoryRepository persists delete-history snapshots.
type HistoryRepository interface {
	Create(ctx context.Context, h model.DeletedButton) (uint64, error)
	Get(ctx context.Context, id, ownerID uint64) (model.DeletedButton, error)
	GetForUpdate(ctx context.Context, id, ownerID uint64) (model.DeletedButton, error)
	// MarkRestored flips a deleted record to restored; ErrConflict when
	// the record is already restored.
	MarkRestored(ctx context.Context, id uint64) error
	ListByOwner(ctx context.Context, ownerID uint64) ([]model.DeletedButton, error)
	ListAll(ctx context.Context) ([]model.DeletedButton, error)
}

// StatsRepository persists play counters.
type StatsRepository interface {
	RecordPlay(ctx context.Context, buttonID uint64, at time.Time) error
	MostPlayed(ctx context.Context, userID uint64, limit int) ([]model.ButtonStat, error)
	DeleteByButton(ctx context.Context, buttonID uint64) error
}

// AuditRepository persists audit log entries.
type AuditRepository interface {
	Insert(ctx context.Context, e model.AuditEntry) error
	List(ctx context.Context, limit int) ([]model.AuditEntry, error)
}

// Manager hands out repositories bound to a handle (the pool from Conn()
// or the transaction passed to a WithTx callback).
type Manager interface {
	dbx.Transactor
	Users(db dbx.DBTX) UserRepository
	Sessions(db dbx.DBTX) SessionRepository
	Assets(db dbx.DBTX) AssetRepository
	Buttons(db dbx.DBTX) ButtonRepository
	Links(db dbx.DBTX) LinkRepository
	Categories(db dbx.DBTX) CategoryRepository
	History(db dbx.DBTX) HistoryRepository
	Stats(db dbx.DBTX) StatsRepository
	Audit(db dbx.DBTX) AuditRepository
}

// SQLManager is the MySQL Manager.
type SQLManager struct {
	*dbx.SQLTransactor
}

// NewSQLManager wraps db. Transactions run at the driver's default
// isolation level (REPEATABLE READ on InnoDB).
func NewSQLManager(db *sql.DB) *SQLManager {
	return &SQLManager{SQLTransactor: dbx.NewSQLTransactor(db, nil)}
}

func (m *SQLManager) Users(db dbx.DBTX) UserRepository          { return NewUserRepo(db) }
func (m *SQLManager) Sessions(db dbx.DBTX) SessionRepository    { return NewSessionRepo(db) }
func (m *SQLManager) Assets(db dbx.DBTX) AssetRepository        { return NewAssetRepo(db) }
func (m *SQLManager) Buttons(db dbx.DBTX) ButtonRepository      { return NewButtonRepo(db) }
func (m *SQLManager) Links(db dbx.DBTX) LinkRepository          { return NewLinkRepo(db) }
func (m *SQLManager) Categories(db dbx.DBTX) CategoryRepository { return NewCategoryRepo(db) }
func (m *SQLManager) History(db dbx.DBTX) HistoryRepository     { return NewHistoryRepo(db) }
func (m *SQLManager) Stats(db dbx.DBTX) StatsRepository         { return NewStatsRepo(db) }
func (m *SQLManager) Audit(db dbx.DBTX) AuditRepository         { return NewAuditRepo(db) }
