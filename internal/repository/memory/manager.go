// Package memory is an in-process repository.Manager. It keeps every table
// in maps guarded by a mutex and gives transactions all-or-nothing
// semantics by snapshotting the state on begin and restoring it on
// rollback. Transactions are serialised, and calls made outside a
// transaction wait until the open one has finished.
package memory

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/iliyamo/croabboard/internal/dbx"
	"github.com/iliyamo/croabboard/internal/model"
	"github.com/iliyamo/croabboard/internal/repository"
)

var errNoSQL = errors.New("memory: handle does not execute SQL")

// handle is the DBTX returned by Conn. The memory repositories never
// issue SQL, it only satisfies the Manager signatures and tells the
// repositories whether they run inside a transaction.
type handle struct{}

// txHandle is the DBTX WithTx passes to fn.
type txHandle struct{ handle }

func (handle) ExecContext(context.Context, string, ...any) (sql.Result, error) { return nil, errNoSQL }
func (handle) QueryContext(context.Context, string, ...any) (*sql.Rows, error) { return nil, errNoSQL }
func (handle) QueryRowContext(context.Context, string, ...any) *sql.Row        { return nil }

type state struct {
	seq        uint64
	users      map[uint64]model.User
	sessions   map[string]model.Session
	assets     map[uint64]model.Asset
	buttons    map[uint64]model.Button
	links      map[uint64]model.Link
	categories map[uint64]model.Category
	history    map[uint64]model.DeletedButton
	stats      map[uint64]model.ButtonStat
	audit      []model.AuditEntry
}

func newState() *state {
	return &state{
		users:      map[uint64]model.User{},
		sessions:   map[string]model.Session{},
		assets:     map[uint64]model.Asset{},
		buttons:    map[uint64]model.Button{},
		links:      map[uint64]model.Link{},
		categories: map[uint64]model.Category{},
		history:    map[uint64]model.DeletedButton{},
		stats:      map[uint64]model.ButtonStat{},
	}
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// clone copies the tables. Row values are copied; byte slices inside
// history rows are never mutated in place so sharing them is safe.
func (s *state) clone() *state {
	return &state{
		seq:        s.seq,
		users:      cloneMap(s.users),
		sessions:   cloneMap(s.sessions),
		assets:     cloneMap(s.assets),
		buttons:    cloneMap(s.buttons),
		links:      cloneMap(s.links),
		categories: cloneMap(s.categories),
		history:    cloneMap(s.history),
		stats:      cloneMap(s.stats),
		audit:      append([]model.AuditEntry(nil), s.audit...),
	}
}

func (s *state) nextID() uint64 {
	s.seq++
	return s.seq
}

// Manager is the in-memory repository.Manager.
type Manager struct {
	txMu sync.Mutex
	mu   sync.Mutex
	s    *state
}

var _ repository.Manager = (*Manager)(nil)

func NewManager() *Manager {
	return &Manager{s: newState()}
}

func (m *Manager) Conn() dbx.DBTX { return handle{} }

// WithTx runs fn and restores the pre-transaction state when fn fails
// or panics. Panics are rethrown.
func (m *Manager) WithTx(ctx context.Context, fn dbx.TxFunc) (err error) {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snap := m.s.clone()
	m.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			m.restore(snap)
			panic(p)
		}
		if err != nil {
			m.restore(snap)
		}
	}()

	return fn(ctx, txHandle{})
}

func (m *Manager) restore(snap *state) {
	m.mu.Lock()
	m.s = snap
	m.mu.Unlock()
}

// locked runs f with the state locked.
func (m *Manager) locked(f func(s *state) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return f(m.s)
}

// conn is what the repositories hold. Outside a transaction it takes
// txMu, so a rollback never drops its writes and it never reads rows a
// transaction has not committed.
type conn struct {
	m    *Manager
	inTx bool
}

func (m *Manager) bind(db dbx.DBTX) conn {
	_, inTx := db.(txHandle)
	return conn{m: m, inTx: inTx}
}

func (c conn) view(f func(s *state) error) error {
	if !c.inTx {
		c.m.txMu.Lock()
		defer c.m.txMu.Unlock()
	}
	return c.m.locked(f)
}

func (m *Manager) Users(db dbx.DBTX) repository.UserRepository          { return &userRepo{m.bind(db)} }
func (m *Manager) Sessions(db dbx.DBTX) repository.SessionRepository    { return &sessionRepo{m.bind(db)} }
func (m *Manager) Assets(db dbx.DBTX) repository.AssetRepository        { return &assetRepo{m.bind(db)} }
func (m *Manager) Buttons(db dbx.DBTX) repository.ButtonRepository      { return &buttonRepo{m.bind(db)} }
func (m *Manager) Links(db dbx.DBTX) repository.LinkRepository          { return &linkRepo{m.bind(db)} }
func (m *Manager) Categories(db dbx.DBTX) repository.CategoryRepository { return &categoryRepo{m.bind(db)} }
func (m *Manager) History(db dbx.DBTX) repository.HistoryRepository     { return &historyRepo{m.bind(db)} }
func (m *Manager) Stats(db dbx.DBTX) repository.StatsRepository         { return &statsRepo{m.bind(db)} }
func (m *Manager) Audit(db dbx.DBTX) repository.AuditRepository         { return &auditRepo{m.bind(db)} }
