package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/croabboard/internal/database/migrations"
)

func TestMigrate_RunsEmbeddedDir(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, Migrate(context.Background(), db))
	require.Equal(t, ".", gotDir)
}

func TestMigrate_PropagatesError(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}

	require.EqualError(t, Migrate(context.Background(), db), "boom")
}

func TestMigrations_CreateCoreTables(t *testing.T) {
	raw, err := fs.ReadFile(migrations.Migrations, "00001_init.sql")
	require.NoError(t, err)
	ddl := string(raw)

	require.True(t, strings.HasPrefix(ddl, "-- +goose Up"))
	for _, table := range []string{"users", "sessions", "file", "asset_blob", "category", "uploaded", "linked", "deleted_button", "button_stats", "audit_log"} {
		require.Contains(t, ddl, "CREATE TABLE "+table+" (")
		require.Contains(t, ddl, "DROP TABLE IF EXISTS "+table+";")
	}
	require.Contains(t, ddl, "UNIQUE KEY uq_linked_user_button (user_id, uploaded_id)")
	require.Contains(t, ddl, "REFERENCES category (id) ON DELETE RESTRICT")
}
