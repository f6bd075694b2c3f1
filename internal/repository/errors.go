// Package repository defines the persistence contracts of the soundboard
// and their MySQL implementation. Repositories are bound to a dbx.DBTX
// handle so the same code runs on the pool or inside a transaction.
//
// Sentinel errors allow higher layers to distinguish failure scenarios
// without inspecting driver errors: ErrNotFound when a referenced row
// does not exist, ErrConflict when a unique or foreign-key constraint
// (or a state check) rejects the write.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a unique constraint, is
// blocked by dependent rows, or hits an invalid state transition.
var ErrConflict = errors.New("conflict")

// MySQL server error numbers mapped onto the sentinels.
const (
	errDupEntry        = 1062
	errRowIsReferenced = 1451
	errNoReferencedRow = 1452
)

// mapErr translates database errors into the package sentinels. Errors it
// does not recognise are returned unchanged.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case errDupEntry, errRowIsReferenced:
			return fmt.Errorf("%w: %s", ErrConflict, me.Message)
		case errNoReferencedRow:
			return fmt.Errorf("%w: %s", ErrNotFound, me.Message)
		}
	}
	return err
}

// nullID converts a nullable id column into a pointer.
func nullID(n sql.NullInt64) *uint64 {
	if !n.Valid {
		return nil
	}
	v := uint64(n.Int64)
	return &v
}

// idArg converts an optional id into a driver argument (NULL when nil).
func idArg(id *uint64) any {
	if id == nil {
		return nil
	}
	return *id
}
