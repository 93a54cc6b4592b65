// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without inspecting driver errors.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound is returned when a lookup or a conditional update matched no
// row.  Handlers translate it into 404 unless a flow needs a more
// specific answer.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a uniqueness constraint.
// The concrete error is a *ConflictError naming the offending field.
var ErrConflict = errors.New("conflict")

// ConflictError names the field whose unique constraint was violated.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string { return e.Field + " already exists" }

// Unwrap lets errors.Is(err, ErrConflict) match.
func (e *ConflictError) Unwrap() error { return ErrConflict }

// notFound maps sql.ErrNoRows to ErrNotFound and passes anything else through.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// uniqueViolation turns a duplicate-key error from MySQL (1062) or sqlite
// into a *ConflictError.  The field is the first candidate named in the
// driver message; other errors are returned unchanged.
func uniqueViolation(err error, fields ...string) error {
	if err == nil {
		return nil
	}
	var (
		myErr *mysql.MySQLError
		sqErr *sqlite.Error
		msg   string
	)
	switch {
	case errors.As(err, &myErr) && myErr.Number == 1062:
		msg = myErr.Message
	case errors.As(err, &sqErr) && (sqErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		sqErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY):
		msg = sqErr.Error()
	default:
		return err
	}
	for _, f := range fields {
		if strings.Contains(msg, f) {
			return &ConflictError{Field: f}
		}
	}
	if len(fields) > 0 {
		return &ConflictError{Field: fields[0]}
	}
	return &ConflictError{Field: "record"}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// txFunc runs fn inside a transaction, committing on success and rolling
// back on any error.
func txFunc(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
