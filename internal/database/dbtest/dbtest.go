// Package dbtest opens a migrated in-memory sqlite database for tests.
package dbtest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"

	"github.com/iliyamo/petcare-booking/internal/database"
)

// New returns a fresh, isolated database that is closed when the test ends.
func New(tb testing.TB) *sql.DB {
	tb.Helper()
	db, err := database.Open(database.Options{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory",
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(context.Background(), db, "sqlite"); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}
