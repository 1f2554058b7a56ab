package db

import (
	"database/sql"
	"testing"
)

// NewTestDB returns an in-memory SQLite database with the schema applied.
// It is closed when the test finishes.
func NewTestDB(tb testing.TB) *sql.DB {
	tb.Helper()

	database, err := Open(":memory:")
	if err != nil {
		tb.Fatalf("opening test database: %v", err)
	}

	if err := EnsureSchema(database); err != nil {
		database.Close()
		tb.Fatalf("creating test database schema: %v", err)
	}

	tb.Cleanup(func() { database.Close() })
	return database
}
