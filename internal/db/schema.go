package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: values must always hold a JSON document.
	`CREATE TRIGGER IF NOT EXISTS kv_value_json_insert
	     BEFORE INSERT ON kv WHEN json_valid(NEW.value) = 0
	     BEGIN SELECT RAISE(ABORT, 'kv value is not valid JSON'); END`,
	`CREATE TRIGGER IF NOT EXISTS kv_value_json_update
	     BEFORE UPDATE ON kv WHEN json_valid(NEW.value) = 0
	     BEGIN SELECT RAISE(ABORT, 'kv value is not valid JSON'); END`,
}

// EnsureSchema creates all tables if they don't already exist and applies migrations.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
