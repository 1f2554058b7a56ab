package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
)

// GetValue decodes the JSON value stored under key into dst.
// It reports false, with dst untouched, when the key is absent.
func GetValue(ctx context.Context, db *sql.DB, key string, dst any) (bool, error) {
	var raw string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ?`, key,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("getting %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

// SetValues stores every key/value pair as JSON in a single transaction.
// Either all values are written or none are.
func SetValues(ctx context.Context, db *sql.DB, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}

	// Encode everything before touching the database.
	keys := make([]string, 0, len(values))
	encoded := make(map[string]string, len(values))
	for key, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}
		keys = append(keys, key)
		encoded[key] = string(data)
	}
	sort.Strings(keys)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, key := range keys {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO kv (key, value) VALUES (?, ?)
			 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
			key, encoded[key],
		)
		if err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing values: %w", err)
	}
	return nil
}

// KV is a key-value store of JSON documents backed by the kv table.
type KV struct {
	DB *sql.DB
}

// NewKV returns a KV backed by db.
func NewKV(db *sql.DB) *KV {
	return &KV{DB: db}
}

// Get decodes the value stored under key into dst.
func (s *KV) Get(ctx context.Context, key string, dst any) (bool, error) {
	return GetValue(ctx, s.DB, key, dst)
}

// Set atomically stores all values.
func (s *KV) Set(ctx context.Context, values map[string]any) error {
	return SetValues(ctx, s.DB, values)
}
