package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

// Setting keys.
const (
	settingJWTSecret    = "jwt_secret"
	settingOperatorHash = "operator_password_hash"
)

// GetJWTSecret retrieves the JWT secret from the database.
// If no secret exists, it generates one, stores it, and returns it.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	return getOrCreateSetting(ctx, db, settingJWTSecret, hex.EncodeToString(buf))
}

// getOrCreateSetting stores candidate under key unless a value already exists,
// then returns the stored value. INSERT OR IGNORE + re-SELECT avoids a race on
// concurrent startup.
func getOrCreateSetting(ctx context.Context, db *sql.DB, key, candidate string) (string, error) {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		key, candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing %s: %w", key, err)
	}

	var value string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("querying %s: %w", key, err)
	}
	return value, nil
}

// SetOperatorPasswordHash stores the bcrypt hash of the operator password.
func SetOperatorPasswordHash(ctx context.Context, db *sql.DB, hash string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		settingOperatorHash, hash,
	)
	if err != nil {
		return fmt.Errorf("storing operator password: %w", err)
	}
	return nil
}

// GetOperatorPasswordHash returns the stored operator password hash, or ""
// when none has been set yet.
func GetOperatorPasswordHash(ctx context.Context, db *sql.DB) (string, error) {
	var hash string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, settingOperatorHash,
	).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying operator password: %w", err)
	}
	return hash, nil
}
