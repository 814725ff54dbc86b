package repositories

import (
	"database/sql"
	"fmt"
	"time"
)

// Setting keys used by the session.
const (
	SettingToken = "token"
	SettingCSRF  = "csrf"
)

// SettingRepository stores string settings by key.
type SettingRepository struct {
	db *sql.DB
}

// NewSettingRepository creates a new [SettingRepository] with the given database connection
func NewSettingRepository(db *sql.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get returns the value for key, or "" when unset.
func (r *SettingRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query setting %s: %w", key, err)
	}
	return value, nil
}

// Set upserts key. An empty value deletes it.
func (r *SettingRepository) Set(key, value string) error {
	if value == "" {
		return r.Delete(key)
	}

	query := `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to store setting %s: %w", key, err)
	}
	return nil
}

// Delete removes key; missing keys are not an error.
func (r *SettingRepository) Delete(keys ...string) error {
	for _, key := range keys {
		if _, err := r.db.Exec("DELETE FROM settings WHERE key = ?", key); err != nil {
			return fmt.Errorf("failed to delete setting %s: %w", key, err)
		}
	}
	return nil
}
