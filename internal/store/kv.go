package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNoValue is returned by GetKV for a key that was never set or was deleted.
var ErrNoValue = errors.New("no value")

// GetKV reads one value of the key-value table.
func (db *DB) GetKV(key string) (string, error) {
	var v string
	err := db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoValue
	}
	if err != nil {
		return "", fmt.Errorf("get kv %s: %w", key, err)
	}
	return v, nil
}

// SetKV inserts or replaces a value.
func (db *DB) SetKV(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("set kv %s: %w", key, err)
	}
	return nil
}

// DeleteKV removes a key. Deleting a missing key is not an error.
func (db *DB) DeleteKV(key string) error {
	if _, err := db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete kv %s: %w", key, err)
	}
	return nil
}
