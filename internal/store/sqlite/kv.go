package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// KV exposes the settings table as the dashboard's persistence port, used
// to rehydrate selections (e.g. the last viewed symbol) across restarts.
type KV struct {
	db *sql.DB
}

// KV returns the key-value view over this store's database.
func (s *Store) KV() *KV {
	return &KV{db: s.db}
}

// Load returns the stored value and whether the key was present.
func (kv *KV) Load(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := kv.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlite load setting %q: %w", key, err)
	}
	return value, true, nil
}

// Save stores the value, overwriting any previous one.
func (kv *KV) Save(ctx context.Context, key, value string) error {
	_, err := kv.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("sqlite save setting %q: %w", key, err)
	}
	return nil
}
