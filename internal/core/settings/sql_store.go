package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLStore keeps settings in a database/sql connection (SQLite by default)
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a store on an already migrated database
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Get returns the value stored under namespace/key
func (s *SQLStore) Get(ctx context.Context, namespace, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE namespace = ? AND name = ?`,
		namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s/%s: %w", namespace, key, err)
	}
	return value, nil
}

// Set inserts or replaces the value under namespace/key
func (s *SQLStore) Set(ctx context.Context, namespace, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (namespace, name, value, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (namespace, name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		namespace, key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write setting %s/%s: %w", namespace, key, err)
	}
	return nil
}
