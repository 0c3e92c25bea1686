// Package credential persists the single bearer credential across runs.
// The production store is a small key-value table in the local sqlite
// state database; an in-memory store backs tests and ephemeral use.
package credential

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"
)

const tokenKey = "access_token"

// Store holds at most one credential. Empty means logged out.
type Store interface {
	// Token returns the current credential, or "" when logged out.
	Token(ctx context.Context) (string, error)
	// SetToken replaces the credential.
	SetToken(ctx context.Context, token string) error
	// Clear removes the credential, reporting whether one was present.
	// Safe to call when already cleared.
	Clear(ctx context.Context) (bool, error)
}

// SQLiteStore persists the credential in the kv table of the state
// database. The schema is applied by the migrate runner before opening.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore returns a store backed by an open state database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Token returns the persisted credential, or "" when none is stored.
func (s *SQLiteStore) Token(ctx context.Context) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, tokenKey).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// SetToken upserts the credential.
func (s *SQLiteStore) SetToken(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		tokenKey, token, time.Now().UTC().Format(time.RFC3339))
	return err
}

// Clear deletes the credential, reporting whether a row was removed.
func (s *SQLiteStore) Clear(ctx context.Context) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, tokenKey)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore returns a new in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Token returns the current credential, or "" when logged out.
func (s *MemoryStore) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

// SetToken replaces the credential.
func (s *MemoryStore) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

// Clear removes the credential, reporting whether one was present.
func (s *MemoryStore) Clear(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return false, nil
	}
	s.token = ""
	return true, nil
}
