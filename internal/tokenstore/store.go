// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tokenstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// WELL-KNOWN KEYS
// =============================================================================

// The five keys the session manager persists. Logout removes all of them;
// a store holding only some of them is not an accepted end state.
const (
	KeyAccessToken   = "access_token"
	KeyAccessExpiry  = "access_token_expiration"
	KeyRefreshToken  = "refresh_token"
	KeyRefreshExpiry = "refresh_token_expiration"
	KeyUsername      = "username"
)

// AllKeys lists every key the session manager owns.
var AllKeys = []string{
	KeyAccessToken,
	KeyAccessExpiry,
	KeyRefreshToken,
	KeyRefreshExpiry,
	KeyUsername,
}

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is durable key/value persistence for session credentials.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)

	// Set stores a single value.
	Set(key, value string) error

	// SetAll stores every entry in one transaction, so a token pair is never
	// observed half-written.
	SetAll(values map[string]string) error

	// Clear removes all keys in one transaction.
	Clear() error

	// Close releases underlying resources.
	Close() error
}

// =============================================================================
// SQLITE STORE
// =============================================================================

// SQLiteStore persists values in a local SQLite database with values
// encrypted at rest.
type SQLiteStore struct {
	db  *sql.DB
	box *cipherBox
}

// Open opens (or creates) the session store in dir. The database and its
// keyfile live side by side; both are owner-readable only.
func Open(dir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	secret, salt, err := loadOrCreateKeyfile(filepath.Join(dir, "session.key"))
	if err != nil {
		return nil, err
	}
	box, err := newCipherBox(secret, salt)
	zeroBytes(secret)
	if err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "session.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	// Single connection: the store is tiny and this sidesteps SQLite write
	// contention between the session manager and the gateway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS session_store (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	if err := os.Chmod(dbPath, 0600); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set database permissions: %w", err)
	}

	return &SQLiteStore{db: db, box: box}, nil
}

// Get returns the decrypted value for key.
func (s *SQLiteStore) Get(key string) (string, bool, error) {
	var stored string
	err := s.db.QueryRow(`SELECT value FROM session_store WHERE key = ?`, key).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	plain, err := s.box.Open(stored)
	if err != nil {
		// A value we cannot decrypt (new keyfile, tampering) is treated as
		// absent rather than fatal; the session manager will re-authenticate.
		return "", false, nil
	}
	return plain, true, nil
}

// Set stores a single encrypted value.
func (s *SQLiteStore) Set(key, value string) error {
	sealed, err := s.box.Seal(value)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO session_store (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, sealed)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// SetAll stores every entry in one transaction.
func (s *SQLiteStore) SetAll(values map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for key, value := range values {
		sealed, err := s.box.Seal(value)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO session_store (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, sealed); err != nil {
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
	}

	return tx.Commit()
}

// Clear removes all keys in one transaction.
func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM session_store`); err != nil {
		return fmt.Errorf("failed to clear session store: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// MEMORY STORE
// =============================================================================

// MemoryStore is an in-memory Store for tests and anonymous sessions.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value for key.
func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set stores a single value.
func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// SetAll stores every entry atomically.
func (s *MemoryStore) SetAll(values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.values[k] = v
	}
	return nil
}

// Clear removes all keys.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
