// Package store persists admin configuration (provider credentials and app
// settings) in a local SQLite database. The catalog aggregator treats the
// credentials as immutable once read.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/showgate/showgate/internal/xtream"
)

const (
	keyProviderURL  = "provider_url"
	keyProviderUser = "provider_user"
	keyProviderPass = "provider_pass"
)

// Store is a key/value settings table over one SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the settings database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store open: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("store init: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Setting returns the value for key, or "" when unset.
func (s *Store) Setting(key string) (string, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store get %q: %w", key, err)
	}
	return v, nil
}

// SetSetting upserts one key.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("store set %q: %w", key, err)
	}
	return nil
}

// Credentials reads the persisted provider credentials. Missing keys come
// back empty; the caller decides whether an incomplete set is an error.
func (s *Store) Credentials() (xtream.Credentials, error) {
	var c xtream.Credentials
	var err error
	if c.BaseURL, err = s.Setting(keyProviderURL); err != nil {
		return c, err
	}
	if c.Username, err = s.Setting(keyProviderUser); err != nil {
		return c, err
	}
	if c.Password, err = s.Setting(keyProviderPass); err != nil {
		return c, err
	}
	return c.Normalize(), nil
}

// SetCredentials persists the provider credentials in one transaction.
func (s *Store) SetCredentials(c xtream.Credentials) error {
	c = c.Normalize()
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store credentials: %w", err)
	}
	for key, value := range map[string]string{
		keyProviderURL:  c.BaseURL,
		keyProviderUser: c.Username,
		keyProviderPass: c.Password,
	} {
		if _, err := tx.Exec(
			`INSERT INTO settings (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
			tx.Rollback()
			return fmt.Errorf("store credentials: %w", err)
		}
	}
	return tx.Commit()
}
