package credential

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const kvSchema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// SQLite stores the credential in a key/value table, the way a browser keeps
// it in local storage.
type SQLite struct {
	db *sqlx.DB
}

type kvRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(kvSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize credential database: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Load implements Store.
func (s *SQLite) Load() (Credential, bool, error) {
	var row kvRow
	err := s.db.Get(&row, `SELECT key, value FROM kv WHERE key = ?`, Key)
	if errors.Is(err, sql.ErrNoRows) {
		return Credential{}, false, nil
	}
	if err != nil {
		return Credential{}, false, fmt.Errorf("failed to read credential: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(row.Value), &cred); err != nil || cred.Token == "" {
		return Credential{}, false, ErrCorrupt
	}
	return cred, true, nil
}

// Save implements Store.
func (s *SQLite) Save(cred Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	_, err = s.db.NamedExec(
		`INSERT INTO kv (key, value) VALUES (:key, :value)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		kvRow{Key: Key, Value: string(data)},
	)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// Clear implements Store. Every key is removed, not only the credential.
func (s *SQLite) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM kv`); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}
