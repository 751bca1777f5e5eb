package store

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite stores session-state snapshots in an embedded SQLite file. This
// is the default backend: a GM laptop at the table needs no database
// server.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the snapshot database at path.
func NewSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS session_state (
			state_key TEXT PRIMARY KEY,
			state_json TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) SaveSnapshot(key string, stateJSON []byte) error {
	query := `
		INSERT INTO session_state (state_key, state_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (state_key) DO UPDATE
		SET state_json = excluded.state_json, updated_at = excluded.updated_at;
	`
	_, err := s.db.Exec(query, key, string(stateJSON), time.Now().UTC().UnixMilli())
	return err
}

func (s *SQLite) LoadSnapshot(key string) ([]byte, bool, error) {
	var stateJSON string
	err := s.db.QueryRow("SELECT state_json FROM session_state WHERE state_key = ?", key).Scan(&stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(stateJSON), true, nil
}

func (s *SQLite) DeleteSnapshot(key string) error {
	_, err := s.db.Exec("DELETE FROM session_state WHERE state_key = ?", key)
	return err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
