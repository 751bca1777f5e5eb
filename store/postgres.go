package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores session-state snapshots in a PostgreSQL table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database and creates the session_state table
// if it does not exist.
func NewPostgres(connStr string) (*Postgres, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS session_state (
			state_key TEXT PRIMARY KEY,
			state_json JSONB NOT NULL,
			updated_at TIMESTAMPTZ DEFAULT NOW()
		);
	`
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

func (s *Postgres) SaveSnapshot(key string, stateJSON []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO session_state (state_key, state_json, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (state_key) DO UPDATE
		SET state_json = EXCLUDED.state_json, updated_at = NOW();
	`
	_, err := s.pool.Exec(ctx, query, key, stateJSON)
	return err
}

func (s *Postgres) LoadSnapshot(key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var stateJSON []byte
	err := s.pool.QueryRow(ctx, "SELECT state_json FROM session_state WHERE state_key = $1", key).Scan(&stateJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return stateJSON, true, nil
}

func (s *Postgres) DeleteSnapshot(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.pool.Exec(ctx, "DELETE FROM session_state WHERE state_key = $1", key)
	return err
}

// Close shuts down the connection pool.
func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}
