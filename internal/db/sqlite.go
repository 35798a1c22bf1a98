package db

import (
	"fmt"
	"log/slog"

	_ "github.com/glebarez/go-sqlite"
	"github.com/jmoiron/sqlx"
)

const driverName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS games (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	result TEXT NOT NULL,
	moves INTEGER NOT NULL,
	history TEXT NOT NULL,
	score_x INTEGER NOT NULL DEFAULT 0,
	score_o INTEGER NOT NULL DEFAULT 0,
	finished_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_games_session ON games (session_id, finished_at);
`

// Open opens the sqlite database at path. Use ":memory:" for a throwaway
// database; callers then need SetMaxOpenConns(1) so every query sees the
// same in-memory instance.
func Open(path string) (*sqlx.DB, error) {
	pool, err := sqlx.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := pool.Ping(); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", path, err)
	}
	slog.Info("Connected to database", "path", path)
	return pool, nil
}

// InitializeDB enables foreign keys and creates the schema if needed.
func InitializeDB(conn *sqlx.DB) error {
	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	slog.Info("DB connection initialized and schema verified.")
	return nil
}

// OpenMemory returns an initialized in-memory database.
func OpenMemory() (*sqlx.DB, error) {
	conn, err := Open(":memory:")
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(1)
	if err := InitializeDB(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}
