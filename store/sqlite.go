package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/autonomind/autonomind-go/pkg/api"
)

// SQLite persists the conversation cache in a single-file SQLite database.
// The schema is a plain key/value table: the message log is stored as one
// JSON array under HistoryKey and the session id as a string under
// SessionKey, so a reload restores exactly what was written.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path. Use ":memory:" for an
// ephemeral database.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS cache (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) SaveHistory(ctx context.Context, msgs []api.Message) error {
	data, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return s.put(ctx, HistoryKey, string(data))
}

func (s *SQLite) LoadHistory(ctx context.Context) ([]api.Message, error) {
	raw, ok, err := s.get(ctx, HistoryKey)
	if err != nil || !ok {
		return nil, err
	}
	var msgs []api.Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return msgs, nil
}

func (s *SQLite) ClearHistory(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache WHERE key = ?`, HistoryKey)
	if err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (s *SQLite) SaveSession(ctx context.Context, id string) error {
	return s.put(ctx, SessionKey, id)
}

func (s *SQLite) LoadSession(ctx context.Context) (string, error) {
	raw, _, err := s.get(ctx, SessionKey)
	return raw, err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM cache WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}
