package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const sqliteKVSchemaV1 = `
CREATE TABLE IF NOT EXISTS kv_entries (
    namespace TEXT NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    updated_at_ms INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (namespace, key)
);
`

// SQLiteStore persists key-value entries in a SQLite database, one row per
// (namespace, key).
type SQLiteStore struct {
	mu     sync.RWMutex
	dsn    string
	db     *sql.DB
	closed bool
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite store: empty dsn")
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	s := &SQLiteStore{
		dsn: dsn,
		db:  db,
	}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string, namespace string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ensureOpen(); err != nil {
		return "", false, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE namespace = ? AND key = ?`, namespace, key)
	var value string
	switch err := row.Scan(&value); {
	case err == nil:
		return value, true, nil
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	default:
		return "", false, errors.Wrapf(err, "sqlite store: get %s", key)
	}
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value string, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO kv_entries (namespace, key, value, updated_at_ms)
VALUES (?, ?, ?, ?)
ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at_ms = excluded.updated_at_ms`,
		namespace,
		key,
		value,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return errors.Wrapf(err, "sqlite store: set %s", key)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) migrate() error {
	if s.db == nil {
		return fmt.Errorf("sqlite store: db is nil")
	}
	if _, err := s.db.Exec(sqliteKVSchemaV1); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) ensureOpen() error {
	if s.closed {
		return ErrStoreClosed
	}
	if s.db == nil {
		return fmt.Errorf("sqlite store db is nil")
	}
	return nil
}

func SQLiteDSNForFile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("sqlite store: empty path")
	}
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path), nil
}
