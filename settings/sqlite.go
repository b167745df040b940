package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS adapter_settings (
  name TEXT PRIMARY KEY,
  data TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`

// SQLiteStore keeps options in a single table. The pool is limited to one
// connection, so transactions on the same database are serialized.
type SQLiteStore struct {
	db    *sql.DB
	local localFormatters
}

// OpenSQLite opens (and creates when needed) the database at path.
// ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: sqlite", ErrMissingPath)
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("settings: create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("settings: open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("settings: migrate sqlite %s: %w", path, err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, name string) (Options, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM adapter_settings WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Options{}, false, nil
	}
	if err != nil {
		return Options{}, false, fmt.Errorf("settings: sqlite get %q: %w", name, err)
	}
	o, err := s.local.decode(name, []byte(data))
	if err != nil {
		return Options{}, false, err
	}
	return o, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, name string, o Options) error {
	data, err := encode(o)
	if err != nil {
		return err
	}
	if err := upsert(ctx, s.db, name, data); err != nil {
		return err
	}
	s.local.commit(name, o)
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, name string, data []byte) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO adapter_settings(name, data, updated_at) VALUES(?, ?, ?)
ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		name, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("settings: sqlite upsert %q: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, name string, fn func(prev Options) Options) (Options, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Options{}, fmt.Errorf("settings: sqlite begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	prev := Options{}
	var data string
	err = tx.QueryRowContext(ctx, `SELECT data FROM adapter_settings WHERE name = ?`, name).Scan(&data)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return Options{}, fmt.Errorf("settings: sqlite get %q: %w", name, err)
	default:
		if prev, err = s.local.decode(name, []byte(data)); err != nil {
			return Options{}, err
		}
	}

	next := fn(prev)
	b, err := encode(next)
	if err != nil {
		return Options{}, err
	}
	if err := upsert(ctx, tx, name, b); err != nil {
		return Options{}, err
	}
	if err := tx.Commit(); err != nil {
		return Options{}, fmt.Errorf("settings: sqlite commit %q: %w", name, err)
	}
	s.local.commit(name, next)
	return next, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM adapter_settings WHERE name = ?`, name); err != nil {
		return fmt.Errorf("settings: sqlite delete %q: %w", name, err)
	}
	s.local.forget(name)
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
