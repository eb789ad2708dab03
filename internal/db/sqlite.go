package db

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

const (
	// DriverCGO is mattn/go-sqlite3.
	DriverCGO = "sqlite3"
	// DriverPure is modernc.org/sqlite.
	DriverPure = "sqlite"

	MemoryPath = ":memory:"
)

const schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT,
    email TEXT UNIQUE,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS blogs (
    id TEXT PRIMARY KEY,
    author_id TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    content BLOB,
    content_hash TEXT,
    tags TEXT NOT NULL DEFAULT '[]',
    status TEXT NOT NULL DEFAULT 'draft',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_blogs_author_updated ON blogs (author_id, updated_at DESC);`

type SQLite struct {
	driver string
	path   string
	conn   *sql.DB
}

func NewSQLite(driver, path string) *SQLite {
	if driver == "" {
		driver = DriverCGO
	}
	if path == "" {
		path = MemoryPath
	}
	return &SQLite{
		driver: driver,
		path:   path,
	}
}

func (s *SQLite) InitDB() error {
	conn, err := sql.Open(s.driver, s.path)
	if err != nil {
		return errors.Wrapf(err, "open %s database at %s", s.driver, s.path)
	}

	// Every connection to :memory: is its own database.
	if s.path == MemoryPath {
		conn.SetMaxOpenConns(1)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return errors.Wrap(err, "create schema")
	}

	s.conn = conn
	dbLogger.Info().Str("driver", s.driver).Str("path", s.path).Msg("Database initialized")
	return nil
}

func (s *SQLite) Get() *sql.DB {
	return s.conn
}

func (s *SQLite) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *SQLite) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	dbLogger.Debug().Str("query", query).Msg("Query")
	return s.conn.QueryContext(ctx, query, args...)
}

func (s *SQLite) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	dbLogger.Debug().Str("query", query).Msg("QueryRow")
	return s.conn.QueryRowContext(ctx, query, args...)
}

func (s *SQLite) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	dbLogger.Debug().Str("query", query).Msg("Exec")
	return s.conn.ExecContext(ctx, query, args...)
}
