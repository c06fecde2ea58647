// Package sqlite implements the repository interfaces on an embedded SQLite
// database (modernc.org/sqlite, the pure Go port, so no C toolchain is needed).
//
// WHY INTEGER TIMESTAMPS?
// SQLite has no native time type. Text timestamps written with different
// offsets ("...+02:00" vs "...Z") sort as strings, not as instants, so range
// scans over them return the wrong rows. Unix milliseconds compare correctly
// with plain integer comparison and use the created_at index.
//
// WHY A SEPARATE "day" COLUMN?
// "One entry per owner per day" is a rule about calendar days, not instants.
// The service decides which day an entry belongs to (in its configured zone)
// and the store keeps that answer as YYYY-MM-DD text. The uniqueness index is
// built on that text, so the database never has to know about time zones.
//
// WHY A PARTIAL UNIQUE INDEX?
// Entries are soft-deleted, so the table can hold several rows for the same
// owner and day: any number of deleted ones and at most one live one.
//
//	CREATE UNIQUE INDEX ... ON mood_entries(owner_id, owner_kind, day) WHERE is_active = 1
//
// Only live rows are indexed. Deleting an entry takes it out of the index,
// and the owner can log that day again. A plain UNIQUE constraint would
// block re-logging forever; no constraint at all would let two concurrent
// first writes both insert.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/mindspace.db" → file-based database (persistent)
//   - ":memory:"          → in-memory database, used by tests
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty database.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the schema. Every statement is idempotent.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			name          TEXT NOT NULL DEFAULT '',
			kind          TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			is_active     INTEGER NOT NULL DEFAULT 1,
			created_at    INTEGER NOT NULL,
			updated_at    INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating accounts table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS mood_entries (
			id         TEXT PRIMARY KEY,
			owner_id   TEXT NOT NULL,
			owner_kind TEXT NOT NULL,
			mood       TEXT NOT NULL,
			intensity  INTEGER NOT NULL CHECK (intensity BETWEEN 1 AND 10),
			notes      TEXT NOT NULL DEFAULT '',
			day        TEXT NOT NULL,
			date       INTEGER NOT NULL,
			is_active  INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_mood_entries_owner_date ON mood_entries(owner_id, date);
		CREATE INDEX IF NOT EXISTS idx_mood_entries_owner_created_at ON mood_entries(owner_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating mood_entries table: %w", err)
	}

	// See WHY A PARTIAL UNIQUE INDEX in the package doc.
	_, err = db.conn.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS ux_mood_entries_owner_day_active
			ON mood_entries(owner_id, owner_kind, day) WHERE is_active = 1;
	`)
	if err != nil {
		return fmt.Errorf("creating mood_entries daily index: %w", err)
	}

	return nil
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// isUniqueViolation reports whether err is SQLite rejecting a write on a
// UNIQUE constraint or unique index.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
