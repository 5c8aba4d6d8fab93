// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// the SQLite C code — works everywhere Go works.
//
// WHERE THE INTEGRITY LIVES:
// The voting invariants are enforced here with SQL, not in application code:
//
//   - one vote per user: UPDATE ... WHERE has_voted = 0, RowsAffected check
//   - tally increments: UPDATE candidates SET votes = votes + delta
//   - ballot numbering: UPDATE counters ... RETURNING inside a transaction
//   - unique emails: UNIQUE constraint on users(email)
//
// Read-then-write versions of any of these would race under concurrent
// requests; every one of them is a single atomic statement instead.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
// The server owns the lifecycle: New at startup, Close on shutdown.
type DB struct {
	conn *sql.DB
}

// New creates a SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/kuvote.db" → file-based database (persistent)
//   - ":memory:"       → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One connection for the whole pool. SQLite serializes writers anyway,
	// and with ":memory:" every pool connection would otherwise get its own
	// empty database.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode lets reads proceed while a write is in flight.
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

// The per-table stores share the DB's single connection pool. One store type
// per repository interface keeps the method sets from colliding (users and
// candidates both have a Create).

// Users returns the user store backed by this database.
func (db *DB) Users() *UserStore {
	return &UserStore{conn: db.conn}
}

// Candidates returns the candidate store backed by this database.
func (db *DB) Candidates() *CandidateStore {
	return &CandidateStore{conn: db.conn}
}

// AuditLog returns the audit-log store backed by this database.
func (db *DB) AuditLog() *AuditStore {
	return &AuditStore{conn: db.conn}
}

// Stats returns the stats reader backed by this database.
func (db *DB) Stats() *StatsStore {
	return &StatsStore{conn: db.conn}
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this safe to
// run on every startup.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id                  TEXT PRIMARY KEY,
			email               TEXT NOT NULL UNIQUE,
			faculty             TEXT NOT NULL,
			login_password_hash TEXT NOT NULL,
			vote_pin_hash       TEXT NOT NULL,
			is_verified         INTEGER NOT NULL DEFAULT 0,
			has_voted           INTEGER NOT NULL DEFAULT 0,
			voted_candidate     INTEGER,
			created_at          DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// Partial index over unverified accounts only — the expiry sweep scans
	// exactly these rows by created_at.
	_, err = db.conn.Exec(`
		CREATE INDEX IF NOT EXISTS idx_users_unverified_created
			ON users(created_at) WHERE is_verified = 0;
	`)
	if err != nil {
		return fmt.Errorf("creating unverified-users index: %w", err)
	}

	// candidate_id is the ballot number from the counters table, NOT an
	// autoincrement rowid — the sequence must stay dense and app-controlled.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS candidates (
			candidate_id INTEGER PRIMARY KEY,
			name         TEXT NOT NULL,
			faculty      TEXT NOT NULL,
			position     TEXT NOT NULL,
			policies     TEXT NOT NULL DEFAULT '[]',
			votes        INTEGER NOT NULL DEFAULT 0,
			created_at   DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating candidates table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS counters (
			name TEXT PRIMARY KEY,
			seq  INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating counters table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS audit_log (
			id          TEXT PRIMARY KEY,
			action      TEXT NOT NULL,
			actor_email TEXT NOT NULL DEFAULT '',
			source_ip   TEXT NOT NULL DEFAULT '',
			client      TEXT NOT NULL DEFAULT '',
			detail      TEXT NOT NULL DEFAULT '',
			created_at  DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_audit_log_created_at ON audit_log(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating audit_log table: %w", err)
	}

	return nil
}
