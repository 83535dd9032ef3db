package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	// Postgres driver, selected by a postgres:// DSN.
	_ "github.com/lib/pq"
	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store owns the database handle and hands out repositories.
type Store struct {
	db      *sql.DB
	dialect string
	seq     *sequenceCounter

	// now is the clock used for timestamps and expiry checks.
	now func() time.Time
}

// Open connects to the database named by dsn and creates missing tables.
// A postgres:// or postgresql:// DSN selects Postgres; anything else is
// treated as a SQLite path or URI.
func Open(dsn string) (*Store, error) {
	driver, dia := "sqlite", dialect.SQLite
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver, dia = "postgres", dialect.Postgres
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dia == dialect.SQLite {
		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragmas: %w", err)
		}
	}

	s := &Store{db: db, dialect: dia, now: time.Now}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	seq, err := newSequenceCounter(db, dia)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.seq = seq

	return s, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the ent dialect name in use.
func (s *Store) Dialect() string {
	return s.dialect
}

// SetClock replaces the store's clock. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SessionRepo returns a SessionRepo backed by this store.
func (s *Store) SessionRepo() SessionRepo {
	return &sessionRepo{s: s}
}

// EventRepo returns an EventRepo backed by this store.
func (s *Store) EventRepo() EventRepo {
	return &eventRepo{s: s}
}

func (s *Store) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.dialect)
}

// exec runs a builder-produced statement.
func (s *Store) exec(ctx context.Context, q entsql.Querier) (sql.Result, error) {
	query, args := q.Query()
	return s.db.ExecContext(ctx, query, args...)
}

// query runs a builder-produced select.
func (s *Store) query(ctx context.Context, q entsql.Querier) (*sql.Rows, error) {
	query, args := q.Query()
	return s.db.QueryContext(ctx, query, args...)
}

func (s *Store) migrate(ctx context.Context) error {
	idCol := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.dialect == dialect.Postgres {
		idCol = "BIGSERIAL PRIMARY KEY"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			phase TEXT NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			expires_at BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS sessions_expires_at ON sessions (expires_at)`,
		`CREATE TABLE IF NOT EXISTS llm_requests (
			id ` + idCol + `,
			sequence BIGINT NOT NULL,
			created_at BIGINT NOT NULL,
			provider TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL DEFAULT '',
			purpose TEXT NOT NULL DEFAULT '',
			session_id TEXT NOT NULL DEFAULT '',
			input_tokens INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			latency_ms BIGINT NOT NULL DEFAULT 0,
			success BOOLEAN NOT NULL DEFAULT FALSE,
			error_message TEXT NOT NULL DEFAULT '',
			request_body TEXT NOT NULL DEFAULT '',
			response_body TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS llm_requests_sequence ON llm_requests (sequence)`,
		`CREATE TABLE IF NOT EXISTS triage_events (
			id ` + idCol + `,
			sequence BIGINT NOT NULL,
			created_at BIGINT NOT NULL,
			session_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			phase TEXT NOT NULL DEFAULT '',
			turn INTEGER NOT NULL DEFAULT 0,
			detail TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS triage_events_session ON triage_events (session_id, sequence)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// applyPragmas configures SQLite for a single local writer.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. HOOPTRIAGE_DB environment variable
// 2. $XDG_DATA_HOME/hooptriage/hooptriage.db
// 3. ~/.local/share/hooptriage/hooptriage.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("HOOPTRIAGE_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "hooptriage", "hooptriage.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of a SQLite path if it doesn't
// exist. Postgres DSNs and in-memory URIs are left alone.
func EnsureDir(path string) error {
	if strings.Contains(path, "://") || strings.HasPrefix(path, "file:") || path == ":memory:" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
