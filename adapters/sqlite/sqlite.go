// Package sqlite persists entitlement profiles and usage counters in a
// single SQLite file. The workload is one single-row counter upsert per
// metered request plus rare profile writes, so the connection runs in WAL
// mode with a busy timeout long enough to ride out writer contention
// instead of surfacing SQLITE_BUSY to request handlers.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DefaultBusyTimeout is how long a writer waits on the database lock before
// failing. Counter upserts are sub-millisecond; hitting this limit means
// something is wrong, not that the system is merely busy.
const DefaultBusyTimeout = 5 * time.Second

// DB wraps the connection shared by the profile and usage stores.
type DB struct {
	*sql.DB
}

// Options tunes the connection. The zero value selects defaults.
type Options struct {
	BusyTimeout time.Duration // 0 means DefaultBusyTimeout
}

// Open opens (creating if needed) the database at file with default options.
func Open(file string) (*DB, error) {
	return OpenWith(file, Options{})
}

// OpenWith opens the database with explicit options.
func OpenWith(file string, opts Options) (*DB, error) {
	timeout := opts.BusyTimeout
	if timeout <= 0 {
		timeout = DefaultBusyTimeout
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL&_foreign_keys=on",
		file, timeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Migrate applies embedded migration files not yet recorded in
// schema_migrations, in lexical order, each inside its own transaction.
// Safe to run on every startup.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		version := strings.TrimSuffix(path.Base(name), ".sql")

		var applied int
		if err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version,
		).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", version, err)
		}
		if applied > 0 {
			continue
		}

		if err := db.applyMigration(ctx, name, version); err != nil {
			return err
		}
	}

	return nil
}

func (db *DB) applyMigration(ctx context.Context, name, version string) error {
	content, err := migrationsFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", version, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", version, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("execute migration %s: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version) VALUES (?)", version,
	); err != nil {
		return fmt.Errorf("record migration %s: %w", version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", version, err)
	}
	return nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.DB.Close()
}
