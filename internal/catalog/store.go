// Package catalog persists benchmarked components in SQLite and exposes
// read-only lookups to the matcher and recommendation layers.
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// Store wraps the SQLite database holding the component catalog.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (or creates) the catalog database at path, applies the
// recommended pragmas, and runs pending migrations.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	// SQLite performs best with a single write connection. WAL enables
	// concurrent readers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", path, err)
	}

	// modernc.org/sqlite requires SQL statements, not DSN params.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA cache_size=-20000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// DB returns the underlying *sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx executes fn within a database transaction. The transaction is
// committed if fn returns nil, rolled back otherwise.
func (s *Store) Tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original: %w)", rbErr, err)
		}
		return err
	}

	return tx.Commit()
}

// migration is a single schema change, applied in ascending version order.
type migration struct {
	version     int
	description string
	up          string
}

var migrations = []migration{
	{
		version:     1,
		description: "component benchmarks table",
		up: `
			CREATE TABLE IF NOT EXISTS component_benchmarks (
				id                   TEXT    PRIMARY KEY,
				name                 TEXT    NOT NULL,
				normalized_name      TEXT    NOT NULL,
				component_type       TEXT    NOT NULL,
				segment              TEXT    NOT NULL DEFAULT 'consumer',
				raw_score            INTEGER NOT NULL,
				normalized_score     INTEGER NOT NULL,
				tier                 TEXT    NOT NULL,
				cores                INTEGER NOT NULL DEFAULT 0,
				threads              INTEGER NOT NULL DEFAULT 0,
				single_thread_rating INTEGER NOT NULL DEFAULT 0,
				memory_size_gb       INTEGER NOT NULL DEFAULT 0,
				tdp_watts            INTEGER NOT NULL DEFAULT 0,
				first_seen           DATETIME NOT NULL,
				last_seen            DATETIME NOT NULL,
				UNIQUE (name, component_type)
			)`,
	},
	{
		version:     2,
		description: "lookup indexes",
		up: `
			CREATE INDEX IF NOT EXISTS idx_benchmarks_type_score
				ON component_benchmarks (component_type, raw_score DESC);
			CREATE INDEX IF NOT EXISTS idx_benchmarks_normalized
				ON component_benchmarks (normalized_name)`,
	},
}

// migrate runs pending migrations, tracked in the _migrations table.
func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS _migrations (
			version     INTEGER PRIMARY KEY,
			description TEXT    NOT NULL,
			applied_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM _migrations WHERE version = ?", m.version,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.version, err)
		}
		if count > 0 {
			continue
		}

		err = s.Tx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, m.up); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				"INSERT INTO _migrations (version, description) VALUES (?, ?)",
				m.version, m.description,
			)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
		}
		s.logger.Debug("applied migration",
			zap.Int("version", m.version),
			zap.String("description", m.description),
		)
	}

	return nil
}
