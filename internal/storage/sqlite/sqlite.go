// Package sqlite registers the "sqlite" backend, a pure-Go SQLite target
// (modernc.org/sqlite) used for local loads and tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"csvload/internal/ddl"
	"csvload/internal/storage"
	"csvload/internal/storage/sqldb"

	_ "modernc.org/sqlite"
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Executor, error) {
		return New(ctx, cfg)
	})
}

// DSN returns the data source for cfg: the DSN when set, otherwise the
// database file path.
//
//	"file:load.db?cache=shared"
//	"load.db"
func DSN(cfg storage.Config) string {
	if s := strings.TrimSpace(cfg.DSN); s != "" {
		return s
	}
	return strings.TrimSpace(cfg.Database)
}

// Open opens a SQLite database handle limited to a single connection, since
// SQLite serialises writers anyway.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// New opens an Executor for cfg.
func New(ctx context.Context, cfg storage.Config) (*sqldb.Executor, error) {
	dsn := DSN(cfg)
	if dsn == "" {
		return nil, fmt.Errorf("sqlite: DSN or database path must not be empty")
	}
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	// Enable foreign keys by default; ignore error if driver doesn't support it.
	_, _ = db.ExecContext(ctx, "PRAGMA foreign_keys = ON;")
	return sqldb.New(db, ddl.SQLite), nil
}
