// Package sqldb implements storage.Executor over database/sql. The mysql,
// sqlite and mssql backends share it; they differ only in driver name,
// dialect, and optionally a faster bulk path.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"csvload/internal/ddl"
	"csvload/internal/storage"
)

// BulkFunc stores rows inside tx using a backend-specific bulk API.
type BulkFunc func(ctx context.Context, tx *sql.Tx, tpl storage.InsertTemplate, rows [][]any) error

// Executor is a database/sql backed storage.Executor.
type Executor struct {
	db      *sql.DB
	dialect *ddl.Dialect
	bulk    BulkFunc
}

var _ storage.Executor = (*Executor)(nil)

// New wraps an open database handle.
func New(db *sql.DB, d *ddl.Dialect) *Executor {
	return &Executor{db: db, dialect: d}
}

// Open opens driverName with dsn and pings it with a short timeout so bad
// DSNs fail fast.
func Open(ctx context.Context, driverName, dsn string, d *ddl.Dialect) (*Executor, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%s: DSN must not be empty", d.Name())
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", d.Name(), err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping: %w", d.Name(), err)
	}
	return New(db, d), nil
}

// WithBulk replaces the multi-row INSERT path of ExecBatch.
func (e *Executor) WithBulk(f BulkFunc) *Executor {
	e.bulk = f
	return e
}

// DB exposes the underlying handle for backend-specific setup.
func (e *Executor) DB() *sql.DB { return e.db }

func (e *Executor) Dialect() *ddl.Dialect { return e.dialect }

func (e *Executor) TableExists(ctx context.Context, table string) (bool, error) {
	var n int
	if err := e.db.QueryRowContext(ctx, e.dialect.TableExistsQuery(), table).Scan(&n); err != nil {
		return false, fmt.Errorf("%s: table exists: %w", e.dialect.Name(), err)
	}
	return n > 0, nil
}

func (e *Executor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if strings.TrimSpace(query) == "" {
		return 0, nil
	}
	res, err := e.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: exec: %w", e.dialect.Name(), err)
	}
	return rowsAffected(res), nil
}

// ExecBatch inserts rows in one transaction. Without a bulk function the rows
// are sent as multi-row INSERT statements sized to the dialect's parameter
// limit; a single failing row rolls back the whole batch.
func (e *Executor) ExecBatch(ctx context.Context, tpl storage.InsertTemplate, rows [][]any) error {
	if len(tpl.Columns) == 0 {
		return fmt.Errorf("%s: batch: columns must not be empty", e.dialect.Name())
	}
	if len(rows) == 0 {
		return nil
	}
	for i, r := range rows {
		if len(r) != len(tpl.Columns) {
			return fmt.Errorf("%s: batch: row %d has %d values for %d columns", e.dialect.Name(), i, len(r), len(tpl.Columns))
		}
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", e.dialect.Name(), err)
	}
	if e.bulk != nil {
		err = e.bulk(ctx, tx, tpl, rows)
	} else {
		err = e.insertChunks(ctx, tx, tpl, rows)
	}
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", e.dialect.Name(), err)
	}
	return nil
}

func (e *Executor) insertChunks(ctx context.Context, tx *sql.Tx, tpl storage.InsertTemplate, rows [][]any) error {
	per := e.dialect.RowsPerInsert(len(tpl.Columns))
	var (
		stmt     *sql.Stmt
		stmtRows int
	)
	defer func() {
		if stmt != nil {
			_ = stmt.Close()
		}
	}()

	args := make([]any, 0, per*len(tpl.Columns))
	for start := 0; start < len(rows); start += per {
		end := min(start+per, len(rows))
		if n := end - start; n != stmtRows {
			if stmt != nil {
				_ = stmt.Close()
			}
			var err error
			stmt, err = tx.PrepareContext(ctx, e.dialect.Insert(tpl.Table, tpl.Columns, n))
			if err != nil {
				stmt = nil
				return fmt.Errorf("%s: prepare insert: %w", e.dialect.Name(), err)
			}
			stmtRows = n
		}
		args = args[:0]
		for _, r := range rows[start:end] {
			args = append(args, r...)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("%s: insert rows %d-%d: %w", e.dialect.Name(), start, end-1, err)
		}
	}
	return nil
}

func (e *Executor) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", e.dialect.Name(), err)
	}
	return &sqlTx{tx: tx, name: e.dialect.Name()}, nil
}

func (e *Executor) Close() error { return e.db.Close() }

type sqlTx struct {
	tx   *sql.Tx
	name string
}

func (t *sqlTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: exec: %w", t.name, err)
	}
	return rowsAffected(res), nil
}

func (t *sqlTx) Commit() error   { return t.tx.Commit() }
func (t *sqlTx) Rollback() error { return t.tx.Rollback() }

func rowsAffected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}
