// Package postgres registers the "postgres" backend using pgx v5. Batches are
// sent with COPY FROM inside a transaction; row-mode statements run through
// the same pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/url"
	"strconv"
	"strings"

	"csvload/internal/ddl"
	"csvload/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultPort is used when the config names a host without a port.
const DefaultPort = 5432

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Executor, error) {
		return New(ctx, cfg)
	})
}

// Executor is a pgxpool backed storage.Executor.
type Executor struct {
	pool *pgxpool.Pool
}

var _ storage.Executor = (*Executor)(nil)

// DSN returns the connection string for cfg: the DSN when set, otherwise a
// postgres:// URL built from the discrete fields.
func DSN(cfg storage.Config) string {
	if s := strings.TrimSpace(cfg.DSN); s != "" {
		return s
	}
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	q := url.Values{}
	for k, v := range cfg.Params {
		q.Set(k, v)
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		Path:     "/" + cfg.Database,
		RawQuery: q.Encode(),
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	return u.String()
}

// New opens a pool for cfg and pings it.
func New(ctx context.Context, cfg storage.Config) (*Executor, error) {
	pc, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		pc.MaxConns = int32(cfg.MaxOpenConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Executor{pool: pool}, nil
}

func (e *Executor) Dialect() *ddl.Dialect { return ddl.Postgres }

func (e *Executor) TableExists(ctx context.Context, table string) (bool, error) {
	var n int
	if err := e.pool.QueryRow(ctx, ddl.Postgres.TableExistsQuery(), table).Scan(&n); err != nil {
		return false, fmt.Errorf("postgres: table exists: %w", err)
	}
	return n > 0, nil
}

func (e *Executor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := e.pool.Exec(ctx, query, adaptRow(args)...)
	if err != nil {
		return 0, pgError("exec", err)
	}
	return tag.RowsAffected(), nil
}

// ExecBatch copies rows into the target inside one transaction.
func (e *Executor) ExecBatch(ctx context.Context, tpl storage.InsertTemplate, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	adapted := make([][]any, len(rows))
	for i, r := range rows {
		if len(r) != len(tpl.Columns) {
			return fmt.Errorf("postgres: batch: row %d has %d values for %d columns", i, len(r), len(tpl.Columns))
		}
		adapted[i] = adaptRow(r)
	}

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n, err := tx.CopyFrom(ctx, pgx.Identifier{tpl.Table}, tpl.Columns, pgx.CopyFromRows(adapted))
	if err != nil {
		return pgError("copy", err)
	}
	if n != int64(len(rows)) {
		return fmt.Errorf("postgres: copy: stored %d of %d rows", n, len(rows))
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func (e *Executor) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: begin tx: %w", err)
	}
	return &pgTx{ctx: ctx, tx: tx}, nil
}

func (e *Executor) Close() error {
	e.pool.Close()
	return nil
}

type pgTx struct {
	ctx context.Context
	tx  pgx.Tx
}

func (t *pgTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := t.tx.Exec(ctx, query, adaptRow(args)...)
	if err != nil {
		return 0, pgError("exec", err)
	}
	return tag.RowsAffected(), nil
}

func (t *pgTx) Commit() error   { return t.tx.Commit(t.ctx) }
func (t *pgTx) Rollback() error { return t.tx.Rollback(t.ctx) }

// adaptRow converts loader values into pgx-encodable values. COPY uses the
// binary protocol, so TIME and NUMERIC need their pgtype forms.
func adaptRow(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		switch x := v.(type) {
		case storage.TimeOfDay:
			out[i] = pgtype.Time{Microseconds: x.Duration().Microseconds(), Valid: true}
		case uint64:
			out[i] = pgtype.Numeric{Int: new(big.Int).SetUint64(x), Valid: true}
		default:
			out[i] = v
		}
	}
	return out
}

// pgError keeps the server's detail and SQLSTATE in the message.
func pgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("postgres: %s: %s (%s): %w", op, pgErr.Detail, pgErr.SQLState(), err)
	}
	return fmt.Errorf("postgres: %s: %w", op, err)
}
