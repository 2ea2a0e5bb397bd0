// Package mssql registers the "mssql" backend for Microsoft SQL Server.
// Batches go through the go-mssqldb bulk copy API inside the batch
// transaction; row-mode inserts use plain parameterised statements.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"csvload/internal/ddl"
	"csvload/internal/storage"
	"csvload/internal/storage/sqldb"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
)

// DefaultPort is used when the config names a host without a port.
const DefaultPort = 1433

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Executor, error) {
		dsn, err := DSN(cfg)
		if err != nil {
			return nil, err
		}
		ex, err := sqldb.Open(ctx, "sqlserver", dsn, ddl.MSSQL)
		if err != nil {
			return nil, err
		}
		if cfg.MaxOpenConns > 0 {
			ex.DB().SetMaxOpenConns(cfg.MaxOpenConns)
		}
		return ex.WithBulk(bulkCopy), nil
	})
}

// DSN returns a sqlserver:// URL for cfg and validates it with msdsn so
// obvious mistakes fail before dialing.
func DSN(cfg storage.Config) (string, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		host := cfg.Host
		if host == "" {
			host = "localhost"
		}
		port := cfg.Port
		if port == 0 {
			port = DefaultPort
		}
		q := url.Values{}
		if cfg.Database != "" {
			q.Set("database", cfg.Database)
		}
		for k, v := range cfg.Params {
			q.Set(k, v)
		}
		u := url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(cfg.User, cfg.Password),
			Host:     net.JoinHostPort(host, strconv.Itoa(port)),
			RawQuery: q.Encode(),
		}
		dsn = u.String()
	}
	if _, err := msdsn.Parse(dsn); err != nil {
		return "", fmt.Errorf("mssql dsn: %w", err)
	}
	return dsn, nil
}

// bulkCopy streams rows through a CopyIn statement and flushes once.
func bulkCopy(ctx context.Context, tx *sql.Tx, tpl storage.InsertTemplate, rows [][]any) error {
	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(tpl.Table, mssql.BulkOptions{}, tpl.Columns...))
	if err != nil {
		return fmt.Errorf("mssql: prepare bulk: %w", err)
	}
	vals := make([]any, len(tpl.Columns))
	for i := range rows {
		for j, v := range rows[i] {
			vals[j] = toCopyVal(v)
		}
		if _, err := stmt.ExecContext(ctx, vals...); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("mssql: bulk row %d: %w", i, err)
		}
	}
	_, err = stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("mssql: bulk finalize: %w", err)
	}
	return nil
}

// toCopyVal converts loader values into types the bulk copy encoder accepts.
func toCopyVal(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case storage.TimeOfDay:
		return time.Date(1, 1, 1, x.Hour, x.Minute, x.Second, x.Nanosecond, time.UTC)
	case uint64:
		return strconv.FormatUint(x, 10)
	default:
		return v
	}
}
