// Package storage defines the SQL executor contract the loader drives and a
// small registry of backend factories.
//
// Backends (mysql, postgres, sqlite, mssql) register a Factory from init;
// importing csvload/internal/storage/all enables every built-in backend.
// Callers stay backend-agnostic and talk to the Executor interface only.
package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"csvload/internal/ddl"
)

// Executor runs statements against one target database.
type Executor interface {
	// Dialect returns the SQL flavour used to render statements for this
	// executor.
	Dialect() *ddl.Dialect
	// TableExists reports whether table is present.
	TableExists(ctx context.Context, table string) (bool, error)
	// Exec runs a single statement and returns the affected row count when
	// the driver reports one.
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	// ExecBatch inserts rows into tpl atomically: either every row is stored
	// or none is.
	ExecBatch(ctx context.Context, tpl InsertTemplate, rows [][]any) error
	// Begin starts a transaction used for row-at-a-time inserts.
	Begin(ctx context.Context) (Tx, error)
	Close() error
}

// Tx is an open transaction.
type Tx interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Commit() error
	Rollback() error
}

// InsertTemplate names the target of a batch insert. Values of every row are
// bound positionally to Columns.
type InsertTemplate struct {
	Table   string
	Columns []string
}

// Config selects and configures a backend. DSN wins over the discrete
// connection fields when set.
type Config struct {
	Kind     string
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	// Params are extra driver parameters (e.g. charset, sslmode).
	Params map[string]string
	// MaxOpenConns caps the connection pool; zero leaves the driver default.
	MaxOpenConns int
}

// Factory opens an Executor for cfg.
type Factory func(ctx context.Context, cfg Config) (Executor, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. Registering the same kind
// twice replaces the previous factory.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[strings.ToLower(kind)] = f
}

// Open looks up cfg.Kind and opens an Executor.
func Open(ctx context.Context, cfg Config) (Executor, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Kind))
	if d, err := ddl.Lookup(kind); err == nil {
		kind = d.Name()
	}
	mu.RLock()
	f, ok := factories[kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown kind %q (registered: %s)", cfg.Kind, strings.Join(ListKinds(), ", "))
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered backend kinds, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
