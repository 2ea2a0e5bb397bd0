package storage

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"csvload/internal/ddl"
)

// fakeExec is a minimal Executor for registry tests.
type fakeExec struct{ closed bool }

func (f *fakeExec) Dialect() *ddl.Dialect { return ddl.SQLite }
func (f *fakeExec) TableExists(context.Context, string) (bool, error) { return false, nil }
func (f *fakeExec) Exec(context.Context, string, ...any) (int64, error) { return 0, nil }
func (f *fakeExec) ExecBatch(context.Context, InsertTemplate, [][]any) error { return nil }
func (f *fakeExec) Begin(context.Context) (Tx, error) { return nil, nil }
func (f *fakeExec) Close() error { f.closed = true; return nil }

func TestRegisterAndOpen(t *testing.T) {
	Register("fake", func(ctx context.Context, cfg Config) (Executor, error) {
		return &fakeExec{}, nil
	})

	ex, err := Open(context.Background(), Config{Kind: " FAKE "})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if ex == nil {
		t.Fatalf("Open returned nil executor")
	}

	found := false
	for _, k := range ListKinds() {
		if k == "fake" {
			found = true
		}
	}
	if !found {
		t.Fatalf("ListKinds()=%v; want it to contain fake", ListKinds())
	}
}

func TestOpen_DialectAlias(t *testing.T) {
	var got Config
	Register("postgres", func(ctx context.Context, cfg Config) (Executor, error) {
		got = cfg
		return &fakeExec{}, nil
	})
	if _, err := Open(context.Background(), Config{Kind: "postgresql", Database: "db"}); err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if got.Database != "db" {
		t.Fatalf("factory cfg=%+v", got)
	}
}

func TestOpen_UnknownKind(t *testing.T) {
	_, err := Open(context.Background(), Config{Kind: "oracle"})
	if err == nil || !strings.Contains(err.Error(), `unknown kind "oracle"`) {
		t.Fatalf("err=%v; want unknown kind", err)
	}
}

func TestTimeOfDay(t *testing.T) {
	t.Parallel()

	ts := time.Date(1, 1, 1, 9, 5, 7, 250_000_000, time.UTC)
	tod := TimeOfDayOf(ts)
	if got := tod.String(); got != "09:05:07.250000" {
		t.Fatalf("String()=%q", got)
	}
	if got := (TimeOfDay{Hour: 23, Minute: 59}).String(); got != "23:59:00" {
		t.Fatalf("String()=%q", got)
	}
	v, err := tod.Value()
	if err != nil || !reflect.DeepEqual(v, "09:05:07.250000") {
		t.Fatalf("Value()=%v,%v", v, err)
	}
	if got := tod.Duration(); got != 9*time.Hour+5*time.Minute+7*time.Second+250*time.Millisecond {
		t.Fatalf("Duration()=%v", got)
	}
}
