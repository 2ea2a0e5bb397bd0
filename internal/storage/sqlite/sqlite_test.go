package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"csvload/internal/ddl"
	"csvload/internal/schema"
	"csvload/internal/storage"
	"csvload/internal/storage/sqldb"
)

/*
Executor tests against a real SQLite file: table probing, batch inserts that
span several INSERT statements, all-or-nothing rollback, and row-at-a-time
transactions.
*/

func newExec(t *testing.T) *sqldb.Executor {
	t.Helper()
	ex, err := New(context.Background(), storage.Config{Database: filepath.Join(t.TempDir(), "load.db")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = ex.Close() })
	return ex
}

func createPeople(t *testing.T, ex *sqldb.Executor) storage.InsertTemplate {
	t.Helper()
	ts := schema.TableSchema{
		Name: "people",
		Columns: []schema.Column{
			{Name: "id", Profile: schema.ColumnProfile{Kind: schema.KindInteger}, PrimaryKey: true},
			{Name: "name", Profile: schema.ColumnProfile{Kind: schema.KindVarChar, Length: 50, Nullable: true}},
		},
		PrimaryKey: "id",
		Indexes:    []string{"name"},
	}
	stmts, err := ddl.SQLite.CreateTable(ts)
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	for _, s := range stmts {
		if _, err := ex.Exec(context.Background(), s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	return storage.InsertTemplate{Table: "people", Columns: ts.ColumnNames()}
}

func count(t *testing.T, ex *sqldb.Executor, table string) int {
	t.Helper()
	var n int
	if err := ex.DB().QueryRow(`SELECT COUNT(*) FROM "` + table + `"`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestTableExists(t *testing.T) {
	t.Parallel()

	ex := newExec(t)
	ctx := context.Background()
	ok, err := ex.TableExists(ctx, "people")
	if err != nil || ok {
		t.Fatalf("before create: ok=%v err=%v", ok, err)
	}
	createPeople(t, ex)
	ok, err = ex.TableExists(ctx, "people")
	if err != nil || !ok {
		t.Fatalf("after create: ok=%v err=%v", ok, err)
	}
	if _, err := ex.Exec(ctx, ddl.SQLite.DropTable("people")); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if ok, _ := ex.TableExists(ctx, "people"); ok {
		t.Fatalf("table still exists after drop")
	}
}

func TestExecBatch_SpansStatements(t *testing.T) {
	t.Parallel()

	ex := newExec(t)
	tpl := createPeople(t, ex)

	// 2 columns → 16383 rows per statement; 20000 rows need two statements.
	rows := make([][]any, 20000)
	for i := range rows {
		rows[i] = []any{i + 1, "name"}
	}
	if err := ex.ExecBatch(context.Background(), tpl, rows); err != nil {
		t.Fatalf("ExecBatch: %v", err)
	}
	if got := count(t, ex, "people"); got != len(rows) {
		t.Fatalf("count=%d; want %d", got, len(rows))
	}
}

func TestExecBatch_AllOrNothing(t *testing.T) {
	t.Parallel()

	ex := newExec(t)
	tpl := createPeople(t, ex)

	rows := [][]any{{1, "a"}, {2, "b"}, {1, "duplicate key"}}
	if err := ex.ExecBatch(context.Background(), tpl, rows); err == nil {
		t.Fatalf("expected constraint error")
	}
	if got := count(t, ex, "people"); got != 0 {
		t.Fatalf("count=%d after failed batch; want 0", got)
	}

	err := ex.ExecBatch(context.Background(), tpl, [][]any{{1}})
	if err == nil || !strings.Contains(err.Error(), "has 1 values for 2 columns") {
		t.Fatalf("err=%v; want width error", err)
	}
}

func TestBegin_RowAtATime(t *testing.T) {
	t.Parallel()

	ex := newExec(t)
	tpl := createPeople(t, ex)
	ctx := context.Background()
	insert := ddl.SQLite.Insert(tpl.Table, tpl.Columns, 1)

	tx, err := ex.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := tx.Exec(ctx, insert, 1, "a"); err != nil {
		t.Fatalf("row 1: %v", err)
	}
	if _, err := tx.Exec(ctx, insert, 1, "dup"); err == nil {
		t.Fatalf("row 2: expected constraint error")
	}
	if _, err := tx.Exec(ctx, insert, 2, nil); err != nil {
		t.Fatalf("row 3: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if got := count(t, ex, "people"); got != 2 {
		t.Fatalf("count=%d; want 2", got)
	}
}

func TestTimeOfDayBinds(t *testing.T) {
	t.Parallel()

	ex := newExec(t)
	ctx := context.Background()
	if _, err := ex.Exec(ctx, `CREATE TABLE "shifts" ("start" TEXT)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	tpl := storage.InsertTemplate{Table: "shifts", Columns: []string{"start"}}
	if err := ex.ExecBatch(ctx, tpl, [][]any{{storage.TimeOfDay{Hour: 8, Minute: 30}}}); err != nil {
		t.Fatalf("ExecBatch: %v", err)
	}
	var got string
	if err := ex.DB().QueryRow(`SELECT "start" FROM "shifts"`).Scan(&got); err != nil {
		t.Fatalf("select: %v", err)
	}
	if got != "08:30:00" {
		t.Fatalf("start=%q; want 08:30:00", got)
	}
}

func TestNew_EmptyDSN(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), storage.Config{}); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}

func TestRegistered(t *testing.T) {
	t.Parallel()

	ex, err := storage.Open(context.Background(), storage.Config{Kind: "sqlite3", DSN: filepath.Join(t.TempDir(), "r.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ex.Close()
	if ex.Dialect() != ddl.SQLite {
		t.Fatalf("dialect=%s; want sqlite", ex.Dialect().Name())
	}
}
