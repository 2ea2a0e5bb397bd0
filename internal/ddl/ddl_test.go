// csvload/internal/ddl/ddl_test.go

package ddl

import (
	"strings"
	"testing"

	"csvload/internal/schema"
)

/*
Unit tests for the dialect renderers.

These tests validate:
  - the exact MySQL CREATE TABLE text (type tokens, NOT NULL, inline index,
    engine trailer)
  - synthetic keys render first with the dialect's key clause
  - Postgres/SQLite/MSSQL emit separate index statements
  - multi-row INSERT placeholders and per-statement row limits
*/

func sampleSchema() schema.TableSchema {
	return schema.TableSchema{
		Name: "t",
		Columns: []schema.Column{
			{Name: "id", Profile: schema.ColumnProfile{Kind: schema.KindInteger}},
			{Name: "name", Profile: schema.ColumnProfile{Kind: schema.KindVarChar, Length: 50, Nullable: true}},
			{Name: "c", Profile: schema.ColumnProfile{Kind: schema.KindDate}},
		},
		Indexes: []string{"c"},
	}
}

func TestMySQLCreateTable_Exact(t *testing.T) {
	t.Parallel()

	stmts, err := MySQL.CreateTable(sampleSchema())
	if err != nil {
		t.Fatalf("CreateTable err=%v", err)
	}
	want := "CREATE TABLE IF NOT EXISTS `t` (\n" +
		"  `id` INT NOT NULL,\n" +
		"  `name` VARCHAR(50),\n" +
		"  `c` DATE NOT NULL,\n" +
		"  INDEX `idx_c` (`c`)\n" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;"
	if len(stmts) != 1 {
		t.Fatalf("len(stmts)=%d; want 1", len(stmts))
	}
	if stmts[0] != want {
		t.Fatalf("DDL mismatch\n got:\n%s\nwant:\n%s", stmts[0], want)
	}
}

func TestMySQLTypeTokens(t *testing.T) {
	t.Parallel()

	cases := []struct {
		p    schema.ColumnProfile
		want string
	}{
		{schema.ColumnProfile{Kind: schema.KindInteger}, "INT"},
		{schema.ColumnProfile{Kind: schema.KindInteger, Unsigned: true}, "INT UNSIGNED"},
		{schema.ColumnProfile{Kind: schema.KindBigInt, Unsigned: true}, "BIGINT UNSIGNED"},
		{schema.ColumnProfile{Kind: schema.KindSmallInt}, "SMALLINT"},
		{schema.ColumnProfile{Kind: schema.KindFloat}, "FLOAT"},
		{schema.ColumnProfile{Kind: schema.KindFloat, Double: true}, "DOUBLE"},
		{schema.ColumnProfile{Kind: schema.KindBoolean}, "BOOLEAN"},
		{schema.ColumnProfile{Kind: schema.KindTime}, "TIME"},
		{schema.ColumnProfile{Kind: schema.KindDateTime}, "DATETIME"},
		{schema.ColumnProfile{Kind: schema.KindEmail, Length: schema.EmailLength}, "VARCHAR(100)"},
		{schema.ColumnProfile{Kind: schema.KindText}, "TEXT"},
		{schema.ColumnProfile{Kind: schema.KindLongText}, "LONGTEXT"},
	}
	for _, tc := range cases {
		if got := MySQL.ColumnType(tc.p); got != tc.want {
			t.Fatalf("ColumnType(%s)=%q; want %q", tc.p.TypeString(), got, tc.want)
		}
	}
}

func TestCreateTable_SyntheticKeyFirst(t *testing.T) {
	t.Parallel()

	ts := sampleSchema()
	ts.Synthetic = &schema.Column{Name: "id_2", PrimaryKey: true}
	ts.PrimaryKey = "id_2"

	cases := map[*Dialect]string{
		MySQL:    "`id_2` INT NOT NULL AUTO_INCREMENT PRIMARY KEY,",
		Postgres: `"id_2" INTEGER GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,`,
		SQLite:   `"id_2" INTEGER PRIMARY KEY AUTOINCREMENT,`,
		MSSQL:    "[id_2] INT IDENTITY(1,1) NOT NULL PRIMARY KEY,",
	}
	for d, want := range cases {
		stmts, err := d.CreateTable(ts)
		if err != nil {
			t.Fatalf("%s: err=%v", d.Name(), err)
		}
		lines := strings.Split(stmts[0], "\n")
		var first string
		for i, l := range lines {
			if strings.Contains(l, "(") && i+1 < len(lines) && strings.HasSuffix(strings.TrimSpace(l), "(") {
				first = strings.TrimSpace(lines[i+1])
				break
			}
		}
		if first != want {
			t.Fatalf("%s: first column=%q; want %q", d.Name(), first, want)
		}
	}
}

func TestCreateTable_PrimaryKeyColumn(t *testing.T) {
	t.Parallel()

	ts := sampleSchema()
	ts.Columns[0].PrimaryKey = true
	ts.PrimaryKey = "id"
	stmts, err := MySQL.CreateTable(ts)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !strings.Contains(stmts[0], "`id` INT NOT NULL PRIMARY KEY,") {
		t.Fatalf("missing key clause:\n%s", stmts[0])
	}
}

func TestCreateTable_SeparateIndexes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		d    *Dialect
		want string
	}{
		{Postgres, `CREATE INDEX IF NOT EXISTS "idx_t_c" ON "t" ("c");`},
		{SQLite, `CREATE INDEX IF NOT EXISTS "idx_t_c" ON "t" ("c");`},
		{MSSQL, "CREATE INDEX [idx_t_c] ON [t] ([c]);"},
	}
	for _, tc := range cases {
		stmts, err := tc.d.CreateTable(sampleSchema())
		if err != nil {
			t.Fatalf("%s: err=%v", tc.d.Name(), err)
		}
		if len(stmts) != 2 {
			t.Fatalf("%s: len(stmts)=%d; want 2", tc.d.Name(), len(stmts))
		}
		if strings.Contains(stmts[0], "INDEX") {
			t.Fatalf("%s: index rendered inline:\n%s", tc.d.Name(), stmts[0])
		}
		if !strings.Contains(stmts[1], tc.want) {
			t.Fatalf("%s: index stmt=%q; want it to contain %q", tc.d.Name(), stmts[1], tc.want)
		}
	}
}

func TestMSSQLCreateTable_Guarded(t *testing.T) {
	t.Parallel()

	stmts, err := MSSQL.CreateTable(sampleSchema())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	got := stmts[0]
	for _, want := range []string{
		"IF OBJECT_ID(N'[t]', N'U') IS NULL",
		"CREATE TABLE [t] (",
		"    [name] NVARCHAR(50),",
		"    [c] DATE NOT NULL",
		"END;",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
}

func TestBuildCreateTableSQL_Errors(t *testing.T) {
	t.Parallel()

	cases := []TableDef{
		{Name: "", Columns: []ColumnDef{{Name: "a", SQLType: "INT"}}},
		{Name: "t"},
		{Name: "t", Columns: []ColumnDef{{Name: " ", SQLType: "INT"}}},
		{Name: "t", Columns: []ColumnDef{{Name: "a"}}},
		{Name: "t", Columns: []ColumnDef{{Name: "a", SQLType: "INT"}}, Indexes: []string{"b"}},
	}
	for i, td := range cases {
		if _, err := MySQL.BuildCreateTableSQL(td); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestInsert_Placeholders(t *testing.T) {
	t.Parallel()

	cols := []string{"a", "b"}
	cases := []struct {
		d    *Dialect
		want string
	}{
		{MySQL, "INSERT INTO `t` (`a`, `b`) VALUES (?, ?), (?, ?)"},
		{Postgres, `INSERT INTO "t" ("a", "b") VALUES ($1, $2), ($3, $4)`},
		{SQLite, `INSERT INTO "t" ("a", "b") VALUES (?, ?), (?, ?)`},
		{MSSQL, "INSERT INTO [t] ([a], [b]) VALUES (@p1, @p2), (@p3, @p4)"},
	}
	for _, tc := range cases {
		if got := tc.d.Insert("t", cols, 2); got != tc.want {
			t.Fatalf("%s: got=%q; want %q", tc.d.Name(), got, tc.want)
		}
	}
}

func TestRowsPerInsert(t *testing.T) {
	t.Parallel()

	cases := []struct {
		d    *Dialect
		cols int
		want int
	}{
		{MySQL, 5, 13107},
		{SQLite, 3, 10922},
		{MSSQL, 2, 1000},
		{MSSQL, 3000, 1},
		{Postgres, 0, 0},
	}
	for _, tc := range cases {
		if got := tc.d.RowsPerInsert(tc.cols); got != tc.want {
			t.Fatalf("%s.RowsPerInsert(%d)=%d; want %d", tc.d.Name(), tc.cols, got, tc.want)
		}
	}
}

func TestQuoting(t *testing.T) {
	t.Parallel()

	if got := MySQL.QuoteIdent("a`b"); got != "`a``b`" {
		t.Fatalf("mysql got=%q", got)
	}
	if got := Postgres.QuoteIdent(`a"b`); got != `"a""b"` {
		t.Fatalf("postgres got=%q", got)
	}
	if got := MSSQL.QuoteIdent("weird]id"); got != "[weird]]id]" {
		t.Fatalf("mssql got=%q", got)
	}
}

func TestSavepoints(t *testing.T) {
	t.Parallel()

	if MySQL.Savepoint() != "" || SQLite.Savepoint() != "" {
		t.Fatalf("mysql/sqlite should not use savepoints")
	}
	if Postgres.Savepoint() == "" || Postgres.RollbackTo() == "" || Postgres.Release() == "" {
		t.Fatalf("postgres savepoints missing")
	}
	if MSSQL.Savepoint() == "" || MSSQL.RollbackTo() == "" || MSSQL.Release() != "" {
		t.Fatalf("mssql savepoints: save=%q rollback=%q release=%q", MSSQL.Savepoint(), MSSQL.RollbackTo(), MSSQL.Release())
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]*Dialect{
		"mysql": MySQL, "MariaDB": MySQL, "postgresql": Postgres, "pg": Postgres,
		"sqlite3": SQLite, " sqlserver ": MSSQL,
	} {
		got, err := Lookup(name)
		if err != nil || got != want {
			t.Fatalf("Lookup(%q)=%v,%v; want %s", name, got, err, want.Name())
		}
	}
	if _, err := Lookup("oracle"); err == nil {
		t.Fatalf("expected error for unknown dialect")
	}
}
