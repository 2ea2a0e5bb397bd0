package ddl

import (
	"fmt"
	"strings"

	"csvload/internal/schema"
)

// Dialect describes one SQL flavour.
type Dialect struct {
	name string

	quote func(string) string
	bind  func(n int) string
	types func(schema.ColumnProfile) string

	// autoKey is the full clause after the name of a generated key column.
	autoKey string
	// create wraps the rendered column list into the CREATE statement.
	create func(table string, body string) string
	// inlineIndexes renders indexes inside CREATE TABLE instead of as
	// separate statements.
	inlineIndexes bool
	createIndex   func(table, index, column string) string

	existsQuery string
	dropTable   func(table string) string

	savepoint, rollbackTo, release string

	maxParams int
	maxRows   int
}

// Name returns the dialect's canonical name.
func (d *Dialect) Name() string { return d.name }

// QuoteIdent quotes a single identifier.
func (d *Dialect) QuoteIdent(id string) string { return d.quote(id) }

// Placeholder returns the n-th (1-based) bind parameter marker.
func (d *Dialect) Placeholder(n int) string { return d.bind(n) }

// ColumnType returns the type token for a column profile.
func (d *Dialect) ColumnType(p schema.ColumnProfile) string { return d.types(p) }

// TableExistsQuery returns a query taking the table name as its single
// parameter and yielding one integer row: the number of matching tables.
func (d *Dialect) TableExistsQuery() string { return d.existsQuery }

// DropTable returns a statement dropping table if it exists.
func (d *Dialect) DropTable(table string) string { return d.dropTable(table) }

// Savepoint statements isolate a single statement inside a transaction on
// engines where a failed statement aborts the transaction. They are empty
// when the engine rolls back only the failing statement.
func (d *Dialect) Savepoint() string  { return d.savepoint }
func (d *Dialect) RollbackTo() string { return d.rollbackTo }
func (d *Dialect) Release() string    { return d.release }

// MaxParams is the bind-parameter limit of a single statement.
func (d *Dialect) MaxParams() int { return d.maxParams }

// RowsPerInsert returns how many rows of width columns fit in one INSERT
// statement.
func (d *Dialect) RowsPerInsert(columns int) int {
	if columns <= 0 {
		return 0
	}
	n := d.maxParams / columns
	if d.maxRows > 0 && n > d.maxRows {
		n = d.maxRows
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Insert renders a multi-row INSERT for rows rows.
func (d *Dialect) Insert(table string, columns []string, rows int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.quote(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.quote(c))
	}
	b.WriteString(") VALUES ")
	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for i := range columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.bind(n))
			n++
		}
		b.WriteByte(')')
	}
	return b.String()
}

// Lookup returns the dialect registered under name or one of its aliases.
func Lookup(name string) (*Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql", "mariadb":
		return MySQL, nil
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mssql", "sqlserver":
		return MSSQL, nil
	}
	return nil, fmt.Errorf("ddl: unknown dialect %q", name)
}

func questionMark(int) string { return "?" }

func quoteDouble(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func indexName(table, column string) string {
	return "idx_" + table + "_" + column
}
