// Package ddl renders SQL for the supported target dialects: CREATE TABLE and
// CREATE INDEX statements from a schema.TableSchema, plus the handful of DML
// and catalog statements the loader needs (multi-row INSERT, DROP TABLE,
// table-existence probe, savepoints).
//
// A Dialect is plain data: identifier quoting, bind-parameter style, the
// semantic-kind → type-token table, and per-statement limits. Renderers are
// pure and deterministic.
package ddl

// ColumnDef describes a single column in a table definition produced or
// consumed by ddl. It intentionally uses simple, database-agnostic fields.
//
// Fields:
//   - Name: logical column name (unquoted; quoting/escaping happens at render time)
//   - SQLType: target SQL type (e.g., VARCHAR(50), BIGINT UNSIGNED)
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is the table's primary key
//   - AutoIncrement: generated key column; SQLType is ignored and the
//     dialect's auto-key clause is emitted instead
type ColumnDef struct {
	Name          string
	SQLType       string
	Nullable      bool
	PrimaryKey    bool
	AutoIncrement bool
}

// TableDef holds the table name, its ordered columns and the columns to
// index.
type TableDef struct {
	Name    string
	Columns []ColumnDef
	Indexes []string
}
