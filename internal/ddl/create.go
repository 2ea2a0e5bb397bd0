// internal/ddl/create.go

package ddl

import (
	"fmt"
	"strings"

	"csvload/internal/schema"
)

// TableDef converts a compiled schema into a TableDef with this dialect's
// type tokens. A generated key column comes first.
func (d *Dialect) TableDef(ts schema.TableSchema) TableDef {
	def := TableDef{Name: ts.Name, Indexes: append([]string(nil), ts.Indexes...)}
	if ts.Synthetic != nil {
		def.Columns = append(def.Columns, ColumnDef{
			Name:          ts.Synthetic.Name,
			PrimaryKey:    true,
			AutoIncrement: true,
		})
	}
	for _, c := range ts.Columns {
		def.Columns = append(def.Columns, ColumnDef{
			Name:       c.Name,
			SQLType:    d.types(c.Profile),
			Nullable:   c.Profile.Nullable,
			PrimaryKey: c.PrimaryKey,
		})
	}
	return def
}

// CreateTable renders ts. The first statement creates the table if it does
// not exist; dialects without inline indexes append one statement per index.
func (d *Dialect) CreateTable(ts schema.TableSchema) ([]string, error) {
	return d.BuildCreateTableSQL(d.TableDef(ts))
}

// BuildCreateTableSQL renders the statements for t.
//
// Rules:
//
//   - t.Name must be non-empty and there must be at least one column.
//
//   - Each column is rendered as:
//
//     <name> <SQLType> [NOT NULL] [PRIMARY KEY]
//
//     NOT NULL is emitted when Nullable is false and always for the key.
//     Auto-increment columns get the dialect's key clause instead.
//
//   - Index entries naming unknown columns are an error here; schema.Compile
//     has already dropped unknown names.
func (d *Dialect) BuildCreateTableSQL(t TableDef) ([]string, error) {
	table := strings.TrimSpace(t.Name)
	if table == "" {
		return nil, fmt.Errorf("ddl: table name must not be empty")
	}
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("ddl: at least one column is required")
	}

	known := make(map[string]bool, len(t.Columns))
	clauses := make([]string, 0, len(t.Columns)+len(t.Indexes))
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("ddl: column with empty name in table %s", table)
		}
		known[name] = true

		var sb strings.Builder
		sb.WriteString(d.quote(name))
		sb.WriteByte(' ')
		switch {
		case c.AutoIncrement:
			sb.WriteString(d.autoKey)
		case strings.TrimSpace(c.SQLType) == "":
			return nil, fmt.Errorf("ddl: column %s missing SQLType", name)
		default:
			sb.WriteString(c.SQLType)
			if c.PrimaryKey {
				sb.WriteString(" NOT NULL PRIMARY KEY")
			} else if !c.Nullable {
				sb.WriteString(" NOT NULL")
			}
		}
		clauses = append(clauses, sb.String())
	}

	var extra []string
	for _, col := range t.Indexes {
		if !known[col] {
			return nil, fmt.Errorf("ddl: index on unknown column %s", col)
		}
		if d.inlineIndexes {
			clauses = append(clauses, fmt.Sprintf("INDEX %s (%s)", d.quote("idx_"+col), d.quote(col)))
			continue
		}
		extra = append(extra, d.createIndex(table, indexName(table, col), col))
	}

	stmts := []string{d.create(table, strings.Join(clauses, ",\n  "))}
	return append(stmts, extra...), nil
}
