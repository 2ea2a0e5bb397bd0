package ddl

import (
	"fmt"

	"csvload/internal/schema"
)

// SQLite keeps declared type names for readability; storage follows SQLite's
// type affinity rules.
var SQLite = &Dialect{
	name:  "sqlite",
	quote: quoteDouble,
	bind:  questionMark,
	types: sqliteType,

	autoKey: "INTEGER PRIMARY KEY AUTOINCREMENT",
	create: func(table, body string) string {
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", quoteDouble(table), body)
	},
	createIndex: func(table, index, column string) string {
		return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s);", quoteDouble(index), quoteDouble(table), quoteDouble(column))
	},

	existsQuery: "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?",
	dropTable:   func(t string) string { return "DROP TABLE IF EXISTS " + quoteDouble(t) },

	maxParams: 32766,
}

func sqliteType(p schema.ColumnProfile) string {
	switch p.Kind {
	case schema.KindInteger:
		return "INTEGER"
	case schema.KindBigInt:
		if p.Unsigned {
			return "UNSIGNED BIG INT"
		}
		return "BIGINT"
	case schema.KindSmallInt:
		return "SMALLINT"
	case schema.KindFloat:
		if p.Double {
			return "DOUBLE"
		}
		return "REAL"
	case schema.KindBoolean:
		return "BOOLEAN"
	case schema.KindDate:
		return "DATE"
	case schema.KindTime:
		return "TIME"
	case schema.KindDateTime:
		return "DATETIME"
	case schema.KindEmail, schema.KindPhone, schema.KindVarChar:
		return fmt.Sprintf("VARCHAR(%d)", p.Length)
	default:
		return "TEXT"
	}
}
