package ddl

import (
	"fmt"
	"strconv"

	"csvload/internal/schema"
)

// Postgres quotes with double quotes, binds $n and needs savepoints to keep
// a transaction usable after a failed row.
var Postgres = &Dialect{
	name:  "postgres",
	quote: quoteDouble,
	bind:  func(n int) string { return "$" + strconv.Itoa(n) },
	types: postgresType,

	autoKey: "INTEGER GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY",
	create: func(table, body string) string {
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", quoteDouble(table), body)
	},
	createIndex: func(table, index, column string) string {
		return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s);", quoteDouble(index), quoteDouble(table), quoteDouble(column))
	},

	existsQuery: "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1",
	dropTable:   func(t string) string { return "DROP TABLE IF EXISTS " + quoteDouble(t) },

	savepoint:  "SAVEPOINT csvload_row",
	rollbackTo: "ROLLBACK TO SAVEPOINT csvload_row",
	release:    "RELEASE SAVEPOINT csvload_row",

	maxParams: 65535,
}

func postgresType(p schema.ColumnProfile) string {
	switch p.Kind {
	case schema.KindInteger:
		if p.Unsigned {
			return "BIGINT"
		}
		return "INTEGER"
	case schema.KindBigInt:
		if p.Unsigned {
			return "NUMERIC(20,0)"
		}
		return "BIGINT"
	case schema.KindSmallInt:
		return "SMALLINT"
	case schema.KindFloat:
		if p.Double {
			return "DOUBLE PRECISION"
		}
		return "REAL"
	case schema.KindBoolean:
		return "BOOLEAN"
	case schema.KindDate:
		return "DATE"
	case schema.KindTime:
		return "TIME"
	case schema.KindDateTime:
		return "TIMESTAMP"
	case schema.KindEmail, schema.KindPhone, schema.KindVarChar:
		return fmt.Sprintf("VARCHAR(%d)", p.Length)
	default:
		return "TEXT"
	}
}
