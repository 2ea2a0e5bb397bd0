package ddl

import (
	"fmt"
	"strings"

	"csvload/internal/schema"
)

// MySQL is the reference dialect: backtick quoting, inline indexes and an
// InnoDB/utf8mb4 table trailer.
var MySQL = &Dialect{
	name:  "mysql",
	quote: func(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" },
	bind:  questionMark,
	types: mysqlType,

	autoKey: "INT NOT NULL AUTO_INCREMENT PRIMARY KEY",
	create: func(table, body string) string {
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` (\n  %s\n) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;",
			strings.ReplaceAll(table, "`", "``"), body)
	},
	inlineIndexes: true,

	existsQuery: "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?",
	dropTable:   func(t string) string { return "DROP TABLE IF EXISTS `" + strings.ReplaceAll(t, "`", "``") + "`" },

	maxParams: 65535,
}

func mysqlType(p schema.ColumnProfile) string {
	switch p.Kind {
	case schema.KindInteger:
		if p.Unsigned {
			return "INT UNSIGNED"
		}
		return "INT"
	case schema.KindBigInt:
		if p.Unsigned {
			return "BIGINT UNSIGNED"
		}
		return "BIGINT"
	case schema.KindSmallInt:
		return "SMALLINT"
	case schema.KindFloat:
		if p.Double {
			return "DOUBLE"
		}
		return "FLOAT"
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
	case schema.KindLongText:
		return "LONGTEXT"
	default:
		return "TEXT"
	}
}
