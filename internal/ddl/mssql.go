// internal/ddl/mssql.go

package ddl

import (
	"fmt"
	"strconv"
	"strings"

	"csvload/internal/schema"
)

// MSSQL uses bracket quoting, @pN parameters, and wraps CREATE TABLE in an
// IF OBJECT_ID(...) IS NULL guard since T-SQL has no CREATE TABLE IF NOT
// EXISTS.
var MSSQL = &Dialect{
	name:  "mssql",
	quote: quoteBracket,
	bind:  func(n int) string { return "@p" + strconv.Itoa(n) },
	types: mssqlType,

	autoKey: "INT IDENTITY(1,1) NOT NULL PRIMARY KEY",
	create: func(table, body string) string {
		q := quoteBracket(table)
		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n    %s\n  );\nEND;",
			q, q, strings.ReplaceAll(body, "\n  ", "\n    "))
	},
	createIndex: func(table, index, column string) string {
		return fmt.Sprintf("IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = N'%s' AND object_id = OBJECT_ID(N'%s'))\n  CREATE INDEX %s ON %s (%s);",
			strings.ReplaceAll(index, "'", "''"), quoteBracket(table), quoteBracket(index), quoteBracket(table), quoteBracket(column))
	},

	existsQuery: "SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_NAME = @p1",
	dropTable:   func(t string) string { return "DROP TABLE IF EXISTS " + quoteBracket(t) },

	savepoint:  "SAVE TRANSACTION csvload_row",
	rollbackTo: "ROLLBACK TRANSACTION csvload_row",

	maxParams: 2000,
	maxRows:   1000,
}

// quoteBracket quotes a single identifier segment for SQL Server using
// bracket syntax, escaping any closing brackets.
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func quoteBracket(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

func mssqlType(p schema.ColumnProfile) string {
	switch p.Kind {
	case schema.KindInteger:
		if p.Unsigned {
			return "BIGINT"
		}
		return "INT"
	case schema.KindBigInt:
		if p.Unsigned {
			return "DECIMAL(20,0)"
		}
		return "BIGINT"
	case schema.KindSmallInt:
		return "SMALLINT"
	case schema.KindFloat:
		if p.Double {
			return "FLOAT"
		}
		return "REAL"
	case schema.KindBoolean:
		return "BIT"
	case schema.KindDate:
		return "DATE"
	case schema.KindTime:
		return "TIME"
	case schema.KindDateTime:
		return "DATETIME2"
	case schema.KindEmail, schema.KindPhone, schema.KindVarChar:
		return fmt.Sprintf("NVARCHAR(%d)", p.Length)
	default:
		return "NVARCHAR(MAX)"
	}
}
