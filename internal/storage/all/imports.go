// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each concrete backend, which register
// their factories with the storage package. After the import the following
// kinds are available to storage.Open:
//
//   - "mysql"    (csvload/internal/storage/mysql)
//   - "postgres" (csvload/internal/storage/postgres)
//   - "sqlite"   (csvload/internal/storage/sqlite)
//   - "mssql"    (csvload/internal/storage/mssql)
//
// Typical usage in cmd/csvload:
//
//	import _ "csvload/internal/storage/all"
//
//	ex, err := storage.Open(ctx, storage.Config{Kind: "mysql", DSN: dsn})
//
// A binary that needs only some backends can import those packages directly
// instead.
package all

import (
	_ "csvload/internal/storage/mssql"
	_ "csvload/internal/storage/mysql"
	_ "csvload/internal/storage/postgres"
	_ "csvload/internal/storage/sqlite"
)
