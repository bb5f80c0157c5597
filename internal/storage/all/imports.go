// Package all wires every built-in storage backend into the storage factory.
//
// It exists purely for side effects: importing it runs the init functions of
// each backend, which register their factories and DDL bootstrappers. The
// kinds made available are:
//
//   - "csv"      (carcrash/internal/storage/csvfile)
//   - "sqlite"   (carcrash/internal/storage/sqlite)
//   - "postgres" (carcrash/internal/storage/postgres)
//   - "mssql"    (carcrash/internal/storage/mssql)
//   - "mysql"    (carcrash/internal/storage/mysql)
//
// A binary that needs only some backends can import those packages directly
// instead.
package all

import (
	_ "carcrash/internal/storage/csvfile"
	_ "carcrash/internal/storage/mssql"
	_ "carcrash/internal/storage/mysql"
	_ "carcrash/internal/storage/postgres"
	_ "carcrash/internal/storage/sqlite"
)
