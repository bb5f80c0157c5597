// Package ddl renders SQLite DDL for result tables.
package ddl

import "carcrash/internal/table"

// MapType maps a column type to a SQLite type affinity. Booleans are stored
// as INTEGER 0/1.
func MapType(t table.Type) string {
	switch t {
	case table.TypeInteger, table.TypeBoolean:
		return "INTEGER"
	case table.TypeFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}
