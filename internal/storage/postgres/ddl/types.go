// Package ddl contains Postgres-specific helpers for generating DDL.
package ddl

import "carcrash/internal/table"

// MapType maps a column type to a Postgres SQL type.
//
//	Integer -> BIGINT
//	Float   -> DOUBLE PRECISION
//	Boolean -> BOOLEAN
//	Text    -> TEXT
func MapType(t table.Type) string {
	switch t {
	case table.TypeInteger:
		return "BIGINT"
	case table.TypeFloat:
		return "DOUBLE PRECISION"
	case table.TypeBoolean:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}
