// Package ddl contains MSSQL-specific helpers for generating DDL.
package ddl

import "carcrash/internal/table"

// MapType maps a column type into a SQL Server column type. Text falls back
// to NVARCHAR(MAX).
func MapType(t table.Type) string {
	switch t {
	case table.TypeInteger:
		return "BIGINT"
	case table.TypeFloat:
		return "FLOAT"
	case table.TypeBoolean:
		return "BIT"
	default:
		return "NVARCHAR(MAX)"
	}
}
