package ddl

import (
	"fmt"
	"strings"

	"carcrash/internal/table"
)

// ColumnDef describes a single column in a table definition. Name is
// unquoted; quoting happens at render time. Default is raw SQL.
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds the table name (possibly dotted, e.g. "schema.table") and an
// ordered list of columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// TypeMapper maps a column type to a dialect's SQL type.
type TypeMapper func(table.Type) string

// FromSchema derives a table definition from a result schema. Every column is
// nullable since any cell of a result table may be Null.
func FromSchema(fqn string, s *table.Schema, mapType TypeMapper) (TableDef, error) {
	if strings.TrimSpace(fqn) == "" {
		return TableDef{}, fmt.Errorf("ddl: table FQN must not be empty")
	}
	if s == nil || s.Len() == 0 {
		return TableDef{}, fmt.Errorf("ddl: %s: at least one column is required", fqn)
	}
	def := TableDef{FQN: fqn, Columns: make([]ColumnDef, s.Len())}
	for i, c := range s.Columns() {
		def.Columns[i] = ColumnDef{Name: c.Name, SQLType: mapType(c.Type), Nullable: true}
	}
	return def, nil
}
