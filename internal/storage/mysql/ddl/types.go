// Package ddl contains MySQL-specific helpers for generating DDL.
package ddl

import (
	"fmt"
	"strings"

	gddl "carcrash/internal/ddl"
	"carcrash/internal/table"
)

// MapType maps a column type into a MySQL column type.
func MapType(t table.Type) string {
	switch t {
	case table.TypeInteger:
		return "BIGINT"
	case table.TypeFloat:
		return "DOUBLE"
	case table.TypeBoolean:
		return "BOOLEAN"
	default:
		return "LONGTEXT"
	}
}

// QuoteIdent backtick-quotes an identifier, doubling embedded backticks.
func QuoteIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

// BuildCreateTableSQL returns CREATE TABLE IF NOT EXISTS with backtick quoting.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	s, err := gddl.BuildCreateTableSQL(t, QuoteIdent)
	if err != nil {
		return "", fmt.Errorf("mysql %w", err)
	}
	return s, nil
}

// BuildDropTableSQL returns DROP TABLE IF EXISTS for fqn.
func BuildDropTableSQL(fqn string) (string, error) {
	s, err := gddl.BuildDropTableSQL(fqn, QuoteIdent)
	if err != nil {
		return "", fmt.Errorf("mysql %w", err)
	}
	return s, nil
}
