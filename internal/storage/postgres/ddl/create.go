package ddl

import (
	"fmt"

	gddl "carcrash/internal/ddl"
)

// BuildCreateTableSQL returns a Postgres CREATE TABLE IF NOT EXISTS statement
// for the given table definition, with double-quoted identifiers.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	s, err := gddl.BuildCreateTableSQL(t, gddl.DoubleQuote)
	if err != nil {
		return "", fmt.Errorf("postgres %w", err)
	}
	return s, nil
}

// BuildDropTableSQL returns DROP TABLE IF EXISTS for fqn.
func BuildDropTableSQL(fqn string) (string, error) {
	s, err := gddl.BuildDropTableSQL(fqn, gddl.DoubleQuote)
	if err != nil {
		return "", fmt.Errorf("postgres %w", err)
	}
	return s, nil
}
