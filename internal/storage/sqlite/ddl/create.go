package ddl

import (
	"fmt"

	gddl "carcrash/internal/ddl"
)

// BuildCreateTableSQL returns a SQLite CREATE TABLE statement:
//
//	CREATE TABLE IF NOT EXISTS "table" (
//	  "col1" TYPE [NOT NULL] [DEFAULT expr],
//	  PRIMARY KEY ("pk1")
//	);
//
// A dotted FQN such as "main.events" has each segment quoted.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	s, err := gddl.BuildCreateTableSQL(t, gddl.DoubleQuote)
	if err != nil {
		return "", fmt.Errorf("sqlite %w", err)
	}
	return s, nil
}

// BuildDropTableSQL returns DROP TABLE IF EXISTS "table";
func BuildDropTableSQL(fqn string) (string, error) {
	s, err := gddl.BuildDropTableSQL(fqn, gddl.DoubleQuote)
	if err != nil {
		return "", fmt.Errorf("sqlite %w", err)
	}
	return s, nil
}
