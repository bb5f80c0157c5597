package ddl

// The builders here quote identifiers as [schema].[table] and guard DDL with
// IF OBJECT_ID(...) since older T-SQL has no IF [NOT] EXISTS on tables.

import (
	"fmt"
	"strings"

	gddl "carcrash/internal/ddl"
)

// BuildCreateTableSQL returns a T-SQL script of the form:
//
//	IF OBJECT_ID(N'[schema].[table]', N'U') IS NULL
//	BEGIN
//	  CREATE TABLE [schema].[table] (
//	    [col1] TYPE [NOT NULL] [DEFAULT expr],
//	    PRIMARY KEY ([pk1])
//	  );
//	END;
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	cols, err := gddl.ColumnClauses(t, QuoteIdent)
	if err != nil {
		return "", fmt.Errorf("mssql %w", err)
	}
	fqn := gddl.QuoteFQN(t.FQN, QuoteIdent)
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n    %s\n  );\nEND;",
		literal(fqn),
		fqn,
		strings.Join(cols, ",\n    "),
	), nil
}

// BuildDropTableSQL returns a guarded DROP TABLE for fqn.
func BuildDropTableSQL(fqn string) (string, error) {
	if strings.TrimSpace(fqn) == "" {
		return "", fmt.Errorf("mssql ddl: table FQN must not be empty")
	}
	q := gddl.QuoteFQN(fqn, QuoteIdent)
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NOT NULL DROP TABLE %s;", literal(q), q), nil
}

// QuoteIdent quotes a single identifier segment using bracket syntax,
// escaping closing brackets:
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func QuoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

// literal escapes s for use inside an N'...' string literal.
func literal(s string) string { return strings.ReplaceAll(s, "'", "''") }
