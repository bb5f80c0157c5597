// Package ddl defines a small, backend-agnostic model for SQL DDL and the
// shared rendering used by the per-backend packages under
// internal/storage/*/ddl.
//
// Renderers take a Quoter so each dialect keeps its own identifier syntax
// ("col" for Postgres and SQLite, [col] for SQL Server, `col` for MySQL).
// ColumnDef.Default is emitted as raw SQL; the caller is responsible for its
// safety and dialect correctness.
package ddl

import (
	"fmt"
	"strings"
)

// Quoter quotes a single identifier segment.
type Quoter func(string) string

// QuoteFQN quotes every non-empty segment of a dotted name.
func QuoteFQN(fqn string, q Quoter) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, q(p))
	}
	return strings.Join(out, ".")
}

// ColumnClauses validates t and renders one clause per column, plus a
// trailing PRIMARY KEY clause when any column is part of the key:
//
//	<Name> <SQLType> [NOT NULL] [DEFAULT <Default>]
//
// Primary-key columns are always NOT NULL.
func ColumnClauses(t TableDef, q Quoter) ([]string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return nil, fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string
	for _, c := range t.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return nil, fmt.Errorf("ddl: column %s missing SQLType", c.Name)
		}

		var sb strings.Builder
		sb.WriteString(q(c.Name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable || c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, q(c.Name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}
	return cols, nil
}

// BuildCreateTableSQL renders
//
//	CREATE TABLE IF NOT EXISTS <fqn> (
//	  <col1-def>,
//	  ...
//	);
//
// which Postgres, SQLite and MySQL all accept.
func BuildCreateTableSQL(t TableDef, q Quoter) (string, error) {
	cols, err := ColumnClauses(t, q)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		QuoteFQN(t.FQN, q),
		strings.Join(cols, ",\n  "),
	), nil
}

// BuildDropTableSQL renders DROP TABLE IF EXISTS <fqn>;
func BuildDropTableSQL(fqn string, q Quoter) (string, error) {
	if strings.TrimSpace(fqn) == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", QuoteFQN(fqn, q)), nil
}

// DoubleQuote is the ANSI identifier quoter used by Postgres and SQLite.
func DoubleQuote(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
