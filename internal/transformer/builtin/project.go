// Package builtin contains the relational operators used by analyses.
//
// Every operator takes immutable tables and returns a new one; inputs are
// never modified. Row value slices may be shared between input and output
// when the column layout is unchanged. Column references are resolved by
// name up front, so an unknown column fails with a *table.SchemaError before
// any row is read.
package builtin

import (
	"fmt"

	"carcrash/internal/expr"
	"carcrash/internal/table"
)

// Filter keeps the rows for which p holds, in input order.
func Filter(t *table.Table, p expr.Predicate) (*table.Table, error) {
	eval, err := p.Bind(t.Schema())
	if err != nil {
		return nil, err
	}
	b := table.NewBuilder(t.Schema(), 0)
	for _, r := range t.All() {
		if eval(r) {
			b.AppendRow(r)
		}
	}
	return b.Build(), nil
}

// Select projects cols in the given order.
func Select(t *table.Table, cols ...string) (*table.Table, error) {
	idx, err := t.Schema().LookupAll("select", cols)
	if err != nil {
		return nil, err
	}
	out := make([]table.Column, len(idx))
	for i, c := range idx {
		out[i] = t.Schema().Column(c)
	}
	s, err := table.NewSchema(out...)
	if err != nil {
		return nil, err
	}
	b := table.NewBuilder(s, t.Len())
	for _, r := range t.All() {
		vals := make([]table.Value, len(idx))
		for i, c := range idx {
			vals[i] = r.At(c)
		}
		if err := b.Append(vals...); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// Rename changes one column name. Rows are shared with t.
func Rename(t *table.Table, from, to string) (*table.Table, error) {
	c, err := t.Schema().Lookup("rename", from)
	if err != nil {
		return nil, err
	}
	cols := t.Schema().Columns()
	cols[c].Name = to
	s, err := table.NewSchema(cols...)
	if err != nil {
		return nil, err
	}
	b := table.NewBuilder(s, t.Len())
	for _, r := range t.All() {
		b.AppendRow(r)
	}
	return b.Build(), nil
}

// WithColumn evaluates e for every row and stores it under name. An existing
// column of that name is replaced in place; otherwise the column is appended.
func WithColumn(t *table.Table, name string, e expr.Expr) (*table.Table, error) {
	eval, typ, err := e.Bind(t.Schema())
	if err != nil {
		return nil, fmt.Errorf("with column %s: %w", name, err)
	}
	cols := t.Schema().Columns()
	pos, exists := t.Schema().Index(name)
	if exists {
		cols[pos].Type = typ
	} else {
		pos = len(cols)
		cols = append(cols, table.Column{Name: name, Type: typ})
	}
	s, err := table.NewSchema(cols...)
	if err != nil {
		return nil, err
	}
	b := table.NewBuilder(s, t.Len())
	for _, r := range t.All() {
		vals := r.Values()
		if !exists {
			vals = append(vals, table.Null())
		}
		vals[pos] = eval(r)
		if err := b.Append(vals...); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}
