package table

import (
	"fmt"
	"iter"
)

// Row is a read-only view of one table row.
type Row struct {
	schema *Schema
	vals   []Value
}

func (r Row) Schema() *Schema { return r.schema }
func (r Row) Len() int        { return len(r.vals) }
func (r Row) At(i int) Value  { return r.vals[i] }

// Get looks a value up by column name.
func (r Row) Get(name string) (Value, error) {
	i, err := r.schema.Lookup("row", name)
	if err != nil {
		return Value{}, err
	}
	return r.vals[i], nil
}

// Values returns a copy of the row's values in schema order.
func (r Row) Values() []Value {
	out := make([]Value, len(r.vals))
	copy(out, r.vals)
	return out
}

// Table is an immutable relation. Build one with Builder or New.
type Table struct {
	schema *Schema
	rows   [][]Value
}

// New validates rows against schema and wraps them in a Table. The table
// takes ownership of rows.
func New(schema *Schema, rows [][]Value) (*Table, error) {
	b := NewBuilder(schema, 0)
	for _, r := range rows {
		if err := b.Append(r...); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// Empty returns a table with schema and no rows.
func Empty(schema *Schema) *Table { return &Table{schema: schema} }

func (t *Table) Schema() *Schema { return t.schema }
func (t *Table) Len() int        { return len(t.rows) }

func (t *Table) Row(i int) Row { return Row{schema: t.schema, vals: t.rows[i]} }

// Value returns the cell at row i, column c.
func (t *Table) Value(i, c int) Value { return t.rows[i][c] }

// All iterates rows in order.
func (t *Table) All() iter.Seq2[int, Row] {
	return func(yield func(int, Row) bool) {
		for i, r := range t.rows {
			if !yield(i, Row{schema: t.schema, vals: r}) {
				return
			}
		}
	}
}

// Column returns a copy of every value in the named column.
func (t *Table) Column(name string) ([]Value, error) {
	c, err := t.schema.Lookup("column", name)
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[c]
	}
	return out, nil
}

// Builder accumulates rows for a new Table. It is not safe for concurrent use.
type Builder struct {
	schema *Schema
	rows   [][]Value
	built  bool
}

func NewBuilder(schema *Schema, sizeHint int) *Builder {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Builder{schema: schema, rows: make([][]Value, 0, sizeHint)}
}

func (b *Builder) Schema() *Schema { return b.schema }
func (b *Builder) Len() int        { return len(b.rows) }

// Append adds a row after checking width and per-column types. The builder
// takes ownership of vals.
func (b *Builder) Append(vals ...Value) error {
	if len(vals) != b.schema.Len() {
		return &SchemaError{
			Op:     "append",
			Err:    ErrWidthMismatch,
			Detail: fmt.Sprintf("want %d values, got %d", b.schema.Len(), len(vals)),
		}
	}
	for i, v := range vals {
		c := b.schema.cols[i]
		if v.kind != KindNull && v.kind != c.Type.Kind() {
			return &SchemaError{
				Op:     "append",
				Column: c.Name,
				Err:    ErrTypeMismatch,
				Detail: fmt.Sprintf("%s value in %s column", v.kind, c.Type),
			}
		}
	}
	b.rows = append(b.rows, vals)
	return nil
}

// AppendRow adds a row taken from a table with an identical column layout.
// The value slice is shared, not copied.
func (b *Builder) AppendRow(r Row) {
	b.rows = append(b.rows, r.vals)
}

// Build returns the finished table. The builder must not be used afterwards.
func (b *Builder) Build() *Table {
	if b.built {
		panic("table: Builder.Build called twice")
	}
	b.built = true
	return &Table{schema: b.schema, rows: b.rows}
}
