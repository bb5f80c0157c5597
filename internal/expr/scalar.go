package expr

import (
	"fmt"

	"carcrash/internal/table"
)

// ValueEval is a scalar expression bound to a schema.
type ValueEval func(table.Row) table.Value

// Expr is an unbound scalar expression used to derive columns.
type Expr interface {
	Bind(s *table.Schema) (ValueEval, table.Type, error)
	String() string
}

type colRef struct{ name string }

// Col references a column by name.
func Col(name string) Expr { return colRef{name} }

func (c colRef) String() string { return c.name }

func (c colRef) Bind(s *table.Schema) (ValueEval, table.Type, error) {
	i, err := s.Lookup("expr", c.name)
	if err != nil {
		return nil, 0, err
	}
	return func(r table.Row) table.Value { return r.At(i) }, s.Column(i).Type, nil
}

type literal struct{ v table.Value }

// Lit is a constant.
func Lit(v table.Value) Expr { return literal{v} }

func (l literal) String() string { return quote(l.v) }

func (l literal) Bind(*table.Schema) (ValueEval, table.Type, error) {
	v := l.v
	return func(table.Row) table.Value { return v }, table.TypeOf(v.Kind()), nil
}

type add struct{ a, b Expr }

// Add sums two numeric expressions. Integer + Integer stays Integer; any
// Float operand makes the result Float. A Null operand yields Null.
func Add(a, b Expr) Expr { return add{a, b} }

func (e add) String() string { return fmt.Sprintf("(%s + %s)", e.a, e.b) }

func (e add) Bind(s *table.Schema) (ValueEval, table.Type, error) {
	fa, ta, err := e.a.Bind(s)
	if err != nil {
		return nil, 0, err
	}
	fb, tb, err := e.b.Bind(s)
	if err != nil {
		return nil, 0, err
	}
	if !ta.Numeric() || !tb.Numeric() {
		return nil, 0, &table.SchemaError{
			Op:     "expr",
			Err:    table.ErrTypeMismatch,
			Detail: fmt.Sprintf("%s: cannot add %s and %s", e, ta, tb),
		}
	}
	if ta == table.TypeInteger && tb == table.TypeInteger {
		return func(r table.Row) table.Value {
			x, y := fa(r), fb(r)
			if x.IsNull() || y.IsNull() {
				return table.Null()
			}
			xi, _ := x.Int()
			yi, _ := y.Int()
			return table.Int(xi + yi)
		}, table.TypeInteger, nil
	}
	return func(r table.Row) table.Value {
		x, y := fa(r), fb(r)
		if x.IsNull() || y.IsNull() {
			return table.Null()
		}
		xf, _ := x.Float()
		yf, _ := y.Float()
		return table.Float(xf + yf)
	}, table.TypeFloat, nil
}
