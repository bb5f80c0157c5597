// Package expr holds row predicates and scalar expressions used by the
// relational operators.
//
// A Predicate is declared by column name and bound to a schema once; binding
// resolves column positions and rejects ordered comparisons between
// incompatible types with a *table.SchemaError. The bound Eval never fails:
// any comparison whose column value is Null evaluates to false.
package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"carcrash/internal/table"
)

// Eval is a predicate bound to a schema.
type Eval func(table.Row) bool

// Predicate is an unbound boolean condition over rows.
type Predicate interface {
	Bind(s *table.Schema) (Eval, error)
	String() string
}

type cmpOp uint8

const (
	opEq cmpOp = iota
	opNe
	opGt
	opGe
	opLt
	opLe
)

var cmpSymbols = [...]string{"=", "!=", ">", ">=", "<", "<="}

func (o cmpOp) ordered() bool { return o >= opGt }

func (o cmpOp) holds(c int) bool {
	switch o {
	case opEq:
		return c == 0
	case opNe:
		return c != 0
	case opGt:
		return c > 0
	case opGe:
		return c >= 0
	case opLt:
		return c < 0
	}
	return c <= 0
}

type comparison struct {
	col string
	op  cmpOp
	lit table.Value
}

// Eq keeps rows whose column equals v.
func Eq(col string, v table.Value) Predicate { return comparison{col, opEq, v} }

// Ne keeps rows whose column is non-null and differs from v.
func Ne(col string, v table.Value) Predicate { return comparison{col, opNe, v} }

func Gt(col string, v table.Value) Predicate { return comparison{col, opGt, v} }
func Ge(col string, v table.Value) Predicate { return comparison{col, opGe, v} }
func Lt(col string, v table.Value) Predicate { return comparison{col, opLt, v} }
func Le(col string, v table.Value) Predicate { return comparison{col, opLe, v} }

func (c comparison) String() string {
	return fmt.Sprintf("%s %s %s", c.col, cmpSymbols[c.op], quote(c.lit))
}

func (c comparison) Bind(s *table.Schema) (Eval, error) {
	i, err := s.Lookup("filter", c.col)
	if err != nil {
		return nil, err
	}
	if c.lit.IsNull() {
		return func(table.Row) bool { return false }, nil
	}
	if c.op.ordered() {
		if err := checkLiteral(s.Column(i), c.lit); err != nil {
			return nil, err
		}
	}
	lit, op := c.lit, c.op
	return func(r table.Row) bool {
		v := r.At(i)
		if v.IsNull() {
			return false
		}
		if !op.ordered() {
			return table.Equal(v, lit) == (op == opEq)
		}
		n, err := table.Compare(v, lit)
		return err == nil && op.holds(n)
	}, nil
}

// checkLiteral rejects a literal whose type cannot be ordered against col.
// Equality and membership never call it: mismatched values are just unequal.
func checkLiteral(col table.Column, lit table.Value) error {
	if lit.IsNull() {
		return nil
	}
	lt := table.TypeOf(lit.Kind())
	if !col.Type.Comparable(lt) {
		return &table.SchemaError{
			Op:     "filter",
			Column: col.Name,
			Err:    table.ErrIncomparable,
			Detail: fmt.Sprintf("%s column against %s literal %s", col.Type, lt, quote(lit)),
		}
	}
	return nil
}

type membership struct {
	col    string
	set    table.ValueSet
	negate bool
}

// In keeps rows whose column is one of vals.
func In(col string, vals ...table.Value) Predicate {
	return membership{col: col, set: table.NewValueSet(vals...)}
}

// NotIn keeps rows whose column is non-null and not one of vals.
func NotIn(col string, vals ...table.Value) Predicate {
	return membership{col: col, set: table.NewValueSet(vals...), negate: true}
}

// InSet is In over a set computed by another operator chain.
func InSet(col string, set table.ValueSet) Predicate {
	return membership{col: col, set: set}
}

// NotInSet is the negation of InSet; Null values are still dropped.
func NotInSet(col string, set table.ValueSet) Predicate {
	return membership{col: col, set: set, negate: true}
}

// Texts converts string literals to Text values.
func Texts(ss ...string) []table.Value {
	out := make([]table.Value, len(ss))
	for i, s := range ss {
		out[i] = table.Text(s)
	}
	return out
}

func (m membership) String() string {
	vals := m.set.Values()
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = quote(v)
	}
	op := "IN"
	if m.negate {
		op = "NOT IN"
	}
	return fmt.Sprintf("%s %s (%s)", m.col, op, strings.Join(parts, ", "))
}

func (m membership) Bind(s *table.Schema) (Eval, error) {
	i, err := s.Lookup("filter", m.col)
	if err != nil {
		return nil, err
	}
	set, negate := m.set, m.negate
	return func(r table.Row) bool {
		v := r.At(i)
		if v.IsNull() {
			return false
		}
		return set.Contains(v) != negate
	}, nil
}

type nullCheck struct {
	col  string
	want bool
}

func IsNull(col string) Predicate  { return nullCheck{col, true} }
func NotNull(col string) Predicate { return nullCheck{col, false} }

func (n nullCheck) String() string {
	if n.want {
		return n.col + " IS NULL"
	}
	return n.col + " IS NOT NULL"
}

func (n nullCheck) Bind(s *table.Schema) (Eval, error) {
	i, err := s.Lookup("filter", n.col)
	if err != nil {
		return nil, err
	}
	want := n.want
	return func(r table.Row) bool { return r.At(i).IsNull() == want }, nil
}

type notInteger struct{ col string }

// NotInteger keeps rows whose value cannot be read as an integer: Null,
// and text that is not a finite decimal number. Decimal text counts as
// integer-like because the conversion truncates it.
func NotInteger(col string) Predicate { return notInteger{col} }

func (n notInteger) String() string { return "CAST(" + n.col + " AS INT) IS NULL" }

func (n notInteger) Bind(s *table.Schema) (Eval, error) {
	i, err := s.Lookup("filter", n.col)
	if err != nil {
		return nil, err
	}
	return func(r table.Row) bool {
		v := r.At(i)
		switch v.Kind() {
		case table.KindNull:
			return true
		case table.KindText:
			txt, _ := v.Text()
			f, err := strconv.ParseFloat(strings.TrimSpace(txt), 64)
			return err != nil || math.IsNaN(f) || math.IsInf(f, 0)
		case table.KindFloat:
			f, _ := v.Float()
			return math.IsNaN(f) || math.IsInf(f, 0)
		case table.KindBool:
			return true
		}
		return false
	}, nil
}

type junction struct {
	and   bool
	preds []Predicate
}

// And is true when every predicate is; an empty And is true.
func And(ps ...Predicate) Predicate { return junction{and: true, preds: ps} }

// Or is true when any predicate is; an empty Or is false.
func Or(ps ...Predicate) Predicate { return junction{preds: ps} }

func (j junction) String() string {
	parts := make([]string, len(j.preds))
	for i, p := range j.preds {
		parts[i] = "(" + p.String() + ")"
	}
	sep := " OR "
	if j.and {
		sep = " AND "
	}
	return strings.Join(parts, sep)
}

func (j junction) Bind(s *table.Schema) (Eval, error) {
	evals := make([]Eval, len(j.preds))
	for i, p := range j.preds {
		e, err := p.Bind(s)
		if err != nil {
			return nil, err
		}
		evals[i] = e
	}
	if j.and {
		return func(r table.Row) bool {
			for _, e := range evals {
				if !e(r) {
					return false
				}
			}
			return true
		}, nil
	}
	return func(r table.Row) bool {
		for _, e := range evals {
			if e(r) {
				return true
			}
		}
		return false
	}, nil
}

type negation struct{ p Predicate }

// Not negates p. Evaluation is two-valued, so Not(Eq(c, v)) keeps rows where
// c is Null; use Ne or NotIn to drop them.
func Not(p Predicate) Predicate { return negation{p} }

func (n negation) String() string { return "NOT (" + n.p.String() + ")" }

func (n negation) Bind(s *table.Schema) (Eval, error) {
	e, err := n.p.Bind(s)
	if err != nil {
		return nil, err
	}
	return func(r table.Row) bool { return !e(r) }, nil
}

func quote(v table.Value) string {
	if v.Kind() == table.KindText {
		return strconv.Quote(v.Render())
	}
	return v.String()
}
