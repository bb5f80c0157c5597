package builtin

import (
	"fmt"

	"carcrash/internal/table"
)

// AggFunc selects an aggregate.
type AggFunc uint8

const (
	Count AggFunc = iota
	Sum
	Min
	Max
	CountDistinct
)

func (f AggFunc) String() string {
	switch f {
	case Count:
		return "count"
	case Sum:
		return "sum"
	case Min:
		return "min"
	case Max:
		return "max"
	case CountDistinct:
		return "count_distinct"
	}
	return fmt.Sprintf("AggFunc(%d)", uint8(f))
}

// Aggregation computes Func over Column within each group and names the
// result As. Count with an empty Column counts rows.
type Aggregation struct {
	Column string
	Func   AggFunc
	As     string
}

// Name is the output column name: As when set, "count" for a bare row
// count, otherwise func(column).
func (a Aggregation) Name() string {
	switch {
	case a.As != "":
		return a.As
	case a.Func == Count && a.Column == "":
		return "count"
	}
	return fmt.Sprintf("%s(%s)", a.Func, a.Column)
}

func (a Aggregation) String() string { return a.Name() }

// GroupBy groups rows by groupCols and computes aggs per group. Null is a
// valid group key. Groups are emitted in first-seen order, so the sum of a
// bare count over all groups equals t.Len().
func GroupBy(t *table.Table, groupCols []string, aggs []Aggregation) (*table.Table, error) {
	s := t.Schema()
	gi, err := s.LookupAll("group by", groupCols)
	if err != nil {
		return nil, err
	}
	specs := make([]aggSpec, len(aggs))
	cols := make([]table.Column, 0, len(gi)+len(aggs))
	for _, c := range gi {
		cols = append(cols, s.Column(c))
	}
	for i, a := range aggs {
		sp, err := bindAgg(s, a)
		if err != nil {
			return nil, err
		}
		specs[i] = sp
		cols = append(cols, table.Column{Name: a.Name(), Type: sp.typ})
	}
	out, err := table.NewSchema(cols...)
	if err != nil {
		return nil, err
	}

	groups := table.NewKeyIndex(0)
	var states [][]accumulator
	key := make([]table.Value, len(gi))
	for _, r := range t.All() {
		for i, c := range gi {
			key[i] = r.At(c)
		}
		id, added := groups.Insert(key)
		if added {
			states = append(states, newAccumulators(specs))
		}
		for i, acc := range states[id] {
			acc.add(r, specs[i].col)
		}
	}
	// A global aggregate over an empty table still yields one row.
	if len(gi) == 0 && groups.Len() == 0 {
		groups.Insert(nil)
		states = append(states, newAccumulators(specs))
	}

	b := table.NewBuilder(out, groups.Len())
	for id, accs := range states {
		vals := make([]table.Value, 0, out.Len())
		vals = append(vals, groups.Key(id)...)
		for _, acc := range accs {
			vals = append(vals, acc.result())
		}
		if err := b.Append(vals...); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

type aggSpec struct {
	fn  AggFunc
	col int // -1 for a bare row count
	typ table.Type
}

func bindAgg(s *table.Schema, a Aggregation) (aggSpec, error) {
	if a.Func == Count && a.Column == "" {
		return aggSpec{fn: Count, col: -1, typ: table.TypeInteger}, nil
	}
	c, err := s.Lookup("aggregate", a.Column)
	if err != nil {
		return aggSpec{}, err
	}
	src := s.Column(c).Type
	sp := aggSpec{fn: a.Func, col: c, typ: src}
	switch a.Func {
	case Count, CountDistinct:
		sp.typ = table.TypeInteger
	case Sum:
		if !src.Numeric() {
			return aggSpec{}, &table.SchemaError{
				Op:     "aggregate",
				Column: a.Column,
				Err:    table.ErrTypeMismatch,
				Detail: fmt.Sprintf("sum over %s column", src),
			}
		}
	case Min, Max:
	default:
		return aggSpec{}, fmt.Errorf("aggregate %s: unknown function %s", a.Column, a.Func)
	}
	return sp, nil
}

type accumulator interface {
	add(r table.Row, col int)
	result() table.Value
}

func newAccumulators(specs []aggSpec) []accumulator {
	out := make([]accumulator, len(specs))
	for i, sp := range specs {
		switch sp.fn {
		case Count:
			out[i] = &countAcc{}
		case CountDistinct:
			out[i] = &distinctAcc{seen: table.NewKeyIndex(0)}
		case Sum:
			if sp.typ == table.TypeInteger {
				out[i] = &sumIntAcc{}
			} else {
				out[i] = &sumFloatAcc{}
			}
		case Min:
			out[i] = &extremeAcc{sign: -1}
		case Max:
			out[i] = &extremeAcc{sign: 1}
		}
	}
	return out
}

type countAcc struct{ n int64 }

func (a *countAcc) add(r table.Row, col int) {
	if col < 0 || !r.At(col).IsNull() {
		a.n++
	}
}
func (a *countAcc) result() table.Value { return table.Int(a.n) }

type distinctAcc struct{ seen *table.KeyIndex }

func (a *distinctAcc) add(r table.Row, col int) {
	if v := r.At(col); !v.IsNull() {
		a.seen.Insert([]table.Value{v})
	}
}
func (a *distinctAcc) result() table.Value { return table.Int(int64(a.seen.Len())) }

type sumIntAcc struct {
	n   int64
	any bool
}

func (a *sumIntAcc) add(r table.Row, col int) {
	if n, ok := r.At(col).Int(); ok {
		a.n += n
		a.any = true
	}
}

func (a *sumIntAcc) result() table.Value {
	if !a.any {
		return table.Null()
	}
	return table.Int(a.n)
}

type sumFloatAcc struct {
	f   float64
	any bool
}

func (a *sumFloatAcc) add(r table.Row, col int) {
	if f, ok := r.At(col).Float(); ok {
		a.f += f
		a.any = true
	}
}

func (a *sumFloatAcc) result() table.Value {
	if !a.any {
		return table.Null()
	}
	return table.Float(a.f)
}

// extremeAcc keeps the minimum (sign -1) or maximum (sign 1).
type extremeAcc struct {
	sign int
	best table.Value
}

func (a *extremeAcc) add(r table.Row, col int) {
	v := r.At(col)
	if v.IsNull() {
		return
	}
	if a.best.IsNull() {
		a.best = v
		return
	}
	if c, err := table.Compare(v, a.best); err == nil && c*a.sign > 0 {
		a.best = v
	}
}
func (a *extremeAcc) result() table.Value { return a.best }
