package builtin

import (
	"fmt"
	"strings"

	"carcrash/internal/expr"
	"carcrash/internal/table"
)

// The types below wrap the operators as transformer.Transformer values so an
// analysis can be declared as a transformer.Chain.

type Where struct{ Pred expr.Predicate }

func (w Where) Apply(t *table.Table) (*table.Table, error) { return Filter(t, w.Pred) }
func (w Where) String() string                             { return "where " + w.Pred.String() }

type Project struct{ Columns []string }

func (p Project) Apply(t *table.Table) (*table.Table, error) { return Select(t, p.Columns...) }
func (p Project) String() string                             { return "select " + strings.Join(p.Columns, ", ") }

type Derive struct {
	Name string
	Expr expr.Expr
}

func (d Derive) Apply(t *table.Table) (*table.Table, error) { return WithColumn(t, d.Name, d.Expr) }
func (d Derive) String() string                             { return fmt.Sprintf("%s = %s", d.Name, d.Expr) }

type Renamed struct{ From, To string }

func (r Renamed) Apply(t *table.Table) (*table.Table, error) { return Rename(t, r.From, r.To) }
func (r Renamed) String() string                             { return "rename " + r.From + " to " + r.To }

type Aggregate struct {
	GroupBy []string
	Aggs    []Aggregation
}

func (a Aggregate) Apply(t *table.Table) (*table.Table, error) { return GroupBy(t, a.GroupBy, a.Aggs) }
func (a Aggregate) String() string {
	return fmt.Sprintf("group by %s agg %v", strings.Join(a.GroupBy, ", "), a.Aggs)
}

type Sort struct{ Keys []SortKey }

func (s Sort) Apply(t *table.Table) (*table.Table, error) { return OrderBy(t, s.Keys...) }
func (s Sort) String() string                             { return "order by " + keysString(s.Keys) }

type Head struct{ N int }

func (h Head) Apply(t *table.Table) (*table.Table, error) { return Limit(t, h.N), nil }
func (h Head) String() string                             { return fmt.Sprintf("limit %d", h.N) }

type Last struct{ N int }

func (l Last) Apply(t *table.Table) (*table.Table, error) { return Tail(t, l.N), nil }
func (l Last) String() string                             { return fmt.Sprintf("tail %d", l.N) }

type NonNull struct{ Columns []string }

func (n NonNull) Apply(t *table.Table) (*table.Table, error) { return DropNull(t, n.Columns...) }
func (n NonNull) String() string                             { return "drop nulls in " + strings.Join(n.Columns, ", ") }

type TopPerPartition struct {
	Partition  []string
	Order      []SortKey
	RankColumn string
}

func (p TopPerPartition) Apply(t *table.Table) (*table.Table, error) {
	return TopOnePerPartition(t, p.Partition, p.Order, p.RankColumn)
}

func (p TopPerPartition) String() string {
	return fmt.Sprintf("top 1 per %s by %s", strings.Join(p.Partition, ", "), keysString(p.Order))
}

// JoinWith joins the chain's table (left) with Right.
type JoinWith struct {
	Right   *table.Table
	Options JoinOptions
}

func (j JoinWith) Apply(t *table.Table) (*table.Table, error) { return Join(t, j.Right, j.Options) }
func (j JoinWith) String() string                             { return "join on " + strings.Join(j.Options.Keys, ", ") }
