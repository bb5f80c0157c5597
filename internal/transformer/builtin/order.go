package builtin

import (
	"fmt"
	"slices"

	"carcrash/internal/table"
)

// SortKey orders rows by one column. Nulls sort last ascending and first
// descending.
type SortKey struct {
	Column string
	Desc   bool
}

func Asc(col string) SortKey  { return SortKey{Column: col} }
func Desc(col string) SortKey { return SortKey{Column: col, Desc: true} }

func (k SortKey) String() string {
	if k.Desc {
		return k.Column + " DESC"
	}
	return k.Column + " ASC"
}

type boundKey struct {
	col  int
	desc bool
}

func bindKeys(op string, s *table.Schema, keys []SortKey) ([]boundKey, error) {
	out := make([]boundKey, len(keys))
	for i, k := range keys {
		c, err := s.Lookup(op, k.Column)
		if err != nil {
			return nil, err
		}
		out[i] = boundKey{col: c, desc: k.Desc}
	}
	return out, nil
}

// compareRows orders two rows by keys. Values within a column share a type,
// so Compare cannot fail here.
func compareRows(keys []boundKey, a, b table.Row) int {
	for _, k := range keys {
		c, _ := table.Compare(a.At(k.col), b.At(k.col))
		if c == 0 {
			continue
		}
		if k.desc {
			return -c
		}
		return c
	}
	return 0
}

// OrderBy sorts rows by keys. The sort is stable, so equal rows keep their
// input order and sorting twice gives the same table.
func OrderBy(t *table.Table, keys ...SortKey) (*table.Table, error) {
	bk, err := bindKeys("order by", t.Schema(), keys)
	if err != nil {
		return nil, err
	}
	idx := make([]int, t.Len())
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return compareRows(bk, t.Row(a), t.Row(b))
	})
	return pick(t, idx), nil
}

// Limit keeps the first n rows. n <= 0 gives an empty table.
func Limit(t *table.Table, n int) *table.Table {
	n = max(0, min(n, t.Len()))
	return pickRange(t, 0, n)
}

// Tail keeps the last n rows.
func Tail(t *table.Table, n int) *table.Table {
	n = max(0, min(n, t.Len()))
	return pickRange(t, t.Len()-n, t.Len())
}

func pick(t *table.Table, idx []int) *table.Table {
	b := table.NewBuilder(t.Schema(), len(idx))
	for _, i := range idx {
		b.AppendRow(t.Row(i))
	}
	return b.Build()
}

func pickRange(t *table.Table, from, to int) *table.Table {
	b := table.NewBuilder(t.Schema(), to-from)
	for i := from; i < to; i++ {
		b.AppendRow(t.Row(i))
	}
	return b.Build()
}

func keysString(keys []SortKey) string {
	return fmt.Sprint(keys)
}
