package builtin

import (
	"fmt"
	"log/slog"
	"slices"

	"carcrash/internal/table"
)

// JoinOptions configures an inner equi-join.
type JoinOptions struct {
	// Keys are column names present on both sides.
	Keys []string

	// CollapseKeys emits each key column once, taken from the left side.
	// Otherwise the right copies are kept and must be qualified.
	CollapseKeys bool

	// Qualifier renames colliding right-side columns to Qualifier.name.
	// Without it any collision is a SchemaError.
	Qualifier string
}

// Join returns the inner equi-join of left and right. Rows with a Null in any
// key never match. Output follows left row order; the matches of one left row
// are contiguous and in right row order. The hash table is built over the
// smaller input.
func Join(left, right *table.Table, opt JoinOptions) (*table.Table, error) {
	if len(opt.Keys) == 0 {
		return nil, &table.SchemaError{Op: "join", Err: table.ErrUnknownColumn, Detail: "no join keys"}
	}
	lk, err := left.Schema().LookupAll("join", opt.Keys)
	if err != nil {
		return nil, fmt.Errorf("left: %w", err)
	}
	rk, err := right.Schema().LookupAll("join", opt.Keys)
	if err != nil {
		return nil, fmt.Errorf("right: %w", err)
	}
	for i := range lk {
		lt, rt := left.Schema().Column(lk[i]).Type, right.Schema().Column(rk[i]).Type
		if !lt.Comparable(rt) {
			return nil, &table.SchemaError{
				Op:     "join",
				Column: opt.Keys[i],
				Err:    table.ErrTypeMismatch,
				Detail: fmt.Sprintf("left %s, right %s", lt, rt),
			}
		}
	}

	schema, rightCols, err := joinSchema(left.Schema(), right.Schema(), rk, opt)
	if err != nil {
		return nil, err
	}

	var pairs [][2]int
	if right.Len() <= left.Len() {
		pairs = probeInOrder(left, lk, buildIndex(right, rk))
	} else {
		// Build on the left, probe with the right, then restore left order.
		// The sort is stable so right order holds within each left row.
		rev := probeInOrder(right, rk, buildIndex(left, lk))
		for i := range rev {
			rev[i][0], rev[i][1] = rev[i][1], rev[i][0]
		}
		slices.SortStableFunc(rev, func(a, b [2]int) int { return a[0] - b[0] })
		pairs = rev
	}

	b := table.NewBuilder(schema, len(pairs))
	width := schema.Len()
	for _, p := range pairs {
		lr, rr := left.Row(p[0]), right.Row(p[1])
		vals := make([]table.Value, 0, width)
		for c := 0; c < lr.Len(); c++ {
			vals = append(vals, lr.At(c))
		}
		for _, c := range rightCols {
			vals = append(vals, rr.At(c))
		}
		if err := b.Append(vals...); err != nil {
			return nil, err
		}
	}
	out := b.Build()
	slog.Debug("join",
		"component", "builtin",
		"keys", opt.Keys,
		"left", left.Len(),
		"right", right.Len(),
		"rows", out.Len(),
	)
	return out, nil
}

// joinSchema lays out all left columns followed by the kept right columns.
func joinSchema(ls, rs *table.Schema, rk []int, opt JoinOptions) (*table.Schema, []int, error) {
	isKey := make(map[int]bool, len(rk))
	for _, c := range rk {
		isKey[c] = true
	}
	cols := ls.Columns()
	var keep []int
	for c := 0; c < rs.Len(); c++ {
		if opt.CollapseKeys && isKey[c] {
			continue
		}
		col := rs.Column(c)
		if _, clash := ls.Index(col.Name); clash {
			if opt.Qualifier == "" {
				return nil, nil, &table.SchemaError{
					Op:     "join",
					Column: col.Name,
					Err:    table.ErrDuplicateColumn,
					Detail: "present on both sides; set a qualifier",
				}
			}
			col.Name = opt.Qualifier + "." + col.Name
		}
		cols = append(cols, col)
		keep = append(keep, c)
	}
	s, err := table.NewSchema(cols...)
	if err != nil {
		return nil, nil, err
	}
	return s, keep, nil
}

type hashIndex struct {
	keys *table.KeyIndex
	rows [][]int
}

func buildIndex(t *table.Table, cols []int) hashIndex {
	h := hashIndex{keys: table.NewKeyIndex(t.Len())}
	key := make([]table.Value, len(cols))
	for i, r := range t.All() {
		if !keyOf(r, cols, key) {
			continue
		}
		id, added := h.keys.Insert(key)
		if added {
			h.rows = append(h.rows, nil)
		}
		h.rows[id] = append(h.rows[id], i)
	}
	return h
}

// probeInOrder returns (probe row, build row) pairs in probe order.
func probeInOrder(t *table.Table, cols []int, h hashIndex) [][2]int {
	var pairs [][2]int
	key := make([]table.Value, len(cols))
	for i, r := range t.All() {
		if !keyOf(r, cols, key) {
			continue
		}
		id, ok := h.keys.Lookup(key)
		if !ok {
			continue
		}
		for _, j := range h.rows[id] {
			pairs = append(pairs, [2]int{i, j})
		}
	}
	return pairs
}

// keyOf fills dst with the key values of r and reports false when any is Null.
func keyOf(r table.Row, cols []int, dst []table.Value) bool {
	for i, c := range cols {
		v := r.At(c)
		if v.IsNull() {
			return false
		}
		dst[i] = v
	}
	return true
}
