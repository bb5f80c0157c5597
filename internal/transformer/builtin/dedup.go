package builtin

import (
	"fmt"
	"strings"

	"carcrash/internal/bitmap"
	"carcrash/internal/table"
)

// Duplicate-resolution policies for DeDup.
const (
	KeepFirst    = "keep-first"
	KeepLast     = "keep-last"
	MostComplete = "most-complete"
)

// DeDup collapses rows that share a key and keeps one winner per key:
//
//   - "keep-first"   : the earliest row (default)
//   - "keep-last"    : the latest row
//   - "most-complete": the row with the most non-null cells; ties go to the
//     later row
//
// Nulls in key columns compare equal, so rows with Null keys collapse too.
// Winners are emitted in input order.
type DeDup struct {
	// Keys are the columns forming the key; empty means every column.
	Keys []string

	Policy string

	// PreferFields add weight to "most-complete" scoring when non-null.
	PreferFields []string
}

func (d DeDup) String() string {
	return fmt.Sprintf("dedup(%s by %s)", d.policy(), strings.Join(d.Keys, ","))
}

func (d DeDup) policy() string {
	p := strings.ToLower(strings.TrimSpace(d.Policy))
	if p == "" {
		return KeepFirst
	}
	return p
}

// Apply executes the de-duplication.
func (d DeDup) Apply(t *table.Table) (*table.Table, error) {
	s := t.Schema()
	keys := d.Keys
	if len(keys) == 0 {
		keys = s.Names()
	}
	ki, err := s.LookupAll("distinct", keys)
	if err != nil {
		return nil, err
	}
	prefer, err := s.LookupAll("distinct", d.PreferFields)
	if err != nil {
		return nil, err
	}
	policy := d.policy()
	switch policy {
	case KeepFirst, KeepLast, MostComplete:
	default:
		return nil, fmt.Errorf("distinct: unknown policy %q", d.Policy)
	}

	scoreOf := func(r table.Row) int {
		score, bonus := 0, 0
		for c := 0; c < r.Len(); c++ {
			if !r.At(c).IsNull() {
				score++
			}
		}
		for _, c := range prefer {
			if !r.At(c).IsNull() {
				bonus++
			}
		}
		return score*10 + bonus
	}

	type slot struct{ index, score int }
	seen := table.NewKeyIndex(0)
	var winners []slot
	key := make([]table.Value, len(ki))
	for i, r := range t.All() {
		for k, c := range ki {
			key[k] = r.At(c)
		}
		id, added := seen.Insert(key)
		if added {
			winners = append(winners, slot{index: i, score: scoreOf(r)})
			continue
		}
		switch policy {
		case KeepLast:
			winners[id] = slot{index: i}
		case MostComplete:
			if sc := scoreOf(r); sc >= winners[id].score {
				winners[id] = slot{index: i, score: sc}
			}
		}
	}

	keep := bitmap.New(t.Len())
	for _, w := range winners {
		keep.Add(w.index)
	}
	b := table.NewBuilder(s, keep.Count())
	for i, r := range t.All() {
		if keep.Has(i) {
			b.AppendRow(r)
		}
	}
	return b.Build(), nil
}

// Distinct keeps the first row of each distinct tuple over cols, or over all
// columns when none are given.
func Distinct(t *table.Table, cols ...string) (*table.Table, error) {
	return DeDup{Keys: cols, Policy: KeepFirst}.Apply(t)
}

// DistinctValues returns the non-null values of col in first-seen order.
func DistinctValues(t *table.Table, col string) (table.ValueSet, error) {
	vals, err := t.Column(col)
	if err != nil {
		return table.ValueSet{}, err
	}
	return table.NewValueSet(vals...), nil
}

// DropNull removes rows with a Null in any of cols, or in any column when
// none are given.
func DropNull(t *table.Table, cols ...string) (*table.Table, error) {
	if len(cols) == 0 {
		cols = t.Schema().Names()
	}
	ci, err := t.Schema().LookupAll("drop null", cols)
	if err != nil {
		return nil, err
	}
	b := table.NewBuilder(t.Schema(), t.Len())
rows:
	for _, r := range t.All() {
		for _, c := range ci {
			if r.At(c).IsNull() {
				continue rows
			}
		}
		b.AppendRow(r)
	}
	return b.Build(), nil
}
