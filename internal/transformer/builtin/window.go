package builtin

import (
	"slices"

	"carcrash/internal/table"
)

// DefaultRankColumn names the rank column when none is given.
const DefaultRankColumn = "rank"

// RankWithinPartition appends a 1-based Integer row number computed within
// each partition after ordering it by order. Ties keep input order.
// Partitions are emitted in first-seen order, each in rank order.
func RankWithinPartition(t *table.Table, partitionCols []string, order []SortKey, rankCol string) (*table.Table, error) {
	return rank(t, partitionCols, order, rankCol, 0)
}

// TopOnePerPartition ranks like RankWithinPartition and keeps only rank 1,
// giving exactly one row per distinct partition key.
func TopOnePerPartition(t *table.Table, partitionCols []string, order []SortKey, rankCol string) (*table.Table, error) {
	return rank(t, partitionCols, order, rankCol, 1)
}

// rank keeps ranks <= limit, or every rank when limit is 0.
func rank(t *table.Table, partitionCols []string, order []SortKey, rankCol string, limit int) (*table.Table, error) {
	if rankCol == "" {
		rankCol = DefaultRankColumn
	}
	s := t.Schema()
	pi, err := s.LookupAll("window", partitionCols)
	if err != nil {
		return nil, err
	}
	bk, err := bindKeys("window", s, order)
	if err != nil {
		return nil, err
	}
	out, err := table.NewSchema(append(s.Columns(), table.Column{Name: rankCol, Type: table.TypeInteger})...)
	if err != nil {
		return nil, err
	}

	parts := table.NewKeyIndex(0)
	var members [][]int
	key := make([]table.Value, len(pi))
	for i, r := range t.All() {
		for k, c := range pi {
			key[k] = r.At(c)
		}
		id, added := parts.Insert(key)
		if added {
			members = append(members, nil)
		}
		members[id] = append(members[id], i)
	}

	b := table.NewBuilder(out, t.Len())
	for _, rows := range members {
		slices.SortStableFunc(rows, func(a, b int) int {
			return compareRows(bk, t.Row(a), t.Row(b))
		})
		if limit > 0 && len(rows) > limit {
			rows = rows[:limit]
		}
		for n, i := range rows {
			vals := append(t.Row(i).Values(), table.Int(int64(n+1)))
			if err := b.Append(vals...); err != nil {
				return nil, err
			}
		}
	}
	return b.Build(), nil
}
