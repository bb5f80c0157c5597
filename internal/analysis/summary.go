package analysis

import (
	"strconv"
	"strings"

	"carcrash/internal/table"
)

// SummaryKind tells which field of a Summary is meaningful.
type SummaryKind uint8

const (
	SummaryCount SummaryKind = iota
	SummaryKey
	SummaryList
	SummaryPairs
)

// Pair is one (key, value) line of a summary, e.g. a zip code and its crash
// count or a body style and its top ethnicity.
type Pair struct {
	Key   string
	Value string
}

// Summary is the human-readable outcome of an analysis: a count, a single
// key, a list of keys, or ordered pairs.
type Summary struct {
	Kind  SummaryKind
	Count int64
	Key   string
	Keys  []string
	Pairs []Pair
}

func CountSummary(n int64) Summary      { return Summary{Kind: SummaryCount, Count: n} }
func KeySummary(k string) Summary       { return Summary{Kind: SummaryKey, Key: k} }
func ListSummary(keys []string) Summary { return Summary{Kind: SummaryList, Keys: keys} }
func PairsSummary(pairs []Pair) Summary { return Summary{Kind: SummaryPairs, Pairs: pairs} }

// Lines renders the summary one entry per line; pairs read "key:  value".
func (s Summary) Lines() []string {
	switch s.Kind {
	case SummaryCount:
		return []string{strconv.FormatInt(s.Count, 10)}
	case SummaryKey:
		return []string{s.Key}
	case SummaryList:
		return s.Keys
	}
	out := make([]string, len(s.Pairs))
	for i, p := range s.Pairs {
		out[i] = p.Key + ":  " + p.Value
	}
	return out
}

func (s Summary) String() string {
	switch s.Kind {
	case SummaryCount, SummaryKey:
		return s.Lines()[0]
	case SummaryList:
		return "[" + strings.Join(s.Keys, ", ") + "]"
	}
	parts := make([]string, len(s.Pairs))
	for i, p := range s.Pairs {
		parts[i] = p.Key + ": " + p.Value
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// keysOf collects the rendered values of col.
func keysOf(t *table.Table, col string) ([]string, error) {
	vals, err := t.Column(col)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.String()
	}
	return out, nil
}

// pairsOf collects (key, value) rendered pairs from two columns.
func pairsOf(t *table.Table, keyCol, valCol string) ([]Pair, error) {
	keys, err := keysOf(t, keyCol)
	if err != nil {
		return nil, err
	}
	vals, err := keysOf(t, valCol)
	if err != nil {
		return nil, err
	}
	out := make([]Pair, len(keys))
	for i := range keys {
		out[i] = Pair{Key: keys[i], Value: vals[i]}
	}
	return out, nil
}
