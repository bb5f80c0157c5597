// Package transformer composes table operators into plans.
package transformer

import (
	"fmt"

	"carcrash/internal/table"
)

// Transformer turns one immutable table into another.
type Transformer interface {
	Apply(*table.Table) (*table.Table, error)
}

// Func adapts a plain function to Transformer.
type Func func(*table.Table) (*table.Table, error)

func (f Func) Apply(t *table.Table) (*table.Table, error) { return f(t) }

// Chain is an ordered list of transformers. Each step is fully materialized
// before the next one runs.
type Chain []Transformer

func (c Chain) Apply(in *table.Table) (*table.Table, error) {
	out := in
	for i, t := range c {
		next, err := t.Apply(out)
		if err != nil {
			if s, ok := t.(fmt.Stringer); ok {
				return nil, fmt.Errorf("step %d (%s): %w", i+1, s, err)
			}
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		out = next
	}
	return out, nil
}
