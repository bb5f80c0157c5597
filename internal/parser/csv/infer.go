package csv

import (
	"strconv"
	"strings"

	"carcrash/internal/table"
)

// boolTokens is an explicit boolean encoding. Without one no column is ever
// inferred as Boolean.
type boolTokens struct {
	truthy map[string]struct{}
	falsy  map[string]struct{}
}

func newBoolTokens(truthy, falsy []string) *boolTokens {
	if len(truthy) == 0 || len(falsy) == 0 {
		return nil
	}
	bt := &boolTokens{
		truthy: make(map[string]struct{}, len(truthy)),
		falsy:  make(map[string]struct{}, len(falsy)),
	}
	for _, s := range truthy {
		bt.truthy[s] = struct{}{}
	}
	for _, s := range falsy {
		bt.falsy[s] = struct{}{}
	}
	return bt
}

func (bt *boolTokens) parse(s string) (val, ok bool) {
	if bt == nil {
		return false, false
	}
	if _, ok := bt.truthy[s]; ok {
		return true, true
	}
	if _, ok := bt.falsy[s]; ok {
		return false, true
	}
	return false, false
}

// columnStats tracks which types every non-empty value of a column still
// satisfies. It is fed one value at a time so inference is a single pass.
type columnStats struct {
	nonEmpty int
	allInt   bool
	allDec   bool
	allBool  bool
}

func newColumnStats(bools *boolTokens) columnStats {
	return columnStats{allInt: true, allDec: true, allBool: bools != nil}
}

func (c *columnStats) observe(s string, bools *boolTokens) {
	c.nonEmpty++
	if c.allInt && !isInt(s) {
		c.allInt = false
	}
	if c.allDec && !c.allInt && !isDecimal(s) {
		c.allDec = false
	}
	if c.allBool {
		if _, ok := bools.parse(s); !ok {
			c.allBool = false
		}
	}
}

// resolve picks the column type. Integer wins over Float; Float needs at
// least one value that is not a plain integer; Boolean needs the explicit
// encoding; everything else, including an all-empty column, is Text.
func (c *columnStats) resolve() table.Type {
	switch {
	case c.nonEmpty == 0:
		return table.TypeText
	case c.allBool:
		return table.TypeBoolean
	case c.allInt:
		return table.TypeInteger
	case c.allDec:
		return table.TypeFloat
	}
	return table.TypeText
}

// isInt requires a signed base-10 integer that fits in int64.
func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// isDecimal accepts plain decimal or scientific notation. strconv also takes
// hex floats, NaN and Inf; those stay text here.
func isDecimal(s string) bool {
	if strings.ContainsFunc(s, func(r rune) bool {
		return (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') && r != 'e' && r != 'E'
	}) {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// convert turns a non-empty raw field into a value of type typ. The type was
// inferred from the same values, so parse failures cannot happen for
// Integer, Float or Boolean columns.
func convert(s string, typ table.Type, bools *boolTokens) table.Value {
	switch typ {
	case table.TypeInteger:
		n, _ := strconv.ParseInt(s, 10, 64)
		return table.Int(n)
	case table.TypeFloat:
		f, _ := strconv.ParseFloat(s, 64)
		return table.Float(f)
	case table.TypeBoolean:
		b, _ := bools.parse(s)
		return table.Bool(b)
	}
	return table.Text(s)
}
