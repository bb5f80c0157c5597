// Package table holds the typed, immutable in-memory relation that every
// loader and operator in carcrash produces and consumes.
//
// A Table owns a Schema (ordered, uniquely named, typed columns) and a slice
// of rows. Values are a small tagged union; Null is its own tag and is never
// confused with an empty string. Tables are never mutated after Build, so
// they can be shared between goroutines without locking.
package table

import (
	"fmt"
	"math"
	"strconv"
)

// Kind is the runtime tag of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindText
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBool:
		return "boolean"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is a single cell. The zero Value is Null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

func Null() Value           { return Value{} }
func Int(n int64) Value     { return Value{kind: KindInt, i: n} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func Text(s string) Value   { return Value{kind: KindText, s: s} }

func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.i = 1
	}
	return v
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Int returns the integer payload.
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInt }

// Float returns the numeric payload widened to float64; integers qualify.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

func (v Value) Text() (string, bool) { return v.s, v.kind == KindText }
func (v Value) Bool() (bool, bool)   { return v.i == 1, v.kind == KindBool }

func (v Value) numeric() bool { return v.kind == KindInt || v.kind == KindFloat }

// Render returns the canonical textual form. Null renders as "".
func (v Value) Render() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindText:
		return v.s
	case KindBool:
		return strconv.FormatBool(v.i == 1)
	}
	return ""
}

func (v Value) String() string {
	if v.kind == KindNull {
		return "NULL"
	}
	return v.Render()
}

// Any converts the value to a driver-friendly Go value (nil for Null).
func (v Value) Any() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindText:
		return v.s
	case KindBool:
		return v.i == 1
	}
	return nil
}

// Equal reports identity of two values. Integers and floats compare
// numerically; Null equals only Null. Values of unrelated kinds are unequal.
func Equal(a, b Value) bool {
	if a.kind == b.kind {
		switch a.kind {
		case KindNull:
			return true
		case KindFloat:
			return a.f == b.f
		case KindText:
			return a.s == b.s
		default:
			return a.i == b.i
		}
	}
	if a.numeric() && b.numeric() {
		af, _ := a.Float()
		bf, _ := b.Float()
		return af == bf
	}
	return false
}

// Compare orders two values for sorting. Null is greater than every non-null
// value, so it lands last in ascending order and first in descending order.
// Comparing values of incompatible kinds returns ErrIncomparable.
func Compare(a, b Value) (int, error) {
	switch {
	case a.kind == KindNull && b.kind == KindNull:
		return 0, nil
	case a.kind == KindNull:
		return 1, nil
	case b.kind == KindNull:
		return -1, nil
	}
	return compareNonNull(a, b)
}

func compareNonNull(a, b Value) (int, error) {
	if a.kind == KindInt && b.kind == KindInt {
		return cmp3(a.i, b.i), nil
	}
	if a.numeric() && b.numeric() {
		af, _ := a.Float()
		bf, _ := b.Float()
		return cmpFloat(af, bf), nil
	}
	if a.kind != b.kind {
		return 0, fmt.Errorf("%w: %s vs %s", ErrIncomparable, a.kind, b.kind)
	}
	switch a.kind {
	case KindText:
		return cmp3(a.s, b.s), nil
	case KindBool:
		return cmp3(a.i, b.i), nil
	}
	return 0, fmt.Errorf("%w: %s", ErrIncomparable, a.kind)
}

func cmp3[T int64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// cmpFloat sorts NaN before every other float so the order stays total.
func cmpFloat(a, b float64) int {
	an, bn := math.IsNaN(a), math.IsNaN(b)
	switch {
	case an && bn:
		return 0
	case an:
		return -1
	case bn:
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
