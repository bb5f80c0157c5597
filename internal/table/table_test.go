package table

import (
	"errors"
	"math"
	"testing"
)

func TestCompare_NullPlacementAndNumeric(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b Value
		want int
	}{
		{"null_after_int", Null(), Int(1), 1},
		{"int_before_null", Int(1), Null(), -1},
		{"null_null", Null(), Null(), 0},
		{"int_float_numeric", Int(2), Float(2.5), -1},
		{"float_int_equal", Float(3), Int(3), 0},
		{"text_codepoint", Text("B"), Text("a"), -1},
		{"bool_order", Bool(false), Bool(true), -1},
		{"lexicographic_not_numeric", Text("DAMAGED 10"), Text("DAMAGED 4"), -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Compare(tc.a, tc.b)
			if err != nil {
				t.Fatalf("Compare(%v, %v) error: %v", tc.a, tc.b, err)
			}
			if got != tc.want {
				t.Fatalf("Compare(%v, %v) = %d, want %d", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestCompare_Incomparable(t *testing.T) {
	t.Parallel()

	if _, err := Compare(Text("1"), Int(1)); !errors.Is(err, ErrIncomparable) {
		t.Fatalf("want ErrIncomparable, got %v", err)
	}
	if Equal(Text("1"), Int(1)) {
		t.Fatal("text and integer must not be equal")
	}
}

func TestValueRender(t *testing.T) {
	t.Parallel()

	cases := map[string]Value{
		"":      Null(),
		"42":    Int(42),
		"1.5":   Float(1.5),
		"true":  Bool(true),
		"TEXAS": Text("TEXAS"),
	}
	for want, v := range cases {
		if got := v.Render(); got != want {
			t.Fatalf("Render(%#v) = %q, want %q", v, got, want)
		}
	}
	if Null().String() != "NULL" {
		t.Fatalf("Null().String() = %q", Null().String())
	}
}

func TestNewSchema_Duplicate(t *testing.T) {
	t.Parallel()

	_, err := NewSchema(Column{Name: "A"}, Column{Name: "a"}, Column{Name: "A"})
	var se *SchemaError
	if !errors.As(err, &se) || !errors.Is(err, ErrDuplicateColumn) {
		t.Fatalf("want duplicate SchemaError, got %v", err)
	}
	if se.Column != "A" {
		t.Fatalf("SchemaError.Column = %q, want A", se.Column)
	}
}

func TestRowGet_UnknownColumn(t *testing.T) {
	t.Parallel()

	s := MustSchema(Column{Name: "CRASH_ID", Type: TypeInteger})
	tb, err := New(s, [][]Value{{Int(7)}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v, err := tb.Row(0).Get("CRASH_ID")
	if err != nil || !Equal(v, Int(7)) {
		t.Fatalf("Get(CRASH_ID) = %v, %v", v, err)
	}
	if _, err := tb.Row(0).Get("crash_id"); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("lookup is case-sensitive; want ErrUnknownColumn, got %v", err)
	}
}

func TestBuilderAppend_Validation(t *testing.T) {
	t.Parallel()

	s := MustSchema(Column{Name: "n", Type: TypeInteger}, Column{Name: "s", Type: TypeText})
	b := NewBuilder(s, 2)
	if err := b.Append(Int(1)); !errors.Is(err, ErrWidthMismatch) {
		t.Fatalf("want ErrWidthMismatch, got %v", err)
	}
	if err := b.Append(Text("x"), Text("y")); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("want ErrTypeMismatch, got %v", err)
	}
	if err := b.Append(Null(), Null()); err != nil {
		t.Fatalf("nulls are valid in any column: %v", err)
	}
	if got := b.Build().Len(); got != 1 {
		t.Fatalf("Len = %d, want 1", got)
	}
}

func TestKeyIndex_FirstSeenAndNullGrouping(t *testing.T) {
	t.Parallel()

	k := NewKeyIndex(0)
	keys := [][]Value{
		{Text("TX"), Null()},
		{Text("OK"), Int(1)},
		{Text("TX"), Null()},
		{Text("OK"), Float(1)},
	}
	var ids []int
	for _, key := range keys {
		id, _ := k.Insert(key)
		ids = append(ids, id)
	}
	want := []int{0, 1, 0, 1}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
	if _, ok := k.Lookup([]Value{Text("NM"), Null()}); ok {
		t.Fatal("unexpected hit for absent key")
	}
}

func TestValueSet(t *testing.T) {
	t.Parallel()

	s := NewValueSet(Text("RED"), Null(), Text("BLU"), Text("RED"))
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	if !s.Contains(Text("BLU")) || s.Contains(Null()) || s.Contains(Text("GRN")) {
		t.Fatalf("unexpected membership: %v", s.Values())
	}
	got := s.Values()
	if got[0].Render() != "RED" || got[1].Render() != "BLU" {
		t.Fatalf("Values order = %v", got)
	}
	var zero ValueSet
	if zero.Contains(Text("RED")) || zero.Len() != 0 {
		t.Fatal("zero ValueSet must be empty")
	}
}

func TestCompare_NaNTotalOrder(t *testing.T) {
	t.Parallel()

	got, err := Compare(Float(math.NaN()), Float(-1))
	if err != nil || got != -1 {
		t.Fatalf("Compare(NaN, -1) = %d, %v", got, err)
	}
}
