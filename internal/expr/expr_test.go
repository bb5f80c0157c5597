package expr

import (
	"errors"
	"testing"

	"carcrash/internal/table"
)

var unitSchema = table.MustSchema(
	table.Column{Name: "CRASH_ID", Type: table.TypeInteger},
	table.Column{Name: "VEH_BODY_STYL_ID", Type: table.TypeText},
	table.Column{Name: "VEH_DMAG_SCL_1_ID", Type: table.TypeText},
	table.Column{Name: "TOT_INJRY_CNT", Type: table.TypeInteger},
	table.Column{Name: "SPEED", Type: table.TypeFloat},
)

func unitRow(t *testing.T, vals ...table.Value) table.Row {
	t.Helper()
	tb, err := table.New(unitSchema, [][]table.Value{vals})
	if err != nil {
		t.Fatalf("table.New: %v", err)
	}
	return tb.Row(0)
}

func mustBind(t *testing.T, p Predicate) Eval {
	t.Helper()
	e, err := p.Bind(unitSchema)
	if err != nil {
		t.Fatalf("Bind(%s): %v", p, err)
	}
	return e
}

func TestPredicates(t *testing.T) {
	t.Parallel()

	moto := unitRow(t, table.Int(1), table.Text("SPORT MOTORCYCLE"), table.Text("DAMAGED 10"), table.Int(2), table.Float(55.5))
	nulls := unitRow(t, table.Int(2), table.Null(), table.Null(), table.Null(), table.Null())

	tests := []struct {
		name string
		pred Predicate
		row  table.Row
		want bool
	}{
		{"eq", Eq("VEH_BODY_STYL_ID", table.Text("SPORT MOTORCYCLE")), moto, true},
		{"eq_null_column", Eq("VEH_BODY_STYL_ID", table.Text("SEDAN")), nulls, false},
		{"ne_null_column", Ne("VEH_BODY_STYL_ID", table.Text("SEDAN")), nulls, false},
		{"eq_null_literal", Eq("VEH_BODY_STYL_ID", table.Null()), nulls, false},
		{"like_contains", Like("VEH_BODY_STYL_ID", "%MOTORCYCLE%"), moto, true},
		{"like_case_sensitive", Like("VEH_BODY_STYL_ID", "%motorcycle%"), moto, false},
		{"like_prefix", Like("VEH_BODY_STYL_ID", "SPORT%"), moto, true},
		{"like_prefix_miss", Like("VEH_BODY_STYL_ID", "MOTOR%"), moto, false},
		{"like_underscore", Like("VEH_DMAG_SCL_1_ID", "DAMAGED __"), moto, true},
		{"like_null", Like("VEH_BODY_STYL_ID", "%"), nulls, false},
		{"like_on_integer_renders", Like("TOT_INJRY_CNT", "2"), moto, true},
		{"in", In("VEH_BODY_STYL_ID", Texts("SEDAN", "SPORT MOTORCYCLE")...), moto, true},
		{"not_in_member", NotIn("VEH_BODY_STYL_ID", Texts("SPORT MOTORCYCLE")...), moto, false},
		{"not_in_null", NotIn("VEH_BODY_STYL_ID", Texts("NA")...), nulls, false},
		{"gt_numeric_mixed", Gt("SPEED", table.Int(55)), moto, true},
		{"le_int", Le("TOT_INJRY_CNT", table.Int(2)), moto, true},
		{"gt_null", Gt("TOT_INJRY_CNT", table.Int(0)), nulls, false},
		{"lexicographic_damage_boundary", Gt("VEH_DMAG_SCL_1_ID", table.Text("DAMAGED 4")), moto, false},
		{"is_null", IsNull("VEH_BODY_STYL_ID"), nulls, true},
		{"not_null", NotNull("VEH_BODY_STYL_ID"), nulls, false},
		{"and", And(Eq("CRASH_ID", table.Int(1)), Like("VEH_BODY_STYL_ID", "%CYCLE")), moto, true},
		{"or", Or(Eq("CRASH_ID", table.Int(9)), IsNull("SPEED")), nulls, true},
		{"empty_and", And(), moto, true},
		{"empty_or", Or(), moto, false},
		{"not_is_two_valued", Not(Eq("VEH_BODY_STYL_ID", table.Text("SEDAN"))), nulls, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := mustBind(t, tc.pred)(tc.row); got != tc.want {
				t.Fatalf("%s on %v = %v, want %v", tc.pred, tc.row.Values(), got, tc.want)
			}
		})
	}
}

func TestDamageScaleIsLexicographic(t *testing.T) {
	t.Parallel()

	// Known defect carried on purpose: severities compare as text, so a
	// two-digit scale sorts below "DAMAGED 4".
	gt := mustBind(t, Gt("VEH_DMAG_SCL_1_ID", table.Text("DAMAGED 4")))
	cases := map[string]bool{
		"DAMAGED 5":         true,
		"DAMAGED 7 HIGHEST": true,
		"DAMAGED 4":         false,
		"DAMAGED 10":        false,
		"NO DAMAGE":         true,
		"INVALID VALUE":     true,
		"DAMAGED 1 MINIMUM": false,
	}
	for scale, want := range cases {
		r := unitRow(t, table.Int(1), table.Null(), table.Text(scale), table.Null(), table.Null())
		if got := gt(r); got != want {
			t.Fatalf("%q > \"DAMAGED 4\" = %v, want %v", scale, got, want)
		}
	}
}

func TestBind_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pred Predicate
		want error
	}{
		{"unknown_column", Eq("NOPE", table.Text("x")), table.ErrUnknownColumn},
		{"text_vs_int_ordered", Gt("CRASH_ID", table.Text("5")), table.ErrIncomparable},
		{"nested_unknown", Or(IsNull("CRASH_ID"), Like("MISSING", "%")), table.ErrUnknownColumn},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := tc.pred.Bind(unitSchema)
			var se *table.SchemaError
			if !errors.As(err, &se) || !errors.Is(err, tc.want) {
				t.Fatalf("Bind(%s) error = %v, want SchemaError wrapping %v", tc.pred, err, tc.want)
			}
		})
	}
}

func TestEquality_MismatchedTypesNeverMatch(t *testing.T) {
	t.Parallel()

	r := unitRow(t, table.Int(2), table.Text("SEDAN"), table.Null(), table.Int(5), table.Null())
	tests := []struct {
		name string
		pred Predicate
		want bool
	}{
		{"eq_text_on_int", Eq("CRASH_ID", table.Text("2")), false},
		{"ne_text_on_int", Ne("CRASH_ID", table.Text("2")), true},
		{"eq_int_on_text", Eq("VEH_BODY_STYL_ID", table.Int(2)), false},
		{"in_mixed_members", In("CRASH_ID", table.Int(1), table.Text("2")), false},
		{"in_mixed_members_hit", In("CRASH_ID", table.Text("x"), table.Int(2)), true},
		{"not_in_text_on_int", NotIn("TOT_INJRY_CNT", table.Text("UNKNOWN")), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := mustBind(t, tc.pred)(r); got != tc.want {
				t.Fatalf("%s = %v, want %v", tc.pred, got, tc.want)
			}
		})
	}
}

func TestInSet_ComputedCandidates(t *testing.T) {
	t.Parallel()

	set := table.NewValueSet(table.Text("SEDAN"), table.Text("SPORT MOTORCYCLE"))
	e := mustBind(t, InSet("VEH_BODY_STYL_ID", set))
	if !e(unitRow(t, table.Int(1), table.Text("SEDAN"), table.Null(), table.Null(), table.Null())) {
		t.Fatal("SEDAN should be a member")
	}
	ne := mustBind(t, NotInSet("VEH_BODY_STYL_ID", set))
	if !ne(unitRow(t, table.Int(1), table.Text("VAN"), table.Null(), table.Null(), table.Null())) {
		t.Fatal("VAN should pass NotInSet")
	}
}

func TestNotInteger(t *testing.T) {
	t.Parallel()

	s := table.MustSchema(table.Column{Name: "STATE", Type: table.TypeText})
	e, err := NotInteger("STATE").Bind(s)
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		v    table.Value
		want bool
	}{
		{table.Text("TX"), true},
		{table.Null(), true},
		{table.Text("98"), false},
		{table.Text(" 12 "), false},
		{table.Text("1.5"), false},
		{table.Text("NA"), true},
	}
	for _, c := range cases {
		tb, _ := table.New(s, [][]table.Value{{c.v}})
		if got := e(tb.Row(0)); got != c.want {
			t.Fatalf("NotInteger(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestLikeToRegexp(t *testing.T) {
	t.Parallel()

	cases := []struct {
		pattern, in string
		want        bool
	}{
		{"NO DAMAGE%", "NO DAMAGE/NONE", true},
		{"%LIABILITY INSURANCE POLICY%", "PROOF OF LIABILITY INSURANCE POLICY", true},
		{"a%b", "axxb", true},
		{"a%b", "axxbc", false},
		{`100\%`, "100%", true},
		{`100\%`, "1000", false},
		{"a.c", "abc", false},
		{"%", "", true},
	}
	for _, c := range cases {
		if got := compileLike(c.pattern)(c.in); got != c.want {
			t.Fatalf("LIKE %q on %q = %v, want %v", c.pattern, c.in, got, c.want)
		}
	}
}

func TestAdd(t *testing.T) {
	t.Parallel()

	f, typ, err := Add(Col("TOT_INJRY_CNT"), Col("CRASH_ID")).Bind(unitSchema)
	if err != nil || typ != table.TypeInteger {
		t.Fatalf("Bind: %v type=%s", err, typ)
	}
	r := unitRow(t, table.Int(1), table.Null(), table.Null(), table.Int(2), table.Null())
	if got := f(r); !table.Equal(got, table.Int(3)) {
		t.Fatalf("1+2 = %v", got)
	}

	g, typ, err := Add(Col("TOT_INJRY_CNT"), Col("SPEED")).Bind(unitSchema)
	if err != nil || typ != table.TypeFloat {
		t.Fatalf("Bind float: %v type=%s", err, typ)
	}
	if got := g(r); !got.IsNull() {
		t.Fatalf("null operand should give NULL, got %v", got)
	}

	if _, _, err := Add(Col("VEH_BODY_STYL_ID"), Lit(table.Int(1))).Bind(unitSchema); !errors.Is(err, table.ErrTypeMismatch) {
		t.Fatalf("text + int: want ErrTypeMismatch, got %v", err)
	}
}
