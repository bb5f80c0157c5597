// Package analysis implements the eight crash analyses on top of the
// relational operators, plus the registry and runner that execute them.
//
// Each analysis is a fixed operator plan over the base tables in Datasets.
// It returns the table handed to the sink and a Summary for the report.
package analysis

import (
	"carcrash/internal/expr"
	"carcrash/internal/table"
	"carcrash/internal/transformer"
	"carcrash/internal/transformer/builtin"
)

// Datasets holds the base tables. Only the tables an analysis needs have to
// be set.
type Datasets struct {
	Person *table.Table
	Unit   *table.Table
	Damage *table.Table
	Charge *table.Table
}

// Result is the outcome of one analysis.
type Result struct {
	ID      int
	Name    string
	Table   *table.Table
	Summary Summary
}

var text = table.Text

var countRows = []builtin.Aggregation{{Func: builtin.Count}}

// MaleCrashes counts person rows whose gender is MALE.
func MaleCrashes(d Datasets) (Result, error) {
	out, err := builtin.Filter(d.Person, expr.Eq(colGender, text("MALE")))
	if err != nil {
		return Result{}, err
	}
	return Result{ID: 1, Name: "MaleCrashes", Table: out, Summary: CountSummary(int64(out.Len()))}, nil
}

// TwoWheelerCrashes counts motorcycles and pedal cycles among units.
func TwoWheelerCrashes(d Datasets) (Result, error) {
	out, err := builtin.Filter(d.Unit, expr.Or(
		expr.Like(colBodyStyle, "%MOTORCYCLE%"),
		expr.Eq(colUnitDesc, text("PEDALCYCLIST")),
	))
	if err != nil {
		return Result{}, err
	}
	return Result{ID: 2, Name: "TwoWheelerCrashes", Table: out, Summary: CountSummary(int64(out.Len()))}, nil
}

// FemaleTopState finds the license state with the most female persons.
// The table is every state ordered by count.
func FemaleTopState(d Datasets) (Result, error) {
	out, err := transformer.Chain{
		builtin.Where{Pred: expr.Eq(colGender, text("FEMALE"))},
		builtin.Aggregate{GroupBy: []string{colLicState}, Aggs: countRows},
		builtin.Sort{Keys: []builtin.SortKey{builtin.Desc(colCount)}},
	}.Apply(d.Person)
	if err != nil {
		return Result{}, err
	}
	var top string
	if out.Len() > 0 {
		top = out.Value(0, 0).String()
	}
	return Result{ID: 3, Name: "FemaleTopState", Table: out, Summary: KeySummary(top)}, nil
}

// InjuryMakes ranks makes by injuries plus deaths and reports ranks 5 to 15.
// The table is the top 15.
func InjuryMakes(d Datasets) (Result, error) {
	top15, err := transformer.Chain{
		builtin.Project{Columns: []string{colCrashID, colMake, colInjuries, colDeaths}},
		builtin.Derive{Name: colAllInjuries, Expr: expr.Add(expr.Col(colInjuries), expr.Col(colDeaths))},
		builtin.Where{Pred: expr.Ne(colMake, text("NA"))},
		builtin.Aggregate{
			GroupBy: []string{colMake},
			Aggs:    []builtin.Aggregation{{Column: colAllInjuries, Func: builtin.Sum, As: colTotalInjuries}},
		},
		builtin.Sort{Keys: []builtin.SortKey{builtin.Desc(colTotalInjuries)}},
		builtin.Head{N: 15},
	}.Apply(d.Unit)
	if err != nil {
		return Result{}, err
	}
	makes, err := keysOf(builtin.Tail(top15, 11), colMake)
	if err != nil {
		return Result{}, err
	}
	return Result{ID: 4, Name: "InjuryMakes", Table: top15, Summary: ListSummary(makes)}, nil
}

// BodyStyleEthnicity finds the most frequent ethnicity for every body style.
func BodyStyleEthnicity(d Datasets) (Result, error) {
	joined, err := builtin.Join(d.Person, d.Unit, builtin.JoinOptions{
		Keys:         []string{colCrashID},
		CollapseKeys: true,
		Qualifier:    qualUnit,
	})
	if err != nil {
		return Result{}, err
	}
	out, err := transformer.Chain{
		builtin.Project{Columns: []string{colBodyStyle, colEthnicity}},
		builtin.Where{Pred: expr.And(
			expr.NotIn(colBodyStyle, expr.Texts("NA", "UNKNOWN", "NOT REPORTED", "OTHER  (EXPLAIN IN NARRATIVE)")...),
			expr.NotIn(colEthnicity, expr.Texts("NA", "UNKNOWN")...),
		)},
		builtin.Aggregate{GroupBy: []string{colBodyStyle, colEthnicity}, Aggs: countRows},
		builtin.TopPerPartition{Partition: []string{colBodyStyle}, Order: []builtin.SortKey{builtin.Desc(colCount)}},
		builtin.Project{Columns: []string{colBodyStyle, colEthnicity}},
	}.Apply(joined)
	if err != nil {
		return Result{}, err
	}
	pairs, err := pairsOf(out, colBodyStyle, colEthnicity)
	if err != nil {
		return Result{}, err
	}
	return Result{ID: 5, Name: "BodyStyleEthnicity", Table: out, Summary: PairsSummary(pairs)}, nil
}

// AlcoholZips lists the five driver zip codes with the most alcohol-related
// crashes.
func AlcoholZips(d Datasets) (Result, error) {
	joined, err := builtin.Join(d.Unit, d.Person, builtin.JoinOptions{
		Keys:         []string{colCrashID},
		CollapseKeys: true,
		Qualifier:    qualPerson,
	})
	if err != nil {
		return Result{}, err
	}
	out, err := transformer.Chain{
		builtin.NonNull{Columns: []string{colDriverZip}},
		builtin.Where{Pred: expr.Or(
			expr.Like(colFactor1, "%ALCOHOL%"),
			expr.Like(colFactor2, "%ALCOHOL%"),
			expr.Eq(colAlcoholTest, text("Positive")),
		)},
		builtin.Aggregate{GroupBy: []string{colDriverZip}, Aggs: countRows},
		builtin.Sort{Keys: []builtin.SortKey{builtin.Desc(colCount)}},
		builtin.Head{N: 5},
	}.Apply(joined)
	if err != nil {
		return Result{}, err
	}
	pairs, err := pairsOf(out, colDriverZip, colCount)
	if err != nil {
		return Result{}, err
	}
	return Result{ID: 6, Name: "AlcoholZips", Table: out, Summary: PairsSummary(pairs)}, nil
}

// severeDamage is true when a damage scale is above "DAMAGED 4" and is a
// real damage level. The comparison is on text, so "DAMAGED 10" does not
// qualify; this is a known defect kept for parity with earlier reports.
func severeDamage(col string) expr.Predicate {
	return expr.And(
		expr.Gt(col, text("DAMAGED 4")),
		expr.NotIn(col, expr.Texts("NA", "NO DAMAGE")...),
	)
}

// InsuredNoDamage counts distinct crashes with severe vehicle damage, no
// damaged property and liability insurance.
func InsuredNoDamage(d Datasets) (Result, error) {
	joined, err := builtin.Join(d.Damage, d.Unit, builtin.JoinOptions{
		Keys:         []string{colCrashID},
		CollapseKeys: true,
		Qualifier:    qualUnit,
	})
	if err != nil {
		return Result{}, err
	}
	out, err := transformer.Chain{
		builtin.Where{Pred: expr.Or(severeDamage(colDamage1), severeDamage(colDamage2))},
		builtin.Where{Pred: expr.Or(
			expr.Eq(colDamagedProperty, text("NONE")),
			expr.Like(colDamagedProperty, "NO DAMAGE%"),
		)},
		builtin.Where{Pred: expr.Like(colFinResp, "%LIABILITY INSURANCE POLICY%")},
	}.Apply(joined)
	if err != nil {
		return Result{}, err
	}
	crashes, err := builtin.DistinctValues(out, colCrashID)
	if err != nil {
		return Result{}, err
	}
	return Result{ID: 7, Name: "InsuredNoDamage", Table: out, Summary: CountSummary(int64(crashes.Len()))}, nil
}

// topValues counts col, orders by frequency, keeps rows passing p and
// returns the first n distinct values.
func topValues(t *table.Table, col string, p expr.Predicate, n int) (table.ValueSet, error) {
	out, err := transformer.Chain{
		builtin.Aggregate{GroupBy: []string{col}, Aggs: countRows},
		builtin.Sort{Keys: []builtin.SortKey{builtin.Desc(colCount)}},
		builtin.Where{Pred: p},
		builtin.Head{N: n},
	}.Apply(t)
	if err != nil {
		return table.ValueSet{}, err
	}
	return builtin.DistinctValues(out, col)
}

// SpeedingMakes finds the top five makes with speeding charges among
// licensed drivers, restricted to the ten most common colors and the 25 most
// common license states.
func SpeedingMakes(d Datasets) (Result, error) {
	colors, err := topValues(d.Unit, colColor, expr.Ne(colColor, text("NA")), 10)
	if err != nil {
		return Result{}, err
	}
	states, err := topValues(d.Unit, colVehLicState, expr.NotInteger(colVehLicState), 25)
	if err != nil {
		return Result{}, err
	}
	speeding, err := builtin.Filter(d.Charge, expr.Like(colCharge, "%SPEED%"))
	if err != nil {
		return Result{}, err
	}
	out, err := transformer.Chain{
		builtin.Where{Pred: expr.In(colLicType, expr.Texts("DRIVER LICENSE", "COMMERCIAL DRIVER LIC.")...)},
		builtin.JoinWith{Right: speeding, Options: builtin.JoinOptions{
			Keys: []string{colCrashID}, CollapseKeys: true, Qualifier: qualCharge,
		}},
		builtin.JoinWith{Right: d.Unit, Options: builtin.JoinOptions{
			Keys: []string{colCrashID}, CollapseKeys: true, Qualifier: qualUnit,
		}},
		builtin.Where{Pred: expr.And(
			expr.InSet(colColor, colors),
			expr.InSet(colVehLicState, states),
		)},
		builtin.Aggregate{GroupBy: []string{colMake}, Aggs: countRows},
		builtin.Sort{Keys: []builtin.SortKey{builtin.Desc(colCount)}},
	}.Apply(d.Person)
	if err != nil {
		return Result{}, err
	}
	pairs, err := pairsOf(builtin.Limit(out, 5), colMake, colCount)
	if err != nil {
		return Result{}, err
	}
	return Result{ID: 8, Name: "SpeedingMakes", Table: out, Summary: PairsSummary(pairs)}, nil
}
