package analysis

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Analysis describes one registered analysis.
type Analysis struct {
	ID    int
	Name  string
	Title string
	// Needs lists the datasets Run reads.
	Needs []string
	Run   func(Datasets) (Result, error)
}

// OutputKey is the OUTPUT configuration key holding the destination.
func (a Analysis) OutputKey() string { return fmt.Sprintf("analysis_%d_output", a.ID) }

// Step names the analysis in logs and metrics.
func (a Analysis) Step() string { return fmt.Sprintf("analysis_%d", a.ID) }

var registry = []Analysis{
	{
		ID: 1, Name: "MaleCrashes",
		Title: "Number of crashes in which person killed is Male",
		Needs: []string{DatasetPerson},
		Run:   MaleCrashes,
	},
	{
		ID: 2, Name: "TwoWheelerCrashes",
		Title: "Number of two wheelers booked for crashes",
		Needs: []string{DatasetUnit},
		Run:   TwoWheelerCrashes,
	},
	{
		ID: 3, Name: "FemaleTopState",
		Title: "State with highest number of accidents involving females",
		Needs: []string{DatasetPerson},
		Run:   FemaleTopState,
	},
	{
		ID: 4, Name: "InjuryMakes",
		Title: "Top 5th to 15th vehicle makes involved in accidents including death",
		Needs: []string{DatasetUnit},
		Run:   InjuryMakes,
	},
	{
		ID: 5, Name: "BodyStyleEthnicity",
		Title: "Top ethnic user group for each vehicle body style",
		Needs: []string{DatasetPerson, DatasetUnit},
		Run:   BodyStyleEthnicity,
	},
	{
		ID: 6, Name: "AlcoholZips",
		Title: "Top 5 zip codes with highest number of crashes with alcohol as the contributing factor",
		Needs: []string{DatasetUnit, DatasetPerson},
		Run:   AlcoholZips,
	},
	{
		ID: 7, Name: "InsuredNoDamage",
		Title: "Count of distinct crash IDs with no damaged property, damage level above 4 and insurance",
		Needs: []string{DatasetDamage, DatasetUnit},
		Run:   InsuredNoDamage,
	},
	{
		ID: 8, Name: "SpeedingMakes",
		Title: "Top 5 vehicle makes with speeding charges, licensed drivers, top 10 colours and top 25 states",
		Needs: []string{DatasetCharge, DatasetPerson, DatasetUnit},
		Run:   SpeedingMakes,
	},
}

// All returns every analysis in ID order.
func All() []Analysis { return slices.Clone(registry) }

// Select returns the analyses with the given IDs in ID order. No IDs selects
// all of them.
func Select(ids []int) ([]Analysis, error) {
	if len(ids) == 0 {
		return All(), nil
	}
	var out []Analysis
	for _, a := range registry {
		if slices.Contains(ids, a.ID) {
			out = append(out, a)
		}
	}
	for _, id := range ids {
		if !slices.ContainsFunc(out, func(a Analysis) bool { return a.ID == id }) {
			return nil, fmt.Errorf("unknown analysis %d (have 1-%d)", id, len(registry))
		}
	}
	return out, nil
}

// ParseIDs parses a comma separated list such as "1,3,8".
func ParseIDs(s string) ([]int, error) {
	var ids []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		id, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("analysis id %q: %w", f, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// DatasetsFor returns the union of datasets needed by list, in first-seen
// order.
func DatasetsFor(list []Analysis) []string {
	var out []string
	for _, a := range list {
		for _, n := range a.Needs {
			if !slices.Contains(out, n) {
				out = append(out, n)
			}
		}
	}
	return out
}
