package main

import (
	"fmt"
	"io"

	"carcrash/internal/analysis"

	"github.com/fatih/color"
)

var (
	headColor = color.New(color.FgCyan, color.Bold)
	failColor = color.New(color.FgRed)
)

// writeReport prints one line per selected analysis in ID order:
//
//	ANALYSIS 1: <title>: <summary>
//
// Analyses without a result (failed or canceled) are reported as not
// completed.
func writeReport(w io.Writer, list []analysis.Analysis, results []analysis.Result) {
	byID := make(map[int]analysis.Result, len(results))
	for _, r := range results {
		byID[r.ID] = r
	}
	for _, a := range list {
		headColor.Fprintf(w, "ANALYSIS %d", a.ID)
		r, ok := byID[a.ID]
		if !ok {
			fmt.Fprintf(w, ": %s: ", a.Title)
			failColor.Fprintln(w, "not completed")
			continue
		}
		fmt.Fprintf(w, ": %s: %s\n", a.Title, r.Summary)
	}
}
