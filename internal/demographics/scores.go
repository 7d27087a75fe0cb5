// Package demographics turns a Phase Two result into the sorted confidence
// tables, selected labels and arc meter shown on the demographics and summary pages.
package demographics

import (
	"cmp"
	"fmt"
	"slices"
)

// Score is one row of a confidence table.
type Score struct {
	Label string  `json:"label"`
	Pct   string  `json:"pct"` // Raw*100 with two decimals, e.g. "70.00"
	Raw   float64 `json:"raw"`
}

// SortScores orders a label/probability mapping by descending probability.
// Equal probabilities are ordered by label so the output is deterministic.
func SortScores(scores map[string]float64) []Score {
	out := make([]Score, 0, len(scores))
	for label, v := range scores {
		out = append(out, Score{Label: label, Pct: formatPct(v), Raw: v})
	}
	slices.SortFunc(out, func(a, b Score) int {
		if c := cmp.Compare(b.Raw, a.Raw); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return out
}

func formatPct(v float64) string {
	return fmt.Sprintf("%.2f", v*100)
}
