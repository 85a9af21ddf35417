package synthesis

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// tally counts labels while remembering first-seen order so ties resolve
// deterministically.
type tally struct {
	order  []string
	counts map[string]int
}

func newTally() *tally {
	return &tally{counts: make(map[string]int)}
}

func (t *tally) add(values ...string) {
	for _, v := range values {
		if _, seen := t.counts[v]; !seen {
			t.order = append(t.order, v)
		}
		t.counts[v]++
	}
}

// top returns up to n labels by descending count, ties in first-seen order.
func (t *tally) top(n int) []string {
	ranked := slices.Clone(t.order)
	slices.SortStableFunc(ranked, func(a, b string) int {
		return t.counts[b] - t.counts[a]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	if ranked == nil {
		ranked = []string{}
	}
	return ranked
}

// mode returns the most frequent label or fallback when nothing was added.
func (t *tally) mode(fallback string) string {
	if top := t.top(1); len(top) == 1 {
		return top[0]
	}
	return fallback
}

// mean2 is the arithmetic mean rounded to two decimals, or fallback for no
// values.
func mean2(values []float64, fallback float64) float64 {
	if len(values) == 0 {
		return fallback
	}
	return round2(stat.Mean(values, nil))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
