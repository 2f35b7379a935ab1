// Package compare computes per-metric winners and the win-count ranking
// across a resolved branch set.
//
// Every function here is total: missing metrics, non-numeric values and
// empty inputs produce empty results rather than errors. Ties are always
// broken by branch name so output never depends on map iteration order.
package compare

import (
	"sort"

	"github.com/roach88/brancheval/internal/direction"
	"github.com/roach88/brancheval/internal/record"
	"github.com/roach88/brancheval/internal/resolve"
)

// MetricComparison is the outcome for one metric.
type MetricComparison struct {
	Metric string

	// Values holds only branches that reported a numeric value.
	Values map[string]float64

	LowerIsBetter bool

	// Winner is meaningful only when HasWinner is true.
	Winner    string
	HasWinner bool
}

// RankingReport tallies metric wins per branch.
type RankingReport struct {
	// WinCounts has an entry for every member of the compared set.
	WinCounts map[string]int

	// Ranking orders branches by wins descending, then name ascending.
	Ranking []string
}

// TotalWins returns the sum of all win counts.
func (r RankingReport) TotalWins() int {
	total := 0
	for _, n := range r.WinCounts {
		total += n
	}
	return total
}

// Compare evaluates metrics over set.
func Compare(set resolve.BranchSet, metrics []string, c direction.Classifier) (map[string]MetricComparison, RankingReport) {
	comparisons := make(map[string]MetricComparison, len(metrics))
	wins := make(map[string]int, len(set))
	for branch := range set {
		wins[branch] = 0
	}

	for _, metric := range metrics {
		if _, seen := comparisons[metric]; seen {
			continue
		}
		mc := compareMetric(set, metric, c.LowerIsBetter(metric))
		comparisons[metric] = mc
		if mc.HasWinner {
			wins[mc.Winner]++
		}
	}

	return comparisons, RankingReport{
		WinCounts: wins,
		Ranking:   Rank(wins),
	}
}

func compareMetric(set resolve.BranchSet, metric string, lower bool) MetricComparison {
	mc := MetricComparison{
		Metric:        metric,
		Values:        make(map[string]float64),
		LowerIsBetter: lower,
	}

	// Sorted iteration makes the first extreme value seen the
	// lexicographically smallest branch.
	for _, branch := range set.Branches() {
		v, ok := set[branch].Metric(metric)
		if !ok {
			continue
		}
		mc.Values[branch] = v
		if !mc.HasWinner || better(v, mc.Values[mc.Winner], lower) {
			mc.Winner = branch
			mc.HasWinner = true
		}
	}
	return mc
}

func better(candidate, best float64, lower bool) bool {
	if lower {
		return candidate < best
	}
	return candidate > best
}

// Rank orders branches by wins descending, ties by name ascending.
func Rank(wins map[string]int) []string {
	ranking := make([]string, 0, len(wins))
	for b := range wins {
		ranking = append(ranking, b)
	}
	sort.Slice(ranking, func(i, j int) bool {
		wi, wj := wins[ranking[i]], wins[ranking[j]]
		if wi != wj {
			return wi > wj
		}
		return ranking[i] < ranking[j]
	})
	return ranking
}

// DiscoverMetrics returns the sorted union of non-reserved numeric summary
// keys across the set.
func DiscoverMetrics(set resolve.BranchSet) []string {
	seen := make(map[string]bool)
	for _, r := range set {
		for k := range r.NumericMetrics() {
			seen[k] = true
		}
	}
	return sortedKeys(seen)
}

// Order returns metric names of comparisons sorted ascending.
func Order(comparisons map[string]MetricComparison) []string {
	seen := make(map[string]bool, len(comparisons))
	for k := range comparisons {
		seen[k] = true
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValueOf returns the raw summary value for table rendering, which may be
// non-numeric. It is not used for ranking.
func ValueOf(r record.RunRecord, metric string) (record.Value, bool) {
	v, ok := r.Summary[metric]
	if !ok || record.IsReserved(metric) {
		return nil, false
	}
	if _, isNull := v.(record.Null); isNull {
		return nil, false
	}
	return v, true
}
