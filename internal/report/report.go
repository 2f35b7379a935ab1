package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/roach88/brancheval/internal/compare"
	"github.com/roach88/brancheval/internal/configdiff"
	"github.com/roach88/brancheval/internal/direction"
	"github.com/roach88/brancheval/internal/record"
	"github.com/roach88/brancheval/internal/resolve"
)

// Document is a renderable result: text for humans, canonical form for JSON.
type Document interface {
	record.Canonicaler
	WriteText(w io.Writer) error
}

// Options controls report assembly.
type Options struct {
	Project string
	Entity  string

	// Metrics restricts the comparison. Empty means every numeric summary
	// key found in the finished set.
	Metrics []string

	Classifier direction.Classifier

	// FailedBranches lists branches whose fetch failed upstream. They are
	// surfaced in Coverage so a partial report is never mistaken for a
	// complete one.
	FailedBranches []string
}

// BranchStatus is the latest run of one branch in any state.
type BranchStatus struct {
	Branch    string
	State     record.State
	RunID     string
	RunName   string
	CreatedAt time.Time
	LastStep  int64
}

// BranchState pairs a branch with its latest run's state.
type BranchState struct {
	Branch  string
	State   record.State
	RunName string
}

// RankedBranch is one recommendation entry.
type RankedBranch struct {
	Branch string
	Wins   int
}

// Recommendation lists finished branches by win count. InsufficientData is
// set when only one branch finished, so nothing was actually compared.
type Recommendation struct {
	Branches         []RankedBranch
	InsufficientData bool
}

// Coverage records how much of the snapshot the report represents.
type Coverage struct {
	TotalRuns      int
	Represented    int
	Unassigned     int
	FailedBranches []string
}

// Report is the full evaluation of a snapshot.
type Report struct {
	ID      string
	Project string
	Entity  string

	TotalRuns      int
	BranchCount    int
	UnassignedRuns int

	// Branches is sorted by branch name.
	Branches []BranchStatus

	// Finished names the branches whose latest finished run was compared.
	Finished []string

	// Metrics in comparison order; Comparisons follows the same order.
	Metrics     []string
	Comparisons []compare.MetricComparison
	Ranking     compare.RankingReport

	ConfigDiff configdiff.ConfigDiff

	Running  []BranchState
	Problems []BranchState

	Recommendation Recommendation
	Coverage       Coverage
}

// Assemble builds a report from an immutable run snapshot.
//
// The compared set is each branch's latest finished run. The status
// sections use each branch's latest run of any state, so a branch that is
// running again after finishing appears both in Running and in the ranking.
//
// The only error is a snapshot that cannot be canonically encoded, which
// leaves the report without an ID.
func Assemble(runs []record.RunRecord, opts Options) (Report, error) {
	latest := resolve.Resolve(runs, resolve.Latest())
	finished := resolve.Resolve(runs, resolve.LatestIn(record.StateFinished))

	metrics := dedupe(opts.Metrics)
	if len(metrics) == 0 {
		metrics = compare.DiscoverMetrics(finished)
	}
	byMetric, ranking := compare.Compare(finished, metrics, opts.Classifier)

	rep := Report{
		Project:     opts.Project,
		Entity:      opts.Entity,
		TotalRuns:   len(runs),
		BranchCount: len(latest),
		Finished:    finished.Branches(),
		Metrics:     metrics,
		Ranking:     ranking,
		ConfigDiff:  configdiff.Diff(finished),
		Branches:    []BranchStatus{},
		Comparisons: make([]compare.MetricComparison, 0, len(metrics)),
		Running:     []BranchState{},
		Problems:    []BranchState{},
	}
	id, err := record.SnapshotID(runs)
	if err != nil {
		return Report{}, fmt.Errorf("report id: %w", err)
	}
	rep.ID = id

	for _, r := range runs {
		if !r.HasBranch {
			rep.UnassignedRuns++
		}
	}

	for _, m := range metrics {
		rep.Comparisons = append(rep.Comparisons, byMetric[m])
	}

	for _, b := range latest.Branches() {
		r := latest[b]
		rep.Branches = append(rep.Branches, BranchStatus{
			Branch:    b,
			State:     r.State,
			RunID:     r.ID,
			RunName:   r.DisplayName(),
			CreatedAt: r.CreatedAt,
			LastStep:  r.LastStep,
		})
		switch {
		case r.State == record.StateRunning:
			rep.Running = append(rep.Running, BranchState{Branch: b, State: r.State, RunName: r.DisplayName()})
		case r.State.IsProblem():
			rep.Problems = append(rep.Problems, BranchState{Branch: b, State: r.State, RunName: r.DisplayName()})
		}
	}

	rep.Recommendation = recommend(ranking, len(finished))

	failed := append([]string{}, opts.FailedBranches...)
	sort.Strings(failed)
	rep.Coverage = Coverage{
		TotalRuns:      len(runs),
		Represented:    len(runs) - rep.UnassignedRuns,
		Unassigned:     rep.UnassignedRuns,
		FailedBranches: failed,
	}
	return rep, nil
}

func recommend(ranking compare.RankingReport, finished int) Recommendation {
	rec := Recommendation{Branches: []RankedBranch{}}
	if finished == 0 {
		return rec
	}
	for _, b := range ranking.Ranking {
		rec.Branches = append(rec.Branches, RankedBranch{Branch: b, Wins: ranking.WinCounts[b]})
	}
	rec.InsufficientData = finished == 1
	return rec
}

// dedupe keeps the first occurrence of each name and drops empty names.
func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// JSON returns the canonical encoding of the report. Identical snapshots
// and options produce identical bytes.
func (r Report) JSON() ([]byte, error) {
	return record.MarshalCanonical(r)
}

// Canonical implements record.Canonicaler.
func (r Report) Canonical() any {
	branches := make([]any, len(r.Branches))
	for i, b := range r.Branches {
		branches[i] = map[string]any{
			"branch":     b.Branch,
			"state":      string(b.State),
			"run_id":     b.RunID,
			"run_name":   b.RunName,
			"created_at": b.CreatedAt,
			"last_step":  b.LastStep,
		}
	}

	comparisons := make([]any, len(r.Comparisons))
	for i, mc := range r.Comparisons {
		comparisons[i] = canonicalComparison(mc)
	}

	ranking := make([]any, len(r.Ranking.Ranking))
	for i, b := range r.Ranking.Ranking {
		ranking[i] = map[string]any{"branch": b, "wins": r.Ranking.WinCounts[b]}
	}

	recBranches := make([]any, len(r.Recommendation.Branches))
	for i, rb := range r.Recommendation.Branches {
		recBranches[i] = map[string]any{"branch": rb.Branch, "wins": rb.Wins}
	}

	return map[string]any{
		"id":              r.ID,
		"project":         r.Project,
		"entity":          r.Entity,
		"total_runs":      r.TotalRuns,
		"branch_count":    r.BranchCount,
		"unassigned_runs": r.UnassignedRuns,
		"branches":        branches,
		"finished":        stringList(r.Finished),
		"metrics":         stringList(r.Metrics),
		"comparisons":     comparisons,
		"ranking":         ranking,
		"config_diff":     canonicalDiff(r.ConfigDiff),
		"running":         canonicalStates(r.Running),
		"problems":        canonicalStates(r.Problems),
		"recommendation": map[string]any{
			"branches":          recBranches,
			"insufficient_data": r.Recommendation.InsufficientData,
		},
		"coverage": map[string]any{
			"total_runs":      r.Coverage.TotalRuns,
			"represented":     r.Coverage.Represented,
			"unassigned":      r.Coverage.Unassigned,
			"failed_branches": stringList(r.Coverage.FailedBranches),
		},
	}
}

func canonicalComparison(mc compare.MetricComparison) map[string]any {
	var winner any
	if mc.HasWinner {
		winner = mc.Winner
	}
	values := mc.Values
	if values == nil {
		values = map[string]float64{}
	}
	return map[string]any{
		"metric":          mc.Metric,
		"values":          values,
		"lower_is_better": mc.LowerIsBetter,
		"winner":          winner,
	}
}

// canonicalDiff expresses absence as membership of the "absent" list.
func canonicalDiff(d configdiff.ConfigDiff) []any {
	out := make([]any, len(d))
	for i, e := range d {
		values := make(map[string]any, len(e.Values))
		for b, c := range e.Values {
			if c.Present {
				values[b] = c.Value
			}
		}
		out[i] = map[string]any{
			"key":    e.Key,
			"values": values,
			"absent": stringList(e.AbsentBranches()),
		}
	}
	return out
}

func canonicalStates(states []BranchState) []any {
	out := make([]any, len(states))
	for i, s := range states {
		out[i] = map[string]any{
			"branch":   s.Branch,
			"state":    string(s.State),
			"run_name": s.RunName,
		}
	}
	return out
}

func stringList(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
