package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/brancheval/internal/record"
)

// LabelPrefix prefixes the PR label naming a branch's experiment state.
const LabelPrefix = "experiment:"

// MetricDelta compares one metric against the baseline.
type MetricDelta struct {
	Metric   string
	Baseline float64
	Current  float64
	Delta    float64
}

// DeltaText renders the delta with an explicit sign.
func (d MetricDelta) DeltaText() string {
	return FormatDelta(d.Delta)
}

// BaselineComparison holds per-metric deltas for metrics numeric in both
// runs, sorted by metric name.
type BaselineComparison struct {
	BaselineBranch string
	BaselineRunID  string
	HasBaseline    bool
	Deltas         []MetricDelta
}

// Baseline compares current against baseline. A nil baseline yields an
// empty comparison.
func Baseline(current record.RunRecord, baseline *record.RunRecord) BaselineComparison {
	bc := BaselineComparison{Deltas: []MetricDelta{}}
	if baseline == nil {
		return bc
	}
	bc.HasBaseline = true
	bc.BaselineBranch = baseline.BranchLabel("N/A")
	bc.BaselineRunID = baseline.ID

	base := baseline.NumericMetrics()
	for _, k := range record.VisibleKeys(current.Summary) {
		cur, ok := current.Metric(k)
		if !ok {
			continue
		}
		bv, ok := base[k]
		if !ok {
			continue
		}
		bc.Deltas = append(bc.Deltas, MetricDelta{Metric: k, Baseline: bv, Current: cur, Delta: cur - bv})
	}
	return bc
}

// FormatDelta renders d with six decimals and a leading "+" when positive.
// Zero has no sign.
func FormatDelta(d float64) string {
	s := strconv.FormatFloat(d, 'f', 6, 64)
	if d > 0 {
		return "+" + s
	}
	return s
}

// Canonical implements record.Canonicaler.
func (bc BaselineComparison) Canonical() any {
	deltas := make([]any, len(bc.Deltas))
	for i, d := range bc.Deltas {
		deltas[i] = map[string]any{
			"metric":     d.Metric,
			"baseline":   d.Baseline,
			"current":    d.Current,
			"delta":      d.Delta,
			"delta_text": d.DeltaText(),
		}
	}
	var branch any
	if bc.HasBaseline {
		branch = bc.BaselineBranch
	}
	return map[string]any{
		"baseline_branch": branch,
		"deltas":          deltas,
	}
}

// Comment is a rendered PR comment and the label the automation should
// apply. Posting it is the caller's job.
type Comment struct {
	Branch   string
	RunID    string
	State    record.State
	Body     string
	Label    string
	HasLabel bool
	Baseline BaselineComparison
}

// PRComment renders the results comment for branch's latest run. baseline
// is the latest finished run of the baseline branch, or nil.
func PRComment(branch string, run record.RunRecord, baseline *record.RunRecord) Comment {
	c := Comment{Branch: branch, RunID: run.ID, State: run.State, Baseline: Baseline(run, nil)}

	lines := []string{
		fmt.Sprintf("## Experiment Results: `%s`", branch),
		"",
		fmt.Sprintf("**Run:** %s (ID: `%s`)", run.DisplayName(), run.ID),
		fmt.Sprintf("**State:** %s", run.State),
		"",
	}

	switch {
	case run.State.IsFinished():
		keys := record.VisibleKeys(run.Summary)
		var metricLines []string
		for _, k := range keys {
			v := run.Summary[k]
			if _, ok := record.AsFloat(v); !ok {
				continue
			}
			metricLines = append(metricLines, fmt.Sprintf("| %s | %s |", k, valueText(v)))
		}
		if len(metricLines) > 0 {
			lines = append(lines, "### Metrics", "", "| Metric | Value |", "|--------|-------|")
			lines = append(lines, metricLines...)
			lines = append(lines, "")
		}

		c.Baseline = Baseline(run, baseline)
		if len(c.Baseline.Deltas) > 0 {
			lines = append(lines,
				fmt.Sprintf("### vs Baseline (%s)", c.Baseline.BaselineBranch),
				"",
				"| Metric | Baseline | This Branch | Delta |",
				"|--------|----------|-------------|-------|",
			)
			for _, d := range c.Baseline.Deltas {
				lines = append(lines, fmt.Sprintf("| %s | %.6f | %.6f | %s |", d.Metric, d.Baseline, d.Current, d.DeltaText()))
			}
			lines = append(lines, "")
		}
		c.Label, c.HasLabel = LabelPrefix+string(run.State), true

	case run.State.IsProblem():
		lines = append(lines, fmt.Sprintf("**Run %s.** Run `brancheval diagnose --branch %s` to investigate before relaunching.", run.State, branch))
		c.Label, c.HasLabel = LabelPrefix+string(run.State), true

	case run.State == record.StateRunning:
		step := "N/A"
		if run.LastStep >= 0 {
			step = strconv.FormatInt(run.LastStep, 10)
		}
		lines = append(lines, fmt.Sprintf("**Currently running.** Step: %s", step))
		c.Label, c.HasLabel = LabelPrefix+string(run.State), true
	}

	c.Body = strings.Join(lines, "\n")
	return c
}

// Canonical implements record.Canonicaler.
func (c Comment) Canonical() any {
	var label any
	if c.HasLabel {
		label = c.Label
	}
	return map[string]any{
		"branch":   c.Branch,
		"run_id":   c.RunID,
		"state":    string(c.State),
		"body":     c.Body,
		"label":    label,
		"baseline": c.Baseline,
	}
}

// WriteText implements Document.
func (c Comment) WriteText(w io.Writer) error {
	t := newTextWriter(w)
	t.line(c.Body)
	if c.HasLabel {
		t.blank()
		t.printf("Label: %s\n", c.Label)
	}
	return t.flush()
}
