package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/roach88/brancheval/internal/compare"
	"github.com/roach88/brancheval/internal/record"
)

const (
	noneMarker = "(none)"
	banner     = "================================================================================"
	bestMarker = " *"
)

// textWriter accumulates the first write error so renderers can print
// unconditionally and check once at the end.
type textWriter struct {
	w   *bufio.Writer
	err error
}

func newTextWriter(w io.Writer) *textWriter {
	return &textWriter{w: bufio.NewWriter(w)}
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *textWriter) line(s string) {
	t.printf("%s\n", s)
}

func (t *textWriter) blank() {
	t.printf("\n")
}

func (t *textWriter) section(title string) {
	t.printf("── %s ──\n", title)
}

func (t *textWriter) flush() error {
	if t.err != nil {
		return t.err
	}
	return t.w.Flush()
}

func col(s string, width int) string {
	return fmt.Sprintf("%-*s", width, s)
}

func rule(width int) string {
	return strings.Repeat("-", width)
}

func timestamp(ts time.Time) string {
	if ts.IsZero() {
		return "N/A"
	}
	return ts.UTC().Format(time.RFC3339)
}

// metricCell renders a compared value padded to 25 columns with the best
// marker in the last two.
func metricCell(mc compare.MetricComparison, branch string) string {
	v, ok := mc.Values[branch]
	if !ok {
		return col("N/A", 25)
	}
	marker := ""
	if mc.HasWinner && mc.Winner == branch {
		marker = bestMarker
	}
	return fmt.Sprintf("%-23s%2s", fmt.Sprintf("%.6f", v), marker)
}

// WriteText renders the report. Every section is printed; empty sections
// say so explicitly.
func (r Report) WriteText(w io.Writer) error {
	t := newTextWriter(w)

	t.line(banner)
	t.line("EXPERIMENT REPORT")
	t.line(banner)
	project := r.Project
	if r.Entity != "" {
		project = r.Entity + "/" + r.Project
	}
	t.printf("Project: %s\n", project)
	t.printf("Report ID: %s\n", r.ID)
	t.printf("Total runs: %d\n", r.TotalRuns)
	t.printf("Branches: %d\n", r.BranchCount)
	t.printf("Unassigned runs: %d\n", r.UnassignedRuns)
	t.blank()

	t.section("Branch Status")
	if len(r.Branches) == 0 {
		t.line(noneMarker)
	} else {
		t.line(strings.TrimRight(col("Branch", 30)+" "+col("State", 12)+" "+col("Run", 25)+" "+"Created", " "))
		t.line(rule(87))
		for _, b := range r.Branches {
			t.line(col(b.Branch, 30) + " " + col(string(b.State), 12) + " " + col(b.RunName, 25) + " " + timestamp(b.CreatedAt))
		}
	}
	t.blank()

	t.section("Metric Comparison (Finished Runs)")
	if len(r.Finished) == 0 || len(r.Comparisons) == 0 {
		t.line(noneMarker)
	} else {
		header := col("Metric", 25)
		for _, b := range r.Finished {
			header += col(b, 25)
		}
		t.line(strings.TrimRight(header, " "))
		t.line(rule(len(header)))
		for _, mc := range r.Comparisons {
			row := col(mc.Metric, 25)
			for _, b := range r.Finished {
				row += metricCell(mc, b)
			}
			t.line(strings.TrimRight(row, " "))
		}
	}
	t.blank()

	t.section("Win Count")
	if len(r.Ranking.Ranking) == 0 {
		t.line(noneMarker)
	} else {
		t.line(col("Branch", 30) + " Wins")
		t.line(rule(40))
		for _, b := range r.Ranking.Ranking {
			t.printf("%s %d\n", col(b, 30), r.Ranking.WinCounts[b])
		}
	}
	t.blank()

	t.section("Hyperparameter Diff (Finished Runs)")
	if len(r.ConfigDiff) == 0 {
		t.line(noneMarker)
	} else {
		header := col("Param", 30)
		for _, b := range r.Finished {
			header += col(b, 25)
		}
		t.line(strings.TrimRight(header, " "))
		t.line(rule(len(header)))
		for _, e := range r.ConfigDiff {
			row := col(e.Key, 30)
			for _, b := range r.Finished {
				row += col(e.Values[b].Text(), 25)
			}
			t.line(strings.TrimRight(row, " "))
		}
	}
	t.blank()

	t.section("Problematic Runs (Need Attention)")
	if len(r.Problems) == 0 {
		t.line(noneMarker)
	}
	for _, p := range r.Problems {
		t.printf("  %s %s %s\n", col(p.Branch, 30), col(string(p.State), 12), p.RunName)
	}
	t.blank()

	t.section("Still Running")
	if len(r.Running) == 0 {
		t.line(noneMarker)
	}
	for _, p := range r.Running {
		t.printf("  %s %s\n", col(p.Branch, 30), p.RunName)
	}
	t.blank()

	t.section("Recommendations")
	switch {
	case len(r.Recommendation.Branches) == 0:
		t.line(noneMarker)
	case r.Recommendation.InsufficientData:
		t.printf("  Only one finished branch: %s. Review metrics to decide.\n", r.Recommendation.Branches[0].Branch)
	default:
		t.line("  Recommended winners (by metric win count):")
		for _, rb := range r.Recommendation.Branches {
			t.printf("    %s: %d metric wins\n", rb.Branch, rb.Wins)
		}
	}
	t.blank()

	t.section("Coverage")
	t.printf("  Runs represented: %d of %d (%d unassigned)\n", r.Coverage.Represented, r.Coverage.TotalRuns, r.Coverage.Unassigned)
	if len(r.Coverage.FailedBranches) > 0 {
		t.printf("  Failed branch fetches: %s\n", strings.Join(r.Coverage.FailedBranches, ", "))
	}

	return t.flush()
}

// valueText renders a summary value for single-value listings.
func valueText(v record.Value) string {
	return record.FormatMetric(v)
}
