package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/roach88/brancheval/internal/record"
	"github.com/roach88/brancheval/internal/resolve"
)

// Diagnosis limits.
const (
	DefaultDiagnoseLimit = 5
	diagnoseHistoryTail  = 5
	diagnoseLogTail      = 20
)

// runtimeKey holds tracker bookkeeping; its "runtime" entry is seconds.
const runtimeKey = "_wandb"

// Entry is one key/value line.
type Entry struct {
	Key   string
	Value record.Value
}

// RunDiagnosis collects what is needed to see why a run stopped.
type RunDiagnosis struct {
	RunID     string
	RunName   string
	Branch    string
	State     record.State
	CreatedAt time.Time

	Config  []Entry
	Summary []Entry

	Runtime    float64
	HasRuntime bool

	// LastSteps is at most the final five history rows.
	LastSteps []record.HistoryRow

	LogTail      []string
	LogAvailable bool
}

// Diagnosis is the diagnose projection.
type Diagnosis struct {
	Runs []RunDiagnosis
}

// DiagnoseTargets picks the runs to diagnose: every run of branch, or
// every run needing diagnosis when branch is empty. Newest first, at most
// limit; limit <= 0 means DefaultDiagnoseLimit.
func DiagnoseTargets(runs []record.RunRecord, branch string, limit int) []record.RunRecord {
	if limit <= 0 {
		limit = DefaultDiagnoseLimit
	}
	var targets []record.RunRecord
	if branch != "" {
		targets = resolve.ForBranch(runs, branch)
	} else {
		for _, r := range resolve.SortRecent(runs) {
			if r.State.NeedsDiagnosis() {
				targets = append(targets, r)
			}
		}
	}
	if len(targets) > limit {
		targets = targets[:limit]
	}
	return targets
}

// Diagnose builds diagnoses for the targets of DiagnoseTargets. histories
// and logs are keyed by run ID; a run missing from logs has no log.
func Diagnose(runs []record.RunRecord, branch string, limit int, histories map[string][]record.HistoryRow, logs map[string]string) Diagnosis {
	targets := DiagnoseTargets(runs, branch, limit)
	d := Diagnosis{Runs: make([]RunDiagnosis, 0, len(targets))}
	for _, r := range targets {
		d.Runs = append(d.Runs, diagnoseRun(r, histories[r.ID], logs))
	}
	return d
}

func diagnoseRun(r record.RunRecord, history []record.HistoryRow, logs map[string]string) RunDiagnosis {
	rd := RunDiagnosis{
		RunID:     r.ID,
		RunName:   r.DisplayName(),
		Branch:    r.BranchLabel("N/A"),
		State:     r.State,
		CreatedAt: r.CreatedAt,
		Config:    entries(r.Config),
		Summary:   entries(r.Summary),
		LastSteps: []record.HistoryRow{},
		LogTail:   []string{},
	}
	rd.Runtime, rd.HasRuntime = runtimeSeconds(r.Summary)

	start := max(len(history)-diagnoseHistoryTail, 0)
	rd.LastSteps = append(rd.LastSteps, history[start:]...)

	if content, ok := logs[r.ID]; ok {
		rd.LogAvailable = true
		rd.LogTail = tailLines(content, diagnoseLogTail)
	}
	return rd
}

func entries(vals record.Values) []Entry {
	keys := record.VisibleKeys(vals)
	out := make([]Entry, len(keys))
	for i, k := range keys {
		out[i] = Entry{Key: k, Value: vals[k]}
	}
	return out
}

func runtimeSeconds(summary record.Values) (float64, bool) {
	other, ok := summary[runtimeKey].(record.Other)
	if !ok {
		return 0, false
	}
	m, ok := other.Raw.(map[string]any)
	if !ok {
		return 0, false
	}
	raw, ok := m["runtime"]
	if !ok {
		return 0, false
	}
	return record.AsFloat(record.DecodeValue(raw))
}

func tailLines(content string, n int) []string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return []string{}
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

// Canonical implements record.Canonicaler.
func (d Diagnosis) Canonical() any {
	runs := make([]any, len(d.Runs))
	for i, rd := range d.Runs {
		var runtime any
		if rd.HasRuntime {
			runtime = rd.Runtime
		}
		var logTail any
		if rd.LogAvailable {
			logTail = stringList(rd.LogTail)
		}
		runs[i] = map[string]any{
			"run_id":     rd.RunID,
			"run_name":   rd.RunName,
			"branch":     rd.Branch,
			"state":      string(rd.State),
			"created_at": rd.CreatedAt,
			"config":     entryMap(rd.Config),
			"summary":    entryMap(rd.Summary),
			"runtime":    runtime,
			"last_steps": canonicalRows(rd.LastSteps),
			"log_tail":   logTail,
		}
	}
	return map[string]any{"runs": runs}
}

func entryMap(es []Entry) record.Values {
	out := make(record.Values, len(es))
	for _, e := range es {
		out[e.Key] = e.Value
	}
	return out
}

// WriteText implements Document.
func (d Diagnosis) WriteText(w io.Writer) error {
	t := newTextWriter(w)
	if len(d.Runs) == 0 {
		t.line("No problematic runs found.")
		return t.flush()
	}
	for _, rd := range d.Runs {
		t.line(banner)
		t.printf("Run:     %s (ID: %s)\n", rd.RunName, rd.RunID)
		t.printf("Branch:  %s\n", rd.Branch)
		t.printf("State:   %s\n", rd.State)
		t.printf("Created: %s\n", timestamp(rd.CreatedAt))
		t.blank()

		t.section("Config")
		for _, e := range rd.Config {
			t.printf("  %s: %s\n", e.Key, record.Stringify(e.Value))
		}
		t.blank()

		t.section("Summary")
		for _, e := range rd.Summary {
			t.printf("  %s: %s\n", e.Key, valueText(e.Value))
		}
		t.blank()

		if rd.HasRuntime {
			t.printf("── Runtime: %.1fs ──\n", rd.Runtime)
		}

		t.section("Last History Steps")
		if len(rd.LastSteps) == 0 {
			t.line("  (no history logged)")
		}
		for _, row := range rd.LastSteps {
			step := "?"
			if row.HasStep {
				step = fmt.Sprintf("%d", row.Step)
			}
			t.printf("  step %s: %s\n", step, inlineValues(row.Values))
		}
		t.blank()

		t.section("Log Tail")
		if !rd.LogAvailable {
			t.line("  (output.log not available)")
		}
		for _, l := range rd.LogTail {
			t.printf("  %s\n", l)
		}
		t.blank()
	}
	return t.flush()
}

// inlineValues renders visible values as {k: v, ...} in key order.
func inlineValues(vals record.Values) string {
	keys := record.VisibleKeys(vals)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + valueText(vals[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
