package report

import (
	"io"
	"strings"
	"time"

	"github.com/roach88/brancheval/internal/compare"
	"github.com/roach88/brancheval/internal/direction"
	"github.com/roach88/brancheval/internal/record"
	"github.com/roach88/brancheval/internal/resolve"
)

// Notice is a plain message result, used when a query finds nothing.
// NotFound is a normal outcome, never an error.
type Notice struct {
	Message string
}

// Canonical implements record.Canonicaler.
func (n Notice) Canonical() any {
	return map[string]any{"found": false, "message": n.Message}
}

// WriteText implements Document.
func (n Notice) WriteText(w io.Writer) error {
	t := newTextWriter(w)
	t.line(n.Message)
	return t.flush()
}

// StatusRow is one run in the status listing.
type StatusRow struct {
	Branch    string
	HasBranch bool
	RunID     string
	RunName   string
	State     record.State
	CreatedAt time.Time
}

// StatusListing lists runs newest first.
type StatusListing struct {
	Rows []StatusRow
}

// Status lists every run, or only the runs of branch when it is non-empty.
func Status(runs []record.RunRecord, branch string) StatusListing {
	selected := resolve.SortRecent(runs)
	if branch != "" {
		selected = resolve.ForBranch(selected, branch)
	}
	rows := make([]StatusRow, 0, len(selected))
	for _, r := range selected {
		rows = append(rows, StatusRow{
			Branch:    r.Branch,
			HasBranch: r.HasBranch,
			RunID:     r.ID,
			RunName:   r.DisplayName(),
			State:     r.State,
			CreatedAt: r.CreatedAt,
		})
	}
	return StatusListing{Rows: rows}
}

// Canonical implements record.Canonicaler.
func (s StatusListing) Canonical() any {
	rows := make([]any, len(s.Rows))
	for i, r := range s.Rows {
		var branch any
		if r.HasBranch {
			branch = r.Branch
		}
		rows[i] = map[string]any{
			"branch":     branch,
			"run_id":     r.RunID,
			"run_name":   r.RunName,
			"state":      string(r.State),
			"created_at": r.CreatedAt,
		}
	}
	return map[string]any{"runs": rows}
}

// WriteText implements Document.
func (s StatusListing) WriteText(w io.Writer) error {
	t := newTextWriter(w)
	if len(s.Rows) == 0 {
		t.line("No runs found.")
		return t.flush()
	}
	t.line(col("Branch", 30) + " " + col("Run Name", 30) + " " + col("State", 12) + " Created")
	t.line(rule(92))
	for _, r := range s.Rows {
		branch := r.Branch
		if !r.HasBranch {
			branch = "N/A"
		}
		t.line(col(branch, 30) + " " + col(r.RunName, 30) + " " + col(string(r.State), 12) + " " + timestamp(r.CreatedAt))
	}
	return t.flush()
}

// SummaryRow holds one branch's latest finished run.
type SummaryRow struct {
	Branch  string
	RunID   string
	RunName string

	// Metrics holds the requested metrics the run reported; nulls are
	// dropped.
	Metrics record.Values
	Config  record.Values
}

// SummaryTable is the summary projection.
type SummaryTable struct {
	Metrics []string
	Rows    []SummaryRow
}

// Summary tabulates the latest finished run per branch. When metrics is
// empty the numeric summary keys are discovered.
func Summary(runs []record.RunRecord, metrics []string) SummaryTable {
	set := resolve.Resolve(runs, resolve.LatestIn(record.StateFinished))
	keys := dedupe(metrics)
	if len(keys) == 0 {
		keys = compare.DiscoverMetrics(set)
	}

	rows := make([]SummaryRow, 0, len(set))
	for _, b := range set.Branches() {
		r := set[b]
		row := SummaryRow{
			Branch:  b,
			RunID:   r.ID,
			RunName: r.DisplayName(),
			Metrics: record.Values{},
			Config:  visible(r.Config),
		}
		for _, k := range keys {
			if v, ok := compare.ValueOf(r, k); ok {
				row.Metrics[k] = v
			}
		}
		rows = append(rows, row)
	}
	return SummaryTable{Metrics: keys, Rows: rows}
}

func visible(vals record.Values) record.Values {
	out := make(record.Values, len(vals))
	for k, v := range vals {
		if !record.IsReserved(k) {
			out[k] = v
		}
	}
	return out
}

// Canonical implements record.Canonicaler.
func (s SummaryTable) Canonical() any {
	branches := make(map[string]any, len(s.Rows))
	for _, r := range s.Rows {
		branches[r.Branch] = map[string]any{
			"run_id":   r.RunID,
			"run_name": r.RunName,
			"metrics":  r.Metrics,
			"config":   r.Config,
		}
	}
	return map[string]any{
		"metrics":  stringList(s.Metrics),
		"branches": branches,
	}
}

// WriteText implements Document.
func (s SummaryTable) WriteText(w io.Writer) error {
	t := newTextWriter(w)
	switch {
	case len(s.Rows) == 0:
		t.line("No finished runs found.")
		return t.flush()
	case len(s.Metrics) == 0:
		t.line("No numeric metrics found in run summaries.")
		return t.flush()
	}

	header := col("Branch", 30)
	for _, k := range s.Metrics {
		header += col(k, 20)
	}
	t.line(strings.TrimRight(header, " "))
	t.line(rule(len(header)))
	for _, r := range s.Rows {
		row := col(r.Branch, 30)
		for _, k := range s.Metrics {
			v, ok := r.Metrics[k]
			if !ok {
				row += col("N/A", 20)
				continue
			}
			row += col(valueText(v), 20)
		}
		t.line(strings.TrimRight(row, " "))
	}
	return t.flush()
}

// HistoryWindow is a bounded view over a run's metric history: the first
// and last maxRows/2 rows, with the middle elided.
type HistoryWindow struct {
	RunID   string
	RunName string
	Branch  string
	State   record.State

	Keys []string

	Head   []record.HistoryRow
	Tail   []record.HistoryRow
	Elided bool
	Total  int
}

// WindowHistory bounds rows to maxRows, split between the first and last
// rows. maxRows <= 0 keeps everything.
// When keys is empty they are taken from the first row, minus reserved keys.
func WindowHistory(rows []record.HistoryRow, keys []string, maxRows int) HistoryWindow {
	win := HistoryWindow{
		Keys:  dedupe(keys),
		Head:  []record.HistoryRow{},
		Tail:  []record.HistoryRow{},
		Total: len(rows),
	}
	if len(win.Keys) == 0 && len(rows) > 0 {
		win.Keys = record.VisibleKeys(rows[0].Values)
	}

	if maxRows <= 0 || len(rows) <= maxRows {
		win.Head = append(win.Head, rows...)
		return win
	}
	// The tail takes the odd row so exactly maxRows rows are shown.
	head := maxRows / 2
	win.Head = append(win.Head, rows[:head]...)
	win.Tail = append(win.Tail, rows[len(rows)-(maxRows-head):]...)
	win.Elided = true
	return win
}

// History windows the history of run.
func History(run record.RunRecord, rows []record.HistoryRow, keys []string, maxRows int) HistoryWindow {
	win := WindowHistory(rows, keys, maxRows)
	win.RunID = run.ID
	win.RunName = run.DisplayName()
	win.Branch = run.BranchLabel("N/A")
	win.State = run.State
	return win
}

// Canonical implements record.Canonicaler.
func (h HistoryWindow) Canonical() any {
	return map[string]any{
		"run_id":     h.RunID,
		"run_name":   h.RunName,
		"branch":     h.Branch,
		"state":      string(h.State),
		"keys":       stringList(h.Keys),
		"head":       canonicalRows(h.Head),
		"tail":       canonicalRows(h.Tail),
		"elided":     h.Elided,
		"total_rows": h.Total,
	}
}

func canonicalRows(rows []record.HistoryRow) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		var step any
		if r.HasStep {
			step = r.Step
		}
		values := r.Values
		if values == nil {
			values = record.Values{}
		}
		out[i] = map[string]any{"step": step, "values": values}
	}
	return out
}

// WriteText implements Document.
func (h HistoryWindow) WriteText(w io.Writer) error {
	t := newTextWriter(w)
	t.printf("Run: %s (ID: %s)\n", h.RunName, h.RunID)
	t.printf("Branch: %s\n", h.Branch)
	t.printf("State: %s\n", h.State)
	t.blank()

	if h.Total == 0 {
		t.line("No history records found.")
		return t.flush()
	}

	header := col("step", 10)
	for _, k := range h.Keys {
		header += col(k, 20)
	}
	t.line(strings.TrimRight(header, " "))
	t.line(rule(len(header)))

	writeRow := func(r record.HistoryRow) {
		step := "?"
		if r.HasStep {
			step = record.Stringify(record.Int(r.Step))
		}
		row := col(step, 10)
		for _, k := range h.Keys {
			v, ok := r.Values[k]
			if !ok {
				row += col("", 20)
				continue
			}
			if _, isNull := v.(record.Null); isNull {
				row += col("", 20)
				continue
			}
			row += col(valueText(v), 20)
		}
		t.line(strings.TrimRight(row, " "))
	}

	for _, r := range h.Head {
		writeRow(r)
	}
	if h.Elided {
		row := col("...", 10)
		for range h.Keys {
			row += col("...", 20)
		}
		t.line(strings.TrimRight(row, " "))
	}
	for _, r := range h.Tail {
		writeRow(r)
	}
	return t.flush()
}

// Comparison is an ad hoc comparison over a subset of finished branches.
type Comparison struct {
	// Finished counts finished branches before subset filtering, to tell
	// "nothing finished" apart from "no requested branch matched".
	Finished int

	Branches    []string
	Metrics     []string
	Comparisons []compare.MetricComparison
	Ranking     compare.RankingReport
}

// CompareBranches compares the latest finished run of each branch in
// branches, or of every branch when branches is empty.
func CompareBranches(runs []record.RunRecord, branches, metrics []string, c direction.Classifier) Comparison {
	set := resolve.Resolve(runs, resolve.LatestIn(record.StateFinished))
	cmp := Comparison{Finished: len(set)}
	if len(branches) > 0 {
		set = set.Only(branches)
	}

	keys := dedupe(metrics)
	if len(keys) == 0 {
		keys = compare.DiscoverMetrics(set)
	}
	byMetric, ranking := compare.Compare(set, keys, c)

	cmp.Branches = set.Branches()
	cmp.Metrics = keys
	cmp.Ranking = ranking
	cmp.Comparisons = make([]compare.MetricComparison, 0, len(keys))
	for _, k := range keys {
		cmp.Comparisons = append(cmp.Comparisons, byMetric[k])
	}
	return cmp
}

// Canonical implements record.Canonicaler.
func (c Comparison) Canonical() any {
	comparisons := make([]any, len(c.Comparisons))
	for i, mc := range c.Comparisons {
		comparisons[i] = canonicalComparison(mc)
	}
	ranking := make([]any, len(c.Ranking.Ranking))
	for i, b := range c.Ranking.Ranking {
		ranking[i] = map[string]any{"branch": b, "wins": c.Ranking.WinCounts[b]}
	}
	return map[string]any{
		"branches":    stringList(c.Branches),
		"metrics":     stringList(c.Metrics),
		"comparisons": comparisons,
		"ranking":     ranking,
	}
}

// WriteText implements Document.
func (c Comparison) WriteText(w io.Writer) error {
	t := newTextWriter(w)
	switch {
	case c.Finished == 0:
		t.line("No finished runs found.")
		return t.flush()
	case len(c.Branches) == 0:
		t.line("No matching branches found.")
		return t.flush()
	case len(c.Metrics) == 0:
		t.line("No numeric metrics found.")
		return t.flush()
	}

	width := 25 * (len(c.Branches) + 2)
	header := col("Metric", 25)
	for _, b := range c.Branches {
		header += col(b, 25)
	}
	t.line(header + "Best")
	t.line(rule(width))
	for _, mc := range c.Comparisons {
		row := col(mc.Metric, 25)
		for _, b := range c.Branches {
			row += metricCell(mc, b)
		}
		best := "N/A"
		if mc.HasWinner {
			best = mc.Winner
		}
		t.line(row + best)
	}
	t.blank()

	t.section("Win Count")
	t.line(col("Branch", 25) + " Wins")
	t.line(rule(35))
	for _, b := range c.Ranking.Ranking {
		t.printf("%s %d\n", col(b, 25), c.Ranking.WinCounts[b])
	}
	return t.flush()
}
