package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/brancheval/internal/direction"
	"github.com/roach88/brancheval/internal/record"
	"github.com/roach88/brancheval/internal/testutil"
)

func render(t *testing.T, d Document) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, d.WriteText(&buf))
	return buf.String()
}

func rows(n int) []record.HistoryRow {
	out := make([]record.HistoryRow, n)
	for i := range out {
		out[i] = record.HistoryRow{
			Step:    int64(i),
			HasStep: true,
			Values:  record.Values{"loss": record.Float(float64(n - i)), "_runtime": record.Int(int64(i))},
		}
	}
	return out
}

func TestStatus(t *testing.T) {
	runs := append(testutil.EndToEnd(),
		testutil.Run("loose").At(testutil.Epoch.Add(time.Hour)).Build())

	t.Run("all runs newest first", func(t *testing.T) {
		s := Status(runs, "")
		require.Len(t, s.Rows, 4)
		assert.Equal(t, "loose", s.Rows[0].RunID)
		assert.False(t, s.Rows[0].HasBranch)
		assert.Equal(t, "run-main", s.Rows[3].RunID)

		out := render(t, s)
		assert.Contains(t, out, "N/A")
	})

	t.Run("one branch", func(t *testing.T) {
		s := Status(runs, "exp-a")
		require.Len(t, s.Rows, 1)
		assert.Equal(t, "run-exp-a", s.Rows[0].RunID)
	})

	t.Run("not found", func(t *testing.T) {
		s := Status(runs, "nope")
		assert.Empty(t, s.Rows)
		assert.Equal(t, "No runs found.\n", render(t, s))
	})

	t.Run("unassigned branch is null in json", func(t *testing.T) {
		got, err := record.MarshalCanonical(Status(runs, ""))
		require.NoError(t, err)
		assert.Contains(t, string(got), `{"branch":null,"created_at":"2026-01-01T01:00:00Z","run_id":"loose"`)
	})
}

func TestSummary(t *testing.T) {
	runs := append(testutil.EndToEnd(),
		testutil.Run("run-c").On("exp-c").At(testutil.Epoch.Add(time.Hour)).
			Summary("val/loss", nil).Summary("epochs", 3).Summary("note", "ok").Build())

	t.Run("auto-detected metrics", func(t *testing.T) {
		s := Summary(runs, nil)
		assert.Equal(t, []string{"epochs", "val/acc", "val/loss"}, s.Metrics)
		require.Len(t, s.Rows, 3)
		assert.Equal(t, "exp-a", s.Rows[0].Branch)
		assert.Equal(t, "exp-c", s.Rows[1].Branch)

		// Nulls are dropped rather than reported.
		_, hasLoss := s.Rows[1].Metrics["val/loss"]
		assert.False(t, hasLoss)
		assert.Equal(t, record.Int(3), s.Rows[1].Metrics["epochs"])
	})

	t.Run("explicit metrics keep order", func(t *testing.T) {
		s := Summary(runs, []string{"val/loss", "note"})
		assert.Equal(t, []string{"val/loss", "note"}, s.Metrics)
		assert.Equal(t, record.Text("ok"), s.Rows[1].Metrics["note"])

		out := render(t, s)
		assert.Contains(t, out, "0.150000")
		assert.Contains(t, out, "N/A")
	})

	t.Run("no finished runs", func(t *testing.T) {
		s := Summary(testutil.Runs(testutil.Run("r").On("b").In(record.StateRunning)), nil)
		assert.Equal(t, "No finished runs found.\n", render(t, s))
	})

	t.Run("no numeric metrics", func(t *testing.T) {
		s := Summary(testutil.Runs(testutil.Run("r").On("b").Summary("x", "text")), nil)
		assert.Equal(t, "No numeric metrics found in run summaries.\n", render(t, s))
	})
}

func TestWindowHistory(t *testing.T) {
	t.Run("short history is kept whole", func(t *testing.T) {
		w := WindowHistory(rows(10), nil, 40)
		assert.Len(t, w.Head, 10)
		assert.Empty(t, w.Tail)
		assert.False(t, w.Elided)
		assert.Equal(t, []string{"loss"}, w.Keys)
	})

	t.Run("long history keeps head and tail", func(t *testing.T) {
		w := WindowHistory(rows(100), nil, 40)
		require.Len(t, w.Head, 20)
		require.Len(t, w.Tail, 20)
		assert.True(t, w.Elided)
		assert.Equal(t, int64(0), w.Head[0].Step)
		assert.Equal(t, int64(19), w.Head[19].Step)
		assert.Equal(t, int64(80), w.Tail[0].Step)
		assert.Equal(t, int64(99), w.Tail[19].Step)
		assert.Equal(t, 100, w.Total)
	})

	t.Run("odd limit", func(t *testing.T) {
		w := WindowHistory(rows(10), nil, 5)
		assert.Len(t, w.Head, 2)
		require.Len(t, w.Tail, 3)
		assert.Equal(t, int64(7), w.Tail[0].Step)
	})

	t.Run("single row limit keeps the last row", func(t *testing.T) {
		w := WindowHistory(rows(10), nil, 1)
		assert.Empty(t, w.Head)
		require.Len(t, w.Tail, 1)
		assert.Equal(t, int64(9), w.Tail[0].Step)
		assert.True(t, w.Elided)
	})

	t.Run("explicit keys", func(t *testing.T) {
		w := WindowHistory(rows(3), []string{"acc", "loss"}, 0)
		assert.Equal(t, []string{"acc", "loss"}, w.Keys)
		assert.Len(t, w.Head, 3)
	})

	t.Run("empty", func(t *testing.T) {
		w := History(testutil.Run("r").On("main").Build(), nil, nil, 40)
		assert.Empty(t, w.Keys)
		assert.Contains(t, render(t, w), "No history records found.")
	})

	t.Run("text marks elision", func(t *testing.T) {
		w := History(testutil.Run("r").On("main").Build(), rows(6), nil, 2)
		out := render(t, w)
		assert.Contains(t, out, "Run: r (ID: r)\nBranch: main\nState: finished\n")
		assert.Contains(t, out, "...")
		assert.Contains(t, out, "6.000000")
		assert.Contains(t, out, "1.000000")
		assert.NotContains(t, out, "3.000000")
	})
}

func TestCompareBranches(t *testing.T) {
	runs := testutil.EndToEnd()

	t.Run("all finished", func(t *testing.T) {
		c := CompareBranches(runs, nil, nil, direction.Default())
		assert.Equal(t, []string{"exp-a", "main"}, c.Branches)
		assert.Equal(t, []string{"exp-a", "main"}, c.Ranking.Ranking)

		out := render(t, c)
		assert.Contains(t, out, "── Win Count ──")
		assert.Contains(t, out, "Best")
	})

	t.Run("subset", func(t *testing.T) {
		c := CompareBranches(runs, []string{"main", "exp-b"}, nil, direction.Default())
		assert.Equal(t, []string{"main"}, c.Branches)
		assert.Equal(t, map[string]int{"main": 2}, c.Ranking.WinCounts)
	})

	t.Run("override flips winner", func(t *testing.T) {
		cls := direction.Default().WithOverrides(map[string]direction.Direction{"val/acc": direction.Lower})
		c := CompareBranches(runs, nil, []string{"val/acc"}, cls)
		require.Len(t, c.Comparisons, 1)
		assert.Equal(t, "exp-a", c.Comparisons[0].Winner)
	})

	t.Run("no matching branches", func(t *testing.T) {
		c := CompareBranches(runs, []string{"ghost"}, nil, direction.Default())
		assert.Equal(t, "No matching branches found.\n", render(t, c))
	})

	t.Run("nothing finished", func(t *testing.T) {
		c := CompareBranches(nil, nil, nil, direction.Default())
		assert.Equal(t, "No finished runs found.\n", render(t, c))
	})
}

func TestNotice(t *testing.T) {
	n := Notice{Message: "No finished runs found for branch 'x'."}
	assert.Equal(t, "No finished runs found for branch 'x'.\n", render(t, n))

	got, err := record.MarshalCanonical(n)
	require.NoError(t, err)
	assert.Equal(t, `{"found":false,"message":"No finished runs found for branch 'x'."}`, string(got))
}
