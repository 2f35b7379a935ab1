package report

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/brancheval/internal/record"
	"github.com/roach88/brancheval/internal/testutil"
)

func diagnoseRuns() []record.RunRecord {
	at := func(m int) time.Time { return testutil.Epoch.Add(time.Duration(m) * time.Minute) }
	return testutil.Runs(
		testutil.Run("ok").On("main").At(at(1)),
		testutil.Run("crash").On("exp-a").At(at(2)).In(record.StateCrashed).
			Param("lr", 0.1).Param("_internal", 1).
			Metric("loss", 4.5).
			Summary("_wandb", map[string]any{"runtime": 61.5}),
		testutil.Run("pre").On("exp-b").At(at(3)).In(record.StatePreempted),
		testutil.Run("kill").On("exp-c").At(at(4)).In(record.StateKilled),
		testutil.Run("live").On("exp-a").At(at(5)).In(record.StateRunning),
	)
}

func TestDiagnoseTargets(t *testing.T) {
	runs := diagnoseRuns()

	t.Run("problem runs newest first", func(t *testing.T) {
		got := DiagnoseTargets(runs, "", 0)
		ids := make([]string, len(got))
		for i, r := range got {
			ids[i] = r.ID
		}
		assert.Equal(t, []string{"kill", "pre", "crash"}, ids)
	})

	t.Run("limit", func(t *testing.T) {
		assert.Len(t, DiagnoseTargets(runs, "", 2), 2)
	})

	t.Run("branch includes every state", func(t *testing.T) {
		got := DiagnoseTargets(runs, "exp-a", 5)
		require.Len(t, got, 2)
		assert.Equal(t, "live", got[0].ID)
		assert.Equal(t, "crash", got[1].ID)
	})
}

func TestDiagnose(t *testing.T) {
	var logLines []string
	for i := 1; i <= 30; i++ {
		logLines = append(logLines, fmt.Sprintf("line %d", i))
	}
	histories := map[string][]record.HistoryRow{"crash": rows(8)}
	logs := map[string]string{"crash": strings.Join(logLines, "\n") + "\n"}

	d := Diagnose(diagnoseRuns(), "exp-a", 5, histories, logs)
	require.Len(t, d.Runs, 2)

	crash := d.Runs[1]
	assert.Equal(t, "crash", crash.RunID)
	assert.True(t, crash.HasRuntime)
	assert.InDelta(t, 61.5, crash.Runtime, 1e-9)
	require.Len(t, crash.LastSteps, 5)
	assert.Equal(t, int64(3), crash.LastSteps[0].Step)
	assert.True(t, crash.LogAvailable)
	require.Len(t, crash.LogTail, 20)
	assert.Equal(t, "line 11", crash.LogTail[0])
	assert.Equal(t, "line 30", crash.LogTail[19])

	for _, e := range crash.Config {
		assert.False(t, record.IsReserved(e.Key))
	}
	for _, e := range crash.Summary {
		assert.NotEqual(t, "_wandb", e.Key)
	}

	live := d.Runs[0]
	assert.False(t, live.LogAvailable)
	assert.False(t, live.HasRuntime)

	out := render(t, d)
	assert.Contains(t, out, "── Runtime: 61.5s ──")
	assert.Contains(t, out, "  lr: 0.1\n")
	assert.Contains(t, out, "  loss: 4.500000\n")
	assert.Contains(t, out, "  step 7: {loss: 1.000000}\n")
	assert.Contains(t, out, "  (output.log not available)")
	assert.Contains(t, out, "  (no history logged)")
	assert.NotContains(t, out, "line 10\n")

	_, err := record.MarshalCanonical(d)
	require.NoError(t, err)
}

func TestDiagnose_NothingToDo(t *testing.T) {
	d := Diagnose(testutil.EndToEnd(), "", 5, nil, nil)
	assert.Empty(t, d.Runs)
	assert.Equal(t, "No problematic runs found.\n", render(t, d))
}
