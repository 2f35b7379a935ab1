package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/brancheval/internal/direction"
	"github.com/roach88/brancheval/internal/record"
	"github.com/roach88/brancheval/internal/report"
	"github.com/roach88/brancheval/internal/tracking"
)

func byID(t *testing.T, s *Snapshot) map[string]record.RunRecord {
	t.Helper()
	out := make(map[string]record.RunRecord)
	for _, r := range s.Runs() {
		out[r.ID] = r
	}
	return out
}

func TestLoad_JSON(t *testing.T) {
	s, err := Load("testdata/e2e.json")
	require.NoError(t, err)

	assert.Equal(t, "demo", s.Project)
	assert.Equal(t, "team", s.Entity)
	runs := byID(t, s)
	require.Len(t, runs, 4)

	main := runs["run-main"]
	assert.Equal(t, "main", main.Branch)
	assert.True(t, main.HasBranch)
	assert.Equal(t, "main-baseline", main.Name)
	assert.Equal(t, "demo", main.Project)
	assert.Equal(t, int64(999), main.LastStep)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC), main.CreatedAt)
	assert.Equal(t, record.Int(32), main.Config["batch_size"])
	assert.Equal(t, record.Float(0.2), main.Summary["val/loss"])
	assert.Equal(t, []string{"baseline"}, main.Tags)

	expB := runs["run-exp-b"]
	assert.Equal(t, "exp-b", expB.Branch)
	assert.Equal(t, record.StateRunning, expB.State, "known states are normalized")
	assert.Equal(t, time.Date(2026, 1, 1, 0, 3, 0, 0, time.UTC), expB.CreatedAt)

	loose := runs["run-loose"]
	assert.False(t, loose.HasBranch, "non-text config.branch leaves the run unassigned")
	assert.Equal(t, int64(-1), loose.LastStep)
}

func TestLoad_YAMLMatchesJSONReport(t *testing.T) {
	s, err := Load("testdata/e2e.yaml")
	require.NoError(t, err)

	rep, err := report.Assemble(s.Runs(), report.Options{Classifier: direction.Default()})
	require.NoError(t, err)
	assert.Equal(t, []string{"exp-a", "main"}, rep.Ranking.Ranking)
	assert.Equal(t, map[string]int{"exp-a": 1, "main": 1}, rep.Ranking.WinCounts)
	require.Len(t, rep.Running, 1)
	assert.Equal(t, "exp-b", rep.Running[0].Branch)
	assert.Equal(t, []string{"lr"}, rep.ConfigDiff.Keys())
}

func TestLoad_History(t *testing.T) {
	s, err := Load("testdata/e2e.json")
	require.NoError(t, err)
	ctx := context.Background()

	rows, err := s.ScanHistory(ctx, "run-main", nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.True(t, rows[0].HasStep)
	assert.Equal(t, int64(2), rows[2].Step)
	_, hasStep := rows[0].Values["_step"]
	assert.False(t, hasStep, "step is lifted out of the values")

	rows, err = s.ScanHistory(ctx, "run-main", []string{"val/acc"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = s.ScanHistory(ctx, "missing", nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLoad_ArtifactsAndLogs(t *testing.T) {
	s, err := Load("testdata/e2e.json")
	require.NoError(t, err)
	ctx := context.Background()

	arts, err := s.ListArtifacts(ctx, "run-main")
	require.NoError(t, err)
	require.Len(t, arts, 1)
	assert.Equal(t, record.Artifact{Name: "model-run-main", Type: "model", Size: 1500000, Aliases: []string{"latest"}}, arts[0])

	log, ok, err := s.ReadLog(ctx, "run-main")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "epoch 1\nepoch 2\ndone\n", log)

	_, ok, err = s.ReadLog(ctx, "run-exp-a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSnapshot_ListRuns(t *testing.T) {
	s, err := Load("testdata/e2e.json")
	require.NoError(t, err)
	ctx := context.Background()

	all, err := s.ListRuns(ctx, tracking.Query{Project: "demo"})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "run-loose", all[0].ID, "newest first")

	finished, err := s.ListRuns(ctx, tracking.Query{State: record.StateFinished})
	require.NoError(t, err)
	assert.Len(t, finished, 2)

	other, err := s.ListRuns(ctx, tracking.Query{Project: "other"})
	require.NoError(t, err)
	assert.NotNil(t, other)
	assert.Empty(t, other)
}

func TestParse_SchemaViolations(t *testing.T) {
	_, err := Load("testdata/invalid.json")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	locations := make([]string, len(ve.Problems))
	for i, p := range ve.Problems {
		locations[i] = p.Location
	}
	assert.Contains(t, locations, "/runs/0/id")
	assert.Contains(t, locations, "/runs/2/last_step")
	assert.Contains(t, err.Error(), "testdata/invalid.json: invalid snapshot")
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		format  Format
		invalid bool
	}{
		{"bad json", `{"runs": [`, FormatJSON, false},
		{"bad yaml", "runs: [\n  - {", FormatYAML, false},
		{"missing runs", `{"project": "p"}`, FormatJSON, true},
		{"unknown top-level field", `{"runs": [], "owner": "x"}`, FormatJSON, true},
		{"bad timestamp", `{"runs": [{"id": "a", "state": "finished", "created_at": "yesterday"}]}`, FormatJSON, true},
		{"duplicate id", `{"runs": [
			{"id": "a", "state": "finished", "created_at": "2026-01-01T00:00:00Z"},
			{"id": "a", "state": "finished", "created_at": "2026-01-01T00:00:00Z"}]}`, FormatJSON, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("doc", []byte(tt.data), tt.format)
			require.Error(t, err)
			assert.Equal(t, tt.invalid, IsValidationError(err))
		})
	}
}

func TestParse_Empty(t *testing.T) {
	s, err := Parse("doc", []byte(`{"runs": []}`), FormatJSON)
	require.NoError(t, err)
	assert.Empty(t, s.Runs())
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFor("a/b.yaml"))
	assert.Equal(t, FormatYAML, FormatFor("a/b.YML"))
	assert.Equal(t, FormatJSON, FormatFor("a/b.json"))
	assert.Equal(t, FormatJSON, FormatFor("a/b"))
}

func TestParseTime(t *testing.T) {
	want := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	for _, in := range []string{"2026-03-01T12:30:00Z", "2026-03-01T13:30:00+01:00", "2026-03-01T12:30:00", "2026-03-01 12:30:00"} {
		got, err := ParseTime(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
		assert.Equal(t, time.UTC, got.Location())
	}
	_, err := ParseTime("nope")
	assert.Error(t, err)
}
