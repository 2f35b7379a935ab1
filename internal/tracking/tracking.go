// Package tracking defines the read contract with the experiment-tracking
// store and the helpers that sit on the fetch side of that boundary.
//
// Nothing here contains evaluation logic. Sources hand back run records,
// metric history, artifact listings and log text; the core packages consume
// them as immutable snapshots.
package tracking

import (
	"context"

	"github.com/roach88/brancheval/internal/record"
)

// Query selects runs from a project. Empty Branch or State means no filter.
// Results are ordered newest first.
type Query struct {
	Project string
	Branch  string
	State   record.State
}

// RunSource lists run records.
type RunSource interface {
	ListRuns(ctx context.Context, q Query) ([]record.RunRecord, error)
}

// HistorySource scans a run's logged metric history in step order.
// When keys is non-empty only those keys are returned, and rows carrying
// none of them are skipped.
type HistorySource interface {
	ScanHistory(ctx context.Context, runID string, keys []string) ([]record.HistoryRow, error)
}

// ArtifactSource lists artifacts logged by a run.
type ArtifactSource interface {
	ListArtifacts(ctx context.Context, runID string) ([]record.Artifact, error)
}

// LogSource returns a run's console log. ok is false when no log exists.
type LogSource interface {
	ReadLog(ctx context.Context, runID string) (content string, ok bool, err error)
}

// Source bundles every read capability.
type Source interface {
	RunSource
	HistorySource
	ArtifactSource
	LogSource
}

// Matches reports whether r satisfies the branch/state filters of q.
// Project is the source's responsibility.
func (q Query) Matches(r record.RunRecord) bool {
	if q.Branch != "" && (!r.HasBranch || r.Branch != q.Branch) {
		return false
	}
	if q.State != "" && r.State != q.State {
		return false
	}
	return true
}

// FilterHistory applies the ScanHistory key filter: with no keys rows pass
// through, otherwise each row is projected onto keys and rows carrying none
// of them are dropped.
func FilterHistory(rows []record.HistoryRow, keys []string) []record.HistoryRow {
	out := make([]record.HistoryRow, 0, len(rows))
	if len(keys) == 0 {
		return append(out, rows...)
	}
	for _, row := range rows {
		projected := make(record.Values, len(keys))
		for _, k := range keys {
			if v, ok := row.Values[k]; ok {
				projected[k] = v
			}
		}
		if len(projected) == 0 {
			continue
		}
		out = append(out, record.HistoryRow{Step: row.Step, HasStep: row.HasStep, Values: projected})
	}
	return out
}
