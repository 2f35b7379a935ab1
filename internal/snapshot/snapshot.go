package snapshot

import (
	"context"
	"slices"

	"github.com/roach88/brancheval/internal/record"
	"github.com/roach88/brancheval/internal/resolve"
	"github.com/roach88/brancheval/internal/tracking"
)

// Snapshot is an in-memory set of runs with their auxiliary data. It
// implements tracking.Source.
type Snapshot struct {
	Project string
	Entity  string

	runs      []record.RunRecord
	history   map[string][]record.HistoryRow
	artifacts map[string][]record.Artifact
	logs      map[string]string
}

var _ tracking.Source = (*Snapshot)(nil)

// New creates an empty snapshot.
func New(project, entity string) *Snapshot {
	return &Snapshot{
		Project:   project,
		Entity:    entity,
		history:   make(map[string][]record.HistoryRow),
		artifacts: make(map[string][]record.Artifact),
		logs:      make(map[string]string),
	}
}

// Add appends a run. A nil log means the run has no console log.
func (s *Snapshot) Add(r record.RunRecord, history []record.HistoryRow, artifacts []record.Artifact, log *string) {
	s.runs = append(s.runs, r)
	if len(history) > 0 {
		s.history[r.ID] = history
	}
	if len(artifacts) > 0 {
		s.artifacts[r.ID] = artifacts
	}
	if log != nil {
		s.logs[r.ID] = *log
	}
}

// Runs returns a copy of every run in document order.
func (s *Snapshot) Runs() []record.RunRecord {
	return slices.Clone(s.runs)
}

// History returns the history rows of a run.
func (s *Snapshot) History(runID string) []record.HistoryRow {
	return s.history[runID]
}

// Artifacts returns the artifacts of a run.
func (s *Snapshot) Artifacts(runID string) []record.Artifact {
	return s.artifacts[runID]
}

// Log returns a run's console log and whether it exists.
func (s *Snapshot) Log(runID string) (string, bool) {
	l, ok := s.logs[runID]
	return l, ok
}

// ListRuns implements tracking.RunSource.
func (s *Snapshot) ListRuns(_ context.Context, q tracking.Query) ([]record.RunRecord, error) {
	out := []record.RunRecord{}
	for _, r := range resolve.SortRecent(s.runs) {
		if q.Project != "" && r.Project != q.Project {
			continue
		}
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// ScanHistory implements tracking.HistorySource.
func (s *Snapshot) ScanHistory(_ context.Context, runID string, keys []string) ([]record.HistoryRow, error) {
	return tracking.FilterHistory(s.history[runID], keys), nil
}

// ListArtifacts implements tracking.ArtifactSource.
func (s *Snapshot) ListArtifacts(_ context.Context, runID string) ([]record.Artifact, error) {
	return append([]record.Artifact{}, s.artifacts[runID]...), nil
}

// ReadLog implements tracking.LogSource.
func (s *Snapshot) ReadLog(_ context.Context, runID string) (string, bool, error) {
	l, ok := s.logs[runID]
	return l, ok, nil
}
