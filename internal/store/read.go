package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/brancheval/internal/record"
	"github.com/roach88/brancheval/internal/tracking"
)

var _ tracking.Source = (*Store)(nil)

// ListRuns returns runs matching q, newest first. Ties on creation time
// are broken by ID so listings are deterministic.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) ListRuns(ctx context.Context, q tracking.Query) ([]record.RunRecord, error) {
	query, args, err := listRunsQuery(q).compile()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []record.RunRecord{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// scanRun scans a single runs row.
func scanRun(rows *sql.Rows) (record.RunRecord, error) {
	var (
		r         record.RunRecord
		branch    sql.NullString
		state     string
		createdAt int64
		summary   string
		config    string
		tags      string
	)
	if err := rows.Scan(&r.ID, &r.Project, &r.Name, &branch, &state, &createdAt,
		&r.LastStep, &summary, &config, &tags, &r.Notes); err != nil {
		return record.RunRecord{}, fmt.Errorf("scan run: %w", err)
	}

	r.Branch, r.HasBranch = branch.String, branch.Valid
	r.State = record.ParseState(state)
	r.CreatedAt = decodeTime(createdAt)

	var err error
	if r.Summary, err = unmarshalValues(summary); err != nil {
		return record.RunRecord{}, fmt.Errorf("run %s summary: %w", r.ID, err)
	}
	if r.Config, err = unmarshalValues(config); err != nil {
		return record.RunRecord{}, fmt.Errorf("run %s config: %w", r.ID, err)
	}
	if r.Tags, err = unmarshalStrings(tags); err != nil {
		return record.RunRecord{}, fmt.Errorf("run %s tags: %w", r.ID, err)
	}
	return r, nil
}

// ScanHistory returns a run's history rows in logged order, filtered to
// keys when given.
func (s *Store) ScanHistory(ctx context.Context, runID string, keys []string) ([]record.HistoryRow, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT step, row_values
		FROM history
		WHERE run_id = ?
		ORDER BY idx ASC
	`), runID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var all []record.HistoryRow
	for rows.Next() {
		var (
			step sql.NullInt64
			vals string
		)
		if err := rows.Scan(&step, &vals); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		values, err := unmarshalValues(vals)
		if err != nil {
			return nil, fmt.Errorf("history of %s: %w", runID, err)
		}
		all = append(all, record.HistoryRow{Step: step.Int64, HasStep: step.Valid, Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return tracking.FilterHistory(all, keys), nil
}

// ListArtifacts returns a run's artifacts ordered by name.
func (s *Store) ListArtifacts(ctx context.Context, runID string) ([]record.Artifact, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT name, type, size, aliases
		FROM artifacts
		WHERE run_id = ?
		ORDER BY name ASC
	`), runID)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	arts := []record.Artifact{}
	for rows.Next() {
		var (
			a       record.Artifact
			aliases string
		)
		if err := rows.Scan(&a.Name, &a.Type, &a.Size, &aliases); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		if a.Aliases, err = unmarshalStrings(aliases); err != nil {
			return nil, fmt.Errorf("artifact %s: %w", a.Name, err)
		}
		arts = append(arts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifacts: %w", err)
	}
	return arts, nil
}

// ReadLog returns a run's console log. ok is false when none was stored.
func (s *Store) ReadLog(ctx context.Context, runID string) (string, bool, error) {
	var content string
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT content FROM run_logs WHERE run_id = ?
	`), runID).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read log %s: %w", runID, err)
	}
	return content, true, nil
}

// CountRuns returns the number of stored runs.
func (s *Store) CountRuns(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}
