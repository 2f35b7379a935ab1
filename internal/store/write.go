package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/roach88/brancheval/internal/record"
	"github.com/roach88/brancheval/internal/snapshot"
)

// ImportStats counts what an import wrote.
type ImportStats struct {
	Runs        int
	HistoryRows int
	Artifacts   int
	Logs        int
}

// PutRun inserts or replaces a run record.
func (s *Store) PutRun(ctx context.Context, r record.RunRecord) error {
	return s.putRun(ctx, s.db, r)
}

func (s *Store) putRun(ctx context.Context, ex execer, r record.RunRecord) error {
	summary, err := marshalValues(r.Summary)
	if err != nil {
		return fmt.Errorf("put run %s: %w", r.ID, err)
	}
	config, err := marshalValues(r.Config)
	if err != nil {
		return fmt.Errorf("put run %s: %w", r.ID, err)
	}
	tags, err := marshalStrings(r.Tags)
	if err != nil {
		return fmt.Errorf("put run %s: %w", r.ID, err)
	}

	var branch sql.NullString
	if r.HasBranch {
		branch = sql.NullString{String: r.Branch, Valid: true}
	}

	_, err = ex.ExecContext(ctx, s.rebind(`
		INSERT INTO runs
		(id, project, name, branch, state, created_at, last_step, summary, config, tags, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			project = excluded.project,
			name = excluded.name,
			branch = excluded.branch,
			state = excluded.state,
			created_at = excluded.created_at,
			last_step = excluded.last_step,
			summary = excluded.summary,
			config = excluded.config,
			tags = excluded.tags,
			notes = excluded.notes
	`),
		r.ID,
		r.Project,
		r.Name,
		branch,
		string(r.State),
		encodeTime(r.CreatedAt),
		r.LastStep,
		summary,
		config,
		tags,
		r.Notes,
	)
	if err != nil {
		return fmt.Errorf("put run %s: %w", r.ID, err)
	}
	return nil
}

// ReplaceHistory replaces the stored history of a run.
func (s *Store) ReplaceHistory(ctx context.Context, runID string, rows []record.HistoryRow) error {
	return s.replaceHistory(ctx, s.db, runID, rows)
}

func (s *Store) replaceHistory(ctx context.Context, ex execer, runID string, rows []record.HistoryRow) error {
	if _, err := ex.ExecContext(ctx, s.rebind(`DELETE FROM history WHERE run_id = ?`), runID); err != nil {
		return fmt.Errorf("replace history %s: %w", runID, err)
	}
	for i, row := range rows {
		vals, err := marshalValues(row.Values)
		if err != nil {
			return fmt.Errorf("replace history %s: row %d: %w", runID, i, err)
		}
		var step sql.NullInt64
		if row.HasStep {
			step = sql.NullInt64{Int64: row.Step, Valid: true}
		}
		if _, err := ex.ExecContext(ctx, s.rebind(`
			INSERT INTO history (run_id, idx, step, row_values) VALUES (?, ?, ?, ?)
		`), runID, int64(i), step, vals); err != nil {
			return fmt.Errorf("replace history %s: row %d: %w", runID, i, err)
		}
	}
	return nil
}

// ReplaceArtifacts replaces the stored artifact listing of a run.
func (s *Store) ReplaceArtifacts(ctx context.Context, runID string, arts []record.Artifact) error {
	return s.replaceArtifacts(ctx, s.db, runID, arts)
}

func (s *Store) replaceArtifacts(ctx context.Context, ex execer, runID string, arts []record.Artifact) error {
	if _, err := ex.ExecContext(ctx, s.rebind(`DELETE FROM artifacts WHERE run_id = ?`), runID); err != nil {
		return fmt.Errorf("replace artifacts %s: %w", runID, err)
	}
	for _, a := range arts {
		aliases, err := marshalStrings(a.Aliases)
		if err != nil {
			return fmt.Errorf("replace artifacts %s: %w", runID, err)
		}
		if _, err := ex.ExecContext(ctx, s.rebind(`
			INSERT INTO artifacts (run_id, name, type, size, aliases) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (run_id, name) DO UPDATE SET
				type = excluded.type, size = excluded.size, aliases = excluded.aliases
		`), runID, a.Name, a.Type, a.Size, aliases); err != nil {
			return fmt.Errorf("replace artifacts %s: %s: %w", runID, a.Name, err)
		}
	}
	return nil
}

// PutLog stores the console log of a run.
func (s *Store) PutLog(ctx context.Context, runID, content string) error {
	return s.putLog(ctx, s.db, runID, content)
}

func (s *Store) putLog(ctx context.Context, ex execer, runID, content string) error {
	_, err := ex.ExecContext(ctx, s.rebind(`
		INSERT INTO run_logs (run_id, content) VALUES (?, ?)
		ON CONFLICT (run_id) DO UPDATE SET content = excluded.content
	`), runID, content)
	if err != nil {
		return fmt.Errorf("put log %s: %w", runID, err)
	}
	return nil
}

// Import writes every run of snap with its history, artifacts and log in
// one transaction. Re-importing the same run replaces it.
func (s *Store) Import(ctx context.Context, snap *snapshot.Snapshot) (ImportStats, error) {
	var stats ImportStats

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("import: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, r := range snap.Runs() {
		if err := s.putRun(ctx, tx, r); err != nil {
			return ImportStats{}, fmt.Errorf("import: %w", err)
		}
		stats.Runs++

		history := snap.History(r.ID)
		if err := s.replaceHistory(ctx, tx, r.ID, history); err != nil {
			return ImportStats{}, fmt.Errorf("import: %w", err)
		}
		stats.HistoryRows += len(history)

		arts := snap.Artifacts(r.ID)
		if err := s.replaceArtifacts(ctx, tx, r.ID, arts); err != nil {
			return ImportStats{}, fmt.Errorf("import: %w", err)
		}
		stats.Artifacts += len(arts)

		if content, ok := snap.Log(r.ID); ok {
			if err := s.putLog(ctx, tx, r.ID, content); err != nil {
				return ImportStats{}, fmt.Errorf("import: %w", err)
			}
			stats.Logs++
		}
	}

	if err := tx.Commit(); err != nil {
		return ImportStats{}, fmt.Errorf("import: commit: %w", err)
	}

	slog.Debug("snapshot imported",
		"runs", stats.Runs,
		"history_rows", stats.HistoryRows,
		"artifacts", stats.Artifacts,
		"logs", stats.Logs,
	)
	return stats, nil
}
