package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/brancheval/internal/snapshot"
	"github.com/roach88/brancheval/internal/store"
)

// ImportResult is the JSON payload of the import command.
type ImportResult struct {
	Database    string `json:"database"`
	Project     string `json:"project"`
	Runs        int    `json:"runs"`
	HistoryRows int    `json:"history_rows"`
	Artifacts   int    `json:"artifacts"`
	Logs        int    `json:"logs"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <snapshot-file>",
		Short: "Load a snapshot file into the local store",
		Long: `Validate a JSON or YAML snapshot and write its runs, history, artifacts
and logs into the store. Runs already present are replaced.

Examples:
  brancheval import runs.json
  brancheval import runs.yaml --db postgres://localhost/brancheval`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		return fail(out, ExitCommandError, ErrCodeConfig, "invalid configuration", err, nil)
	}

	snap, err := snapshot.Load(path)
	if err != nil {
		return snapshotFailure(out, err)
	}

	slog.Debug("opening store", "database", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		return fail(out, ExitCommandError, ErrCodeStore, "failed to open store", err, nil)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing store", "error", closeErr)
		}
	}()

	stats, err := st.Import(commandContext(cmd), snap)
	if err != nil {
		return fail(out, ExitFailure, ErrCodeStore, "import failed", err, nil)
	}

	result := ImportResult{
		Database:    cfg.Database,
		Project:     snap.Project,
		Runs:        stats.Runs,
		HistoryRows: stats.HistoryRows,
		Artifacts:   stats.Artifacts,
		Logs:        stats.Logs,
	}
	text := fmt.Sprintf("Imported %d run(s) into %s (%d history rows, %d artifacts, %d logs)",
		stats.Runs, cfg.Database, stats.HistoryRows, stats.Artifacts, stats.Logs)
	return out.Success(result, text)
}
