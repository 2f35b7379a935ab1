package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/brancheval/internal/record"
	"github.com/roach88/brancheval/internal/report"
)

// DiagnoseOptions holds flags for the diagnose command.
type DiagnoseOptions struct {
	*RootOptions
	Branch string
	Limit  int
}

// NewDiagnoseCommand creates the diagnose command.
func NewDiagnoseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiagnoseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Inspect crashed, failed, killed and preempted runs",
		Long: `Show config, summary, the last history rows and the tail of the console
log for problem runs. With --branch every run of that branch is inspected.

Examples:
  brancheval diagnose
  brancheval diagnose --branch exp-b --limit 2`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Branch, "branch", "", "branch name (default: all problem runs)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, fmt.Sprintf("max runs to diagnose (default %d)", report.DefaultDiagnoseLimit))
	return cmd
}

func runDiagnose(opts *DiagnoseOptions, cmd *cobra.Command) error {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	if opts.Limit < 0 {
		return fail(s.out, ExitCommandError, ErrCodeInvalidArgs, fmt.Sprintf("--limit must not be negative, got %d", opts.Limit), nil, nil)
	}
	limit := opts.Limit
	if limit == 0 {
		limit = s.cfg.DiagnoseLimit
	}

	ctx := commandContext(cmd)
	runs, err := s.runs(ctx, opts.Branch, "")
	if err != nil {
		return err
	}

	targets := report.DiagnoseTargets(runs, opts.Branch, limit)
	histories := make(map[string][]record.HistoryRow, len(targets))
	logs := make(map[string]string, len(targets))
	for _, r := range targets {
		rows, err := s.source.ScanHistory(ctx, r.ID, nil)
		if err != nil {
			slog.Warn("history unavailable", "run_id", r.ID, "error", err)
		} else {
			histories[r.ID] = rows
		}

		content, ok, err := s.source.ReadLog(ctx, r.ID)
		switch {
		case err != nil:
			slog.Warn("log unavailable", "run_id", r.ID, "error", err)
		case ok:
			logs[r.ID] = content
		}
	}

	return s.out.Emit(report.Diagnose(runs, opts.Branch, limit, histories, logs))
}
