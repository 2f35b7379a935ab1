package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/brancheval/internal/config"
	"github.com/roach88/brancheval/internal/record"
	"github.com/roach88/brancheval/internal/report"
	"github.com/roach88/brancheval/internal/resolve"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Branch  string
	Metrics string
	Rows    int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the metric history of a branch's latest finished run",
		Long: `Show the logged metric history of the latest finished run of a branch.
Long histories are cut to the first and last rows.

Examples:
  brancheval history --branch main
  brancheval history --branch exp-a --metrics train/loss --rows 20`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Branch, "branch", "", "branch name (required)")
	cmd.Flags().StringVar(&opts.Metrics, "metrics", "", "comma-separated metric names")
	cmd.Flags().IntVar(&opts.Rows, "rows", 0, fmt.Sprintf("max rows to display (default %d)", config.DefaultHistoryRows))
	_ = cmd.MarkFlagRequired("branch")
	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	if opts.Rows < 0 {
		return fail(s.out, ExitCommandError, ErrCodeInvalidArgs, fmt.Sprintf("--rows must not be negative, got %d", opts.Rows), nil, nil)
	}
	rows := opts.Rows
	if rows == 0 {
		rows = s.cfg.HistoryRows
	}

	ctx := commandContext(cmd)
	runs, err := s.runs(ctx, opts.Branch, record.StateFinished)
	if err != nil {
		return err
	}
	run, ok := resolve.LatestFor(runs, opts.Branch, resolve.LatestIn(record.StateFinished))
	if !ok {
		return s.out.Emit(report.Notice{Message: fmt.Sprintf("No finished runs found for branch '%s'.", opts.Branch)})
	}

	keys := config.SplitList(opts.Metrics)
	history, err := s.source.ScanHistory(ctx, run.ID, keys)
	if err != nil {
		return fail(s.out, ExitFailure, ErrCodeFetch, "failed to scan history", err, nil)
	}
	return s.out.Emit(report.History(run, history, keys, rows))
}
