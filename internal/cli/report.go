package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/brancheval/internal/config"
	"github.com/roach88/brancheval/internal/record"
	"github.com/roach88/brancheval/internal/report"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Metrics  string
	Branches string
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Full evaluation report across branches",
		Long: `Assemble the full report: branch status, metric comparison, wins ranking,
config differences, running and problem branches, and a recommendation.

With --branches the named branches are fetched concurrently. A branch whose
fetch fails is listed under coverage and the report covers the rest.

Examples:
  brancheval report
  brancheval report --branches main,exp-a,exp-b --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Metrics, "metrics", "", "comma-separated metric names to focus on")
	cmd.Flags().StringVar(&opts.Branches, "branches", "", "comma-separated branch names (default: all)")
	return cmd
}

func runReport(opts *ReportOptions, cmd *cobra.Command) error {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	ctx := commandContext(cmd)
	var (
		runs   []record.RunRecord
		failed []string
	)
	if branches := config.SplitList(opts.Branches); len(branches) > 0 {
		res := s.fetcher.FetchBranches(ctx, s.cfg.Project, branches, "")
		if len(res.Failures) == len(branches) {
			return fail(s.out, ExitFailure, ErrCodeFetch, "every branch fetch failed", nil, res.FailedBranches())
		}
		if res.Partial() {
			slog.Warn("partial report", "failed_branches", res.FailedBranches())
		}
		runs, failed = res.Runs, res.FailedBranches()
	} else {
		runs, err = s.runs(ctx, "", "")
		if err != nil {
			return err
		}
	}

	rep, err := report.Assemble(runs, report.Options{
		Project:        s.cfg.Project,
		Entity:         s.cfg.Entity,
		Metrics:        s.metrics(opts.Metrics),
		Classifier:     s.classifier,
		FailedBranches: failed,
	})
	if err != nil {
		return fail(s.out, ExitFailure, ErrCodeGeneric, "failed to assemble report", err, nil)
	}
	if rep.TotalRuns == 0 && len(failed) == 0 {
		return s.out.Emit(report.Notice{Message: "No runs found."})
	}
	return s.out.Emit(rep)
}
