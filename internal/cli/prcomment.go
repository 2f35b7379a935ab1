package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/brancheval/internal/record"
	"github.com/roach88/brancheval/internal/report"
	"github.com/roach88/brancheval/internal/resolve"
)

// PRCommentOptions holds flags for the pr-comment command.
type PRCommentOptions struct {
	*RootOptions
	Branch   string
	Baseline string
}

// NewPRCommentCommand creates the pr-comment command.
func NewPRCommentCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PRCommentOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "pr-comment",
		Short: "Render the pull request results comment for a branch",
		Long: `Render a markdown comment with the latest run of a branch and, for
finished runs, its metric deltas against the baseline branch. The JSON output
also carries the experiment:<state> label to apply to the pull request.

Examples:
  brancheval pr-comment --branch exp-a
  brancheval pr-comment --branch exp-a --baseline develop --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPRComment(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Branch, "branch", "", "branch name (required)")
	cmd.Flags().StringVar(&opts.Baseline, "baseline", "", "baseline branch (default from config, else main)")
	_ = cmd.MarkFlagRequired("branch")
	return cmd
}

func runPRComment(opts *PRCommentOptions, cmd *cobra.Command) error {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	baselineBranch := opts.Baseline
	if baselineBranch == "" {
		baselineBranch = s.cfg.Baseline
	}

	runs, err := s.runs(commandContext(cmd), "", "")
	if err != nil {
		return err
	}
	run, ok := resolve.LatestFor(runs, opts.Branch, resolve.Latest())
	if !ok {
		return s.out.Emit(report.Notice{Message: fmt.Sprintf("No runs found for branch '%s'.", opts.Branch)})
	}

	var baseline *record.RunRecord
	if b, ok := resolve.LatestFor(runs, baselineBranch, resolve.LatestIn(record.StateFinished)); ok {
		baseline = &b
	}
	return s.out.Emit(report.PRComment(opts.Branch, run, baseline))
}
