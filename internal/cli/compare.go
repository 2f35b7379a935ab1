package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/brancheval/internal/config"
	"github.com/roach88/brancheval/internal/record"
	"github.com/roach88/brancheval/internal/report"
)

// CompareOptions holds flags for the compare command.
type CompareOptions struct {
	*RootOptions
	Branches string
	Metrics  string
}

// NewCompareCommand creates the compare command.
func NewCompareCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompareOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare branches metric by metric",
		Long: `Compare the latest finished run of each branch, pick a winner per metric
and rank branches by wins. Ties go to the alphabetically first branch.

Examples:
  brancheval compare
  brancheval compare --branches main,exp-a --metrics val/loss`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Branches, "branches", "", "comma-separated branch names (default: all)")
	cmd.Flags().StringVar(&opts.Metrics, "metrics", "", "comma-separated metric names")
	return cmd
}

func runCompare(opts *CompareOptions, cmd *cobra.Command) error {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	runs, err := s.runs(commandContext(cmd), "", record.StateFinished)
	if err != nil {
		return err
	}
	cmp := report.CompareBranches(runs, config.SplitList(opts.Branches), s.metrics(opts.Metrics), s.classifier)
	return s.out.Emit(cmp)
}
