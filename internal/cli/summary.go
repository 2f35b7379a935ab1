package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/brancheval/internal/record"
	"github.com/roach88/brancheval/internal/report"
)

// SummaryOptions holds flags for the summary command.
type SummaryOptions struct {
	*RootOptions
	Metrics string
}

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SummaryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Tabulate metrics of each branch's latest finished run",
		Long: `Show the metrics and hyperparameters of the latest finished run of every
branch. Without --metrics every numeric summary key is shown.

Examples:
  brancheval summary
  brancheval summary --metrics val/loss,val/acc`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Metrics, "metrics", "", "comma-separated metric names")
	return cmd
}

func runSummary(opts *SummaryOptions, cmd *cobra.Command) error {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	runs, err := s.runs(commandContext(cmd), "", record.StateFinished)
	if err != nil {
		return err
	}
	return s.out.Emit(report.Summary(runs, s.metrics(opts.Metrics)))
}
