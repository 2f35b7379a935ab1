package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/brancheval/internal/report"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	Branch string
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "List runs with their branch and state",
		Long: `List the project's runs, newest first.

Examples:
  brancheval status --project demo
  brancheval status --branch exp-a --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Branch, "branch", "", "only list runs of this branch")
	return cmd
}

func runStatus(opts *StatusOptions, cmd *cobra.Command) error {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	runs, err := s.runs(commandContext(cmd), opts.Branch, "")
	if err != nil {
		return err
	}
	return s.out.Emit(report.Status(runs, opts.Branch))
}
