package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/brancheval/internal/report"
	"github.com/roach88/brancheval/internal/resolve"
)

// ArtifactsOptions holds flags for the artifacts command.
type ArtifactsOptions struct {
	*RootOptions
	Branch string
}

// NewArtifactsCommand creates the artifacts command.
func NewArtifactsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ArtifactsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "List artifacts logged by a branch's latest run",
		Long: `List the artifacts of the latest run of a branch. When an object store is
configured artifacts are listed from the bucket under <prefix>/<run-id>/,
otherwise from the run source.

Example:
  brancheval artifacts --branch main`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArtifacts(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Branch, "branch", "", "branch name (required)")
	_ = cmd.MarkFlagRequired("branch")
	return cmd
}

func runArtifacts(opts *ArtifactsOptions, cmd *cobra.Command) error {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	ctx := commandContext(cmd)
	runs, err := s.runs(ctx, opts.Branch, "")
	if err != nil {
		return err
	}
	run, ok := resolve.LatestFor(runs, opts.Branch, resolve.Latest())
	if !ok {
		return s.out.Emit(report.Notice{Message: fmt.Sprintf("No runs found for branch '%s'.", opts.Branch)})
	}

	list, err := s.artifacts.ListArtifacts(ctx, run.ID)
	if err != nil {
		return fail(s.out, ExitFailure, ErrCodeFetch, "failed to list artifacts", err, nil)
	}
	return s.out.Emit(report.Artifacts(run, list))
}
