package cli

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/brancheval/internal/config"
	"github.com/roach88/brancheval/internal/direction"
	"github.com/roach88/brancheval/internal/record"
	"github.com/roach88/brancheval/internal/snapshot"
	"github.com/roach88/brancheval/internal/store"
	"github.com/roach88/brancheval/internal/tracking"
)

// session bundles what a query command needs: resolved configuration, the
// run source and the metric classifier.
type session struct {
	cfg        config.Config
	source     tracking.Source
	artifacts  tracking.ArtifactSource
	classifier direction.Classifier
	fetcher    *tracking.Fetcher
	out        *OutputFormatter
	closeFn    func() error
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
}

// loadConfig resolves the configuration and overlays global flags.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if opts.Project != "" {
		cfg.Project = opts.Project
	}
	if opts.Entity != "" {
		cfg.Entity = opts.Entity
	}
	if opts.Policy != "" {
		cfg.Policy = opts.Policy
	}
	return cfg, nil
}

// openSession loads config, opens the run source and compiles the
// direction policy. Failures are reported through out and returned as
// ExitErrors.
func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	out := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, fail(out, ExitCommandError, ErrCodeConfig, "invalid configuration", err, nil)
	}

	s := &session{out: out, closeFn: func() error { return nil }}

	if opts.Snapshot != "" {
		snap, err := snapshot.Load(opts.Snapshot)
		if err != nil {
			return nil, snapshotFailure(out, err)
		}
		if cfg.Project == "" {
			cfg.Project = snap.Project
		}
		if cfg.Entity == "" {
			cfg.Entity = snap.Entity
		}
		s.source = snap
	}

	if err := cfg.Validate(); err != nil {
		return nil, fail(out, ExitCommandError, ErrCodeConfig, "invalid configuration", err, nil)
	}

	if s.source == nil {
		st, err := store.Open(cfg.Database)
		if err != nil {
			return nil, fail(out, ExitCommandError, ErrCodeStore, "failed to open store", err, nil)
		}
		s.source = st
		s.closeFn = st.Close
	}

	s.artifacts = s.source
	if oc := cfg.ObjectStoreConfig(); oc.Enabled() {
		arts, err := tracking.NewMinioArtifacts(oc)
		if err != nil {
			s.close()
			return nil, fail(out, ExitCommandError, ErrCodeObjectStore, "failed to connect to object store", err, nil)
		}
		s.artifacts = arts
	}

	s.classifier = direction.Default()
	if cfg.Policy != "" {
		c, err := direction.LoadPolicy(cfg.Policy)
		if err != nil {
			s.close()
			return nil, fail(out, ExitCommandError, ErrCodePolicy, "invalid direction policy", err, nil)
		}
		s.classifier = c
	}

	s.cfg = cfg
	s.fetcher = &tracking.Fetcher{
		Source:      s.source,
		Concurrency: cfg.Concurrency,
		Timeout:     cfg.FetchTimeout,
		Logger:      slog.Default(),
	}
	slog.Debug("session ready", "project", cfg.Project, "snapshot", opts.Snapshot != "", "database", cfg.Database)
	return s, nil
}

func (s *session) close() {
	if err := s.closeFn(); err != nil {
		slog.Error("error closing store", "error", err)
	}
}

// runs lists the project's runs narrowed by branch and state.
func (s *session) runs(ctx context.Context, branch string, state record.State) ([]record.RunRecord, error) {
	runs, err := s.fetcher.FetchAll(ctx, tracking.Query{Project: s.cfg.Project, Branch: branch, State: state})
	if err != nil {
		return nil, fail(s.out, ExitFailure, ErrCodeFetch, "failed to list runs", err, nil)
	}
	return runs, nil
}

// metrics returns the flag list, or the configured default list.
func (s *session) metrics(flag string) []string {
	if flag != "" {
		return config.SplitList(flag)
	}
	return s.cfg.Metrics
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// snapshotFailure maps snapshot load errors to error codes.
func snapshotFailure(out *OutputFormatter, err error) error {
	var ve *snapshot.ValidationError
	switch {
	case errors.As(err, &ve):
		details := make([]map[string]string, len(ve.Problems))
		for i, p := range ve.Problems {
			details[i] = map[string]string{"location": p.Location, "message": p.Message}
		}
		return fail(out, ExitCommandError, ErrCodeSnapshot, "snapshot failed validation", nil, details)
	case errors.Is(err, fs.ErrNotExist):
		return fail(out, ExitCommandError, ErrCodeNotFound, "snapshot not found", err, nil)
	default:
		return fail(out, ExitCommandError, ErrCodeSnapshot, "failed to load snapshot", err, nil)
	}
}
