package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/brancheval/internal/record"
)

// DefaultConcurrency bounds simultaneous branch fetches.
const DefaultConcurrency = 4

// Fetcher loads runs for several branches concurrently.
//
// A failing branch does not fail the fetch: its error is recorded in
// FetchResult.Failures and the records of the other branches are still
// returned. Merge order is irrelevant because the resolver re-sorts.
type Fetcher struct {
	Source      RunSource
	Concurrency int

	// Timeout applies to each branch query. Zero means no timeout.
	Timeout time.Duration

	Logger *slog.Logger
}

// FetchResult is the merged outcome of a multi-branch fetch.
type FetchResult struct {
	Runs []record.RunRecord

	// Failures maps a branch to the error that prevented its fetch.
	Failures map[string]error
}

// Partial reports whether any branch failed.
func (r FetchResult) Partial() bool {
	return len(r.Failures) > 0
}

// FailedBranches returns the failed branch names, sorted.
func (r FetchResult) FailedBranches() []string {
	names := make([]string, 0, len(r.Failures))
	for b := range r.Failures {
		names = append(names, b)
	}
	sort.Strings(names)
	return names
}

// FetchBranches queries every branch in branches with the given project and
// state filter. Duplicate run IDs across branches are kept once.
func (f *Fetcher) FetchBranches(ctx context.Context, project string, branches []string, state record.State) FetchResult {
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := f.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	var (
		mu       sync.Mutex
		seen     = make(map[string]bool)
		result   = FetchResult{Failures: make(map[string]error)}
		g, gctx  = errgroup.WithContext(ctx)
	)
	g.SetLimit(limit)

	for _, branch := range branches {
		branch := branch
		g.Go(func() error {
			runs, err := f.fetchOne(gctx, Query{Project: project, Branch: branch, State: state})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("branch fetch failed", "project", project, "branch", branch, "error", err)
				result.Failures[branch] = err
				return nil
			}
			for _, r := range runs {
				if seen[r.ID] {
					continue
				}
				seen[r.ID] = true
				result.Runs = append(result.Runs, r)
			}
			logger.Debug("branch fetched", "project", project, "branch", branch, "runs", len(runs))
			return nil
		})
	}
	// Workers never return errors; Wait only synchronizes.
	_ = g.Wait()

	return result
}

func (f *Fetcher) fetchOne(ctx context.Context, q Query) ([]record.RunRecord, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	runs, err := f.Source.ListRuns(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list runs for branch %q: %w", q.Branch, err)
	}
	return runs, nil
}

// FetchAll runs a single query with the fetcher's timeout.
func (f *Fetcher) FetchAll(ctx context.Context, q Query) ([]record.RunRecord, error) {
	return f.fetchOne(ctx, q)
}
