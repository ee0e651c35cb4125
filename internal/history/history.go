// Package history maps unreleased merge commits to pull request records.
package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/WillAbides/unreleased/internal/graph"
	"github.com/WillAbides/unreleased/internal/pulls"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds concurrent extractor calls when none is given.
const DefaultConcurrency = 8

// Assemble calls ex for every commit, at most concurrency at a time. Commits
// without a pull request are dropped. A failed lookup drops its commit and is
// reported in errs; it never stops the other lookups. Pull requests are
// returned in the order of commits.
func Assemble(ctx context.Context, commits []graph.Commit, ex pulls.Extractor, concurrency int) (prs []pulls.PullRequest, errs []error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	found := make([]*pulls.PullRequest, len(commits))
	failed := make([]error, len(commits))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, c := range commits {
		g.Go(func() error {
			pr, err := ex.ExtractPullRequest(ctx, c.Message)
			if err != nil {
				failed[i] = fmt.Errorf("commit %s: %w", c.Hash, err)
				return nil
			}
			if pr == nil {
				slog.Debug("merge commit has no pull request", slog.String("commit", c.Hash))
				return nil
			}
			pr.MergeCommit = c.Hash
			found[i] = pr
			return nil
		})
	}
	// lookups never return an error to the group
	_ = g.Wait()

	for i := range commits {
		if failed[i] != nil {
			errs = append(errs, failed[i])
			continue
		}
		if found[i] != nil {
			prs = append(prs, *found[i])
		}
	}
	return prs, errs
}
