// Package release decides which merge commits on a branch have not been
// released under a version tag.
package release

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/WillAbides/unreleased/internal/graph"
)

// Options configures a resolution.
type Options struct {
	// Branch is the release branch. Required.
	Branch string
	// ReleaseLine selects the tag group. Empty selects stable releases.
	ReleaseLine string
	// AnnotatedOnly ignores lightweight tags.
	AnnotatedOnly bool
}

// Sets holds the merge commits of a branch and the subset already covered by
// release tags.
type Sets struct {
	Closure      *graph.Closure
	BranchMerges map[string]graph.Commit
	Released     map[string]graph.Commit
	// Tagged are the targets that are ancestors of the branch tip.
	Tagged []string
}

// BuildReleased walks the branch from tip and unions the merge-commit closures
// of every target that lies on the branch. Targets not reachable from tip are
// ignored.
func BuildReleased(ctx context.Context, snap graph.Snapshot, tip string, targets []string) (*Sets, error) {
	closure, err := graph.Collect(ctx, snap, tip)
	if err != nil {
		return nil, fmt.Errorf("walk branch: %w", err)
	}
	sets := &Sets{
		Closure:      closure,
		BranchMerges: closure.Merges(),
		Released:     map[string]graph.Commit{},
	}
	for _, target := range targets {
		if !closure.Contains(target) {
			slog.Debug("tag target is not on branch", slog.String("commit", target))
			continue
		}
		merges, err := graph.Merges(ctx, closure, target)
		if err != nil {
			return nil, fmt.Errorf("walk tag target %s: %w", target, err)
		}
		graph.Union(sets.Released, merges)
		sets.Tagged = append(sets.Tagged, target)
	}
	return sets, nil
}

// Unreleased returns the commits of branchMerges whose hash is not in released.
func Unreleased(branchMerges, released map[string]graph.Commit) map[string]graph.Commit {
	out := make(map[string]graph.Commit, len(branchMerges))
	for hash, c := range branchMerges {
		if _, ok := released[hash]; ok {
			continue
		}
		out[hash] = c
	}
	return out
}

// Result is the outcome of Resolve.
type Result struct {
	Branch graph.Branch
	// Line is the key of the selected release line.
	Line string
	// LineMatched is false when Line was chosen by fallback or no version tags
	// exist.
	LineMatched bool
	// Latest is the newest tag of the selected line that is on the branch.
	Latest *VersionTag
	// BranchMerges counts the merge commits reachable from the branch tip.
	BranchMerges int
	// Released counts the merge commits covered by the line's tags.
	Released int
	// Unreleased is ordered by the branch walk, tip first.
	Unreleased []graph.Commit
}

// Resolve computes the unreleased merge commits of opts.Branch.
func Resolve(ctx context.Context, snap graph.Snapshot, opts Options) (*Result, error) {
	if opts.Branch == "" {
		return nil, errors.New("branch is required")
	}
	branch, err := snap.Branch(ctx, opts.Branch)
	if err != nil {
		return nil, fmt.Errorf("resolve branch %q: %w", opts.Branch, err)
	}
	tags, err := snap.Tags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	lines := GroupLines(tags, opts.AnnotatedOnly)
	line, exact, ok := SelectLine(lines, opts.ReleaseLine)
	result := &Result{
		Branch:      branch,
		LineMatched: exact,
	}
	var targets []string
	if ok {
		result.Line = line.Key
		targets = line.Targets()
		if !exact {
			slog.Warn("no tags in the configured release line, falling back",
				slog.String("release_line", opts.ReleaseLine),
				slog.String("fallback", line.Key),
			)
		}
	}
	slog.Debug("selected release line",
		slog.String("release_line", result.Line),
		slog.Int("tags", len(targets)),
	)

	sets, err := BuildReleased(ctx, snap, branch.Tip, targets)
	if err != nil {
		return nil, err
	}
	result.BranchMerges = len(sets.BranchMerges)
	result.Released = len(sets.Released)
	if ok {
		for i := range line.Tags {
			if sets.Closure.Contains(line.Tags[i].Target) {
				result.Latest = &line.Tags[i]
				break
			}
		}
	}

	unreleased := Unreleased(sets.BranchMerges, sets.Released)
	result.Unreleased = make([]graph.Commit, 0, len(unreleased))
	for _, c := range unreleased {
		result.Unreleased = append(result.Unreleased, c)
	}
	sort.Slice(result.Unreleased, func(i, j int) bool {
		return sets.Closure.Position(result.Unreleased[i].Hash) < sets.Closure.Position(result.Unreleased[j].Hash)
	})
	slog.Debug("resolved unreleased merges",
		slog.String("branch", branch.Name),
		slog.Int("branch_merges", result.BranchMerges),
		slog.Int("released", result.Released),
		slog.Int("unreleased", len(result.Unreleased)),
	)
	return result, nil
}
