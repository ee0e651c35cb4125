package graph

import (
	"context"
	"fmt"
	"io"
)

// Closure is a materialized ancestor closure. It records the order commits
// were produced by the walk and answers membership tests. A Closure is itself
// a Snapshot without tags or branches, so sub-closures of its members can be
// walked without going back to the repository.
type Closure struct {
	start   string
	commits map[string]Commit
	order   map[string]int
}

// Collect walks every commit reachable from start into a Closure.
func Collect(ctx context.Context, snap Snapshot, start string) (*Closure, error) {
	cl := &Closure{
		start:   start,
		commits: map[string]Commit{},
		order:   map[string]int{},
	}
	err := Walk(ctx, snap, start, func(c Commit) error {
		if _, ok := cl.commits[c.Hash]; ok {
			return nil
		}
		cl.order[c.Hash] = len(cl.order)
		cl.commits[c.Hash] = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cl, nil
}

// Start is the commit the closure was collected from.
func (cl *Closure) Start() string {
	return cl.start
}

// Len is the number of commits in the closure.
func (cl *Closure) Len() int {
	return len(cl.commits)
}

// Contains reports whether hash is in the closure.
func (cl *Closure) Contains(hash string) bool {
	_, ok := cl.commits[hash]
	return ok
}

// Commit returns the commit for hash.
func (cl *Closure) Commit(hash string) (Commit, bool) {
	c, ok := cl.commits[hash]
	return c, ok
}

// Position is the index at which hash was produced by the walk. Commits not in
// the closure sort last.
func (cl *Closure) Position(hash string) int {
	pos, ok := cl.order[hash]
	if !ok {
		return len(cl.order)
	}
	return pos
}

// Merges returns the merge commits of the closure keyed by hash.
func (cl *Closure) Merges() map[string]Commit {
	merges := map[string]Commit{}
	for hash, c := range cl.commits {
		if c.IsMerge() {
			merges[hash] = c
		}
	}
	return merges
}

func (cl *Closure) Tags(context.Context) ([]Tag, error) {
	return nil, nil
}

func (cl *Closure) Branch(_ context.Context, name string) (Branch, error) {
	return Branch{}, fmt.Errorf("%s: %w", name, ErrBranchNotFound)
}

// Log walks parent edges inside the closure. Parents outside the closure are
// skipped.
func (cl *Closure) Log(_ context.Context, from string) (CommitIter, error) {
	if !cl.Contains(from) {
		return nil, fmt.Errorf("%s: %w", from, ErrCommitNotFound)
	}
	return &closureIter{
		closure: cl,
		stack:   []string{from},
		seen:    map[string]bool{from: true},
	}, nil
}

type closureIter struct {
	closure *Closure
	stack   []string
	seen    map[string]bool
}

func (it *closureIter) Next() (Commit, error) {
	for len(it.stack) > 0 {
		hash := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]
		c, ok := it.closure.commits[hash]
		if !ok {
			continue
		}
		for i := len(c.ParentHashes) - 1; i >= 0; i-- {
			parent := c.ParentHashes[i]
			if it.seen[parent] {
				continue
			}
			it.seen[parent] = true
			it.stack = append(it.stack, parent)
		}
		return c, nil
	}
	return Commit{}, io.EOF
}

func (it *closureIter) Close() {
	it.stack = nil
}
