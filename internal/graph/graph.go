// Package graph models a read-only snapshot of a commit graph and walks
// ancestor closures over it.
package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrBranchNotFound is returned when a branch name does not resolve.
	ErrBranchNotFound = errors.New("branch not found")

	// ErrCommitNotFound is returned when a commit id is not in the snapshot.
	ErrCommitNotFound = errors.New("commit not found")
)

// Commit is a node of the commit graph.
type Commit struct {
	Hash         string
	Message      string
	ParentHashes []string
}

// IsMerge reports whether c has more than one parent.
func (c Commit) IsMerge() bool {
	return len(c.ParentHashes) > 1
}

// Tag is a named reference to a commit. Target is empty when the tag does not
// peel to a commit.
type Tag struct {
	Name      string
	Target    string
	Annotated bool
}

// Branch is a branch name and its tip commit.
type Branch struct {
	Name string
	Tip  string
}

// CommitIter lazily yields commits. Next returns io.EOF once exhausted.
type CommitIter interface {
	Next() (Commit, error)
	Close()
}

// Snapshot is read-only access to repository state. Implementations must not
// change between calls made during one resolution.
type Snapshot interface {
	Tags(ctx context.Context) ([]Tag, error)
	// Branch returns ErrBranchNotFound when name does not resolve.
	Branch(ctx context.Context, name string) (Branch, error)
	// Log yields the ancestor closure of from, from included, each commit
	// exactly once. It returns ErrCommitNotFound when from is unknown.
	Log(ctx context.Context, from string) (CommitIter, error)
}

// Walk calls fn for every commit reachable from start.
func Walk(ctx context.Context, snap Snapshot, start string, fn func(Commit) error) error {
	iter, err := snap.Log(ctx, start)
	if err != nil {
		return err
	}
	defer iter.Close()
	for {
		c, err := iter.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("walk %s: %w", start, err)
		}
		if err := fn(c); err != nil {
			return err
		}
	}
}

// Merges returns the merge commits reachable from start keyed by hash.
func Merges(ctx context.Context, snap Snapshot, start string) (map[string]Commit, error) {
	merges := map[string]Commit{}
	err := Walk(ctx, snap, start, func(c Commit) error {
		if c.IsMerge() {
			merges[c.Hash] = c
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merges, nil
}

// Union copies every entry of src into dst. Values for a shared key are the
// same commit, so the copy order does not matter.
func Union(dst, src map[string]Commit) {
	for hash, c := range src {
		dst[hash] = c
	}
}
