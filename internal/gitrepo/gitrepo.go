// Package gitrepo reads a commit graph snapshot from a local git repository.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/WillAbides/unreleased/internal/graph"
)

// DefaultRemote is consulted when a branch has no local ref.
const DefaultRemote = "origin"

// maxTagDepth bounds how many tag objects are followed to reach a commit.
const maxTagDepth = 8

// Repository is a graph.Snapshot backed by go-git.
type Repository struct {
	repo *gitlib.Repository
	path string
}

// Open opens the repository containing path.
func Open(path string) (*Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	repo, err := gitlib.PlainOpenWithOptions(abs, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return &Repository{repo: repo, path: abs}, nil
}

// New wraps an already opened repository.
func New(repo *gitlib.Repository) *Repository {
	return &Repository{repo: repo}
}

// Path is the path the repository was opened from.
func (r *Repository) Path() string {
	return r.path
}

// GitDir returns the directory holding refs, or "" for repositories without
// a filesystem.
func (r *Repository) GitDir() string {
	if r.path == "" {
		return ""
	}
	wt, err := r.repo.Worktree()
	if err != nil {
		// bare repository
		return r.path
	}
	return filepath.Join(wt.Filesystem.Root(), ".git")
}

func (r *Repository) Tags(context.Context) ([]graph.Tag, error) {
	refs, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer refs.Close()
	var tags []graph.Tag
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		target, annotated, ok := r.peelTag(ref.Hash())
		tag := graph.Tag{
			Name:      ref.Name().Short(),
			Annotated: annotated,
		}
		if ok {
			tag.Target = target.String()
		} else {
			slog.Debug("tag does not point to a commit", slog.String("tag", tag.Name))
		}
		tags = append(tags, tag)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// peelTag follows annotated tag objects to a commit.
func (r *Repository) peelTag(hash plumbing.Hash) (commit plumbing.Hash, annotated, ok bool) {
	// Lightweight tags point directly at a commit; annotated tags point at a tag object.
	if _, err := r.repo.CommitObject(hash); err == nil {
		return hash, false, true
	}
	cur := hash
	for range maxTagDepth {
		tag, err := r.repo.TagObject(cur)
		if err != nil {
			return plumbing.ZeroHash, annotated, false
		}
		annotated = true
		switch tag.TargetType {
		case plumbing.CommitObject:
			if _, err := r.repo.CommitObject(tag.Target); err != nil {
				return plumbing.ZeroHash, true, false
			}
			return tag.Target, true, true
		case plumbing.TagObject:
			cur = tag.Target
		default:
			return plumbing.ZeroHash, true, false
		}
	}
	return plumbing.ZeroHash, annotated, false
}

func (r *Repository) Branch(_ context.Context, name string) (graph.Branch, error) {
	candidates := []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(name),
		plumbing.NewRemoteReferenceName(DefaultRemote, name),
	}
	for _, refName := range candidates {
		ref, err := r.repo.Reference(refName, true)
		if err != nil {
			if errors.Is(err, plumbing.ErrReferenceNotFound) {
				continue
			}
			return graph.Branch{}, fmt.Errorf("resolve %s: %w", refName, err)
		}
		slog.Debug("resolved branch", slog.String("ref", refName.String()), slog.String("tip", ref.Hash().String()))
		return graph.Branch{Name: name, Tip: ref.Hash().String()}, nil
	}
	return graph.Branch{}, fmt.Errorf("%s: %w", name, graph.ErrBranchNotFound)
}

func (r *Repository) Log(_ context.Context, from string) (graph.CommitIter, error) {
	hash := plumbing.NewHash(from)
	if _, err := r.repo.CommitObject(hash); err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, fmt.Errorf("%s: %w", from, graph.ErrCommitNotFound)
		}
		return nil, fmt.Errorf("read commit %s: %w", from, err)
	}
	iter, err := r.repo.Log(&gitlib.LogOptions{From: hash})
	if err != nil {
		return nil, fmt.Errorf("read commits: %w", err)
	}
	return &commitIter{iter: iter}, nil
}

type commitIter struct {
	iter object.CommitIter
}

func (it *commitIter) Next() (graph.Commit, error) {
	c, err := it.iter.Next()
	if err != nil {
		if err == io.EOF {
			return graph.Commit{}, io.EOF
		}
		return graph.Commit{}, fmt.Errorf("iterate commits: %w", err)
	}
	parents := make([]string, len(c.ParentHashes))
	for i, p := range c.ParentHashes {
		parents[i] = p.String()
	}
	return graph.Commit{
		Hash:         c.Hash.String(),
		Message:      c.Message,
		ParentHashes: parents,
	}, nil
}

func (it *commitIter) Close() {
	it.iter.Close()
}
