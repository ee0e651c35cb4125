// Package ghrepo reads a commit graph snapshot from a GitHub repository.
package ghrepo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/go-github/v52/github"
	"golang.org/x/oauth2"

	"github.com/WillAbides/unreleased/internal/graph"
)

const perPage = 100

// maxTagDepth bounds how many tag objects are followed to reach a commit.
const maxTagDepth = 8

// GithubRepositoriesService is the part of *github.RepositoriesService used here.
type GithubRepositoriesService interface {
	ListCommits(ctx context.Context, owner, repo string, opts *github.CommitsListOptions) ([]*github.RepositoryCommit, *github.Response, error)
}

// GithubGitService is the part of *github.GitService used here.
type GithubGitService interface {
	GetRef(ctx context.Context, owner, repo, ref string) (*github.Reference, *github.Response, error)
	ListMatchingRefs(ctx context.Context, owner, repo string, opts *github.ReferenceListOptions) ([]*github.Reference, *github.Response, error)
	GetTag(ctx context.Context, owner, repo, sha string) (*github.Tag, *github.Response, error)
}

// NewClient returns a GitHub client authenticating with token. An empty token
// makes unauthenticated requests.
func NewClient(ctx context.Context, token string) *github.Client {
	if token == "" {
		return github.NewClient(nil)
	}
	return github.NewClient(
		oauth2.NewClient(
			ctx,
			oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})),
	)
}

// ParseRepo splits "owner/repo".
func ParseRepo(s string) (owner, repo string, err error) {
	s = strings.TrimSuffix(strings.TrimPrefix(s, "https://github.com/"), ".git")
	owner, repo, ok := strings.Cut(s, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("repository must be in the form owner/repo: %q", s)
	}
	return owner, repo, nil
}

// Repository is a graph.Snapshot backed by the GitHub REST API.
type Repository struct {
	Owner        string
	Repo         string
	Repositories GithubRepositoriesService
	Git          GithubGitService
}

// New returns a Repository using client's services.
func New(client *github.Client, owner, repo string) *Repository {
	return &Repository{
		Owner:        owner,
		Repo:         repo,
		Repositories: client.Repositories,
		Git:          client.Git,
	}
}

func isNotFound(err error) bool {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode == http.StatusNotFound
	}
	return false
}

func (r *Repository) Tags(ctx context.Context) ([]graph.Tag, error) {
	opts := &github.ReferenceListOptions{
		Ref:         "tags",
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	var tags []graph.Tag
	for {
		refs, resp, err := r.Git.ListMatchingRefs(ctx, r.Owner, r.Repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list tags for %s/%s: %w", r.Owner, r.Repo, err)
		}
		for _, ref := range refs {
			tag, err := r.refTag(ctx, ref)
			if err != nil {
				return nil, err
			}
			tags = append(tags, tag)
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return tags, nil
}

func (r *Repository) refTag(ctx context.Context, ref *github.Reference) (graph.Tag, error) {
	tag := graph.Tag{Name: strings.TrimPrefix(ref.GetRef(), "refs/tags/")}
	obj := ref.GetObject()
	for range maxTagDepth {
		switch obj.GetType() {
		case "commit":
			tag.Target = obj.GetSHA()
			return tag, nil
		case "tag":
			tag.Annotated = true
			tagObj, _, err := r.Git.GetTag(ctx, r.Owner, r.Repo, obj.GetSHA())
			if err != nil {
				if isNotFound(err) {
					return tag, nil
				}
				return graph.Tag{}, fmt.Errorf("get tag %s: %w", tag.Name, err)
			}
			obj = tagObj.GetObject()
		default:
			slog.Debug("tag does not point to a commit", slog.String("tag", tag.Name))
			return tag, nil
		}
	}
	return tag, nil
}

func (r *Repository) Branch(ctx context.Context, name string) (graph.Branch, error) {
	ref, _, err := r.Git.GetRef(ctx, r.Owner, r.Repo, "heads/"+name)
	if err != nil {
		if isNotFound(err) {
			return graph.Branch{}, fmt.Errorf("%s: %w", name, graph.ErrBranchNotFound)
		}
		return graph.Branch{}, fmt.Errorf("get branch %s: %w", name, err)
	}
	// GetRef falls back to prefix matches, which must not count as the branch.
	if ref.GetRef() != "refs/heads/"+name {
		return graph.Branch{}, fmt.Errorf("%s: %w", name, graph.ErrBranchNotFound)
	}
	return graph.Branch{Name: name, Tip: ref.GetObject().GetSHA()}, nil
}

// Log pages through ListCommits starting at from. Pages are requested as the
// iterator is consumed.
func (r *Repository) Log(ctx context.Context, from string) (graph.CommitIter, error) {
	it := &commitIter{
		ctx:  ctx,
		repo: r,
		opts: &github.CommitsListOptions{
			SHA:         from,
			ListOptions: github.ListOptions{PerPage: perPage},
		},
		seen: map[string]bool{},
	}
	if err := it.fetch(); err != nil {
		if isNotFound(err) || isUnprocessable(err) {
			return nil, fmt.Errorf("%s: %w", from, graph.ErrCommitNotFound)
		}
		return nil, err
	}
	return it, nil
}

func isUnprocessable(err error) bool {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode == http.StatusUnprocessableEntity
	}
	return false
}

type commitIter struct {
	ctx  context.Context
	repo *Repository
	opts *github.CommitsListOptions
	page []*github.RepositoryCommit
	done bool
	seen map[string]bool
}

func (it *commitIter) fetch() error {
	commits, resp, err := it.repo.Repositories.ListCommits(it.ctx, it.repo.Owner, it.repo.Repo, it.opts)
	if err != nil {
		return fmt.Errorf("list commits from %s: %w", it.opts.SHA, err)
	}
	it.page = commits
	if resp == nil || resp.NextPage == 0 {
		it.done = true
	} else {
		it.opts.Page = resp.NextPage
	}
	return nil
}

func (it *commitIter) Next() (graph.Commit, error) {
	for {
		for len(it.page) > 0 {
			rc := it.page[0]
			it.page = it.page[1:]
			sha := rc.GetSHA()
			if it.seen[sha] {
				continue
			}
			it.seen[sha] = true
			parents := make([]string, len(rc.Parents))
			for i, p := range rc.Parents {
				parents[i] = p.GetSHA()
			}
			return graph.Commit{
				Hash:         sha,
				Message:      rc.GetCommit().GetMessage(),
				ParentHashes: parents,
			}, nil
		}
		if it.done {
			return graph.Commit{}, io.EOF
		}
		if err := it.fetch(); err != nil {
			return graph.Commit{}, err
		}
	}
}

func (it *commitIter) Close() {
	it.page = nil
	it.done = true
}
