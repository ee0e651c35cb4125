package ghrepo

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-github/v52/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WillAbides/unreleased/internal/graph"
	"github.com/WillAbides/unreleased/internal/release"
)

type reposClientStub struct {
	listCommits func(ctx context.Context, owner, repo string, opts *github.CommitsListOptions) ([]*github.RepositoryCommit, *github.Response, error)
}

func (s *reposClientStub) ListCommits(ctx context.Context, owner, repo string, opts *github.CommitsListOptions) ([]*github.RepositoryCommit, *github.Response, error) {
	return s.listCommits(ctx, owner, repo, opts)
}

type gitClientStub struct {
	getRef           func(ctx context.Context, owner, repo, ref string) (*github.Reference, *github.Response, error)
	listMatchingRefs func(ctx context.Context, owner, repo string, opts *github.ReferenceListOptions) ([]*github.Reference, *github.Response, error)
	getTag           func(ctx context.Context, owner, repo, sha string) (*github.Tag, *github.Response, error)
}

func (s *gitClientStub) GetRef(ctx context.Context, owner, repo, ref string) (*github.Reference, *github.Response, error) {
	return s.getRef(ctx, owner, repo, ref)
}

func (s *gitClientStub) ListMatchingRefs(ctx context.Context, owner, repo string, opts *github.ReferenceListOptions) ([]*github.Reference, *github.Response, error) {
	return s.listMatchingRefs(ctx, owner, repo, opts)
}

func (s *gitClientStub) GetTag(ctx context.Context, owner, repo, sha string) (*github.Tag, *github.Response, error) {
	return s.getTag(ctx, owner, repo, sha)
}

func notFound() error {
	return &github.ErrorResponse{Response: &http.Response{StatusCode: http.StatusNotFound}}
}

func ref(name, typ, sha string) *github.Reference {
	return &github.Reference{
		Ref: github.String(name),
		Object: &github.GitObject{
			Type: github.String(typ),
			SHA:  github.String(sha),
		},
	}
}

func repoCommit(sha, message string, parents ...string) *github.RepositoryCommit {
	rc := &github.RepositoryCommit{
		SHA:    github.String(sha),
		Commit: &github.Commit{Message: github.String(message)},
	}
	for _, p := range parents {
		rc.Parents = append(rc.Parents, &github.Commit{SHA: github.String(p)})
	}
	return rc
}

// history mirrors ListCommits: first-page order from each start sha.
var history = map[string][]*github.RepositoryCommit{
	"C4": {
		repoCommit("C4", "Merge pull request #2 from o/b", "C3", "S4"),
		repoCommit("S4", "feature b", "C3"),
		repoCommit("C3", "direct commit", "C2"),
		repoCommit("C2", "Merge pull request #1 from o/a", "C1", "S2"),
		repoCommit("S2", "feature a", "C1"),
		repoCommit("C1", "initial"),
	},
	"C2": {
		repoCommit("C2", "Merge pull request #1 from o/a", "C1", "S2"),
		repoCommit("S2", "feature a", "C1"),
		repoCommit("C1", "initial"),
	},
}

func pagedCommits(t *testing.T, pageSize int) *reposClientStub {
	return &reposClientStub{
		listCommits: func(ctx context.Context, owner, repo string, opts *github.CommitsListOptions) ([]*github.RepositoryCommit, *github.Response, error) {
			assert.Equal(t, "foo", owner)
			assert.Equal(t, "bar", repo)
			assert.Equal(t, 100, opts.PerPage)
			all, ok := history[opts.SHA]
			if !ok {
				return nil, nil, &github.ErrorResponse{Response: &http.Response{StatusCode: http.StatusUnprocessableEntity}}
			}
			page := opts.Page
			if page == 0 {
				page = 1
			}
			start := (page - 1) * pageSize
			end := start + pageSize
			resp := &github.Response{NextPage: page + 1}
			if end >= len(all) {
				end = len(all)
				resp.NextPage = 0
			}
			return all[start:end], resp, nil
		},
	}
}

func TestParseRepo(t *testing.T) {
	owner, repo, err := ParseRepo("WillAbides/semver-next")
	require.NoError(t, err)
	assert.Equal(t, "WillAbides", owner)
	assert.Equal(t, "semver-next", repo)

	owner, repo, err = ParseRepo("https://github.com/foo/bar.git")
	require.NoError(t, err)
	assert.Equal(t, "foo", owner)
	assert.Equal(t, "bar", repo)

	for _, s := range []string{"", "foo", "foo/", "/bar", "foo/bar/baz"} {
		_, _, err = ParseRepo(s)
		assert.Error(t, err, s)
	}
}

func TestRepository_Branch(t *testing.T) {
	ctx := context.Background()
	r := &Repository{
		Owner: "foo",
		Repo:  "bar",
		Git: &gitClientStub{
			getRef: func(ctx context.Context, owner, repo, name string) (*github.Reference, *github.Response, error) {
				assert.Equal(t, "foo", owner)
				assert.Equal(t, "bar", repo)
				switch name {
				case "heads/main":
					return ref("refs/heads/main", "commit", "C4"), &github.Response{}, nil
				case "heads/rel":
					return ref("refs/heads/release", "commit", "C9"), &github.Response{}, nil
				case "heads/boom":
					return nil, nil, errors.New("boom")
				}
				return nil, nil, notFound()
			},
		},
	}
	b, err := r.Branch(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, graph.Branch{Name: "main", Tip: "C4"}, b)

	_, err = r.Branch(ctx, "missing")
	assert.ErrorIs(t, err, graph.ErrBranchNotFound)

	_, err = r.Branch(ctx, "rel")
	assert.ErrorIs(t, err, graph.ErrBranchNotFound)

	_, err = r.Branch(ctx, "boom")
	require.Error(t, err)
	assert.NotErrorIs(t, err, graph.ErrBranchNotFound)
}

func TestRepository_Tags(t *testing.T) {
	ctx := context.Background()
	pages := [][]*github.Reference{
		{
			ref("refs/tags/v1.0.0", "commit", "C2"),
			ref("refs/tags/v1.1.0", "tag", "T1"),
		},
		{
			ref("refs/tags/v1.2.0", "tag", "T2"),
			ref("refs/tags/tree", "tree", "TR"),
			ref("refs/tags/gone", "tag", "T404"),
		},
	}
	r := &Repository{
		Owner: "foo",
		Repo:  "bar",
		Git: &gitClientStub{
			listMatchingRefs: func(ctx context.Context, owner, repo string, opts *github.ReferenceListOptions) ([]*github.Reference, *github.Response, error) {
				assert.Equal(t, "tags", opts.Ref)
				if opts.Page == 0 {
					return pages[0], &github.Response{NextPage: 2}, nil
				}
				assert.Equal(t, 2, opts.Page)
				return pages[1], &github.Response{}, nil
			},
			getTag: func(ctx context.Context, owner, repo, sha string) (*github.Tag, *github.Response, error) {
				switch sha {
				case "T1":
					return &github.Tag{Object: &github.GitObject{Type: github.String("commit"), SHA: github.String("C4")}}, nil, nil
				case "T2":
					return &github.Tag{Object: &github.GitObject{Type: github.String("tag"), SHA: github.String("T1")}}, nil, nil
				}
				return nil, nil, notFound()
			},
		},
	}
	tags, err := r.Tags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []graph.Tag{
		{Name: "v1.0.0", Target: "C2"},
		{Name: "v1.1.0", Target: "C4", Annotated: true},
		{Name: "v1.2.0", Target: "C4", Annotated: true},
		{Name: "tree"},
		{Name: "gone", Annotated: true},
	}, tags)
}

func TestRepository_Tags_error(t *testing.T) {
	wantErr := errors.New("boom")
	r := &Repository{
		Git: &gitClientStub{
			listMatchingRefs: func(context.Context, string, string, *github.ReferenceListOptions) ([]*github.Reference, *github.Response, error) {
				return nil, nil, wantErr
			},
		},
	}
	_, err := r.Tags(context.Background())
	assert.ErrorIs(t, err, wantErr)
}

func TestRepository_Log(t *testing.T) {
	ctx := context.Background()
	r := &Repository{Owner: "foo", Repo: "bar", Repositories: pagedCommits(t, 2)}
	var got []string
	err := graph.Walk(ctx, r, "C4", func(c graph.Commit) error {
		got = append(got, c.Hash)
		if c.Hash == "C2" {
			assert.Equal(t, []string{"C1", "S2"}, c.ParentHashes)
			assert.True(t, c.IsMerge())
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"C4", "S4", "C3", "C2", "S2", "C1"}, got)

	_, err = r.Log(ctx, "nope")
	assert.ErrorIs(t, err, graph.ErrCommitNotFound)
}

func TestRepository_Log_lazy(t *testing.T) {
	ctx := context.Background()
	calls := 0
	stub := pagedCommits(t, 1)
	r := &Repository{
		Owner: "foo",
		Repo:  "bar",
		Repositories: &reposClientStub{
			listCommits: func(ctx context.Context, owner, repo string, opts *github.CommitsListOptions) ([]*github.RepositoryCommit, *github.Response, error) {
				calls++
				return stub.listCommits(ctx, owner, repo, opts)
			},
		},
	}
	it, err := r.Log(ctx, "C4")
	require.NoError(t, err)
	defer it.Close()
	c, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, "C4", c.Hash)
	assert.Equal(t, 1, calls)
	_, err = it.Next()
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRepository_Resolve(t *testing.T) {
	ctx := context.Background()
	r := &Repository{
		Owner:        "foo",
		Repo:         "bar",
		Repositories: pagedCommits(t, 4),
		Git: &gitClientStub{
			getRef: func(ctx context.Context, owner, repo, name string) (*github.Reference, *github.Response, error) {
				return ref("refs/heads/main", "commit", "C4"), &github.Response{}, nil
			},
			listMatchingRefs: func(context.Context, string, string, *github.ReferenceListOptions) ([]*github.Reference, *github.Response, error) {
				return []*github.Reference{
					ref("refs/tags/v1.0.0", "commit", "C2"),
					ref("refs/tags/v1.0.0-rc.1", "commit", "X"),
				}, &github.Response{}, nil
			},
		},
	}
	got, err := release.Resolve(ctx, r, release.Options{Branch: "main"})
	require.NoError(t, err)
	require.Len(t, got.Unreleased, 1)
	assert.Equal(t, "C4", got.Unreleased[0].Hash)
	require.NotNil(t, got.Latest)
	assert.Equal(t, "v1.0.0", got.Latest.Name)
}
