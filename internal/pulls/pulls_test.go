package pulls

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-github/v52/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type prClientStub struct {
	get func(ctx context.Context, owner, repo string, number int) (*github.PullRequest, *github.Response, error)
}

func (s *prClientStub) Get(ctx context.Context, owner, repo string, number int) (*github.PullRequest, *github.Response, error) {
	return s.get(ctx, owner, repo, number)
}

func TestParseMergeMessage(t *testing.T) {
	for _, td := range []struct {
		name    string
		message string
		want    *PullRequest
	}{
		{
			name: "github",
			message: `Merge pull request #123 from octo/fix-widget

Fix the widget

It was broken.`,
			want: &PullRequest{
				Number:    123,
				Title:     "Fix the widget",
				Body:      "It was broken.",
				SourceRef: "octo/fix-widget",
			},
		},
		{
			name:    "github crlf without body",
			message: "Merge pull request #7 from octo/x\r\n",
			want:    &PullRequest{Number: 7, SourceRef: "octo/x"},
		},
		{
			name:    "bitbucket",
			message: "Merged in feature/login (pull request #45)\n\nAdd login",
			want:    &PullRequest{Number: 45, Title: "Add login", SourceRef: "feature/login"},
		},
		{
			name:    "branch merge",
			message: "Merge branch 'main' into feature",
		},
		{
			name:    "plain commit",
			message: "fix: something",
		},
		{
			name: "empty",
		},
	} {
		t.Run(td.name, func(t *testing.T) {
			assert.Equal(t, td.want, ParseMergeMessage(td.message))
		})
	}
}

func TestMessageExtractor(t *testing.T) {
	var ex Extractor = MessageExtractor{}
	got, err := ex.ExtractPullRequest(context.Background(), "Merge pull request #9 from a/b\n\ntitle")
	require.NoError(t, err)
	assert.Equal(t, &PullRequest{Number: 9, Title: "title", SourceRef: "a/b"}, got)

	got, err = ex.ExtractPullRequest(context.Background(), "not a merge")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestExtractorFunc(t *testing.T) {
	var ex Extractor = ExtractorFunc(func(_ context.Context, message string) (*PullRequest, error) {
		return &PullRequest{Title: message}, nil
	})
	got, err := ex.ExtractPullRequest(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "x", got.Title)
}

func TestGitHubExtractor(t *testing.T) {
	ctx := context.Background()
	mergedAt := github.Timestamp{Time: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)}
	ex := &GitHubExtractor{
		Owner: "foo",
		Repo:  "bar",
		Client: &prClientStub{
			get: func(ctx context.Context, owner, repo string, number int) (*github.PullRequest, *github.Response, error) {
				assert.Equal(t, "foo", owner)
				assert.Equal(t, "bar", repo)
				assert.Equal(t, 12, number)
				return &github.PullRequest{
					Number:   github.Int(12),
					Title:    github.String("feat: api title"),
					Body:     github.String("api body"),
					HTMLURL:  github.String("https://github.com/foo/bar/pull/12"),
					MergedAt: &mergedAt,
					User:     &github.User{Login: github.String("octocat")},
					Head:     &github.PullRequestBranch{Label: github.String("octocat:feature")},
					Labels: []*github.Label{
						{Name: github.String("label 1")},
						{Name: github.String("enhancement")},
					},
				}, &github.Response{}, nil
			},
		},
	}
	got, err := ex.ExtractPullRequest(ctx, "Merge pull request #12 from octocat/feature\n\nmessage title")
	require.NoError(t, err)
	assert.Equal(t, &PullRequest{
		Number:    12,
		Title:     "feat: api title",
		Author:    "octocat",
		Body:      "api body",
		URL:       "https://github.com/foo/bar/pull/12",
		Labels:    []string{"label 1", "enhancement"},
		SourceRef: "octocat:feature",
	}, got)
}

func TestGitHubExtractor_noMatch(t *testing.T) {
	ex := &GitHubExtractor{
		Client: &prClientStub{
			get: func(context.Context, string, string, int) (*github.PullRequest, *github.Response, error) {
				t.Fatal("unexpected Get call")
				return nil, nil, nil
			},
		},
	}
	got, err := ex.ExtractPullRequest(context.Background(), "Merge branch 'x'")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestGitHubExtractor_unmerged(t *testing.T) {
	ex := &GitHubExtractor{
		Client: &prClientStub{
			get: func(context.Context, string, string, int) (*github.PullRequest, *github.Response, error) {
				return &github.PullRequest{Number: github.Int(3)}, &github.Response{}, nil
			},
		},
	}
	got, err := ex.ExtractPullRequest(context.Background(), "Merge pull request #3 from a/b")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestGitHubExtractor_error(t *testing.T) {
	wantErr := errors.New("boom")
	ex := &GitHubExtractor{
		Client: &prClientStub{
			get: func(context.Context, string, string, int) (*github.PullRequest, *github.Response, error) {
				return nil, nil, wantErr
			},
		},
	}
	got, err := ex.ExtractPullRequest(context.Background(), "Merge pull request #3 from a/b")
	assert.ErrorIs(t, err, wantErr)
	assert.Nil(t, got)
}
