package main

import (
	"context"
	"errors"

	"github.com/google/go-github/v52/github"

	"github.com/WillAbides/unreleased/internal/ghrepo"
	"github.com/WillAbides/unreleased/internal/gitrepo"
	"github.com/WillAbides/unreleased/internal/graph"
	"github.com/WillAbides/unreleased/internal/pulls"
)

func (c *cmd) githubClient(ctx context.Context) (client *github.Client, owner, repo string, _ error) {
	owner, repo, err := ghrepo.ParseRepo(c.GithubRepo)
	if err != nil {
		return nil, "", "", err
	}
	return ghrepo.NewClient(ctx, c.GithubToken), owner, repo, nil
}

// snapshot opens the repository the commit graph is read from.
func (c *cmd) snapshot(ctx context.Context) (graph.Snapshot, error) {
	if !c.Remote {
		return gitrepo.Open(c.Repo)
	}
	if c.GithubRepo == "" {
		return nil, errors.New("--remote requires --github-repo")
	}
	client, owner, repo, err := c.githubClient(ctx)
	if err != nil {
		return nil, err
	}
	return ghrepo.New(client, owner, repo), nil
}

// extractor returns the pull request lookup. Without a GitHub repository only
// the merge message is used.
func (c *cmd) extractor(ctx context.Context) (pulls.Extractor, error) {
	if c.GithubRepo == "" {
		return pulls.MessageExtractor{}, nil
	}
	client, owner, repo, err := c.githubClient(ctx)
	if err != nil {
		return nil, err
	}
	return &pulls.GitHubExtractor{
		Owner:  owner,
		Repo:   repo,
		Client: client.PullRequests,
	}, nil
}
