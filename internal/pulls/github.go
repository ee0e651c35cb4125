package pulls

import (
	"context"
	"fmt"

	"github.com/google/go-github/v52/github"
)

// GithubPullRequestsService is the part of *github.PullRequestsService used here.
type GithubPullRequestsService interface {
	Get(ctx context.Context, owner, repo string, number int) (*github.PullRequest, *github.Response, error)
}

// GitHubExtractor parses the merge message and fills in the pull request's
// metadata from the GitHub API.
type GitHubExtractor struct {
	Owner  string
	Repo   string
	Client GithubPullRequestsService
}

func (g *GitHubExtractor) ExtractPullRequest(ctx context.Context, message string) (*PullRequest, error) {
	pr := ParseMergeMessage(message)
	if pr == nil {
		return nil, nil
	}
	apiPull, _, err := g.Client.Get(ctx, g.Owner, g.Repo, pr.Number)
	if err != nil {
		return nil, fmt.Errorf("get pull request #%d: %w", pr.Number, err)
	}
	if apiPull.GetMergedAt().IsZero() {
		return nil, nil
	}
	pr.Title = apiPull.GetTitle()
	pr.Author = apiPull.GetUser().GetLogin()
	pr.Body = apiPull.GetBody()
	pr.URL = apiPull.GetHTMLURL()
	pr.Labels = make([]string, len(apiPull.Labels))
	for i, label := range apiPull.Labels {
		pr.Labels[i] = label.GetName()
	}
	if ref := apiPull.GetHead().GetLabel(); ref != "" {
		pr.SourceRef = ref
	}
	return pr, nil
}
