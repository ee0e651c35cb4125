package main

import (
	"strings"

	"github.com/WillAbides/unreleased/internal/pulls"
	"github.com/WillAbides/unreleased/internal/release"
)

type ResultCommit struct {
	Sha     string `json:"sha"`
	Message string `json:"message,omitempty"`
}

type ResultPull struct {
	pulls.PullRequest
	ChangeLevel string `json:"change_level,omitempty"`
}

type Result struct {
	Branch             string         `json:"branch"`
	ReleaseLine        string         `json:"release_line"`
	ReleaseLineMatched bool           `json:"release_line_matched"`
	LatestRelease      string         `json:"latest_release,omitempty"`
	NextVersion        string         `json:"next_version,omitempty"`
	ChangeLevel        string         `json:"change_level,omitempty"`
	MergeCommits       int            `json:"merge_commits"`
	ReleasedCommits    int            `json:"released_commits"`
	Pulls              []ResultPull   `json:"pulls"`
	Unmatched          []ResultCommit `json:"unmatched,omitempty"`
}

func subject(message string) string {
	line, _, _ := strings.Cut(message, "\n")
	return strings.TrimSpace(line)
}

// buildResult assembles the output document. Merge commits that produced no
// pull request are listed as unmatched.
func buildResult(res *release.Result, prs []pulls.PullRequest) *Result {
	result := &Result{
		Branch:             res.Branch.Name,
		ReleaseLine:        res.Line,
		ReleaseLineMatched: res.LineMatched,
		MergeCommits:       res.BranchMerges,
		ReleasedCommits:    res.Released,
		Pulls:              make([]ResultPull, 0, len(prs)),
	}
	if res.Latest != nil {
		result.LatestRelease = res.Latest.Name
	}
	matched := make(map[string]bool, len(prs))
	for _, pr := range prs {
		matched[pr.MergeCommit] = true
		result.Pulls = append(result.Pulls, ResultPull{
			PullRequest: pr,
			ChangeLevel: pulls.Level(pr).String(),
		})
	}
	for _, c := range res.Unreleased {
		if matched[c.Hash] {
			continue
		}
		result.Unmatched = append(result.Unmatched, ResultCommit{
			Sha:     c.Hash,
			Message: subject(c.Message),
		})
	}
	return result
}

// setNextVersion fills in the suggested next version from the latest release
// in the selected line.
func setNextVersion(result *Result, res *release.Result, prs []pulls.PullRequest, minBump, maxBump pulls.ChangeLevel) {
	level := pulls.ChangeLevelNoChange
	for _, pr := range prs {
		level = max(level, pulls.Level(pr))
	}
	result.ChangeLevel = level.String()
	if res.Latest == nil {
		next := pulls.NextVersion(nil, prs, minBump, maxBump)
		result.NextVersion = next.String()
		return
	}
	next := pulls.NextVersion(res.Latest.Version.Semver(), prs, minBump, maxBump)
	result.NextVersion = next.String()
}
