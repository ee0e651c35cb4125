package pulls

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-semantic-release/commit-analyzer-cz/pkg/analyzer"
	"github.com/go-semantic-release/semantic-release/v2/pkg/semrel"
)

var labelLevels = map[string]ChangeLevel{
	"breaking":        ChangeLevelMajor,
	"breaking change": ChangeLevelMajor,
	"bug":             ChangeLevelPatch,
	"enhancement":     ChangeLevelMinor,
	"feature":         ChangeLevelMinor,
	"patch":           ChangeLevelPatch,
}

// ChangeLevel is how much a change bumps the version.
type ChangeLevel int

const (
	ChangeLevelNoChange ChangeLevel = iota
	ChangeLevelPatch
	ChangeLevelMinor
	ChangeLevelMajor
)

func (c ChangeLevel) String() string {
	switch c {
	case ChangeLevelPatch:
		return "patch"
	case ChangeLevelMinor:
		return "minor"
	case ChangeLevelMajor:
		return "major"
	}
	return "none"
}

// lesser returns whichever is lower, c or other
func (c ChangeLevel) lesser(other ChangeLevel) ChangeLevel {
	if other < c {
		return other
	}
	return c
}

// greater returns whichever is higher, c or other
func (c ChangeLevel) greater(other ChangeLevel) ChangeLevel {
	if other > c {
		return other
	}
	return c
}

// Level classifies a pull request from its labels and its conventional-commit
// title.
func Level(pr PullRequest) ChangeLevel {
	level := labelLevel(pr.Labels)
	text := pr.Title
	if pr.Body != "" {
		text += "\n\n" + pr.Body
	}
	return level.greater(messageLevel(pr.MergeCommit, text))
}

func labelLevel(labels []string) ChangeLevel {
	level := ChangeLevelNoChange
	for _, label := range labels {
		label = strings.ToLower(strings.TrimSpace(label))
		labelLevel, ok := labelLevels[label]
		if !ok {
			continue
		}
		level = level.greater(labelLevel)
	}
	return level
}

func messageLevel(sha, message string) ChangeLevel {
	if message == "" {
		return ChangeLevelNoChange
	}
	ca := &analyzer.DefaultCommitAnalyzer{}
	commits := ca.Analyze([]*semrel.RawCommit{
		{
			SHA:         sha,
			RawMessage:  message,
			Annotations: map[string]string{},
		},
	})
	level := ChangeLevelNoChange
	for _, c := range commits {
		if c.Change == nil {
			continue
		}
		switch {
		case c.Change.Major:
			level = level.greater(ChangeLevelMajor)
		case c.Change.Minor:
			level = level.greater(ChangeLevelMinor)
		case c.Change.Patch:
			level = level.greater(ChangeLevelPatch)
		}
	}
	return level
}

// NextVersion bumps version by the greatest level among pulls, clamped to
// [minBump, maxBump]. With no pulls version is returned unchanged. A nil
// version is treated as a first release.
func NextVersion(version *semver.Version, pulls []PullRequest, minBump, maxBump ChangeLevel) semver.Version {
	if version == nil {
		return *semver.New(0, 1, 0, "", "")
	}
	if len(pulls) == 0 {
		return *version
	}
	level := ChangeLevelNoChange
	for _, p := range pulls {
		level = level.greater(Level(p))
	}
	level = level.greater(minBump)
	level = level.lesser(maxBump)
	switch level {
	case ChangeLevelPatch:
		return version.IncPatch()
	case ChangeLevelMinor:
		return version.IncMinor()
	case ChangeLevelMajor:
		return version.IncMajor()
	}
	return *version
}
