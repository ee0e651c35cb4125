package release

import (
	"log/slog"
	"sort"

	"github.com/WillAbides/unreleased/internal/graph"
	"github.com/WillAbides/unreleased/internal/version"
)

// VersionTag is a tag whose name parsed as a version.
type VersionTag struct {
	graph.Tag
	Version version.Version
}

// Line is the group of version tags that share a release line key.
type Line struct {
	Key  string
	Tags []VersionTag
}

// Targets returns the commit ids the line's tags point to. Tags without a
// resolvable target are dropped.
func (l Line) Targets() []string {
	seen := make(map[string]bool, len(l.Tags))
	var targets []string
	for _, t := range l.Tags {
		if t.Target == "" || seen[t.Target] {
			continue
		}
		seen[t.Target] = true
		targets = append(targets, t.Target)
	}
	return targets
}

// GroupLines parses tags and groups the versions by release line. With
// annotatedOnly, lightweight tags are ignored. Tags within a line are sorted
// newest first.
func GroupLines(tags []graph.Tag, annotatedOnly bool) map[string]*Line {
	lines := map[string]*Line{}
	for _, tag := range tags {
		if annotatedOnly && !tag.Annotated {
			continue
		}
		v, ok := version.Parse(tag.Name)
		if !ok {
			slog.Debug("ignoring non-version tag", slog.String("tag", tag.Name))
			continue
		}
		key := v.ReleaseLine()
		line := lines[key]
		if line == nil {
			line = &Line{Key: key}
			lines[key] = line
		}
		line.Tags = append(line.Tags, VersionTag{Tag: tag, Version: v})
	}
	for _, line := range lines {
		sort.SliceStable(line.Tags, func(i, j int) bool {
			if c := line.Tags[i].Version.Compare(line.Tags[j].Version); c != 0 {
				return c > 0
			}
			return line.Tags[i].Name < line.Tags[j].Name
		})
	}
	return lines
}

// SelectLine returns the line whose key equals want. When no line matches it
// falls back to the line with the lexicographically smallest key, so a stable
// line ("") wins whenever one exists. ok is false only when lines is empty.
func SelectLine(lines map[string]*Line, want string) (line *Line, exact, ok bool) {
	if l, found := lines[want]; found {
		return l, true, true
	}
	if len(lines) == 0 {
		return nil, false, false
	}
	keys := make([]string, 0, len(lines))
	for k := range lines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return lines[keys[0]], false, true
}
