// Package version parses release tag names.
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// [v]Major.Minor[.Patch][.Fourth][-Prerelease][+Build]
var tagPattern = regexp.MustCompile(`^[vV]?(\d+)\.(\d+)(?:\.(\d+))?(?:\.(\d+))?(?:-([^+]+))?(?:\+(.+))?$`)

// Version is a parsed release tag name.
type Version struct {
	Major      uint64
	Minor      uint64
	Patch      uint64
	HasPatch   bool
	Fourth     uint64
	HasFourth  bool
	Prerelease string
	Build      string
	Original   string
}

// Parse parses a tag name. It returns false when name is not a version.
func Parse(name string) (Version, bool) {
	m := tagPattern.FindStringSubmatch(name)
	if m == nil {
		return Version{}, false
	}
	v := Version{
		Prerelease: m[5],
		Build:      m[6],
		Original:   name,
	}
	var ok bool
	if v.Major, ok = parseNumber(m[1]); !ok {
		return Version{}, false
	}
	if v.Minor, ok = parseNumber(m[2]); !ok {
		return Version{}, false
	}
	if m[3] != "" {
		if v.Patch, ok = parseNumber(m[3]); !ok {
			return Version{}, false
		}
		v.HasPatch = true
	}
	if m[4] != "" {
		if v.Fourth, ok = parseNumber(m[4]); !ok {
			return Version{}, false
		}
		v.HasFourth = true
	}
	return v, true
}

func parseNumber(s string) (uint64, bool) {
	n, err := strconv.ParseUint(s, 10, 64)
	return n, err == nil
}

// ReleaseLine returns the first dot-delimited segment of the prerelease, or ""
// for stable versions.
func (v Version) ReleaseLine() string {
	line, _, _ := strings.Cut(v.Prerelease, ".")
	return line
}

// IsPrerelease reports whether v carries a prerelease segment.
func (v Version) IsPrerelease() bool {
	return v.Prerelease != ""
}

// Semver converts v to a semantic version. The fourth component is dropped.
func (v Version) Semver() *semver.Version {
	return semver.New(v.Major, v.Minor, v.Patch, v.Prerelease, v.Build)
}

// Compare returns -1, 0 or 1 depending on whether v sorts before, equal to or
// after other. Build metadata is ignored.
func (v Version) Compare(other Version) int {
	if c := v.Semver().Compare(other.Semver()); c != 0 {
		return c
	}
	switch {
	case v.Fourth < other.Fourth:
		return -1
	case v.Fourth > other.Fourth:
		return 1
	}
	return 0
}

func (v Version) String() string {
	s := fmt.Sprintf("%d.%d", v.Major, v.Minor)
	if v.HasPatch {
		s += fmt.Sprintf(".%d", v.Patch)
	}
	if v.HasFourth {
		s += fmt.Sprintf(".%d", v.Fourth)
	}
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	if v.Build != "" {
		s += "+" + v.Build
	}
	return s
}
