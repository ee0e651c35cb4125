package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"golang.org/x/term"
)

const shortShaLen = 7

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func useColor(mode string, terminal bool) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		return terminal
	}
}

func shortSha(sha string) string {
	if len(sha) > shortShaLen {
		return sha[:shortShaLen]
	}
	return sha
}

func render(result *Result, format string, color bool) ([]byte, error) {
	if format == "json" {
		return renderJSON(result, color)
	}
	return renderText(result), nil
}

func renderJSON(result *Result, color bool) ([]byte, error) {
	src, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, err
	}
	src = append(src, '\n')
	if !color {
		return src, nil
	}
	var buf bytes.Buffer
	err = quick.Highlight(&buf, string(src), "json", "terminal256", "monokai")
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderText(result *Result) []byte {
	var buf bytes.Buffer
	latest := result.LatestRelease
	if latest == "" {
		latest = "none"
	}
	fmt.Fprintf(&buf, "branch: %s\n", result.Branch)
	fmt.Fprintf(&buf, "latest release: %s\n", latest)
	if !result.ReleaseLineMatched {
		line := result.ReleaseLine
		if line == "" {
			line = "stable"
		}
		fmt.Fprintf(&buf, "release line: %s (fallback)\n", line)
	}
	if result.NextVersion != "" {
		fmt.Fprintf(&buf, "next version: %s (%s)\n", result.NextVersion, strings.ToLower(result.ChangeLevel))
	}
	fmt.Fprintf(&buf, "unreleased pull requests: %d\n", len(result.Pulls))
	for _, pr := range result.Pulls {
		fmt.Fprintf(&buf, "  #%d %s", pr.Number, pr.Title)
		if pr.Author != "" {
			fmt.Fprintf(&buf, " (%s)", pr.Author)
		}
		fmt.Fprintf(&buf, " %s\n", shortSha(pr.MergeCommit))
	}
	if len(result.Unmatched) > 0 {
		fmt.Fprintf(&buf, "unmatched merge commits: %d\n", len(result.Unmatched))
		for _, c := range result.Unmatched {
			fmt.Fprintf(&buf, "  %s %s\n", shortSha(c.Sha), c.Message)
		}
	}
	return buf.Bytes()
}
