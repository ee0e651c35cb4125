// Package pulls turns merge commit messages into pull request records.
package pulls

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// PullRequest is the record produced for an unreleased merge commit.
type PullRequest struct {
	Number      int      `json:"number"`
	Title       string   `json:"title,omitempty"`
	Author      string   `json:"author,omitempty"`
	Body        string   `json:"body,omitempty"`
	URL         string   `json:"url,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	SourceRef   string   `json:"source_ref,omitempty"`
	MergeCommit string   `json:"merge_commit"`
}

// Extractor resolves a merge commit message to a pull request. It returns a nil
// record without error when the message does not describe a pull request.
type Extractor interface {
	ExtractPullRequest(ctx context.Context, message string) (*PullRequest, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, message string) (*PullRequest, error)

func (f ExtractorFunc) ExtractPullRequest(ctx context.Context, message string) (*PullRequest, error) {
	return f(ctx, message)
}

var mergePatterns = []*regexp.Regexp{
	// GitHub: "Merge pull request #123 from owner/branch"
	regexp.MustCompile(`^Merge pull request #(\d+) from (\S+)`),
	// Bitbucket: "Merged in feature/x (pull request #45)"
	regexp.MustCompile(`^Merged in (\S+) \(pull request #(\d+)\)`),
}

// MessageExtractor reads pull request details from the merge message alone.
type MessageExtractor struct{}

func (MessageExtractor) ExtractPullRequest(_ context.Context, message string) (*PullRequest, error) {
	return ParseMergeMessage(message), nil
}

// ParseMergeMessage parses a hosting provider's merge commit message. It
// returns nil for messages that are not pull request merges.
func ParseMergeMessage(message string) *PullRequest {
	message = strings.ReplaceAll(message, "\r\n", "\n")
	subject, body, _ := strings.Cut(message, "\n")
	subject = strings.TrimSpace(subject)

	var number, ref string
	if m := mergePatterns[0].FindStringSubmatch(subject); m != nil {
		number, ref = m[1], m[2]
	} else if m := mergePatterns[1].FindStringSubmatch(subject); m != nil {
		number, ref = m[2], m[1]
	} else {
		return nil
	}
	n, err := strconv.Atoi(number)
	if err != nil {
		return nil
	}

	body = strings.TrimSpace(body)
	title, rest, _ := strings.Cut(body, "\n")
	return &PullRequest{
		Number:    n,
		Title:     strings.TrimSpace(title),
		Body:      strings.TrimSpace(rest),
		SourceRef: ref,
	}
}
