package graph

import (
	"context"
	"fmt"
	"sort"
)

// Memory is a Snapshot held entirely in memory.
type Memory struct {
	commits  map[string]Commit
	tags     []Tag
	branches map[string]string
}

// NewMemory returns an empty Memory snapshot.
func NewMemory() *Memory {
	return &Memory{
		commits:  map[string]Commit{},
		branches: map[string]string{},
	}
}

// AddCommit adds a commit with the given parents.
func (m *Memory) AddCommit(hash, message string, parents ...string) *Memory {
	m.commits[hash] = Commit{Hash: hash, Message: message, ParentHashes: parents}
	return m
}

// AddTag adds a tag pointing at target.
func (m *Memory) AddTag(name, target string, annotated bool) *Memory {
	m.tags = append(m.tags, Tag{Name: name, Target: target, Annotated: annotated})
	return m
}

// SetBranch points branch name at tip.
func (m *Memory) SetBranch(name, tip string) *Memory {
	m.branches[name] = tip
	return m
}

func (m *Memory) Tags(context.Context) ([]Tag, error) {
	tags := make([]Tag, len(m.tags))
	copy(tags, m.tags)
	sort.SliceStable(tags, func(i, j int) bool {
		return tags[i].Name < tags[j].Name
	})
	return tags, nil
}

func (m *Memory) Branch(_ context.Context, name string) (Branch, error) {
	tip, ok := m.branches[name]
	if !ok {
		return Branch{}, fmt.Errorf("%s: %w", name, ErrBranchNotFound)
	}
	return Branch{Name: name, Tip: tip}, nil
}

func (m *Memory) Log(_ context.Context, from string) (CommitIter, error) {
	if _, ok := m.commits[from]; !ok {
		return nil, fmt.Errorf("%s: %w", from, ErrCommitNotFound)
	}
	cl := &Closure{commits: m.commits}
	return &closureIter{
		closure: cl,
		stack:   []string{from},
		seen:    map[string]bool{from: true},
	}, nil
}
