package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/WillAbides/unreleased/internal/graph"
	"github.com/WillAbides/unreleased/internal/history"
	"github.com/WillAbides/unreleased/internal/pulls"
	"github.com/WillAbides/unreleased/internal/release"
)

var errNoBranch = errors.New("--branch is required")

func run(ctx context.Context, cli *cmd, terminal bool) ([]byte, error) {
	if cli.Branch == "" {
		return nil, errNoBranch
	}
	snap, err := cli.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	ex, err := cli.extractor(ctx)
	if err != nil {
		return nil, err
	}
	result, err := collect(ctx, cli, snap, ex)
	if err != nil {
		return nil, err
	}
	return render(result, cli.Format, useColor(cli.Color, terminal))
}

func collect(ctx context.Context, cli *cmd, snap graph.Snapshot, ex pulls.Extractor) (*Result, error) {
	if cli.Branch == "" {
		return nil, errNoBranch
	}
	res, err := release.Resolve(ctx, snap, release.Options{
		Branch:        cli.Branch,
		ReleaseLine:   cli.ReleaseLine,
		AnnotatedOnly: cli.AnnotatedOnly,
	})
	if err != nil {
		return nil, err
	}
	prs, errs := history.Assemble(ctx, res.Unreleased, ex, cli.Concurrency)
	for _, err := range errs {
		slog.Warn("pull request lookup failed", slog.Any("error", err))
	}
	result := buildResult(res, prs)
	if cli.NextVersion {
		setNextVersion(result, res, prs, changeLevels[cli.MinBump], changeLevels[cli.MaxBump])
	}
	return result, nil
}
