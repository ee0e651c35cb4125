package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/WillAbides/unreleased/internal/debounce"
	"github.com/WillAbides/unreleased/internal/gitrepo"
)

const watchDebounceDelay = 300 * time.Millisecond

func watch(ctx context.Context, cli *cmd, out io.Writer) error {
	if cli.Branch == "" {
		return errNoBranch
	}
	if cli.Remote {
		return errors.New("--watch only works with local repositories")
	}
	repo, err := gitrepo.Open(cli.Repo)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() {
		err := watcher.Close()
		if err != nil {
			slog.Error("watcher close", slog.Any("error", err))
		}
	}()
	paths, err := watchPaths(repo.GitDir())
	if err != nil {
		return err
	}
	for _, path := range paths {
		slog.Debug("adding path to FS watcher", slog.String("path", path))
		err = watcher.Add(path)
		if err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
	ex, err := cli.extractor(ctx)
	if err != nil {
		return err
	}
	color := useColor(cli.Color, false)
	runOnce := func(ctx context.Context) ([]byte, error) {
		// reopen so refs written since the last run are seen
		snap, err := gitrepo.Open(cli.Repo)
		if err != nil {
			return nil, err
		}
		result, err := collect(ctx, cli, snap, ex)
		if err != nil {
			return nil, err
		}
		return render(result, cli.Format, color)
	}
	return watchLoop(ctx, watcher.Events, watcher.Errors, runOnce, out, watchDebounceDelay)
}

// watchPaths returns the git dir and every directory below refs.
func watchPaths(gitDir string) ([]string, error) {
	paths := []string{gitDir}
	refs := filepath.Join(gitDir, "refs")
	err := filepath.WalkDir(refs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func watchLoop(
	ctx context.Context,
	events <-chan fsnotify.Event,
	errs <-chan error,
	runOnce func(ctx context.Context) ([]byte, error),
	out io.Writer,
	delay time.Duration,
) error {
	prev, err := runOnce(ctx)
	if err != nil {
		return err
	}
	_, err = out.Write(prev)
	if err != nil {
		return err
	}
	reload := make(chan struct{}, 1)
	deb := debounce.New(delay, func() {
		select {
		case reload <- struct{}{}:
		default:
		}
	})
	defer deb.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if strings.HasSuffix(ev.Name, ".lock") {
				continue
			}
			slog.Debug("fsnotify event",
				slog.String("op", ev.Op.String()),
				slog.String("path", ev.Name),
			)
			deb.Trigger()
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			slog.Error("fsnotify error", slog.Any("error", err))
		case <-reload:
			cur, err := runOnce(ctx)
			if err != nil {
				slog.Error("reload failed", slog.Any("error", err))
				continue
			}
			if string(cur) == string(prev) {
				continue
			}
			diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
				A:        difflib.SplitLines(string(prev)),
				B:        difflib.SplitLines(string(cur)),
				FromFile: "previous",
				ToFile:   "current",
				Context:  3,
			})
			if err != nil {
				return err
			}
			_, err = io.WriteString(out, diff)
			if err != nil {
				return err
			}
			prev = cur
		}
	}
}
