package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/WillAbides/unreleased/internal/history"
	"github.com/WillAbides/unreleased/internal/pulls"
)

var version = "unknown"

var kongVars = kong.Vars{
	"repo_help": `Path to the local git repository. Ignored with --remote.`,

	"branch_help": `The release branch. Merge commits reachable from its tip that no release tag covers are reported.`,

	"release_line_help": `The release line whose tags count as releases. This is the first dot-separated part of the 
prerelease, e.g. "rc" for v2.0.0-rc.1. Leave unset for stable releases. When no tag belongs to the line, the 
line with the lexicographically smallest name is used instead.`,

	"annotated_only_help": `Ignore lightweight tags.`,

	"github_repo_help": `GitHub repository in "<owner>/<repo>" format. e.g. WillAbides/semver-next. When set, pull 
request details are looked up on GitHub.`,

	"remote_help": `Read tags, branches and commits from the GitHub API instead of the local repository. Requires 
--github-repo.`,

	"concurrency_help": `Maximum number of concurrent pull request lookups.`,

	"format_help": `Output format.`,

	"format_enum": `text,json`,

	"color_help": `Colorize JSON output.`,

	"color_enum": `auto,always,never`,

	"next_version_help": `Also output the next version based on the unreleased pull requests.`,

	"max_bump_help": `The maximum amount to bump the next version. Valid values are MAJOR, MINOR and PATCH`,

	"max_bump_enum": `MAJOR,MINOR,PATCH`,

	"min_bump_help": `The minimum amount to bump the next version. Valid values are MAJOR, MINOR, PATCH and NONE. This 
is ignored when there are no unreleased pull requests.`,

	"min_bump_enum": `MAJOR,MINOR,PATCH,NONE`,

	"watch_help": `Keep running and print what changed whenever the local repository's refs change.`,

	"verbose_help": `Enable debug logging.`,

	"config_help": `Load flag values from a YAML file.`,

	"version_help": `output unreleased's version and exit`,
}

var mainHelp = `
unreleased lists the pull requests merged into a release branch that are not yet part of any release 
tag on that branch.
`

type cmd struct {
	Repo          string          `kong:"arg,optional,default=.,type=path,help=${repo_help}"`
	Branch        string          `kong:"short=b,help=${branch_help}"`
	ReleaseLine   string          `kong:"placeholder=ID,help=${release_line_help}"`
	AnnotatedOnly bool            `kong:"help=${annotated_only_help}"`
	GithubRepo    string          `kong:"placeholder=OWNER/REPO,help=${github_repo_help}"`
	Remote        bool            `kong:"help=${remote_help}"`
	GithubToken   string          `kong:"hidden,env=GITHUB_TOKEN"`
	Concurrency   int             `kong:"default=${default_concurrency},help=${concurrency_help}"`
	Format        string          `kong:"short=f,enum=${format_enum},default=text,help=${format_help}"`
	Color         string          `kong:"enum=${color_enum},default=auto,help=${color_help}"`
	NextVersion   bool            `kong:"help=${next_version_help}"`
	MaxBump       string          `kong:"enum=${max_bump_enum},help=${max_bump_help},default=MAJOR"`
	MinBump       string          `kong:"enum=${min_bump_enum},help=${min_bump_help},default=PATCH"`
	Watch         bool            `kong:"short=w,help=${watch_help}"`
	Verbose       bool            `kong:"short=v,help=${verbose_help}"`
	Config        kong.ConfigFlag `kong:"placeholder=FILE,help=${config_help}"`
	Version       versionFlag     `kong:"help=${version_help}"`
}

type versionFlag bool

func (d versionFlag) BeforeApply(k *kong.Context) error {
	k.Printf("version %s", version)
	k.Kong.Exit(0)
	return nil
}

var changeLevels = map[string]pulls.ChangeLevel{
	"MAJOR": pulls.ChangeLevelMajor,
	"MINOR": pulls.ChangeLevelMinor,
	"PATCH": pulls.ChangeLevelPatch,
	"NONE":  pulls.ChangeLevelNoChange,
}

var configPaths = []string{".unreleased.yml", "~/.config/unreleased/config.yml"}

func newParser(cli *cmd, paths ...string) (*kong.Kong, error) {
	return kong.New(cli,
		kongVars,
		kong.Vars{"default_concurrency": fmt.Sprint(history.DefaultConcurrency)},
		kong.Description(mainHelp),
		kong.Configuration(yamlConfig, paths...),
	)
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	var cli cmd
	parser, err := newParser(&cli, configPaths...)
	if err != nil {
		panic(err)
	}
	k, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	setupLogging(cli.Verbose)

	if cli.Watch {
		k.FatalIfErrorf(watch(ctx, &cli, os.Stdout))
		return
	}
	out, err := run(ctx, &cli, isTerminal(os.Stdout))
	k.FatalIfErrorf(err)
	_, err = os.Stdout.Write(out)
	k.FatalIfErrorf(err)
}
