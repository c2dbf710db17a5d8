package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/n2code/tagger"
	"github.com/n2code/tagger/cmd/tagger/flags"
	"github.com/n2code/tagger/internal/index"
	"github.com/n2code/tagger/internal/output"
	"github.com/n2code/tagger/internal/settings"
	"github.com/n2code/tagger/internal/watch"
)

type CliRequest struct {
	verbose     bool
	quiet       bool
	plain       bool
	dirs        []string
	configFile  string
	or          bool
	literal     bool
	byName      bool
	tree        bool
	tagUntagged bool
	watch       bool
	action      string //"query" or "tag"
	actionArgs  []string
}

type streams struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// ExitError carries the exit code for failures that are not plain usage errors.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func newRootCommand(std streams) *cobra.Command {
	rq := &CliRequest{action: "query"}

	root := &cobra.Command{
		Use:   "tagger [flags] [TAG-REGEX...]",
		Short: "Query the tags declared in .tagger.yaml sidecar files",
		Long: `Tags are declared per directory in a sidecar file (.tagger.yaml or tagger.yaml):

  - !Tag ['\.jpg$', [photos]]   tags every file in the directory whose name matches
  - !DirTag [trips]             tags the directory itself

Every TAG-REGEX is matched against the tags of all files and directories below the
given directories. By default a path has to match all of them. If no TAG-REGEX is
given the search is read interactively.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if rq.tagUntagged && len(args) > 0 {
				return fmt.Errorf("--%s accepts no search terms", flags.TagUntagged)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			rq.actionArgs = args
			return rq.execute(cmd.Context(), std)
		},
	}
	root.SetIn(std.in)
	root.SetOut(std.out)
	root.SetErr(std.errOut)

	persistent := root.PersistentFlags()
	persistent.BoolVarP(&rq.verbose, flags.Verbose, flags.VerboseShort, false, "output more details on what is done (verbose mode)")
	persistent.BoolVarP(&rq.quiet, flags.Quiet, flags.QuietShort, false, "output as little as possible, i.e. only requested information (quiet mode)")
	persistent.BoolVarP(&rq.plain, flags.Plain, flags.PlainShort, false, "no colors or terminal line editing (plain mode)")
	persistent.StringSliceVarP(&rq.dirs, flags.Dirs, flags.DirsShort, nil, "directories to operate on, may be left out if the settings file lists dirs")
	persistent.StringVar(&rq.configFile, flags.Config, "", "settings file to use instead of ~/.config/tagger/"+settings.FileName)
	root.MarkFlagsMutuallyExclusive(flags.Verbose, flags.Quiet)

	local := root.Flags()
	local.BoolVar(&rq.or, flags.Or, false, "a path needs to match only one TAG-REGEX, results are grouped by tag")
	local.BoolVar(&rq.literal, flags.Literal, false, "treat each TAG-REGEX as an exact tag instead of a regular expression")
	local.BoolVar(&rq.byName, flags.ByName, false, "match file and directory names instead of tags")
	local.BoolVar(&rq.tree, flags.Tree, false, "display the result as a tree with all tags of each path")
	local.BoolVar(&rq.tagUntagged, flags.TagUntagged, false, "ask for tags of every file and directory that has none")
	local.BoolVar(&rq.watch, flags.Watch, false, "repeat the query whenever tags change until interrupted")
	root.MarkFlagsMutuallyExclusive(flags.TagUntagged, flags.Watch)

	tag := &cobra.Command{
		Use:   "tag PATH...",
		Short: "Interactively add tags to the given files or directories",
		Long: `Asks for tags of each PATH. Files are tagged by an exact name match in the sidecar
of their directory, directories by a DirTag in their own sidecar. The sidecar file
is created if there is none.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rq.action = "tag"
			rq.actionArgs = args
			return rq.execute(cmd.Context(), std)
		},
	}
	root.AddCommand(tag)
	return root
}

func (rq *CliRequest) newLogger(errOut io.Writer) *log.Logger {
	logger := log.NewWithOptions(errOut, log.Options{Prefix: "tagger", Level: log.WarnLevel})
	switch {
	case rq.verbose:
		logger.SetLevel(log.DebugLevel)
	case rq.quiet:
		logger.SetLevel(log.ErrorLevel)
	}
	return logger
}

// resolveDirs prefers the flag values over the settings. Settings globs are expanded, flag values are taken as they are.
func (rq *CliRequest) resolveDirs(configured settings.Settings) ([]string, error) {
	if len(rq.dirs) > 0 {
		dirs := make([]string, len(rq.dirs))
		for i, dir := range rq.dirs {
			abs, err := filepath.Abs(dir)
			if err != nil {
				return nil, err
			}
			dirs[i] = abs
		}
		return dirs, nil
	}
	dirs, err := settings.ExpandDirs(configured.Dirs)
	if err != nil {
		return nil, err
	}
	if len(dirs) == 0 {
		return nil, settings.ErrNoDirs
	}
	return dirs, nil
}

func (rq *CliRequest) queryOptions(configured settings.Settings) tagger.QueryOptions {
	options := tagger.QueryOptions{Literal: rq.literal, Any: rq.or || configured.Or}
	if rq.byName {
		options.Mode = index.ByName
	}
	return options
}

func (rq *CliRequest) execute(ctx context.Context, std streams) error {
	logger := rq.newLogger(std.errOut)
	var configured settings.Settings
	if len(rq.dirs) == 0 || rq.configFile != "" { //explicit dirs bypass the settings file unless one is named
		var settingsPath string
		var err error
		if configured, settingsPath, err = settings.Load(settings.LoadOptions{FilePath: rq.configFile}); err != nil {
			return err
		}
		if settingsPath != "" {
			logger.Debug("settings loaded", "file", settingsPath)
		}
	}
	dirs, err := rq.resolveDirs(configured)
	if err != nil {
		return err
	}

	config := tagger.CreateConfig{Plain: rq.plain, Logger: logger, Stdout: std.out, Stderr: std.errOut}
	if rq.verbose {
		config.Verbosity = tagger.VerboseMode
	}
	if rq.quiet {
		config.Verbosity = tagger.QuietMode
	}
	api, err := tagger.Open(ctx, dirs, config)
	if err != nil {
		return err
	}
	defer api.PrintReport()

	reader := NewLineReader(std.in, std.out, !rq.plain)
	styles := output.NewStyles(std.out, rq.plain)

	if rq.action == "tag" || rq.tagUntagged {
		var explicit []string
		if rq.action == "tag" {
			explicit = rq.actionArgs
		}
		outcomes, _ := api.InteractiveTag(explicit, PromptTags(reader, styles))
		return failedOutcomes(outcomes)
	}

	terms := rq.actionArgs
	interactive := len(terms) == 0
	if interactive {
		if terms, err = ReadSearch(reader); err != nil {
			return err
		}
	}
	options := rq.queryOptions(configured)
	if err = rq.printQuery(api, terms, options); err != nil {
		return err
	}

	if rq.watch {
		if err = rq.watchQuery(ctx, api, terms, options, logger); err != nil {
			return err
		}
	} else if interactive {
		WaitForEnter(reader)
	}
	return nil
}

func (rq *CliRequest) printQuery(api tagger.Tagger, terms []string, options tagger.QueryOptions) error {
	result, err := api.Query(terms, options)
	if err != nil {
		return err
	}
	if rq.tree {
		api.PrintTree(result)
		return nil
	}
	return api.PrintQuery(result)
}

func (rq *CliRequest) watchQuery(ctx context.Context, api tagger.Tagger, terms []string, options tagger.QueryOptions, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	watcher, err := watch.New(watch.Config{
		Roots:  api.Roots(),
		Logger: logger,
		OnChange: func(ctx context.Context, changed []string) error {
			logger.Info("re-running query", "changes", len(changed))
			if err := api.Rebuild(ctx); err != nil {
				return err
			}
			return rq.printQuery(api, terms, options)
		},
	})
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}

func failedOutcomes(outcomes []tagger.Outcome) error {
	var failures []error
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failures = append(failures, outcome.Err)
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return &ExitError{Code: 1, Err: fmt.Errorf("%d %s could not be tagged: %w", len(failures), output.Plural(failures, "path", "paths"), errors.Join(failures...))}
}

func main() {
	root := newRootCommand(streams{in: os.Stdin, out: os.Stdout, errOut: os.Stderr})
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
