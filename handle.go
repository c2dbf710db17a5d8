package tagger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/n2code/tagger/internal/index"
	"github.com/n2code/tagger/internal/output"
	"github.com/n2code/tagger/internal/report"
	"github.com/n2code/tagger/internal/sidecar"
	"github.com/n2code/tagger/internal/walk"
)

type VerbosityLevel int

// CreateConfig holds a set of common configuration switches that concern all calls to the tagger API.
// The zero value is a sensible default.
type CreateConfig struct {
	Verbosity  VerbosityLevel
	Plain      bool             //no terminal styling
	Filesystem billy.Filesystem //nil means the host filesystem
	Logger     *log.Logger      //receives walk diagnostics, nil discards them
	Stdout     io.Writer        //nil means os.Stdout
	Stderr     io.Writer        //nil means os.Stderr
}

const (
	DefaultVerbosity VerbosityLevel = iota //normal level of information, all noteworthy facts without too much noise
	VerboseMode                            //exhaustive information about what is happening, repeating context
	QuietMode                              //only output errors and information that was explicitly requested (-> Print* functions)
)

// Open walks the given root directories and builds the tag index.
// Roots that cannot be used are recorded in the report, if none is usable an error matching report.ErrNoRoots is returned.
func Open(ctx context.Context, roots []string, config CreateConfig) (Tagger, error) {
	handle := makeTagger(config)
	for _, root := range roots {
		handle.roots = append(handle.roots, mustAbsFilepath(root))
	}
	if err := handle.Rebuild(ctx); err != nil {
		return nil, err
	}
	return handle, nil
}

type tagger struct {
	fs      billy.Filesystem
	walker  *walk.Walker
	loader  *sidecar.Loader
	roots   []string //absolute, as given
	index   *index.Index
	report  report.Report
	printer output.Printer
	logger  *log.Logger
	getwd   func() (string, error)
}

func makeTagger(config CreateConfig) *tagger {
	fs := config.Filesystem
	if fs == nil {
		fs = osfs.New("/")
	}
	logger := config.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	stdout, stderr := config.Stdout, config.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	classes := output.ClassesFor(config.Verbosity == VerboseMode, config.Verbosity == QuietMode)
	return &tagger{
		fs:      fs,
		walker:  walk.New(fs, logger),
		loader:  sidecar.NewLoader(fs),
		index:   index.New(),
		printer: output.NewPrinter(stdout, stderr, classes, config.Plain),
		logger:  logger,
		getwd:   os.Getwd,
	}
}

func (t *tagger) Roots() (canonical []string) {
	for _, root := range t.roots {
		if resolved, err := walk.Canonical(t.fs, root); err == nil {
			canonical = append(canonical, resolved)
		}
	}
	return uniqueInOrder(canonical)
}

func (t *tagger) Rebuild(ctx context.Context) error {
	ix, rep, err := index.Build(ctx, t.walker, t.roots)
	t.index, t.report = ix, rep
	switch {
	case errors.Is(err, report.ErrNoRoots):
		return newCommandError(fmt.Sprintf("none of %d %s usable", len(t.roots), output.Plural(t.roots, "root is", "roots are")), err)
	case err != nil:
		return newCommandError("walk interrupted", err)
	}
	t.printer.Out(output.Verbose, "Indexed %d %s below %d %s.\n", ix.Len(), output.Plural(ix.Len(), "path", "paths"), len(t.roots), output.Plural(t.roots, "root", "roots"))
	return nil
}

func (t *tagger) Report() report.Report {
	return t.report
}

// resolve turns a user supplied path into the key of a visited path.
// Files behind a symlink are keyed by the link name inside their canonical directory,
// linked directories by their target.
func (t *tagger) resolve(path string) (string, error) {
	absolute := mustAbsFilepath(path)
	var candidates []string
	if parent, err := walk.Canonical(t.fs, filepath.Dir(absolute)); err == nil {
		candidates = append(candidates, filepath.Join(parent, filepath.Base(absolute)))
	}
	if canonical, err := walk.Canonical(t.fs, absolute); err == nil {
		candidates = append(candidates, canonical)
	}
	for _, candidate := range candidates {
		if t.index.Has(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", report.ErrNotFound, path)
}

// mustAbsFilepath calls filepath.Abs and asserts that it is successful
func mustAbsFilepath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		panic(err)
	}
	return abs
}
