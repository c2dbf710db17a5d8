// Package walk visits the directories below a set of roots in pre-order.
//
// Every directory is visited at most once per walk, no matter how many roots or symbolic links lead to it.
// A link back onto the current ancestor chain is reported as a cycle and not entered.
package walk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5"

	"github.com/n2code/tagger/internal/directive"
	"github.com/n2code/tagger/internal/report"
	"github.com/n2code/tagger/internal/sidecar"
)

// Entry is one direct child of a visited directory.
type Entry struct {
	Name  string
	Path  string //canonical directory path joined with Name (for directories: their canonical path)
	IsDir bool
}

// Directory is handed to the visitor once per visited directory, after its sidecar was loaded.
type Directory struct {
	Path    string //canonical, absolute
	Entries []Entry
	Sidecar sidecar.Sidecar
}

// Files returns the entries that are not directories.
func (d Directory) Files() (files []Entry) {
	for _, entry := range d.Entries {
		if !entry.IsDir {
			files = append(files, entry)
		}
	}
	return
}

type Visitor func(Directory)

type Walker struct {
	fs     billy.Filesystem
	loader *sidecar.Loader
	logger *log.Logger
}

// New creates a walker on the given filesystem. The logger may be nil.
func New(fs billy.Filesystem, logger *log.Logger) *Walker {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Walker{fs: fs, loader: sidecar.NewLoader(fs), logger: logger}
}

type frame struct {
	path      string
	ancestors []string //canonical chain from the root down to and including path
}

// Walk visits all directories below the given absolute roots.
// Problems with single directories or sidecars are recorded in the returned report and do not stop the walk.
// The error is either report.ErrNoRoots or the context error if the walk was cancelled between two directories.
func (w *Walker) Walk(ctx context.Context, roots []string, visit Visitor) (rep report.Report, err error) {
	canonicalRoots := w.canonicalRoots(roots, &rep)
	if len(canonicalRoots) == 0 {
		return rep, report.ErrNoRoots
	}

	visited := make(map[string]bool)
	for _, root := range canonicalRoots {
		stack := []frame{{path: root, ancestors: []string{root}}}
		for len(stack) > 0 {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return rep, ctxErr
			}
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[current.path] {
				w.logger.Debug("already visited", "dir", current.path)
				continue
			}
			visited[current.path] = true

			dir, ok := w.read(current, &rep)
			if !ok {
				continue
			}
			visit(dir)

			//push in reverse so that children are popped in name order
			for i := len(dir.Entries) - 1; i >= 0; i-- {
				if entry := dir.Entries[i]; entry.IsDir && !visited[entry.Path] {
					stack = append(stack, frame{path: entry.Path, ancestors: append(slices.Clip(current.ancestors), entry.Path)})
				}
			}
		}
	}
	return rep, nil
}

func (w *Walker) canonicalRoots(roots []string, rep *report.Report) (canonical []string) {
	seen := make(map[string]bool)
	for _, root := range roots {
		resolved, err := Canonical(w.fs, filepath.Clean(root))
		if err == nil {
			var stat os.FileInfo
			if stat, err = w.fs.Stat(resolved); err == nil && !stat.IsDir() {
				err = errors.New("root is not a directory")
			}
		}
		if err != nil {
			rep.Fail(report.UnreadableEntry, root, err)
			w.logger.Warn("skipping root", "root", root, "err", err)
			continue
		}
		if seen[resolved] {
			continue
		}
		seen[resolved] = true
		canonical = append(canonical, resolved)
	}
	return
}

// read enumerates one directory and loads its sidecar. Children on the ancestor chain are dropped as cycles.
func (w *Walker) read(current frame, rep *report.Report) (dir Directory, ok bool) {
	w.logger.Debug("visiting", "dir", current.path)
	infos, err := w.fs.ReadDir(current.path)
	if err != nil {
		rep.Fail(report.UnreadableEntry, current.path, err)
		w.logger.Warn("cannot read directory", "dir", current.path, "err", err)
		return dir, false
	}
	slices.SortFunc(infos, func(a, b os.FileInfo) int {
		switch {
		case a.Name() < b.Name():
			return -1
		case a.Name() > b.Name():
			return 1
		}
		return 0
	})

	dir.Path = current.path
	for _, info := range infos {
		entry, keep := w.classify(current, info, rep)
		if keep {
			dir.Entries = append(dir.Entries, entry)
		}
	}

	dir.Sidecar, err = w.loader.Load(current.path)
	switch {
	case directive.IsMalformed(err):
		rep.Add(report.Diagnostic{Kind: report.MalformedDirective, Path: sidecarPathOrDir(dir.Sidecar), Position: elementPosition(err), Cause: err})
		w.logger.Warn("sidecar partially ignored", "sidecar", sidecarPathOrDir(dir.Sidecar), "err", err)
	case err != nil:
		rep.Fail(report.UnreadableEntry, sidecarPathOrDir(dir.Sidecar), err)
		w.logger.Warn("sidecar unreadable", "dir", current.path, "err", err)
	}
	if dir.Sidecar.Shadowed != "" {
		rep.Warn(report.ShadowedSidecar, dir.Sidecar.Shadowed, fmt.Errorf("ignored in favor of %s", dir.Sidecar.Path))
		w.logger.Warn("sidecar shadowed", "ignored", dir.Sidecar.Shadowed, "used", dir.Sidecar.Path)
	}
	return dir, true
}

func (w *Walker) classify(current frame, info os.FileInfo, rep *report.Report) (entry Entry, keep bool) {
	entry.Name = info.Name()
	entry.Path = filepath.Join(current.path, entry.Name)
	if sidecar.IsSidecarName(entry.Name) && info.Mode().IsRegular() {
		return entry, false
	}
	if info.Mode()&os.ModeSymlink == 0 {
		entry.IsDir = info.IsDir()
		return entry, true
	}

	target, err := w.fs.Stat(entry.Path)
	if err != nil {
		w.logger.Debug("skipping broken link", "path", entry.Path, "err", err)
		return entry, false
	}
	if !target.IsDir() {
		return entry, true
	}
	if sidecar.IsSidecarName(entry.Name) {
		return entry, false
	}
	canonical, err := Canonical(w.fs, entry.Path)
	if err != nil {
		rep.Fail(report.UnreadableEntry, entry.Path, err)
		return entry, false
	}
	if slices.Contains(current.ancestors, canonical) {
		rep.Add(report.Diagnostic{Kind: report.CycleDetected, Severity: report.Warning, Path: entry.Path,
			Cause: fmt.Errorf("%w: link to ancestor %s", report.ErrCycleDetected, canonical)})
		w.logger.Warn("symlink cycle not entered", "link", entry.Path, "target", canonical)
		return entry, false
	}
	entry.Path = canonical
	entry.IsDir = true
	return entry, true
}

func sidecarPathOrDir(s sidecar.Sidecar) string {
	if s.Exists() {
		return s.Path
	}
	return s.Dir
}

func elementPosition(err error) int {
	var elementErr *directive.ElementError
	if errors.As(err, &elementErr) {
		return elementErr.Position
	}
	return 0
}
