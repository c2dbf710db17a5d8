// Package sidecar locates, reads and extends the per-directory tag files.
package sidecar

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/n2code/tagger/internal/directive"
)

const (
	DottedFileName = ".tagger.yaml"
	PlainFileName  = "tagger.yaml"
)

// FileNames lists the recognized sidecar names in order of precedence.
var FileNames = []string{DottedFileName, PlainFileName}

// IsSidecarName reports whether a file name is one of the recognized sidecar names.
func IsSidecarName(name string) bool {
	for _, candidate := range FileNames {
		if name == candidate {
			return true
		}
	}
	return false
}

// Sidecar is the parsed content of the sidecar file of one directory.
type Sidecar struct {
	Dir        string //absolute, system-native
	Path       string //empty if the directory has no sidecar
	Shadowed   string //lower-precedence sidecar that exists but is ignored, empty if none
	Directives []directive.Directive
}

func (s Sidecar) Exists() bool {
	return s.Path != ""
}

type Loader struct {
	fs billy.Filesystem
}

func NewLoader(fs billy.Filesystem) *Loader {
	return &Loader{fs: fs}
}

// Locate finds the sidecar of dir. The dotted name wins if both exist.
func (l *Loader) Locate(dir string) (path string, shadowed string, err error) {
	for _, name := range FileNames {
		candidate := filepath.Join(dir, name)
		stat, statErr := l.fs.Stat(candidate)
		switch {
		case errors.Is(statErr, os.ErrNotExist):
			continue
		case statErr != nil:
			return path, shadowed, statErr
		case !stat.Mode().IsRegular():
			continue
		}
		if path == "" {
			path = candidate
		} else {
			shadowed = candidate
		}
	}
	return
}

// Load reads and parses the sidecar of dir. A missing or empty sidecar yields zero directives.
// If an element is malformed the directives before it are kept and the error wraps report.ErrMalformedDirective.
func (l *Loader) Load(dir string) (result Sidecar, err error) {
	result.Dir = dir
	result.Path, result.Shadowed, err = l.Locate(dir)
	if err != nil || result.Path == "" {
		return
	}
	content, err := util.ReadFile(l.fs, result.Path)
	if err != nil {
		return result, fmt.Errorf("reading sidecar failed: %w", err)
	}
	result.Directives, err = directive.Parse(content)
	return
}
