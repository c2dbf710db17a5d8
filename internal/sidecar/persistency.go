package sidecar

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"

	"github.com/n2code/tagger/internal/directive"
)

const workInProgressPrefix = ".tagger.yaml.wip-"
const newSidecarMode os.FileMode = 0644

// Append adds a directive to the sidecar of dir, creating the dotted sidecar if none exists.
// The file is replaced atomically: it either contains the new entry afterwards or is left untouched.
func (l *Loader) Append(dir string, d directive.Directive) (path string, err error) {
	path, _, err = l.Locate(dir)
	if err != nil {
		return "", err
	}
	mode := newSidecarMode
	var existing []byte
	if path == "" {
		path = filepath.Join(dir, DottedFileName)
	} else {
		if stat, statErr := l.fs.Stat(path); statErr == nil {
			mode = stat.Mode().Perm()
		}
		if existing, err = util.ReadFile(l.fs, path); err != nil {
			return path, fmt.Errorf("reading sidecar failed: %w", err)
		}
	}

	updated, err := appendEntry(existing, d)
	if err != nil {
		return path, fmt.Errorf("cannot extend %s: %w", path, err)
	}
	return path, l.replaceFile(path, updated, mode)
}

// appendEntry keeps the existing text of a block sequence and only re-encodes flow, null or multi-document files.
// The result is parsed again and refused unless it yields the previous directives followed by d.
func appendEntry(existing []byte, d directive.Directive) ([]byte, error) {
	previous, err := directive.Parse(existing)
	if err != nil {
		return nil, err
	}
	updated, err := extend(existing, d)
	if err != nil {
		return nil, err
	}
	reparsed, err := directive.Parse(updated)
	if err != nil {
		return nil, fmt.Errorf("extended sidecar does not parse: %w", err)
	}
	if !slices.EqualFunc(reparsed, append(previous, d), sameDirective) {
		return nil, errors.New("extended sidecar does not contain the new entry")
	}
	return updated, nil
}

func extend(existing []byte, d directive.Directive) ([]byte, error) {
	var document yaml.Node
	if err := yaml.Unmarshal(existing, &document); err != nil {
		return nil, err
	}
	indent := 0
	if document.Kind != 0 && len(document.Content) > 0 {
		root := document.Content[0]
		switch {
		case root.Kind == yaml.ScalarNode && root.Tag == "!!null":
			existing = nil //an explicit null document is replaced
		case root.Kind != yaml.SequenceNode:
			return nil, errors.New("document is not a sequence")
		case root.Style&yaml.FlowStyle != 0 || hasDocumentMarkers(existing):
			root.Style = 0
			root.Content = append(root.Content, directive.Node(d))
			return yaml.Marshal(&document)
		default:
			indent = root.Column - 1
		}
	}

	entry, err := directive.MarshalEntry(d)
	if err != nil {
		return nil, err
	}
	var updated bytes.Buffer
	updated.Write(existing)
	if updated.Len() > 0 && !bytes.HasSuffix(existing, []byte("\n")) {
		updated.WriteByte('\n')
	}
	for line := range bytes.Lines(entry) {
		updated.Write(bytes.Repeat([]byte{' '}, indent))
		updated.Write(line)
	}
	return updated.Bytes(), nil
}

// hasDocumentMarkers reports lines that start or end a document, or carry a YAML directive.
func hasDocumentMarkers(text []byte) bool {
	for line := range bytes.Lines(text) {
		if bytes.HasPrefix(line, []byte("---")) || bytes.HasPrefix(line, []byte("...")) || bytes.HasPrefix(line, []byte("%")) {
			return true
		}
	}
	return false
}

func sameDirective(a, b directive.Directive) bool {
	return a.String() == b.String()
}

func (l *Loader) replaceFile(path string, content []byte, mode os.FileMode) (err error) {
	temp, err := l.fs.TempFile(filepath.Dir(path), workInProgressPrefix)
	if err != nil {
		return err
	}
	tempPath := temp.Name()
	defer func() {
		if err != nil {
			_ = l.fs.Remove(tempPath)
		}
	}()

	if _, err = temp.Write(content); err != nil {
		_ = temp.Close()
		return err
	}
	if err = temp.Close(); err != nil {
		return err
	}
	if changer, ok := l.fs.(billy.Change); ok {
		_ = changer.Chmod(tempPath, mode) //best effort, temp files are created private
	}
	if err = l.fs.Rename(tempPath, path); err != nil {
		return fmt.Errorf("replacing sidecar (%s) with working copy (%s) failed: %w", path, tempPath, err)
	}
	return nil
}
