// Package index holds the tag sets computed by one walk and answers queries on them.
package index

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/n2code/tagger/internal/report"
)

type entry struct {
	tags  map[string]struct{}
	isDir bool
}

// Index maps every visited path to its tag set and remembers the order of discovery.
// Keys are canonical absolute paths. The zero value is not usable, use New.
type Index struct {
	order   []string
	entries map[string]*entry
}

func New() *Index {
	return &Index{entries: make(map[string]*entry)}
}

// Visit registers a path without tags. Registering it again is a no-op.
func (ix *Index) Visit(path string, isDir bool) {
	path = filepath.Clean(path)
	if _, exists := ix.entries[path]; exists {
		return
	}
	ix.entries[path] = &entry{tags: make(map[string]struct{}), isDir: isDir}
	ix.order = append(ix.order, path)
}

// Add unions tags into the set of an already visited path.
func (ix *Index) Add(path string, tags ...string) error {
	e, exists := ix.entries[filepath.Clean(path)]
	if !exists {
		return fmt.Errorf("%w: %s", report.ErrNotFound, path)
	}
	for _, tag := range tags {
		e.tags[tag] = struct{}{}
	}
	return nil
}

// TagsOf returns the sorted tags of a visited path, which may be none.
func (ix *Index) TagsOf(path string) ([]string, error) {
	e, exists := ix.entries[filepath.Clean(path)]
	if !exists {
		return nil, fmt.Errorf("%w: %s", report.ErrNotFound, path)
	}
	return sortedTags(e.tags), nil
}

func (ix *Index) Has(path string) bool {
	_, exists := ix.entries[filepath.Clean(path)]
	return exists
}

// IsDir reports whether the visited path is a directory, false for unknown paths.
func (ix *Index) IsDir(path string) bool {
	e, exists := ix.entries[filepath.Clean(path)]
	return exists && e.isDir
}

// Paths returns all visited paths in discovery order.
func (ix *Index) Paths() []string {
	return slices.Clone(ix.order)
}

// Untagged returns all visited paths with an empty tag set in discovery order.
func (ix *Index) Untagged() (paths []string) {
	for _, path := range ix.order {
		if len(ix.entries[path].tags) == 0 {
			paths = append(paths, path)
		}
	}
	return
}

func (ix *Index) Len() int {
	return len(ix.order)
}

// Snapshot copies the content into plain maps, e.g. for comparisons.
func (ix *Index) Snapshot() map[string][]string {
	snapshot := make(map[string][]string, len(ix.entries))
	for path, e := range ix.entries {
		snapshot[path] = sortedTags(e.tags)
	}
	return snapshot
}

func sortedTags(set map[string]struct{}) []string {
	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}
