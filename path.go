package tagger

import (
	"path/filepath"
	"slices"
	"strings"
)

const dot string = "."
const dirSeparator = string(filepath.Separator)
const dotDirSeparator = dot + dirSeparator
const doubleDot = dot + dot
const doubleDotDirSeparator = doubleDot + dirSeparator

func isChildOf(child string, parent string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return !(rel == dot || rel == doubleDot || strings.HasPrefix(rel, doubleDotDirSeparator))
}

func isInside(path string, dir string) bool {
	return path == dir || isChildOf(path, dir)
}

// pleasantPath turns an absolute path into something easily understandable from the current context.
// If the working directory is inside the root the path belongs to, a relative path is emitted, with leading "./" to stress relativity (opt-out possible).
// Otherwise the absolute path is reflected unchanged.
func pleasantPath(absolute string, root string, wd string, omitDotSlash bool) string {
	if root == "" || !isInside(wd, root) || !isInside(absolute, root) {
		return absolute
	}
	relative, _ := filepath.Rel(wd, absolute) //error impossible because both are rooted
	if relative == dot {
		return dot
	}
	if !omitDotSlash && !strings.HasPrefix(relative, doubleDotDirSeparator) && relative != doubleDot {
		return dotDirSeparator + relative
	}
	return relative
}

// containingRoot returns the deepest root the path is located in, or an empty string.
func containingRoot(path string, roots []string) (root string) {
	for _, candidate := range roots {
		if isInside(path, candidate) && len(candidate) > len(root) {
			root = candidate
		}
	}
	return
}

func (t *tagger) displayablePath(absolute string, omitDotSlash bool) string {
	wd, err := t.getwd()
	if err != nil {
		return absolute
	}
	return pleasantPath(filepath.Clean(absolute), containingRoot(absolute, t.Roots()), wd, omitDotSlash)
}

func uniqueInOrder(items []string) (unique []string) {
	for _, item := range items {
		if !slices.Contains(unique, item) {
			unique = append(unique, item)
		}
	}
	return
}

func sortedUnique(items []string) []string {
	sorted := slices.Clone(items)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}
