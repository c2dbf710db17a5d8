package tagger

import (
	"context"
	"iter"

	"github.com/n2code/tagger/internal/index"
	"github.com/n2code/tagger/internal/report"
)

// Tagger lets you query the tags of a set of directory trees whose handle was retrieved using Open.
type Tagger interface {

	// Roots returns the canonical roots that are walked, in the order they were given.
	Roots() []string

	// Rebuild walks all roots again and replaces the index and the report.
	// If the walk is cancelled the index holds everything discovered before cancellation.
	Rebuild(ctx context.Context) error

	// TagsOf returns the sorted tags of a visited file or directory.
	// A visited path without tags yields an empty list, a path that was never visited an error matching report.ErrNotFound.
	TagsOf(path string) ([]string, error)

	// Search yields every matching path along with its matching tags in discovery order.
	// The returned sequence can be ranged over only once.
	Search(q index.Query) (iter.Seq2[string, []string], error)

	// Query runs one search per term and combines the hits.
	// By default a path must match every term, with Any set the hits are grouped by the tag (or term) that matched.
	Query(terms []string, options QueryOptions) (QueryResult, error)

	// PrintQuery outputs the result as a YAML mapping.
	PrintQuery(result QueryResult) error

	// PrintTree outputs every path of the result as a filesystem tree per root with all its tags attached.
	PrintTree(result QueryResult)

	// Untagged lists all visited paths without any tag in discovery order.
	Untagged() []string

	// InteractiveTag asks for tags for each of the given paths, or for all untagged paths if none are given.
	// Accepted tags are appended to the sidecar file responsible for the path and become visible in the index immediately.
	// A failed write is recorded for that path only and the session continues with the next one.
	InteractiveTag(paths []string, prompt RequestTags) (outcomes []Outcome, cancelled bool)

	// Report returns all problems encountered so far, including failed writes of interactive sessions.
	Report() report.Report

	// PrintReport outputs all problems encountered so far.
	PrintReport()
}

type QueryOptions struct {
	Literal bool       //terms are exact tags (or names) instead of regular expressions
	Mode    index.Mode //what the terms are matched against
	Any     bool       //a path needs to match only one term
}

// QueryResult maps either the joined query or each matched tag to the sorted list of paths.
type QueryResult struct {
	Terms  []string
	Any    bool
	Groups map[string][]string
}

// Paths returns the distinct paths of all groups in sorted order.
func (r QueryResult) Paths() (paths []string) {
	for _, group := range r.Groups {
		paths = append(paths, group...)
	}
	return sortedUnique(paths)
}

type EntryKind int

const (
	FileEntry EntryKind = iota
	DirectoryEntry
)

func (k EntryKind) String() string {
	if k == DirectoryEntry {
		return "directory"
	}
	return "file"
}

// PromptRequest describes the path the user is asked about.
type PromptRequest struct {
	Path    string //canonical, absolute
	Display string //path as it should be shown to the user
	Kind    EntryKind
}

// RequestTags represents a free-text tag input callback.
// An empty list skips the path. If the input is aborted, aborted must be set and the session ends.
type RequestTags func(request PromptRequest) (tags []string, aborted bool)

type State int

const (
	Pending State = iota
	Prompted
	Tagged
	Skipped
)

func (s State) String() string {
	switch s {
	case Prompted:
		return "prompted"
	case Tagged:
		return "tagged"
	case Skipped:
		return "skipped"
	}
	return "pending"
}

// Outcome is the final state of one path of an interactive session.
// A path whose sidecar could not be written stays Prompted and carries an error matching report.ErrPersistFailed.
type Outcome struct {
	Path    string
	Kind    EntryKind
	State   State
	Tags    []string
	Sidecar string //file the directive was appended to
	Err     error
}
