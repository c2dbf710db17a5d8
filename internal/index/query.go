package index

import (
	"fmt"
	"iter"
	"path/filepath"
	"regexp"
	"slices"
)

type Mode int

const (
	ByTag Mode = iota
	ByName
)

func (m Mode) String() string {
	switch m {
	case ByTag:
		return "by-tag"
	case ByName:
		return "by-name"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Query selects paths either by their tags or by their base name.
// A literal term must equal a tag (or the name) exactly, otherwise it is an unanchored regular expression.
type Query struct {
	Term    string
	Literal bool
	Mode    Mode
}

func (q Query) matcher() (func(string) bool, error) {
	if q.Literal {
		return func(candidate string) bool { return candidate == q.Term }, nil
	}
	re, err := regexp.Compile(q.Term)
	if err != nil {
		return nil, fmt.Errorf("bad query %q: %w", q.Term, err)
	}
	return re.MatchString, nil
}

// Search yields (path, matching tags) pairs in discovery order.
// In tag mode only the tags that matched are yielded, in name mode the complete tag set of the path.
// The sequence is lazy and single-use: ranging over it a second time yields nothing.
func (ix *Index) Search(q Query) (iter.Seq2[string, []string], error) {
	matches, err := q.matcher()
	if err != nil {
		return nil, err
	}
	consumed := false
	return func(yield func(string, []string) bool) {
		if consumed {
			return
		}
		consumed = true
		for _, path := range ix.order {
			tags := sortedTags(ix.entries[path].tags)
			switch q.Mode {
			case ByName:
				if !matches(filepath.Base(path)) {
					continue
				}
			default:
				tags = slices.DeleteFunc(tags, func(tag string) bool { return !matches(tag) })
				if len(tags) == 0 {
					continue
				}
			}
			if !yield(path, tags) {
				return
			}
		}
	}, nil
}
