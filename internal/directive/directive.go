// Package directive holds the two rule kinds a sidecar file can contain.
//
// A sidecar file is a YAML sequence whose elements carry one of two local tags:
//
//   - !Tag [<regex>, [<tag>, ...]]
//   - !DirTag [<tag>, ...]
//
// The externally tagged mapping form (- Tag: [...] / - DirTag: [...]) is accepted on input as well.
package directive

import (
	"fmt"
	"strings"
)

const (
	TagName    = "Tag"
	DirTagName = "DirTag"
)

// Directive is either a Tag or a DirTag, nothing else implements it.
type Directive interface {
	// Labels returns the deduplicated tags the directive assigns, in order of first appearance.
	Labels() []string
	String() string
	isDirective()
}

// Tag assigns its labels to every sibling file (never a directory) whose name matches Pattern.
type Tag struct {
	Pattern string //unanchored regular expression, matched against the file name only
	Tags    []string
}

// DirTag assigns its labels to the directory that hosts the sidecar file.
type DirTag struct {
	Tags []string
}

func NewTag(pattern string, tags ...string) Tag {
	return Tag{Pattern: pattern, Tags: Dedupe(tags)}
}

func NewDirTag(tags ...string) DirTag {
	return DirTag{Tags: Dedupe(tags)}
}

func (t Tag) Labels() []string    { return t.Tags }
func (t DirTag) Labels() []string { return t.Tags }

func (Tag) isDirective()    {}
func (DirTag) isDirective() {}

func (t Tag) String() string {
	return fmt.Sprintf("!%s [%q, [%s]]", TagName, t.Pattern, strings.Join(t.Tags, ", "))
}

func (t DirTag) String() string {
	return fmt.Sprintf("!%s [%s]", DirTagName, strings.Join(t.Tags, ", "))
}

// Dedupe drops repeated tags keeping the first occurrence.
func Dedupe(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	unique := make([]string, 0, len(tags))
	for _, tag := range tags {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		unique = append(unique, tag)
	}
	return unique
}
