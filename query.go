package tagger

import (
	"fmt"
	"iter"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/n2code/tagger/internal/index"
	out "github.com/n2code/tagger/internal/output"
	"github.com/n2code/tagger/internal/report"
)

func (t *tagger) TagsOf(path string) ([]string, error) {
	canonical, err := t.resolve(path)
	if err != nil {
		return nil, err
	}
	return t.index.TagsOf(canonical)
}

func (t *tagger) Search(q index.Query) (iter.Seq2[string, []string], error) {
	results, err := t.index.Search(q)
	if err != nil {
		return nil, newCommandError("invalid query", err)
	}
	return results, nil
}

func (t *tagger) Untagged() []string {
	return t.index.Untagged()
}

// SplitTerms splits white-space separated query input into terms.
func SplitTerms(input string) []string {
	return strings.Fields(input)
}

func (t *tagger) Query(terms []string, options QueryOptions) (QueryResult, error) {
	terms = slices.DeleteFunc(slices.Clone(terms), func(term string) bool { return strings.TrimSpace(term) == "" })
	if len(terms) == 0 {
		return QueryResult{}, newCommandError("empty query", nil)
	}

	hitsPerTerm := make([]map[string][]string, len(terms))
	for i, term := range terms {
		results, err := t.Search(index.Query{Term: term, Literal: options.Literal, Mode: options.Mode})
		if err != nil {
			return QueryResult{}, err
		}
		hitsPerTerm[i] = maps.Collect(results)
		t.printer.Out(out.Verbose, "%q (%s) matched %d %s.\n", term, options.Mode, len(hitsPerTerm[i]), out.Plural(len(hitsPerTerm[i]), "path", "paths"))
	}

	result := QueryResult{Terms: terms, Any: options.Any, Groups: make(map[string][]string)}
	if options.Any {
		for i, hits := range hitsPerTerm {
			for path, tags := range hits {
				if options.Mode == index.ByName {
					result.Groups[terms[i]] = append(result.Groups[terms[i]], path)
					continue
				}
				for _, tag := range tags {
					result.Groups[tag] = append(result.Groups[tag], path)
				}
			}
		}
		for key, paths := range result.Groups {
			result.Groups[key] = sortedUnique(paths)
		}
		return result, nil
	}

	matchingAll := []string{}
NextPath:
	for path := range hitsPerTerm[0] {
		for _, hits := range hitsPerTerm[1:] {
			if _, hit := hits[path]; !hit {
				continue NextPath
			}
		}
		matchingAll = append(matchingAll, path)
	}
	slices.Sort(matchingAll)
	result.Groups[strings.Join(terms, ", ")] = matchingAll
	return result, nil
}

func (t *tagger) PrintQuery(result QueryResult) error {
	groups := result.Groups
	if groups == nil {
		groups = map[string][]string{}
	}
	data, err := yaml.Marshal(groups)
	if err != nil {
		return newCommandError("result encoding failed", err)
	}
	t.printer.Out(out.Required, "%s", data)
	return nil
}

func (t *tagger) PrintTree(result QueryResult) {
	styles := t.printer.Styles()
	paths := result.Paths()
	if len(paths) == 0 {
		t.printer.Out(out.Normal, "%s\n", styles.Dim("<no matches>"))
		return
	}

	roots := t.Roots()
	byRoot := make(map[string][]string)
	for _, path := range paths {
		root := containingRoot(path, roots)
		if root == "" {
			root = dirSeparator
		}
		byRoot[root] = append(byRoot[root], path)
	}
	if _, outside := byRoot[dirSeparator]; outside && !slices.Contains(roots, dirSeparator) {
		roots = append(roots, dirSeparator)
	}

	for _, root := range roots {
		below := byRoot[root]
		if len(below) == 0 {
			continue
		}
		label := styles.Path(t.displayablePath(root, false))
		if tags, _ := t.index.TagsOf(root); slices.Contains(below, root) && len(tags) > 0 {
			label += " " + out.TagList(tags, styles.Tag)
		}
		tree := out.NewVisualFileTree(label)
		for _, path := range below { //sorted, so directories precede their content
			if path == root {
				continue
			}
			relative, _ := filepath.Rel(root, path)
			suffix := ""
			if tags, _ := t.index.TagsOf(path); len(tags) > 0 {
				suffix = " " + out.TagList(tags, styles.Tag)
			}
			if t.index.IsDir(path) {
				tree.InsertDir(relative, suffix)
			} else {
				tree.InsertPath(relative, suffix)
			}
		}
		t.printer.Out(out.Required, "%s", tree.Render())
	}
}

func (t *tagger) PrintReport() {
	if t.report.Empty() {
		t.printer.Out(out.Verbose, "No problems encountered.\n")
		return
	}
	styles := t.printer.Styles()
	for _, d := range t.report.Diagnostics {
		severity := styles.Error(string(d.Severity))
		if d.Severity == report.Warning {
			severity = styles.Warn(string(d.Severity))
		}
		location := t.displayablePath(d.Path, false)
		if d.Position > 0 {
			location += fmt.Sprintf(" element #%d", d.Position)
		}
		t.printer.Out(out.Error, "%s: %s (%s): %v\n", severity, d.Kind, location, d.Cause)
	}
	warnings, failures := t.report.Count(report.Warning), t.report.Count(report.Failure)
	t.printer.Out(out.Normal, "%d %s, %d %s.\n", failures, out.Plural(failures, "error", "errors"), warnings, out.Plural(warnings, "warning", "warnings"))
}
