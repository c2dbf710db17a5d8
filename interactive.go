package tagger

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/n2code/tagger/internal/directive"
	out "github.com/n2code/tagger/internal/output"
	"github.com/n2code/tagger/internal/report"
)

func (t *tagger) InteractiveTag(paths []string, prompt RequestTags) (outcomes []Outcome, cancelled bool) {
	explicit := paths != nil
	if !explicit {
		paths = t.index.Untagged()
	}
	outcomes = make([]Outcome, len(paths))
	for i, path := range paths {
		outcomes[i] = Outcome{Path: path, State: Pending}
	}
	t.printer.Out(out.Verbose, "%d %s to tag.\n", len(paths), out.Plural(paths, "path", "paths"))
	styles := t.printer.Styles()

	tagged := 0
	for i := range outcomes {
		outcome := &outcomes[i]
		if explicit {
			canonical, err := t.resolve(outcome.Path)
			if err != nil {
				outcome.Err = err
				t.printer.Out(out.Error, "%s\n", styles.Error(err.Error()))
				continue
			}
			outcome.Path = canonical
		}
		if t.index.IsDir(outcome.Path) {
			outcome.Kind = DirectoryEntry
		}
		displayPath := t.displayablePath(outcome.Path, false)

		outcome.State = Prompted
		answer, aborted := prompt(PromptRequest{Path: outcome.Path, Display: displayPath, Kind: outcome.Kind})
		if aborted {
			outcome.State = Pending
			cancelled = true
			break
		}
		tags := normalizeTags(answer)
		if len(tags) == 0 {
			outcome.State = Skipped
			t.printer.Out(out.Normal, "%s - Skipped.\n", displayPath)
			continue
		}

		dir, rule := directiveFor(outcome.Path, outcome.Kind, tags)
		sidecarPath, err := t.loader.Append(dir, rule)
		if err != nil {
			outcome.Err = fmt.Errorf("%w: %w", report.ErrPersistFailed, err)
			if sidecarPath == "" {
				sidecarPath = dir
			}
			t.report.Fail(report.PersistFailed, sidecarPath, outcome.Err)
			t.printer.Out(out.Error, "tagging failed (%s): %s\n", displayPath, styles.Error(err.Error()))
			continue
		}
		_ = t.index.Add(outcome.Path, rule.Labels()...)
		outcome.State, outcome.Tags, outcome.Sidecar = Tagged, rule.Labels(), sidecarPath
		tagged++
		t.printer.Out(out.Normal, "%s - Tagged %s.\n", displayPath, out.TagList(outcome.Tags, styles.Tag))
		t.printer.Out(out.Verbose, "  => %s %s\n", t.displayablePath(sidecarPath, false), rule)
	}
	t.printer.Out(out.Normal, "%d %s tagged.\n", tagged, out.Plural(tagged, "path", "paths"))
	return
}

// directiveFor builds the rule that attaches tags to exactly the given path and names the directory whose sidecar receives it.
// Files are matched by their exact name from the parent directory, directories tag themselves.
func directiveFor(path string, kind EntryKind, tags []string) (dir string, rule directive.Directive) {
	if kind == DirectoryEntry {
		return path, directive.NewDirTag(tags...)
	}
	return filepath.Dir(path), directive.NewTag("^"+regexp.QuoteMeta(filepath.Base(path))+"$", tags...)
}

func normalizeTags(input []string) []string {
	var tags []string
	for _, tag := range input {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return directive.Dedupe(tags)
}
