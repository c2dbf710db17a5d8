package index

import (
	"context"
	"fmt"
	"regexp"

	"github.com/n2code/tagger/internal/directive"
	"github.com/n2code/tagger/internal/report"
	"github.com/n2code/tagger/internal/walk"
)

// Builder folds the directives of visited directories into an index.
type Builder struct {
	index  *Index
	report report.Report
}

func NewBuilder(ix *Index) *Builder {
	return &Builder{index: ix}
}

// Apply registers the directory and its files, then applies the directory's own directives.
// Tag patterns are only evaluated against names of direct file entries, never against directories.
// A pattern that does not compile is reported and skipped, the remaining directives still apply.
func (b *Builder) Apply(dir walk.Directory) {
	b.index.Visit(dir.Path, true)
	files := dir.Files()
	for _, file := range files {
		b.index.Visit(file.Path, false)
	}

	for i, d := range dir.Sidecar.Directives {
		switch rule := d.(type) {
		case directive.DirTag:
			_ = b.index.Add(dir.Path, rule.Tags...)
		case directive.Tag:
			matcher, err := regexp.Compile(rule.Pattern)
			if err != nil {
				b.report.Add(report.Diagnostic{
					Kind:     report.InvalidPattern,
					Path:     dir.Sidecar.Path,
					Position: i + 1,
					Cause:    fmt.Errorf("%w: %s", report.ErrInvalidPattern, err),
				})
				continue
			}
			for _, file := range files {
				if matcher.MatchString(file.Name) {
					_ = b.index.Add(file.Path, rule.Tags...)
				}
			}
		}
	}
}

func (b *Builder) Report() report.Report {
	return b.report
}

// Build walks the roots and returns the resulting index along with every problem encountered.
// On cancellation the index holds all directories completed so far.
func Build(ctx context.Context, walker *walk.Walker, roots []string) (*Index, report.Report, error) {
	ix := New()
	builder := NewBuilder(ix)
	rep, err := walker.Walk(ctx, roots, builder.Apply)
	rep.Merge(builder.Report())
	return ix, rep, err
}
