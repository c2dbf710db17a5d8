// Package report collects the non-fatal problems of one run.
//
// Nothing recorded here aborts a walk: each diagnostic names the directory, sidecar file or
// path it concerns and wraps one of the sentinel errors so callers can use errors.Is.
package report

import (
	"errors"
	"fmt"
	"strings"
)

type Severity string

const (
	Warning Severity = "warning"
	Failure Severity = "error"
)

type Kind string

const (
	MalformedDirective Kind = "malformed-directive"
	InvalidPattern     Kind = "invalid-pattern"
	CycleDetected      Kind = "cycle-detected"
	ShadowedSidecar    Kind = "shadowed-sidecar"
	UnreadableEntry    Kind = "unreadable-entry"
	PersistFailed      Kind = "persist-failed"
)

type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Path     string //absolute, system-native
	Position int    //1-based element position inside a sidecar file, 0 if not applicable
	Cause    error
}

func (d Diagnostic) Error() string {
	var msg strings.Builder
	fmt.Fprintf(&msg, "%s (%s)", d.Kind, d.Path)
	if d.Position > 0 {
		fmt.Fprintf(&msg, " element #%d", d.Position)
	}
	if d.Cause != nil {
		fmt.Fprint(&msg, ": ", d.Cause)
	}
	return msg.String()
}

func (d Diagnostic) Unwrap() error {
	return d.Cause
}

// Report is the run-level list of diagnostics in the order they occurred.
type Report struct {
	Diagnostics []Diagnostic
}

func (r *Report) Add(d Diagnostic) {
	if d.Severity == "" {
		d.Severity = Failure
	}
	r.Diagnostics = append(r.Diagnostics, d)
}

func (r *Report) Warn(kind Kind, path string, cause error) {
	r.Add(Diagnostic{Kind: kind, Severity: Warning, Path: path, Cause: cause})
}

func (r *Report) Fail(kind Kind, path string, cause error) {
	r.Add(Diagnostic{Kind: kind, Severity: Failure, Path: path, Cause: cause})
}

// Merge appends all diagnostics of other.
func (r *Report) Merge(other Report) {
	r.Diagnostics = append(r.Diagnostics, other.Diagnostics...)
}

func (r *Report) Empty() bool {
	return len(r.Diagnostics) == 0
}

// Count returns the number of diagnostics of the given severity.
func (r *Report) Count(severity Severity) (n int) {
	for _, d := range r.Diagnostics {
		if d.Severity == severity {
			n++
		}
	}
	return
}

// Filter returns all diagnostics whose cause matches target according to errors.Is.
func (r *Report) Filter(target error) (matching []Diagnostic) {
	for _, d := range r.Diagnostics {
		if errors.Is(d, target) {
			matching = append(matching, d)
		}
	}
	return
}
