package report

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportFilterUsesWrappedSentinels(t *testing.T) {
	var r Report
	r.Add(Diagnostic{Kind: InvalidPattern, Path: "/p/.tagger.yaml", Position: 2, Cause: fmt.Errorf("%w: missing ]", ErrInvalidPattern)})
	r.Warn(CycleDetected, "/p/loop", ErrCycleDetected)

	require.Len(t, r.Diagnostics, 2)
	assert.Equal(t, Failure, r.Diagnostics[0].Severity, "severity defaults to failure")
	assert.Equal(t, 1, r.Count(Warning))
	assert.Equal(t, 1, r.Count(Failure))

	patterns := r.Filter(ErrInvalidPattern)
	require.Len(t, patterns, 1)
	assert.Equal(t, 2, patterns[0].Position)
	assert.Empty(t, r.Filter(ErrPersistFailed))
	assert.True(t, errors.Is(r.Diagnostics[1], ErrCycleDetected))
}

func TestDiagnosticMessage(t *testing.T) {
	d := Diagnostic{Kind: MalformedDirective, Path: "/x/.tagger.yaml", Position: 3, Cause: ErrMalformedDirective}
	assert.Equal(t, "malformed-directive (/x/.tagger.yaml) element #3: malformed directive", d.Error())

	d = Diagnostic{Kind: CycleDetected, Path: "/x/loop"}
	assert.Equal(t, "cycle-detected (/x/loop)", d.Error())
}

func TestMerge(t *testing.T) {
	var a, b Report
	a.Warn(ShadowedSidecar, "/a", nil)
	b.Fail(PersistFailed, "/b", ErrPersistFailed)
	a.Merge(b)
	assert.Len(t, a.Diagnostics, 2)
	assert.False(t, a.Empty())
}
