package tagger

import (
	"testing"

	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n2code/tagger/internal/directive"
	"github.com/n2code/tagger/internal/report"
	"github.com/n2code/tagger/internal/sidecar"
)

// cannedAnswers replies in order and records every request.
func cannedAnswers(requests *[]PromptRequest, answers ...[]string) RequestTags {
	return func(request PromptRequest) ([]string, bool) {
		*requests = append(*requests, request)
		if len(answers) == 0 {
			return nil, true
		}
		answer := answers[0]
		answers = answers[1:]
		return answer, false
	}
}

func loadDirectives(t *testing.T, f fixture, dir string) []directive.Directive {
	t.Helper()
	loaded, err := sidecar.NewLoader(f.fs).Load(dir)
	require.NoError(t, err)
	return loaded.Directives
}

func TestInteractiveTagFile(t *testing.T) {
	fs := memTree(t, map[string]string{
		"/album/.tagger.yaml":    "- !DirTag [album]\n",
		"/album/beach (1).jpg":   "",
		"/album/beach (1).jpg.x": "",
	})
	f := open(t, fs, DefaultVerbosity, "/album")

	var requests []PromptRequest
	outcomes, cancelled := f.tagger.InteractiveTag([]string{"/album/beach (1).jpg"}, cannedAnswers(&requests, []string{"group-trip", " photos ", "group-trip"}))
	assert.False(t, cancelled)
	require.Len(t, outcomes, 1)
	assert.Equal(t, Tagged, outcomes[0].State)
	assert.Equal(t, FileEntry, outcomes[0].Kind)
	assert.Equal(t, []string{"group-trip", "photos"}, outcomes[0].Tags)
	assert.Equal(t, "/album/.tagger.yaml", outcomes[0].Sidecar)
	assert.NoError(t, outcomes[0].Err)
	assert.Equal(t, []PromptRequest{{Path: "/album/beach (1).jpg", Display: "/album/beach (1).jpg", Kind: FileEntry}}, requests)

	tags, err := f.tagger.TagsOf("/album/beach (1).jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"group-trip", "photos"}, tags)
	tags, err = f.tagger.TagsOf("/album/beach (1).jpg.x")
	require.NoError(t, err)
	assert.Empty(t, tags, "pattern is anchored")

	assert.Equal(t, []directive.Directive{
		directive.NewDirTag("album"),
		directive.NewTag(`^beach \(1\)\.jpg$`, "group-trip", "photos"),
	}, loadDirectives(t, f, "/album"))

	rebuilt := open(t, fs, QuietMode, "/album")
	assert.Equal(t, f.tagger.index.Snapshot(), rebuilt.tagger.index.Snapshot(), "disk and memory agree")
}

func TestInteractiveTagDirectoryCreatesSidecar(t *testing.T) {
	fs := memTree(t, map[string]string{
		"/docs/taxes/2023.pdf": "",
	})
	f := open(t, fs, DefaultVerbosity, "/docs")

	var requests []PromptRequest
	outcomes, cancelled := f.tagger.InteractiveTag([]string{"/docs/taxes"}, cannedAnswers(&requests, []string{"finance"}))
	assert.False(t, cancelled)
	require.Len(t, outcomes, 1)
	assert.Equal(t, DirectoryEntry, outcomes[0].Kind)
	assert.Equal(t, Tagged, outcomes[0].State)
	assert.Equal(t, "/docs/taxes/.tagger.yaml", outcomes[0].Sidecar)

	content, err := util.ReadFile(fs, "/docs/taxes/.tagger.yaml")
	require.NoError(t, err)
	assert.Equal(t, "- !DirTag [finance]\n", string(content))
	tags, err := f.tagger.TagsOf("/docs/taxes")
	require.NoError(t, err)
	assert.Equal(t, []string{"finance"}, tags)
}

func TestInteractiveTagUntagged(t *testing.T) {
	fs := memTree(t, map[string]string{
		"/r/.tagger.yaml": "- !DirTag [root]\n- !Tag [done, [done]]\n",
		"/r/done.txt":     "",
		"/r/a.txt":        "",
		"/r/b.txt":        "",
		"/r/sub/c.txt":    "",
	})
	f := open(t, fs, QuietMode, "/r")
	require.Equal(t, []string{"/r/a.txt", "/r/b.txt", "/r/sub", "/r/sub/c.txt"}, f.tagger.Untagged())

	var requests []PromptRequest
	outcomes, cancelled := f.tagger.InteractiveTag(nil, cannedAnswers(&requests, []string{"alpha"}, nil, []string{"  "}))
	assert.True(t, cancelled, "answers ran out")
	require.Len(t, outcomes, 4)
	assert.Equal(t, []State{Tagged, Skipped, Skipped, Pending}, []State{outcomes[0].State, outcomes[1].State, outcomes[2].State, outcomes[3].State})
	assert.Len(t, requests, 4)
	assert.Equal(t, DirectoryEntry, requests[2].Kind)

	assert.Equal(t, []string{"/r/b.txt", "/r/sub", "/r/sub/c.txt"}, f.tagger.Untagged())
	exists, err := util.FileExists(fs, "/r/sub/.tagger.yaml")
	require.NoError(t, err)
	assert.False(t, exists, "skipping writes nothing")
}

func TestInteractiveTagPersistFailureIsIsolated(t *testing.T) {
	fs := memTree(t, map[string]string{
		"/m/broken/tagger.yaml": "not: a sequence\n",
		"/m/broken/file.txt":    "",
		"/m/fine/file.txt":      "",
	})
	f := open(t, fs, QuietMode, "/m")
	walkProblems := len(f.tagger.Report().Diagnostics)

	var requests []PromptRequest
	outcomes, cancelled := f.tagger.InteractiveTag([]string{"/m/broken/file.txt", "/m/unknown", "/m/fine/file.txt"}, cannedAnswers(&requests, []string{"x"}, []string{"y"}))
	assert.False(t, cancelled)
	require.Len(t, outcomes, 3)

	assert.Equal(t, Prompted, outcomes[0].State)
	assert.ErrorIs(t, outcomes[0].Err, report.ErrPersistFailed)
	assert.ErrorIs(t, outcomes[1].Err, report.ErrNotFound)
	assert.Equal(t, Pending, outcomes[1].State)
	assert.Equal(t, Tagged, outcomes[2].State)
	assert.Len(t, requests, 2, "unknown paths are not prompted")

	tags, err := f.tagger.TagsOf("/m/broken/file.txt")
	require.NoError(t, err)
	assert.Empty(t, tags, "index unchanged after failed write")
	tags, err = f.tagger.TagsOf("/m/fine/file.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, tags)

	content, err := util.ReadFile(fs, "/m/broken/tagger.yaml")
	require.NoError(t, err)
	assert.Equal(t, "not: a sequence\n", string(content))

	rep := f.tagger.Report()
	failed := rep.Filter(report.ErrPersistFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, "/m/broken/tagger.yaml", failed[0].Path)
	assert.Len(t, rep.Diagnostics, walkProblems+1)
	assert.Contains(t, f.stderr.String(), "tagging failed")
}

func TestDirectiveFor(t *testing.T) {
	dir, rule := directiveFor("/a/b.c", FileEntry, []string{"t"})
	assert.Equal(t, "/a", dir)
	assert.Equal(t, directive.NewTag(`^b\.c$`, "t"), rule)

	dir, rule = directiveFor("/a/b.c", DirectoryEntry, []string{"t"})
	assert.Equal(t, "/a/b.c", dir)
	assert.Equal(t, directive.NewDirTag("t"), rule)
}

func TestNormalizeTags(t *testing.T) {
	assert.Empty(t, normalizeTags(nil))
	assert.Empty(t, normalizeTags([]string{"", "  "}))
	assert.Equal(t, []string{"a", "b"}, normalizeTags([]string{" a", "b ", "a"}))
}
