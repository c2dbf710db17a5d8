package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n2code/tagger/internal/directive"
	"github.com/n2code/tagger/internal/settings"
)

type run struct {
	out    bytes.Buffer
	errOut bytes.Buffer
	err    error
}

func execute(t *testing.T, stdin string, args ...string) *run {
	t.Helper()
	r := &run{}
	root := newRootCommand(streams{in: strings.NewReader(stdin), out: &r.out, errOut: &r.errOut})
	root.SetArgs(args)
	r.err = root.ExecuteContext(context.Background())
	return r
}

func isolateSettings(t *testing.T) string {
	t.Helper()
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("TAGGER_DIRS", "")
	t.Setenv("TAGGER_OR", "")
	return filepath.Join(configHome, settings.AppName)
}

func tripsDir(t *testing.T) string {
	t.Helper()
	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	files := map[string]string{
		".tagger.yaml":       "- !DirTag [trips]\n- !Tag ['\\.jpg$', [photos]]\n",
		"alps.jpg":           "",
		"rome/tagger.yaml":   "- !DirTag [group-trip]\n- !Tag [colosseum, [photos, landmark]]\n",
		"rome/colosseum.png": "",
		"rome/receipt.pdf":   "",
	}
	for name, content := range files {
		path := filepath.Join(base, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return base
}

func TestQueryAllTerms(t *testing.T) {
	isolateSettings(t)
	dir := tripsDir(t)

	r := execute(t, "", "-p", "-d", dir, "photos", "land")
	require.NoError(t, r.err)
	assert.Equal(t, "photos, land:\n    - "+filepath.Join(dir, "rome", "colosseum.png")+"\n", r.out.String())
}

func TestQueryAnyTerm(t *testing.T) {
	isolateSettings(t)
	dir := tripsDir(t)

	r := execute(t, "", "--plain", "--dirs", dir, "--or", "--literal", "trips", "group-trip")
	require.NoError(t, r.err)
	out := r.out.String()
	assert.Contains(t, out, "group-trip:\n    - "+filepath.Join(dir, "rome")+"\n")
	assert.Contains(t, out, "trips:\n    - "+dir+"\n")
}

func TestQueryByNameAsTree(t *testing.T) {
	isolateSettings(t)
	dir := tripsDir(t)

	r := execute(t, "", "-p", "-d", dir, "--by-name", "--tree", `\.p`)
	require.NoError(t, r.err)
	out := r.out.String()
	assert.Contains(t, out, "colosseum.png [landmark, photos]")
	assert.Contains(t, out, "receipt.pdf")
	assert.NotContains(t, out, "alps.jpg")
}

func TestInteractiveSearch(t *testing.T) {
	isolateSettings(t)
	dir := tripsDir(t)

	r := execute(t, "landmark\n\n", "-p", "-d", dir)
	require.NoError(t, r.err)
	out := r.out.String()
	assert.True(t, strings.HasPrefix(out, searchPrompt), out)
	assert.Contains(t, out, "landmark:\n    - "+filepath.Join(dir, "rome", "colosseum.png"))
	assert.True(t, strings.HasSuffix(out, "press enter to quit\n"), out)
}

func TestTagSubcommand(t *testing.T) {
	isolateSettings(t)
	dir := tripsDir(t)

	r := execute(t, "receipts  finance\n", "tag", "-p", "-d", dir, filepath.Join(dir, "rome", "receipt.pdf"))
	require.NoError(t, r.err)
	assert.Contains(t, r.out.String(), "tags (empty to skip): ")
	assert.Contains(t, r.out.String(), "Tagged [receipts, finance].")

	content, err := os.ReadFile(filepath.Join(dir, "rome", "tagger.yaml"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "- !DirTag [group-trip]\n- !Tag [colosseum, [photos, landmark]]\n"), "existing entries kept verbatim")
	parsed, err := directive.Parse(content)
	require.NoError(t, err)
	assert.Equal(t, directive.NewTag(`^receipt\.pdf$`, "receipts", "finance"), parsed[2])

	r = execute(t, "", "-p", "-d", dir, "--literal", "finance")
	require.NoError(t, r.err)
	assert.Contains(t, r.out.String(), filepath.Join(dir, "rome", "receipt.pdf"))
}

func TestTagUntagged(t *testing.T) {
	isolateSettings(t)
	dir := tripsDir(t)

	//untagged in discovery order: rome/receipt.pdf only
	r := execute(t, "paper\n", "-p", "-d", dir, "--tag-untagged")
	require.NoError(t, r.err)
	assert.Contains(t, r.out.String(), "1 path tagged.")

	r = execute(t, "", "-p", "-d", dir, "--tag-untagged", "extra")
	assert.ErrorContains(t, r.err, "accepts no search terms")
}

func TestSettingsProvideDirs(t *testing.T) {
	configDir := isolateSettings(t)
	dir := tripsDir(t)
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, settings.FileName), []byte("dirs: ['"+dir+"/ro*']\nor: true\n"), 0o644))

	r := execute(t, "", "-p", "photos")
	require.NoError(t, r.err)
	assert.Equal(t, "photos:\n    - "+filepath.Join(dir, "rome", "colosseum.png")+"\n", r.out.String())
}

func TestExplicitDirsBypassSettings(t *testing.T) {
	configDir := isolateSettings(t)
	dir := tripsDir(t)
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, settings.FileName), []byte("or: true\ndirs: [unterminated\n"), 0o644))

	r := execute(t, "", "-p", "-d", dir, "photos", "land")
	require.NoError(t, r.err, "a broken settings file is not consulted")
	assert.Equal(t, "photos, land:\n    - "+filepath.Join(dir, "rome", "colosseum.png")+"\n", r.out.String(), "settings do not switch to any-term mode")
}

func TestUsageErrors(t *testing.T) {
	isolateSettings(t)

	r := execute(t, "", "-p", "photos")
	assert.ErrorIs(t, r.err, settings.ErrNoDirs)

	r = execute(t, "", "-v", "-q", "-d", t.TempDir(), "x")
	assert.Error(t, r.err)

	r = execute(t, "", "tag", "-d", t.TempDir())
	assert.Error(t, r.err)

	r = execute(t, "", "--config", filepath.Join(t.TempDir(), "none.yaml"), "-d", t.TempDir(), "x")
	assert.ErrorContains(t, r.err, "settings file not found")
}
