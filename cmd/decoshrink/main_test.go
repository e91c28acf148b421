package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wouteroostervld/decoshrink/pkg/config"
)

const fieldSource = `class C {}
_ts_decorate([
    (0, _graphql.Field)(()=>String)
], C.prototype, "name", void 0);
`

const fieldRewritten = `class C {}
_ts_decorate([
    (0, _graphql.Field)(String)
], C.prototype, "name", void 0);
`

// setup writes one decorated file and an empty config document into a
// temp dir and returns the dir plus the global flags pointing at them
func setup(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "field.js"), []byte(fieldSource), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".decoshrinkrc.json"), []byte("{}"), 0644))

	return dir, []string{
		"--settings", filepath.Join(dir, "missing-settings.yaml"),
		"--config", filepath.Join(dir, ".decoshrinkrc.json"),
		"--no-cache",
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRewriteCheck(t *testing.T) {
	dir, global := setup(t)

	out, err := execute(t, "", append([]string{"rewrite", "--check", dir}, global...)...)
	assert.ErrorIs(t, err, errWouldChange)
	assert.Contains(t, out, "would change: "+filepath.Join(dir, "field.js"))

	data, err := os.ReadFile(filepath.Join(dir, "field.js"))
	require.NoError(t, err)
	assert.Equal(t, fieldSource, string(data), "check must not write")
}

func TestRewriteWrite(t *testing.T) {
	dir, global := setup(t)

	_, err := execute(t, "", append([]string{"rewrite", "--write", dir}, global...)...)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "field.js"))
	require.NoError(t, err)
	assert.Equal(t, fieldRewritten, string(data))

	_, err = execute(t, "", append([]string{"rewrite", "--check", dir}, global...)...)
	assert.NoError(t, err, "rewritten tree is stable")
}

func TestRewriteJSONSummary(t *testing.T) {
	dir, global := setup(t)

	out, err := execute(t, "", append([]string{"rewrite", "--json", dir}, global...)...)
	require.NoError(t, err)

	var summary struct {
		Files       int      `json:"files"`
		WouldChange []string `json:"wouldChange"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 1, summary.Files)
	assert.Len(t, summary.WouldChange, 1)
}

func TestRewriteStdin(t *testing.T) {
	_, global := setup(t)

	out, err := execute(t, fieldSource, append([]string{"rewrite", "-"}, global...)...)
	require.NoError(t, err)
	assert.Equal(t, fieldRewritten, out)
}

func TestRewriteFlagsExclusive(t *testing.T) {
	dir, global := setup(t)

	_, err := execute(t, "", append([]string{"rewrite", "--write", "--check", dir}, global...)...)
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	dir, global := setup(t)
	doc := `{"stripMetadata": false, "overrides": [{"files": ["gen/**"], "config": {"stripMetadata": true}}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".decoshrinkrc.json"), []byte(doc), 0644))

	out, err := execute(t, "", append([]string{"resolve", filepath.Join(dir, "gen", "a.js")}, global...)...)
	require.NoError(t, err)

	var got resolveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Flags.StripMetadata)
	assert.True(t, got.Flags.UnwrapTypeArrows)
	assert.False(t, got.Flags.SimplifyDesignTypeTypeofs)

	out, err = execute(t, "", append([]string{"resolve", filepath.Join(dir, "field.js")}, global...)...)
	require.NoError(t, err)
	got = resolveOutput{}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, config.DefaultOptions().Flags(), got.Flags)
}

func TestCacheCommands(t *testing.T) {
	dir := t.TempDir()
	settings := filepath.Join(dir, "settings.yaml")
	cacheDB := filepath.Join(dir, "cache.db")
	require.NoError(t, os.WriteFile(settings, []byte("cache_db: "+cacheDB+"\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "field.js"), []byte(fieldSource), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".decoshrinkrc.json"), []byte("{}"), 0644))
	global := []string{"--settings", settings, "--config", filepath.Join(dir, ".decoshrinkrc.json")}

	_, err := execute(t, "", append([]string{"rewrite", "--write", dir}, global...)...)
	require.NoError(t, err)

	out, err := execute(t, "", append([]string{"cache", "stats"}, global...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Files:     1")
	assert.Contains(t, out, "rewritten:")

	out, err = execute(t, "", append([]string{"cache", "clear"}, global...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared "+cacheDB)

	out, err = execute(t, "", append([]string{"cache", "stats"}, global...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Files:     0")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "decoshrink version dev")
}
