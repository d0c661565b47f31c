package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/atikulmunna/logpage/internal/excerpt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "logpage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: error\n"), 0o644))
	return path
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(src, []byte("<html><ul><li>a</li>\n<li>b</li></ul></html>"), 0o644))

	out, err := execute(t, "render", src, "--config", writeConfig(t, dir), "--output", "raw")
	require.NoError(t, err)
	assert.Equal(t, "<ul><li>a</li><li>b</li></ul>"+excerpt.Attribution, out)
}

func TestRenderCommandMissingSource(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "render", filepath.Join(dir, "missing.html"), "--config", writeConfig(t, dir), "--output", "raw")
	require.Error(t, err)

	var ioErr *excerpt.IoError
	assert.ErrorAs(t, err, &ioErr)
}

func TestConfigCommand(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "config", "--config", writeConfig(t, dir), "--output", "raw")
	require.NoError(t, err)
	assert.Contains(t, out, "source: cvs/index.html")
	assert.Contains(t, out, "level: error")
}

func TestWatchCommandNoMatches(t *testing.T) {
	dir := t.TempDir()
	pattern := filepath.Join(dir, "*", "index.html")

	_, err := execute(t, "watch", pattern, "--config", writeConfig(t, dir), "--output", "raw",
		"--publish-dir", filepath.Join(dir, "public"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files matched")

	_, statErr := os.Stat(filepath.Join(dir, "public"))
	assert.True(t, os.IsNotExist(statErr), "nothing may be published")
}

func TestServeCommandInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logpage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: error\npublish:\n  interval: -1s\n"), 0o644))

	_, err := execute(t, "serve", "--config", path, "--output", "raw", "--addr", "127.0.0.1:0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish.interval")
}
