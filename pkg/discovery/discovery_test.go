package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codysoyland/hookrun/pkg/hook"
)

func writeScript(t *testing.T, dir, name string, mode os.FileMode) string {
	t.Helper()

	path := filepath.Join(dir, name)
	err := os.WriteFile(path, []byte("#!/usr/bin/env bash\necho "+name+"\n"), mode)
	require.NoError(t, err)
	return path
}

func scriptKeys(scripts []hook.Implementation) []string {
	keys := make([]string, 0, len(scripts))
	for _, s := range scripts {
		keys = append(keys, s.Key)
	}
	return keys
}

func TestScanMatchesNamingConvention(t *testing.T) {
	dir := t.TempDir()

	writeScript(t, dir, "build-20-compile", 0755)
	writeScript(t, dir, "build_10-generate", 0755)
	writeScript(t, dir, "build-", 0755)
	writeScript(t, dir, "builder-not-ours", 0755)
	writeScript(t, dir, "deploy-10-push", 0755)
	writeScript(t, dir, "build", 0755)
	writeScript(t, dir, "README.md", 0644)

	scripts, err := Scan(dir, "build")
	require.NoError(t, err)

	assert.Equal(t, []string{"build-", "build-20-compile", "build_10-generate"}, scriptKeys(scripts))
	for _, s := range scripts {
		assert.Equal(t, hook.KindScript, s.Kind)
		assert.Equal(t, hook.ModeExec, s.Mode)
		assert.Equal(t, filepath.Join(dir, s.Key), s.Path)
	}
}

func TestScanSkipsNonExecutable(t *testing.T) {
	dir := t.TempDir()

	writeScript(t, dir, "build-10-on", 0755)
	writeScript(t, dir, "build-20-off", 0644)

	scripts, err := Scan(dir, "build")
	require.NoError(t, err)

	assert.Equal(t, []string{"build-10-on"}, scriptKeys(scripts))
}

func TestScanSkipsDirectories(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.Mkdir(filepath.Join(dir, "build-subdir"), 0755))
	writeScript(t, dir, "build-10-real", 0755)

	scripts, err := Scan(dir, "build")
	require.NoError(t, err)

	assert.Equal(t, []string{"build-10-real"}, scriptKeys(scripts))
}

func TestScanSortsByBasename(t *testing.T) {
	dir := t.TempDir()

	writeScript(t, dir, "build-30-package", 0755)
	writeScript(t, dir, "build-10-generate", 0755)
	writeScript(t, dir, "build-20-compile", 0755)

	scripts, err := Scan(dir, "build")
	require.NoError(t, err)

	assert.Equal(t, []string{"build-10-generate", "build-20-compile", "build-30-package"}, scriptKeys(scripts))
}

func TestScanMissingDirectory(t *testing.T) {
	scripts, err := Scan(filepath.Join(t.TempDir(), "nope"), "build")

	require.NoError(t, err)
	assert.Empty(t, scripts)
}

func TestScanFollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	targetDir := t.TempDir()

	target := writeScript(t, targetDir, "real-script", 0755)
	require.NoError(t, os.Symlink(target, filepath.Join(dir, "build-10-linked")))

	scripts, err := Scan(dir, "build")
	require.NoError(t, err)

	assert.Equal(t, []string{"build-10-linked"}, scriptKeys(scripts))
}

func TestScanPicksUpChanges(t *testing.T) {
	dir := t.TempDir()

	path := writeScript(t, dir, "build-10-toggle", 0755)

	scripts, err := Scan(dir, "build")
	require.NoError(t, err)
	require.Len(t, scripts, 1)

	// chmod -x disables the script for the next scan
	require.NoError(t, os.Chmod(path, 0644))

	scripts, err = Scan(dir, "build")
	require.NoError(t, err)
	assert.Empty(t, scripts)
}
