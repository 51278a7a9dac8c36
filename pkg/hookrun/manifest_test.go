package hookrun

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codysoyland/hookrun/pkg/hook"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "hooks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, `version: "1"
hooks_dir: scripts/hooks.d
hooks:
  - name: build
  - name: deploy
modes:
  - pattern: "deploy_local*"
    mode: source
`)

	m, err := LoadManifest(path)
	require.NoError(t, err)

	assert.Equal(t, "1", m.Version)
	assert.Equal(t, "scripts/hooks.d", m.HooksDir)
	assert.Equal(t, []ManifestHook{{Name: "build"}, {Name: "deploy"}}, m.Hooks)
	assert.Equal(t, []ManifestMode{{Pattern: "deploy_local*", Mode: "source"}}, m.Modes)
}

func TestLoadManifestMissingFile(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadManifestRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "not yaml",
			content: "hooks: [unclosed\n",
		},
		{
			name: "unknown top-level key",
			content: `version: "1"
middleware: nope
`,
		},
		{
			name: "bogus mode value",
			content: `modes:
  - pattern: "deploy*"
    mode: inline
`,
		},
		{
			name: "mode rule without pattern",
			content: `modes:
  - mode: source
`,
		},
		{
			name: "hook without name",
			content: `hooks:
  - {}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, tt.content)

			_, err := LoadManifest(path)
			assert.Error(t, err)
		})
	}
}

func TestApplyManifest(t *testing.T) {
	e := newTestEngine(t)

	m := &Manifest{
		HooksDir: "manifest/hooks.d",
		Hooks:    []ManifestHook{{Name: "build"}, {Name: "deploy"}},
		Modes:    []ManifestMode{{Pattern: "deploy_local*", Mode: "source"}},
	}
	require.NoError(t, e.ApplyManifest(m))

	assert.Equal(t, []string{"build", "deploy"}, e.Hooks())
	assert.Equal(t, "manifest/hooks.d", e.ScriptsDir())
	assert.Equal(t, hook.ModeSource, e.ModeFor("deploy_local-10"))
}

func TestApplyManifestErrors(t *testing.T) {
	e := newTestEngine(t)

	assert.Error(t, e.ApplyManifest(nil))

	// a hand-built manifest can carry a mode the schema would have rejected
	err := e.ApplyManifest(&Manifest{
		Modes: []ManifestMode{{Pattern: "x*", Mode: "inline"}},
	})
	assert.Error(t, err)
}

func TestApplyManifestKeepsDirWhenUnset(t *testing.T) {
	e := newTestEngine(t)
	dir := e.ScriptsDir()

	require.NoError(t, e.ApplyManifest(&Manifest{Hooks: []ManifestHook{{Name: "build"}}}))
	assert.Equal(t, dir, e.ScriptsDir())
}
