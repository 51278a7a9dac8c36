package capture

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codysoyland/hookrun/pkg/hook"
)

// createTestScript writes an executable bash script for testing
func createTestScript(t *testing.T, content string) string {
	t.Helper()

	tmpFile, err := os.CreateTemp(t.TempDir(), "capture_test_*.sh")
	require.NoError(t, err)

	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())
	require.NoError(t, os.Chmod(tmpFile.Name(), 0755))

	return tmpFile.Name()
}

func newTestHarness() *Harness {
	return &Harness{Logger: zerolog.Nop()}
}

func streamLines(rec *hook.Record, stream hook.Stream) []string {
	var out []string
	for _, line := range rec.Lines() {
		if line.Stream == stream {
			out = append(out, line.Text)
		}
	}
	return out
}

func TestRunCallableCapturesBothStreams(t *testing.T) {
	h := newTestHarness()

	fn := func(ctx context.Context, stdout, stderr io.Writer, args []string) int {
		io.WriteString(stdout, "first\n")
		io.WriteString(stderr, "warning\n")
		io.WriteString(stdout, "second\n")
		return 4
	}

	rec, code, err := h.RunCallable(context.Background(), fn, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, code)
	assert.Equal(t, []string{"first", "second"}, streamLines(rec, hook.Stdout))
	assert.Equal(t, []string{"warning"}, streamLines(rec, hook.Stderr))
	assert.Equal(t, 3, rec.Len())
}

func TestRunCallableReceivesArgs(t *testing.T) {
	h := newTestHarness()

	var got []string
	fn := func(ctx context.Context, stdout, stderr io.Writer, args []string) int {
		got = args
		return 0
	}

	_, code, err := h.RunCallable(context.Background(), fn, []string{"--target", "prod"})
	require.NoError(t, err)

	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"--target", "prod"}, got)
}

func TestRunCallablePanicBehavesLikeCrash(t *testing.T) {
	h := newTestHarness()

	fn := func(ctx context.Context, stdout, stderr io.Writer, args []string) int {
		io.WriteString(stdout, "before the fall\n")
		panic("boom")
	}

	rec, code, err := h.RunCallable(context.Background(), fn, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, code)
	assert.Equal(t, []string{"before the fall"}, streamLines(rec, hook.Stdout))
	assert.Equal(t, []string{"panic: boom"}, streamLines(rec, hook.Stderr))
}

func TestRunCallableNilFunction(t *testing.T) {
	h := newTestHarness()

	_, _, err := h.RunCallable(context.Background(), nil, nil)

	var spawnErr *SpawnError
	require.ErrorAs(t, err, &spawnErr)
}

func TestRunCallableTimeoutCancelsContext(t *testing.T) {
	h := &Harness{Timeout: 50 * time.Millisecond, Logger: zerolog.Nop()}

	fn := func(ctx context.Context, stdout, stderr io.Writer, args []string) int {
		<-ctx.Done()
		return 9
	}

	_, code, err := h.RunCallable(context.Background(), fn, nil)
	require.NoError(t, err)
	assert.Equal(t, 9, code)
}

func TestRunScriptCapturesOutputAndExitCode(t *testing.T) {
	h := newTestHarness()

	scriptPath := createTestScript(t, `#!/usr/bin/env bash
echo "compiling"
echo "link error" >&2
echo "done"
exit 3
`)

	rec, code, err := h.RunScript(context.Background(), scriptPath, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, code)
	assert.Equal(t, []string{"compiling", "done"}, streamLines(rec, hook.Stdout))
	assert.Equal(t, []string{"link error"}, streamLines(rec, hook.Stderr))
}

func TestRunScriptPassesArgs(t *testing.T) {
	h := newTestHarness()

	scriptPath := createTestScript(t, `#!/usr/bin/env bash
echo "arg1=$1 arg2=$2"
`)

	rec, code, err := h.RunScript(context.Background(), scriptPath, []string{"alpha", "beta"})
	require.NoError(t, err)

	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"arg1=alpha arg2=beta"}, streamLines(rec, hook.Stdout))
}

func TestRunScriptSpawnFailures(t *testing.T) {
	h := newTestHarness()
	tmpDir := t.TempDir()

	notExecutable := filepath.Join(tmpDir, "script.sh")
	require.NoError(t, os.WriteFile(notExecutable, []byte("#!/usr/bin/env bash\n"), 0644))

	tests := []struct {
		name string
		path string
	}{
		{name: "missing file", path: filepath.Join(tmpDir, "does-not-exist")},
		{name: "no executable bit", path: notExecutable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := h.RunScript(context.Background(), tt.path, nil)

			var spawnErr *SpawnError
			require.ErrorAs(t, err, &spawnErr)
			assert.Equal(t, tt.path, spawnErr.Path)
		})
	}
}

func TestRunScriptNonZeroExitIsNotAnError(t *testing.T) {
	h := newTestHarness()

	tests := []struct {
		name     string
		script   string
		wantCode int
	}{
		{name: "clean exit", script: "#!/usr/bin/env bash\nexit 0\n", wantCode: 0},
		{name: "failure exit", script: "#!/usr/bin/env bash\nexit 7\n", wantCode: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scriptPath := createTestScript(t, tt.script)

			_, code, err := h.RunScript(context.Background(), scriptPath, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestRunScriptTimeoutKillsProcess(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping timeout test in short mode")
	}

	h := &Harness{Timeout: 100 * time.Millisecond, Logger: zerolog.Nop()}

	scriptPath := createTestScript(t, `#!/usr/bin/env bash
echo "starting"
sleep 10
echo "never reached"
`)

	start := time.Now()
	rec, code, err := h.RunScript(context.Background(), scriptPath, nil)
	require.NoError(t, err)

	// SIGTERM to the process group reads as 128+15
	assert.Equal(t, 143, code)
	assert.Equal(t, []string{"starting"}, streamLines(rec, hook.Stdout))
	assert.Less(t, time.Since(start), 5*time.Second)
}
