// Package capture runs individual hook implementations and records their
// stdout/stderr output as ordered, stream-tagged line sequences.
package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/codysoyland/hookrun/pkg/hook"
)

const (
	// SpawnExitCode is the reserved exit status the orchestrator substitutes
	// for an implementation the harness could not start
	SpawnExitCode = 127

	// panicExitCode matches the Go runtime's exit status for an unrecovered panic
	panicExitCode = 2

	// MaxLineBytes bounds a single captured line. A longer line stops capture
	// for that stream; the remainder is drained and discarded so the child
	// never blocks on a full pipe.
	MaxLineBytes = 1 << 20

	// termGracePeriod is how long a cancelled process group gets between
	// SIGTERM and SIGKILL
	termGracePeriod = 5 * time.Second
)

// SpawnError reports that the harness could not start an implementation:
// pipe setup or process spawn failed before any of its code ran. A non-zero
// exit from an implementation that did run is ordinary data, never a
// SpawnError.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// Harness executes one implementation at a time with intercepted output.
// Timeout, when non-zero, bounds a single run: scripts are killed with
// their whole process group, callables are expected to honor ctx. Logger
// must be set; pass zerolog.Nop() to discard diagnostics.
type Harness struct {
	Timeout time.Duration
	Logger  zerolog.Logger
}

// RunScript spawns the executable at path as a child process, drains both
// output streams concurrently into a fresh record, and waits for the exit
// status. A non-zero status is returned as data; the error is non-nil only
// when the process could not be started or collected.
func (h *Harness) RunScript(ctx context.Context, path string, args []string) (*hook.Record, int, error) {
	rec := hook.NewRecord()

	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	cmd := exec.Command(path, args...)

	// Own process group so cancellation can kill the whole tree
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return rec, 0, &SpawnError{Path: path, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return rec, 0, &SpawnError{Path: path, Err: err}
	}

	if err := cmd.Start(); err != nil {
		return rec, 0, &SpawnError{Path: path, Err: err}
	}

	done := make(chan struct{})
	go h.watchCancel(ctx, cmd, done)

	// Both streams drained concurrently so neither side can deadlock on a
	// full pipe buffer. Per-stream order is exact; interleaving between the
	// two streams is best-effort and depends on buffering in the child.
	g := new(errgroup.Group)
	g.Go(func() error {
		return drain(stdout, hook.Stdout, rec)
	})
	g.Go(func() error {
		return drain(stderr, hook.Stderr, rec)
	})
	if err := g.Wait(); err != nil {
		h.Logger.Warn().Err(err).Str("path", path).Msg("output capture truncated")
	}

	waitErr := cmd.Wait()
	close(done)

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return rec, 0, fmt.Errorf("failed to collect %s: %w", path, waitErr)
		}
	}
	return rec, exitStatus(waitErr), nil
}

// RunCallable invokes fn on its own goroutine with pipe-backed writers
// substituted for stdout/stderr, draining both into a fresh record. A
// panicking callable behaves like a crashed process: its panic message is
// recorded as a stderr line and its exit status is 2.
func (h *Harness) RunCallable(ctx context.Context, fn hook.Callable, args []string) (*hook.Record, int, error) {
	rec := hook.NewRecord()

	if fn == nil {
		return rec, 0, &SpawnError{Path: "callable", Err: errors.New("nil function")}
	}

	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	outR, outW := io.Pipe()
	errR, errW := io.Pipe()

	result := make(chan int, 1)
	go func() {
		var code int
		defer func() {
			if r := recover(); r != nil {
				rec.Append(hook.Stderr, fmt.Sprintf("panic: %v", r))
				code = panicExitCode
			}
			outW.Close()
			errW.Close()
			result <- code
		}()
		code = fn(ctx, outW, errW, args)
	}()

	g := new(errgroup.Group)
	g.Go(func() error {
		return drain(outR, hook.Stdout, rec)
	})
	g.Go(func() error {
		return drain(errR, hook.Stderr, rec)
	})
	if err := g.Wait(); err != nil {
		h.Logger.Warn().Err(err).Msg("output capture truncated")
	}

	return rec, <-result, nil
}

// watchCancel terminates the process group when ctx is cancelled before the
// command finishes. Termination escalates the way an interactive shell
// would: SIGTERM to the group, a grace period, then SIGKILL.
func (h *Harness) watchCancel(ctx context.Context, cmd *exec.Cmd, done <-chan struct{}) {
	select {
	case <-done:
		return
	case <-ctx.Done():
	}

	if cmd.Process == nil {
		return
	}
	pid := cmd.Process.Pid

	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil {
		// Group kill failed, fall back to the main process
		_ = cmd.Process.Kill()
		return
	}

	select {
	case <-done:
	case <-time.After(termGracePeriod):
		if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
			_ = cmd.Process.Kill()
		}
	}
}

// drain appends each line read from r to rec tagged with stream. On a read
// error (typically a line above MaxLineBytes) it discards the remainder so
// the writer never blocks, and reports what went wrong.
func drain(r io.Reader, stream hook.Stream, rec *hook.Record) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	for scanner.Scan() {
		rec.Append(stream, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		_, _ = io.Copy(io.Discard, r)
		return fmt.Errorf("failed to drain %s: %w", stream, err)
	}
	return nil
}

// exitStatus maps the error from Cmd.Wait to a shell-convention exit code:
// nil is 0, a signal death is 128+signal, anything else is the process's
// own status.
func exitStatus(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal())
		}
		return exitErr.ExitCode()
	}
	return SpawnExitCode
}
