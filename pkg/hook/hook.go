// Package hook defines the data model shared by the engine, the capture
// harness, and middleware: implementation variants, execution modes, the
// stream-tagged capture record, and the callable signatures.
package hook

import (
	"context"
	"fmt"
	"io"
)

// Callable is an in-process hook implementation. The capture harness
// supplies the stdout/stderr writers so output is intercepted without
// touching the host's own streams. The returned value is treated as a
// process exit code.
type Callable func(ctx context.Context, stdout, stderr io.Writer, args []string) int

// SourceFunc is the entry point for a script that runs in source mode. It
// executes in the host's own context with direct access to host state;
// nothing it does is captured or passed through middleware.
type SourceFunc func(ctx context.Context, host *HostState, path string, args []string) int

// Middleware receives one captured implementation's record and exit code
// and decides what the caller ultimately observes. The record is only valid
// for the duration of the call; copy any lines that must outlive it.
type Middleware func(hookName string, exitCode int, rec *Record, args ...string) int

// ExecutionMode controls how a discovered script runs
type ExecutionMode string

const (
	// ModeExec runs the script as an isolated child process with captured output
	ModeExec ExecutionMode = "exec"

	// ModeSource invokes the script's registered entry point inside the host
	// process, bypassing capture and middleware
	ModeSource ExecutionMode = "source"
)

// ParseMode converts the string form of an execution mode
func ParseMode(s string) (ExecutionMode, error) {
	switch ExecutionMode(s) {
	case ModeExec:
		return ModeExec, nil
	case ModeSource:
		return ModeSource, nil
	}
	return "", fmt.Errorf("unknown execution mode %q", s)
}

// Kind tags the three implementation variants
type Kind int

const (
	KindInline Kind = iota
	KindRegistered
	KindScript
)

func (k Kind) String() string {
	switch k {
	case KindInline:
		return "inline"
	case KindRegistered:
		return "registered"
	case KindScript:
		return "script"
	}
	return "unknown"
}

// Implementation is one entry attached to a hook. Key is the sort key that
// orders it among its siblings: the registration key for callables, the
// basename for scripts. Fn is set for inline and registered callables,
// Path for scripts.
type Implementation struct {
	Kind Kind
	Key  string
	Fn   Callable
	Path string
	Mode ExecutionMode
}
