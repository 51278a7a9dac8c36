package hookrun

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/codysoyland/hookrun/pkg/capture"
	"github.com/codysoyland/hookrun/pkg/hook"
)

const (
	// DefaultScriptsDir is the project-relative directory scanned for hook
	// scripts when neither WithScriptsDir nor the environment sets one
	DefaultScriptsDir = "hooks.d"

	// EnvScriptsDir is the environment variable consulted for the scripts
	// directory when WithScriptsDir is not used
	EnvScriptsDir = "HOOKRUN_HOOKS_DIR"
)

// Engine is one independent hook execution engine. Instances are
// constructed by New, carry their own registry state, and are reset only by
// an explicit Reset call.
type Engine struct {
	config  *Config
	harness *capture.Harness
	host    *hook.HostState

	mu      sync.RWMutex
	hooks   map[string]*hookState
	modes   []modeRule
	named   map[string]hook.Middleware
	sources map[string]hook.SourceFunc

	fireSeq atomic.Uint64
}

// hookState is everything attached to one declared hook
type hookState struct {
	inline     hook.Callable
	registered []hook.Implementation
	middleware hook.Middleware
}

// modeRule maps a basename pattern to an execution mode. Rules are kept in
// insertion order; the most recently set matching rule wins.
type modeRule struct {
	pattern string
	mode    hook.ExecutionMode
}

// Config holds all configuration options
type Config struct {
	// ScriptsDir is scanned fresh on every fire for executables named
	// {hook}-{suffix} or {hook}_{suffix}. When empty the engine consults
	// EnvScriptsDir and falls back to DefaultScriptsDir.
	ScriptsDir string

	// Hooks to declare at construction
	Hooks []string

	// Stdout and Stderr receive the default middleware's replayed output.
	// They default to the process's own streams.
	Stdout io.Writer
	Stderr io.Writer

	// Logger receives engine diagnostics; defaults to a no-op logger
	Logger zerolog.Logger

	// Timeout bounds a single implementation's run; zero means no bound
	Timeout time.Duration

	// Host is the mutable state handle granted to source-mode entry points.
	// Defaults to a fresh empty handle.
	Host *hook.HostState
}

// Option represents a functional option for configuration
type Option func(*Config) error
