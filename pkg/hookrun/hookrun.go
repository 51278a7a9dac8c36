// Package hookrun provides a hook execution engine: a host declares named
// extension points, attaches in-process callables and on-disk scripts to
// them, and fires each hook to run every attached implementation in one
// merged alphabetical order with captured output flowing through pluggable
// middleware.
package hookrun

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/codysoyland/hookrun/pkg/capture"
	"github.com/codysoyland/hookrun/pkg/discovery"
	"github.com/codysoyland/hookrun/pkg/hook"
)

// Fire constructs a throwaway engine, declares hookName, and fires it once
// with the default middleware (simple API for script-only hosts)
func Fire(ctx context.Context, hookName string, args []string, opts ...Option) (int, error) {
	e, err := New(opts...)
	if err != nil {
		return 0, err
	}
	e.Declare(hookName)
	return e.Fire(ctx, hookName, args...)
}

// New creates a new engine instance
func New(opts ...Option) (*Engine, error) {
	config := &Config{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: zerolog.Nop(),
	}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if config.ScriptsDir == "" {
		config.ScriptsDir = os.Getenv(EnvScriptsDir)
	}
	if config.ScriptsDir == "" {
		config.ScriptsDir = DefaultScriptsDir
	}
	if config.Host == nil {
		config.Host = hook.NewHostState()
	}

	e := &Engine{
		config: config,
		harness: &capture.Harness{
			Timeout: config.Timeout,
			Logger:  config.Logger,
		},
		host:    config.Host,
		hooks:   make(map[string]*hookState),
		named:   make(map[string]hook.Middleware),
		sources: make(map[string]hook.SourceFunc),
	}
	e.Declare(config.Hooks...)
	return e, nil
}

// fireState is the registry snapshot one fire works from, taken under the
// read lock so registry mutations during the fire cannot race it
type fireState struct {
	dir        string
	inline     hook.Callable
	registered []hook.Implementation
	middleware hook.Middleware
	modes      []modeRule
	sources    map[string]hook.SourceFunc
}

// Fire runs every implementation attached to hookName: the inline callable
// first when bound, then all registered callables and freshly discovered
// scripts merged into one sequence sorted alphabetically by sort key.
// Captured results pass through the hook's middleware; source-mode scripts
// instead run their registered entry point in-process, with no capture and
// no middleware. The returned code is the last implementation's effective
// exit code, 0 when nothing was attached. The only error is ErrUnknownHook;
// implementation failures travel in the exit code, never the error.
func (e *Engine) Fire(ctx context.Context, hookName string, args ...string) (int, error) {
	snap, err := e.snapshot(hookName)
	if err != nil {
		return 0, err
	}

	logger := e.config.Logger.With().
		Str("hook", hookName).
		Str("fire_id", uuid.NewString()).
		Uint64("fire_seq", e.fireSeq.Add(1)).
		Logger()

	logger.Debug().Strs("args", args).Str("dir", snap.dir).Msg("firing hook")

	mw := snap.middleware
	if mw == nil {
		mw = e.defaultMiddleware()
		logger.Debug().Str("middleware", "default").Msg("resolved middleware")
	} else {
		logger.Debug().Str("middleware", "custom").Msg("resolved middleware")
	}

	ran := false
	last := 0

	if snap.inline != nil {
		inline := hook.Implementation{Kind: hook.KindInline, Key: hookName, Fn: snap.inline}
		last = e.dispatchCaptured(ctx, logger, mw, hookName, inline, args)
		ran = true
	}

	scripts, err := discovery.Scan(snap.dir, hookName)
	if err != nil {
		logger.Warn().Err(err).Msg("script discovery failed")
	}

	// One merged sequence across both kinds: a registered callable keyed
	// "05-init" runs before a script named "10-deploy.sh"
	merged := make([]hook.Implementation, 0, len(snap.registered)+len(scripts))
	merged = append(merged, snap.registered...)
	merged = append(merged, scripts...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Key < merged[j].Key
	})

	for _, impl := range merged {
		if impl.Kind == hook.KindScript {
			impl.Mode = resolveMode(snap.modes, impl.Key)
			if impl.Mode == hook.ModeSource {
				last = e.dispatchSource(ctx, logger, snap, impl, args)
				ran = true
				continue
			}
		}
		last = e.dispatchCaptured(ctx, logger, mw, hookName, impl, args)
		ran = true
	}

	if !ran {
		logger.Info().Msg("no implementations found")
		return 0, nil
	}

	logger.Debug().Int("exit", last).Msg("hook completed")
	return last, nil
}

// snapshot copies everything one fire needs out of the registry
func (e *Engine) snapshot(hookName string) (*fireState, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st, ok := e.hooks[hookName]
	if !ok {
		return nil, fmt.Errorf("failed to fire: %w %q", ErrUnknownHook, hookName)
	}

	snap := &fireState{
		dir:        e.config.ScriptsDir,
		inline:     st.inline,
		registered: make([]hook.Implementation, len(st.registered)),
		middleware: st.middleware,
		modes:      make([]modeRule, len(e.modes)),
		sources:    make(map[string]hook.SourceFunc, len(e.sources)),
	}
	copy(snap.registered, st.registered)
	copy(snap.modes, e.modes)
	for k, v := range e.sources {
		snap.sources[k] = v
	}
	return snap, nil
}

// dispatchCaptured runs one implementation through the capture harness and
// its record through mw, releasing the record once mw returns. A harness
// failure is fatal for this implementation only: it is logged and
// substituted with the reserved spawn exit code, and the fire moves on.
func (e *Engine) dispatchCaptured(ctx context.Context, logger zerolog.Logger, mw hook.Middleware, hookName string, impl hook.Implementation, args []string) int {
	var (
		rec  *hook.Record
		code int
		err  error
	)
	if impl.Kind == hook.KindScript {
		rec, code, err = e.harness.RunScript(ctx, impl.Path, args)
	} else {
		rec, code, err = e.harness.RunCallable(ctx, impl.Fn, args)
	}
	if err != nil {
		logger.Error().Err(err).
			Str("impl", impl.Key).
			Str("kind", impl.Kind.String()).
			Msg("harness could not run implementation")
		code = capture.SpawnExitCode
	}

	defer rec.Release()
	effective := mw(hookName, code, rec, args...)

	logger.Debug().
		Str("impl", impl.Key).
		Str("kind", impl.Kind.String()).
		Int("exit", code).
		Int("effective", effective).
		Msg("implementation completed")
	return effective
}

// dispatchSource invokes a source-mode script's registered entry point in
// the host process with the mutable host state handle. No capture, no
// middleware; whatever it mutates is visible immediately. A script with no
// registered entry point reports the reserved spawn exit code.
func (e *Engine) dispatchSource(ctx context.Context, logger zerolog.Logger, snap *fireState, impl hook.Implementation, args []string) int {
	fn, ok := snap.sources[impl.Key]
	if !ok {
		logger.Error().
			Str("impl", impl.Key).
			Msg("no source entry point registered for script")
		return capture.SpawnExitCode
	}

	code := fn(ctx, e.host, impl.Path, args)

	logger.Debug().
		Str("impl", impl.Key).
		Str("mode", string(hook.ModeSource)).
		Int("exit", code).
		Msg("source entry point completed")
	return code
}

// defaultMiddleware replays the record to the engine's configured streams,
// stdout lines to stdout and stderr lines to stderr in observed order, and
// returns the exit code unchanged
func (e *Engine) defaultMiddleware() hook.Middleware {
	return func(hookName string, exitCode int, rec *hook.Record, args ...string) int {
		if err := rec.Replay(e.config.Stdout, e.config.Stderr); err != nil {
			e.config.Logger.Warn().Err(err).Str("hook", hookName).Msg("failed to replay captured output")
		}
		return exitCode
	}
}
