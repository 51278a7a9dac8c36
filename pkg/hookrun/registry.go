package hookrun

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/codysoyland/hookrun/pkg/hook"
)

// Declare marks each name as a known hook. Redeclaring an existing hook is
// a no-op, not an error: the hook keeps its registrations and bindings.
func (e *Engine) Declare(names ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, name := range names {
		if _, ok := e.hooks[name]; !ok {
			e.hooks[name] = &hookState{}
		}
	}
}

// Register attaches a callable to a declared hook under a sort key. The
// key orders the callable among the hook's other implementations and need
// not be unique; ties keep registration order.
func (e *Engine) Register(hookName, sortKey string, fn hook.Callable) error {
	if fn == nil {
		return fmt.Errorf("failed to register %q on hook %q: %w", sortKey, hookName, ErrUnknownCallable)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.hooks[hookName]
	if !ok {
		return fmt.Errorf("failed to register %q: %w %q", sortKey, ErrUnknownHook, hookName)
	}
	st.registered = append(st.registered, hook.Implementation{
		Kind: hook.KindRegistered,
		Key:  sortKey,
		Fn:   fn,
	})
	return nil
}

// BindInline binds the hook's single optional inline callable, which fires
// first on every fire of the hook. A nil fn clears the binding.
func (e *Engine) BindInline(hookName string, fn hook.Callable) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.hooks[hookName]
	if !ok {
		return fmt.Errorf("failed to bind inline callable: %w %q", ErrUnknownHook, hookName)
	}
	st.inline = fn
	return nil
}

// RegisterSource maps a script basename to the in-process entry point
// invoked when that script is dispatched in source mode
func (e *Engine) RegisterSource(basename string, fn hook.SourceFunc) error {
	if basename == "" {
		return fmt.Errorf("source entry point needs a script basename")
	}
	if fn == nil {
		return fmt.Errorf("failed to register source entry point %q: %w", basename, ErrUnknownCallable)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.sources[basename] = fn
	return nil
}

// SetExecutionMode configures how discovered scripts whose basename matches
// pattern run. Patterns are doublestar globs, with plain prefix match as a
// fallback; when several rules match one basename the most recently set
// rule wins. The default for unmatched scripts is ModeExec.
func (e *Engine) SetExecutionMode(pattern string, mode hook.ExecutionMode) error {
	if pattern == "" {
		return fmt.Errorf("execution mode pattern cannot be empty")
	}
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid execution mode pattern %q", pattern)
	}
	if _, err := hook.ParseMode(string(mode)); err != nil {
		return fmt.Errorf("failed to set execution mode for %q: %w", pattern, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.modes = append(e.modes, modeRule{pattern: pattern, mode: mode})
	return nil
}

// SetMiddleware binds a middleware to a hook, replacing any existing
// binding. A nil fn clears the binding, reverting the hook to the default
// middleware.
func (e *Engine) SetMiddleware(hookName string, fn hook.Middleware) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.hooks[hookName]
	if !ok {
		return fmt.Errorf("failed to set middleware: %w %q", ErrUnknownHook, hookName)
	}
	st.middleware = fn
	return nil
}

// ResetMiddleware removes a hook's middleware binding, reverting it to the
// default middleware
func (e *Engine) ResetMiddleware(hookName string) error {
	return e.SetMiddleware(hookName, nil)
}

// RegisterMiddleware adds a middleware to the engine's named table so hooks
// can bind it by name with UseMiddleware
func (e *Engine) RegisterMiddleware(name string, fn hook.Middleware) error {
	if name == "" {
		return fmt.Errorf("middleware needs a name")
	}
	if fn == nil {
		return fmt.Errorf("failed to register middleware %q: %w", name, ErrUnknownCallable)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.named[name] = fn
	return nil
}

// UseMiddleware binds a hook to a middleware from the named table
func (e *Engine) UseMiddleware(hookName, middlewareName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.hooks[hookName]
	if !ok {
		return fmt.Errorf("failed to use middleware %q: %w %q", middlewareName, ErrUnknownHook, hookName)
	}
	fn, ok := e.named[middlewareName]
	if !ok {
		return fmt.Errorf("failed to use middleware: %w %q", ErrUnknownCallable, middlewareName)
	}
	st.middleware = fn
	return nil
}

// Reset clears every declared hook, registration, middleware binding,
// source entry point, mode rule, and the fire sequence counter, returning
// the engine to its initial state. Host state is left alone: it belongs to
// the host, which can call Clear on it directly.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.hooks = make(map[string]*hookState)
	e.modes = nil
	e.named = make(map[string]hook.Middleware)
	e.sources = make(map[string]hook.SourceFunc)
	e.fireSeq.Store(0)
}

// Hooks returns the declared hook names in sorted order
func (e *Engine) Hooks() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.hooks))
	for name := range e.hooks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Host returns the engine's host state handle
func (e *Engine) Host() *hook.HostState {
	return e.host
}

// ScriptsDir returns the directory currently scanned for hook scripts
func (e *Engine) ScriptsDir() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config.ScriptsDir
}

// ModeFor resolves the execution mode configured for a script basename
func (e *Engine) ModeFor(basename string) hook.ExecutionMode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return resolveMode(e.modes, basename)
}

// resolveMode applies the mode rules to one basename: every rule is tried
// in order and the last match wins, so newer configuration overrides older
func resolveMode(rules []modeRule, basename string) hook.ExecutionMode {
	mode := hook.ModeExec
	for _, r := range rules {
		if matched, err := doublestar.Match(r.pattern, basename); err == nil && matched {
			mode = r.mode
			continue
		}
		if strings.HasPrefix(basename, r.pattern) {
			mode = r.mode
		}
	}
	return mode
}
