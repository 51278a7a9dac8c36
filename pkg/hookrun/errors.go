package hookrun

import "errors"

// Sentinel errors for registry and fire operations. Call sites wrap them
// with context; callers test with errors.Is.
var (
	// ErrUnknownHook reports an operation against a hook name that was
	// never declared
	ErrUnknownHook = errors.New("unknown hook")

	// ErrUnknownCallable reports a registration or middleware binding that
	// does not resolve to something invocable
	ErrUnknownCallable = errors.New("unknown callable")
)
