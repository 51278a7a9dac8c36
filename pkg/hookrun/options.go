package hookrun

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/codysoyland/hookrun/pkg/hook"
)

// WithScriptsDir sets the directory scanned for hook scripts
func WithScriptsDir(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return fmt.Errorf("scripts directory cannot be empty")
		}
		c.ScriptsDir = dir
		return nil
	}
}

// WithHooks declares hooks at construction time
func WithHooks(names ...string) Option {
	return func(c *Config) error {
		c.Hooks = append(c.Hooks, names...)
		return nil
	}
}

// WithLogger sets the logger for engine diagnostics
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithStdout redirects where the default middleware replays stdout lines
func WithStdout(w io.Writer) Option {
	return func(c *Config) error {
		if w == nil {
			return fmt.Errorf("stdout writer cannot be nil")
		}
		c.Stdout = w
		return nil
	}
}

// WithStderr redirects where the default middleware replays stderr lines
func WithStderr(w io.Writer) Option {
	return func(c *Config) error {
		if w == nil {
			return fmt.Errorf("stderr writer cannot be nil")
		}
		c.Stderr = w
		return nil
	}
}

// WithTimeout bounds a single implementation's run. Zero, the default,
// means no bound: a hanging implementation hangs the whole fire.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d < 0 {
			return fmt.Errorf("timeout cannot be negative")
		}
		c.Timeout = d
		return nil
	}
}

// WithHostState shares a host-owned state handle with the engine
func WithHostState(h *hook.HostState) Option {
	return func(c *Config) error {
		if h == nil {
			return fmt.Errorf("host state cannot be nil")
		}
		c.Host = h
		return nil
	}
}
