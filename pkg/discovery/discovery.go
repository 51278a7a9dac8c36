// Package discovery locates executable hook scripts on disk.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codysoyland/hookrun/pkg/hook"
)

// Scan enumerates the files in dir whose basename matches "{hookName}-*" or
// "{hookName}_*" and returns them as script implementations sorted
// alphabetically by basename. Only regular files with an executable bit
// qualify (symlinks are resolved); non-executable matches are skipped
// silently so a script can be disabled with chmod -x. A missing directory
// yields no scripts. Nothing is cached: callers scan fresh on every fire
// so added, removed, or chmod'd scripts take effect immediately.
func Scan(dir, hookName string) ([]hook.Implementation, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan hooks directory %s: %w", dir, err)
	}

	var scripts []hook.Implementation
	for _, entry := range entries {
		name := entry.Name()
		if !matchesHook(name, hookName) {
			continue
		}

		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if !info.Mode().IsRegular() || info.Mode()&0111 == 0 {
			continue
		}

		scripts = append(scripts, hook.Implementation{
			Kind: hook.KindScript,
			Key:  name,
			Path: path,
			Mode: hook.ModeExec,
		})
	}

	sort.Slice(scripts, func(i, j int) bool {
		return scripts[i].Key < scripts[j].Key
	})

	return scripts, nil
}

// matchesHook reports whether basename follows the {hook}-{suffix} or
// {hook}_{suffix} naming convention for hookName
func matchesHook(basename, hookName string) bool {
	if !strings.HasPrefix(basename, hookName) {
		return false
	}
	rest := basename[len(hookName):]
	if rest == "" {
		return false
	}
	return rest[0] == '-' || rest[0] == '_'
}
