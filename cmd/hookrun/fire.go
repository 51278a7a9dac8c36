package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/codysoyland/hookrun/pkg/hookrun"
)

// fireCmd represents the fire command
var fireCmd = &cobra.Command{
	Use:   "fire <hook> [args...]",
	Short: "Fire a hook and exit with its effective code",
	Long: `Fire runs every implementation attached to the named hook: registered
callables and discovered hook scripts in one alphabetical sequence. Extra
arguments are passed verbatim to every implementation. The process exits
with the last effective exit code, so non-zero hook results propagate to
shells and CI.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFire,
}

func init() {
	// Everything after the hook name belongs to the hook, including flags
	fireCmd.Flags().SetInterspersed(false)
}

func runFire(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd.Flags())
	if err != nil {
		return err
	}

	engine, err := newEngine(cmd.Flags(), s)
	if err != nil {
		return err
	}

	hookName := args[0]
	engine.Declare(hookName)

	code, err := engine.Fire(cmd.Context(), hookName, args[1:]...)
	if err != nil {
		return err
	}
	if code != 0 {
		cliLogger.Warn().Str("hook", hookName).Int("exit_code", code).Msg("hook finished non-zero")
		os.Exit(code)
	}
	return nil
}

// newEngine builds an engine from the resolved settings and applies the
// manifest when one is present.
func newEngine(flags *pflag.FlagSet, s *settings) (*hookrun.Engine, error) {
	opts := []hookrun.Option{
		hookrun.WithScriptsDir(s.HooksDir),
		hookrun.WithLogger(cliLogger),
	}
	if s.Timeout > 0 {
		opts = append(opts, hookrun.WithTimeout(s.Timeout))
	}

	engine, err := hookrun.New(opts...)
	if err != nil {
		return nil, err
	}

	m, err := hookrun.LoadManifest(s.Manifest)
	if err != nil {
		// The default manifest is optional; an explicitly chosen one is not
		if errors.Is(err, os.ErrNotExist) && !flags.Changed("manifest") {
			return engine, nil
		}
		return nil, err
	}
	if flags.Changed("hooks-dir") {
		// Explicit -d wins over the manifest's hooks_dir
		m.HooksDir = ""
	}
	if err := engine.ApplyManifest(m); err != nil {
		return nil, err
	}
	return engine, nil
}
