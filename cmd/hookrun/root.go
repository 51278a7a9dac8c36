package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// version is overridden at build time via -ldflags.
var version = "dev"

// cliLogger is configured by initializeLogger before any subcommand runs.
var cliLogger = zerolog.Nop()

// newRootCommand creates a fresh root command instance.
// This factory pattern allows tests to create isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hookrun",
		Short: "Fire named hooks against registered callables and hook scripts",
		Long: `Hookrun fires named extension points: every registered callable and every
executable script named <hook>-* or <hook>_* in the hooks directory runs in
one alphabetical sequence, with each implementation's output captured and
routed through middleware.

Examples:
   hookrun fire build                 # Fire the build hook
   hookrun fire deploy --env=prod     # Extra args reach every implementation
   hookrun list build                 # Show scripts discovered for build
   hookrun init                       # Write a starter hooks.yaml and hooks.d/`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().StringP("hooks-dir", "d", "", `Directory scanned for hook scripts (default "hooks.d")`)
	cmd.PersistentFlags().StringP("manifest", "m", "", `Path to the hooks manifest (default "hooks.yaml")`)
	cmd.PersistentFlags().Duration("timeout", 0, "Per-implementation timeout (0 means none)")
	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	cmd.Version = version
	cmd.SetVersionTemplate("hookrun {{.Version}}\n")

	return cmd
}

// registerSubcommands adds all subcommands to the root command.
// This is called from init() for production and can be called explicitly in tests.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(fireCmd)
	cmd.AddCommand(listCmd)
	cmd.AddCommand(initCmd)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

func init() {
	registerSubcommands(rootCmd)
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// initializeLogger builds the CLI logger from the global flags
func initializeLogger(cmd *cobra.Command) {
	levelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	level, err := zerolog.ParseLevel(strings.ToLower(levelStr))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if !jsonLogs {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05", NoColor: noColor}
	}

	cliLogger = zerolog.New(out).Level(level).With().Timestamp().Logger()
}
