package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter hooks.yaml and hooks.d directory",
	Long: `Init scaffolds a hook layout in the current directory: a hooks.yaml
manifest declaring a build hook and a hooks.d directory with one sample
executable script. Existing files are left alone unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var initForce bool

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing files")
}

const starterManifest = `version: "1"
hooks_dir: hooks.d
hooks:
  - name: build
modes: []
`

const starterScript = `#!/usr/bin/env bash
# Sample build hook script. Scripts named build-* or build_* in this
# directory run in basename order when the build hook fires.
echo "build hook fired with args: $*"
`

func runInit(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd.Flags())
	if err != nil {
		return err
	}

	if err := writeStarterFile(s.Manifest, []byte(starterManifest), 0644); err != nil {
		return err
	}

	if err := os.MkdirAll(s.HooksDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.HooksDir, err)
	}
	sample := filepath.Join(s.HooksDir, "build-10-sample")
	if err := writeStarterFile(sample, []byte(starterScript), 0755); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s and %s\n", s.Manifest, sample)
	fmt.Fprintln(out, "Try: hookrun fire build")
	return nil
}

func writeStarterFile(path string, data []byte, mode os.FileMode) error {
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
