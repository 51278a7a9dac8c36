package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/codysoyland/hookrun/pkg/hookrun"
)

const defaultManifest = "hooks.yaml"

// settings holds the resolved CLI configuration. Precedence: flags over
// HOOKRUN_* environment variables over hookrun.yaml over defaults.
type settings struct {
	HooksDir string        `mapstructure:"hooks_dir"`
	Manifest string        `mapstructure:"manifest"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// loadSettings resolves configuration from various sources
func loadSettings(flags *pflag.FlagSet) (*settings, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("hooks_dir", hookrun.DefaultScriptsDir)
	v.SetDefault("manifest", defaultManifest)
	v.SetDefault("timeout", time.Duration(0))

	// Configuration file search paths
	v.SetConfigName("hookrun")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")

	// Environment variables
	v.SetEnvPrefix("HOOKRUN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Try to read config file (optional); ignore error to use defaults
	_ = v.ReadInConfig()

	// Explicit flags win over file and environment
	if flags.Changed("hooks-dir") {
		dir, _ := flags.GetString("hooks-dir")
		v.Set("hooks_dir", dir)
	}
	if flags.Changed("manifest") {
		path, _ := flags.GetString("manifest")
		v.Set("manifest", path)
	}
	if flags.Changed("timeout") {
		timeout, _ := flags.GetDuration("timeout")
		v.Set("timeout", timeout)
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %v", err)
	}
	return &s, nil
}
