package hookrun

import (
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/codysoyland/hookrun/pkg/hook"
)

// manifestSchema is checked before unmarshaling so malformed manifests fail
// with a field-level message instead of a half-applied configuration
const manifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "version": {"type": "string"},
    "hooks_dir": {"type": "string"},
    "hooks": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1}
        }
      }
    },
    "modes": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["pattern", "mode"],
        "properties": {
          "pattern": {"type": "string", "minLength": 1},
          "mode": {"type": "string", "enum": ["exec", "source"]}
        }
      }
    }
  }
}`

// Manifest is the declarative hooks.yaml configuration a host applies to an
// engine: hooks to declare, execution mode rules, and an optional scripts
// directory override.
type Manifest struct {
	Version  string         `yaml:"version,omitempty"`
	HooksDir string         `yaml:"hooks_dir,omitempty"`
	Hooks    []ManifestHook `yaml:"hooks,omitempty"`
	Modes    []ManifestMode `yaml:"modes,omitempty"`
}

// ManifestHook declares one hook by name
type ManifestHook struct {
	Name string `yaml:"name"`
}

// ManifestMode is one execution mode rule
type ManifestMode struct {
	Pattern string `yaml:"pattern"`
	Mode    string `yaml:"mode"`
}

// LoadManifest reads a hooks.yaml manifest and validates it against the
// manifest schema
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(manifestSchema),
		gojsonschema.NewGoLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to validate manifest %s: %w", path, err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("invalid manifest %s: %s", path, result.Errors()[0])
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// ApplyManifest declares the manifest's hooks, applies its mode rules in
// order, and adopts its scripts directory when set
func (e *Engine) ApplyManifest(m *Manifest) error {
	if m == nil {
		return fmt.Errorf("manifest cannot be nil")
	}

	for _, h := range m.Hooks {
		e.Declare(h.Name)
	}

	for _, rule := range m.Modes {
		mode, err := hook.ParseMode(rule.Mode)
		if err != nil {
			return fmt.Errorf("failed to apply manifest mode rule %q: %w", rule.Pattern, err)
		}
		if err := e.SetExecutionMode(rule.Pattern, mode); err != nil {
			return err
		}
	}

	if m.HooksDir != "" {
		e.mu.Lock()
		e.config.ScriptsDir = m.HooksDir
		e.mu.Unlock()
	}
	return nil
}
