package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"termidle/internal/configdir"
)

const configFileName = "config.yaml"

// LoadOptions carries the command-line layers applied on top of the files
type LoadOptions struct {
	// File is an explicit config file; it must exist when set.
	File string
	// Overrides are `--set key=value` pairs, applied last.
	Overrides map[string]string
}

// fileLayout is the on-disk YAML shape
type fileLayout struct {
	Idle     map[string]interface{} `yaml:"idle"`
	Logging  LoggingConfig          `yaml:"logging"`
	StateDir string                 `yaml:"state_dir"`
}

// Load loads and merges configuration.
// Priority: defaults < system config < user config < explicit file < overrides
func Load(opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()
	raw := make(map[string]string)

	for _, path := range []string{SystemConfigPath(), UserConfigPath()} {
		if path == "" {
			continue
		}
		if err := mergeConfigFile(&cfg, raw, path); err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	}

	if opts.File != "" {
		if err := mergeConfigFile(&cfg, raw, opts.File); err != nil {
			return cfg, fmt.Errorf("failed to load config from %s: %w", opts.File, err)
		}
	}

	for key, value := range opts.Overrides {
		if !applyOverride(&cfg, raw, key, value) {
			return cfg, fmt.Errorf("unknown config key %q", key)
		}
	}

	cfg.Idle = ParseIdleOptions(raw)

	if validationErrors := cfg.Validate(); len(validationErrors) > 0 {
		return cfg, fmt.Errorf("config.validation.error: %v", formatValidationErrors(validationErrors))
	}

	return cfg, nil
}

// LoadFrom loads configuration from a single file on top of defaults
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()
	raw := make(map[string]string)
	if err := mergeConfigFile(&cfg, raw, path); err != nil {
		return cfg, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	cfg.Idle = ParseIdleOptions(raw)

	if validationErrors := cfg.Validate(); len(validationErrors) > 0 {
		return cfg, fmt.Errorf("config.validation.error: %v", formatValidationErrors(validationErrors))
	}
	return cfg, nil
}

// ParseOverride splits a `key=value` flag argument
func ParseOverride(arg string) (string, string, error) {
	key, value, ok := strings.Cut(arg, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("expected key=value, got %q", arg)
	}
	return key, value, nil
}

// mergeConfigFile reads a YAML file and merges it into cfg and the raw idle map
func mergeConfigFile(cfg *Config, raw map[string]string, path string) error {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- path comes from fixed locations or the command line
	if err != nil {
		return err
	}

	var overlay fileLayout
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	for key, value := range overlay.Idle {
		if s, ok := stringify(value); ok {
			raw[key] = s
		}
	}

	if overlay.Logging.Level != "" {
		cfg.Logging.Level = overlay.Logging.Level
	}
	if overlay.Logging.Format != "" {
		cfg.Logging.Format = overlay.Logging.Format
	}
	if overlay.Logging.File != "" {
		cfg.Logging.File = overlay.Logging.File
	}
	if overlay.StateDir != "" {
		cfg.StateDir = overlay.StateDir
	}

	return nil
}

func applyOverride(cfg *Config, raw map[string]string, key, value string) bool {
	switch key {
	case "logging.level":
		cfg.Logging.Level = value
	case "logging.format":
		cfg.Logging.Format = value
	case "logging.file":
		cfg.Logging.File = value
	case "state_dir":
		cfg.StateDir = value
	default:
		key = strings.TrimPrefix(key, "idle.")
		if !isIdleKey(key) {
			return false
		}
		raw[key] = value
	}
	return true
}

// stringify flattens a YAML scalar or list into the options map string form
func stringify(v interface{}) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := stringify(item); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ","), true
	case map[string]interface{}:
		return "", false
	default:
		return fmt.Sprint(val), true
	}
}

// formatValidationErrors formats validation errors for display
func formatValidationErrors(errors []ValidationError) string {
	if len(errors) == 0 {
		return ""
	}
	if len(errors) == 1 {
		return errors[0].Error()
	}
	result := fmt.Sprintf("%d validation errors:\n", len(errors))
	for _, err := range errors {
		result += "  - " + err.Error() + "\n"
	}
	return result
}

// SystemConfigPath returns the path to the system configuration file
func SystemConfigPath() string {
	return filepath.Join(configdir.ConfigDir(), configFileName)
}

// UserConfigPath returns the path to the user configuration file
func UserConfigPath() string {
	dir := configdir.UserConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, configFileName)
}
