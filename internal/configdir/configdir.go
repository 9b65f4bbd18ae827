package configdir

import (
	"os"
	"path/filepath"
)

const (
	defaultConfigDir = "/etc/termidle"
	appDirName       = "termidle"
)

// ConfigDir resolves the system configuration directory respecting overrides
func ConfigDir() string {
	if env := os.Getenv("TERMIDLE_CONFIG_DIR"); env != "" {
		if abs, err := filepath.Abs(env); err == nil {
			return abs
		}
	}
	return defaultConfigDir
}

// UserConfigDir resolves the per-user configuration directory
// ($XDG_CONFIG_HOME/termidle, falling back to ~/.config/termidle).
// It returns "" when no home directory can be determined.
func UserConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appDirName)
}
