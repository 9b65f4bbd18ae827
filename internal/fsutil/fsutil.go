package fsutil

import (
	"fmt"
	"os"
	"path/filepath"

	"termidle/internal/logging"
)

const (
	// DefaultSystemStateDir is the state location when running as root
	DefaultSystemStateDir = "/var/lib/termidle"
	// StateDirEnv overrides the state directory
	StateDirEnv = "TERMIDLE_STATE_DIR"
	// DefaultStatePermissions is the default permission for state directories
	DefaultStatePermissions = 0o750
	// DefaultFilePermissions is the default permission for state files
	DefaultFilePermissions = 0o600
)

// DefaultStateDir picks the state directory for the current user: the system
// location for root, ~/.local/state/termidle otherwise.
func DefaultStateDir() string {
	if os.Geteuid() == 0 {
		return DefaultSystemStateDir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "termidle")
	}
	return filepath.Join(os.TempDir(), "termidle")
}

// GetStateDir returns the state directory from environment or uses the provided default.
// It returns an absolute path when possible.
func GetStateDir(defaultDir string) string {
	if env := os.Getenv(StateDirEnv); env != "" {
		if abs, err := filepath.Abs(env); err == nil {
			return abs
		}
		return env
	}
	return defaultDir
}

// EnsureStateDirectory creates the state directory if it doesn't exist.
func EnsureStateDirectory(path string) error {
	if err := os.MkdirAll(path, DefaultStatePermissions); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	return nil
}

// SessionFile returns the per-session file for a root pid inside stateDir.
func SessionFile(stateDir string, rootPID int32, ext string) string {
	return filepath.Join(stateDir, fmt.Sprintf("session-%d%s", rootPID, ext))
}

// AtomicWriteFile writes data to a temp file next to path and renames it into
// place, so readers never observe a partial file.
func AtomicWriteFile(path string, data []byte, perm os.FileMode, logger *logging.Logger) error {
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		if removeErr := os.Remove(tmpPath); removeErr != nil && !os.IsNotExist(removeErr) {
			logger.Warn("fsutil.cleanup_failed", "Failed to remove temp file", map[string]interface{}{
				"path":  tmpPath,
				"error": removeErr.Error(),
			})
		}
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// CloseWithError closes a resource and logs any error.
func CloseWithError(closer func() error, logger *logging.Logger, resource string) {
	if err := closer(); err != nil {
		logger.Warn("fsutil.close_failed", fmt.Sprintf("Failed to close %s", resource), map[string]interface{}{
			"error": err.Error(),
		})
	}
}
