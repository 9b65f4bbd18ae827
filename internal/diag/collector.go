package diag

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"termidle/internal/journal"
	"termidle/internal/logging"
)

// Collector gathers diagnostic artifacts from the state directory
type Collector struct {
	config   *Config
	redactor *Redactor
	logger   *logging.Logger
}

// NewCollector creates a new diagnostic collector
func NewCollector(config *Config, logger *logging.Logger) *Collector {
	return &Collector{
		config:   config,
		redactor: NewRedactor(),
		logger:   logger,
	}
}

// CollectState gathers session snapshots and the episode journal
func (c *Collector) CollectState() (map[string][]byte, error) {
	files := make(map[string][]byte)

	paths, err := filepath.Glob(filepath.Join(c.config.StateDir, "session-*.json"))
	if err != nil {
		return files, fmt.Errorf("failed to list sessions: %w", err)
	}
	paths = append(paths, filepath.Join(c.config.StateDir, journal.FileName))

	for _, path := range paths {
		content, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- path is inside the state directory
		if err != nil {
			if !os.IsNotExist(err) {
				c.logger.Warn("diag.collect.state.read_error", "Failed to read state file", map[string]interface{}{
					"path":  path,
					"error": err.Error(),
				})
			}
			continue
		}
		files["state/"+filepath.Base(path)] = content
	}

	c.logger.Info("diag.collect.state.complete", "State collection complete", map[string]interface{}{
		"file_count": len(files),
	})
	return files, nil
}

// CollectLogs gathers the per-session log files, redacted
func (c *Collector) CollectLogs() (map[string][]byte, error) {
	if !c.config.IncludeLogs {
		return nil, nil
	}

	files := make(map[string][]byte)
	paths, err := filepath.Glob(filepath.Join(c.config.StateDir, "*.log"))
	if err != nil {
		return files, fmt.Errorf("failed to list logs: %w", err)
	}

	for _, path := range paths {
		content, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- path is inside the state directory
		if err != nil {
			c.logger.Warn("diag.collect.logs.read_error", "Failed to read log file", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			continue
		}
		files["logs/"+filepath.Base(path)] = []byte(c.redactor.Redact(string(content)))
	}

	c.logger.Info("diag.collect.logs.complete", "Log collection complete", map[string]interface{}{
		"file_count": len(files),
	})
	return files, nil
}

// CollectConfig gathers and redacts the configuration files
func (c *Collector) CollectConfig() (map[string][]byte, error) {
	if !c.config.IncludeConfig {
		return nil, nil
	}

	files := make(map[string][]byte)

	names := make([]string, 0, len(c.config.ConfigFiles))
	for name := range c.config.ConfigFiles {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := c.config.ConfigFiles[name]
		if path == "" {
			continue
		}
		content, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- config paths come from the loader
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return files, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		files["config/"+name] = []byte(c.redactor.Redact(string(content)))
	}

	if len(c.config.Effective) > 0 {
		files["config/effective.yaml"] = []byte(c.redactor.Redact(string(c.config.Effective)))
	}

	c.logger.Info("diag.collect.config.complete", "Config collection complete", map[string]interface{}{
		"file_count": len(files),
	})
	return files, nil
}

// CollectSystemInfo gathers host and version information
func (c *Collector) CollectSystemInfo() (map[string][]byte, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	info := map[string]interface{}{
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
		"host":             hostname,
		"termidle_version": c.config.Version,
		"go_version":       runtime.Version(),
		"os":               runtime.GOOS,
		"arch":             runtime.GOARCH,
		"state_dir":        c.config.StateDir,
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal system info: %w", err)
	}
	return map[string][]byte{"system_info.json": data}, nil
}

// CalculateSHA256 computes SHA256 hash of data
func CalculateSHA256(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
