package diag

import "time"

// Manifest represents the diagnostic bundle manifest
type Manifest struct {
	Timestamp string         `json:"timestamp"`
	Host      string         `json:"host"`
	Version   string         `json:"termidle_version"`
	Files     []ManifestFile `json:"files"`
}

// ManifestFile represents a file in the diagnostic bundle
type ManifestFile struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	SHA256    string `json:"sha256"`
}

// Config configures diagnostic collection
type Config struct {
	StateDir string
	// ConfigFiles maps an archive name ("system.yaml") to a config file path
	ConfigFiles   map[string]string
	OutputPath    string
	IncludeLogs   bool
	IncludeConfig bool
	Version       string
	// Effective is the merged configuration, written as effective.yaml
	Effective []byte
}

// NewConfig creates a default diagnostic config for a state directory
func NewConfig(stateDir, version string) *Config {
	return &Config{
		StateDir:      stateDir,
		ConfigFiles:   map[string]string{},
		OutputPath:    generateOutputPath(time.Now()),
		IncludeLogs:   true,
		IncludeConfig: true,
		Version:       version,
	}
}

func generateOutputPath(now time.Time) string {
	return "termidle-diag-" + now.UTC().Format("20060102-150405") + ".zip"
}
