package config

import "termidle/internal/power"

// Keys of the string-keyed idle options map.
const (
	KeyIdleTimeoutSecs = "idle_timeout_secs"
	KeyCountdownSecs   = "countdown_secs"
	KeySuspendAction   = "suspend_action"
	KeyAgentDetection  = "claude_code_idle_detection"
	KeyIgnoreProcesses = "ignore_processes"
	KeyProbeCommand    = "probe_command"
	KeySuspendCommand  = "suspend_command"
	KeyStopCommand     = "stop_command"
)

// Config represents the complete termidle configuration
type Config struct {
	Idle     IdleOptions   `yaml:"-"`
	Logging  LoggingConfig `yaml:"logging"`
	StateDir string        `yaml:"state_dir"`
}

// IdleOptions is the typed form of the idle options map. Every field always
// holds a usable value: unparseable input has already fallen back to its default.
type IdleOptions struct {
	IdleTimeoutSecs float64
	CountdownSecs   float64
	SuspendAction   power.Action
	AgentDetection  bool
	IgnoreProcesses []string
	ProbeCommand    string
	SuspendCommand  string
	StopCommand     string
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Path + ": " + e.Message
}
