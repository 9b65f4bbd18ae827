package config

import "termidle/internal/power"

const (
	// DefaultIdleTimeoutSecs is the idle duration before a countdown starts
	DefaultIdleTimeoutSecs = 300.0
	// DefaultCountdownSecs is the countdown length before the action fires
	DefaultCountdownSecs = 60.0
	// DefaultSuspendCommand performs ActionSuspend
	DefaultSuspendCommand = "systemctl suspend"
	// DefaultStopCommand performs ActionStop
	DefaultStopCommand = "systemctl poweroff"
)

// DefaultIdleOptions returns the idle options used when a key is absent
func DefaultIdleOptions() IdleOptions {
	return IdleOptions{
		IdleTimeoutSecs: DefaultIdleTimeoutSecs,
		CountdownSecs:   DefaultCountdownSecs,
		SuspendAction:   power.ActionSuspend,
		AgentDetection:  true,
		IgnoreProcesses: nil,
		SuspendCommand:  DefaultSuspendCommand,
		StopCommand:     DefaultStopCommand,
	}
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Idle: DefaultIdleOptions(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
