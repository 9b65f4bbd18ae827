package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"termidle/internal/power"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("TERMIDLE_CONFIG_DIR", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"IdleTimeoutSecs", cfg.Idle.IdleTimeoutSecs, 300.0},
		{"CountdownSecs", cfg.Idle.CountdownSecs, 60.0},
		{"SuspendAction", cfg.Idle.SuspendAction, power.ActionSuspend},
		{"AgentDetection", cfg.Idle.AgentDetection, true},
		{"SuspendCommand", cfg.Idle.SuspendCommand, "systemctl suspend"},
		{"StopCommand", cfg.Idle.StopCommand, "systemctl poweroff"},
		{"LogLevel", cfg.Logging.Level, "info"},
		{"LogFormat", cfg.Logging.Format, "json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("DefaultConfig().%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
	if len(cfg.Idle.IgnoreProcesses) != 0 {
		t.Errorf("IgnoreProcesses = %v, want empty", cfg.Idle.IgnoreProcesses)
	}
}

func TestParseIdleOptions(t *testing.T) {
	opts := ParseIdleOptions(map[string]string{
		KeyIdleTimeoutSecs: "10",
		KeyCountdownSecs:   "2.5",
		KeySuspendAction:   " Stop ",
		KeyAgentDetection:  "false",
		KeyIgnoreProcesses: "vim, htop,,less ",
		KeyProbeCommand:    "termidle probe --pid {pid}",
	})

	if opts.IdleTimeoutSecs != 10 {
		t.Errorf("IdleTimeoutSecs = %v, want 10", opts.IdleTimeoutSecs)
	}
	if opts.CountdownSecs != 2.5 {
		t.Errorf("CountdownSecs = %v, want 2.5", opts.CountdownSecs)
	}
	if opts.SuspendAction != power.ActionStop {
		t.Errorf("SuspendAction = %v, want stop", opts.SuspendAction)
	}
	if opts.AgentDetection {
		t.Error("AgentDetection should be false")
	}
	if want := []string{"vim", "htop", "less"}; !reflect.DeepEqual(opts.IgnoreProcesses, want) {
		t.Errorf("IgnoreProcesses = %v, want %v", opts.IgnoreProcesses, want)
	}
	if opts.ProbeCommand != "termidle probe --pid {pid}" {
		t.Errorf("ProbeCommand = %q", opts.ProbeCommand)
	}
	if opts.SuspendCommand != DefaultSuspendCommand {
		t.Errorf("SuspendCommand = %q, want default", opts.SuspendCommand)
	}
}

func TestParseIdleOptions_FallsBackSilently(t *testing.T) {
	opts := ParseIdleOptions(map[string]string{
		KeyIdleTimeoutSecs: "five minutes",
		KeyCountdownSecs:   "-3",
		KeySuspendAction:   "hibernate",
		KeyAgentDetection:  "maybe",
		KeyIgnoreProcesses: " , ",
	})

	if !reflect.DeepEqual(opts, DefaultIdleOptions()) {
		t.Errorf("ParseIdleOptions() = %+v, want defaults %+v", opts, DefaultIdleOptions())
	}

	for _, bad := range []string{"NaN", "Inf", "-Inf", ""} {
		if got := ParseIdleOptions(map[string]string{KeyIdleTimeoutSecs: bad}); got.IdleTimeoutSecs != DefaultIdleTimeoutSecs {
			t.Errorf("idle_timeout_secs=%q gave %v, want default", bad, got.IdleTimeoutSecs)
		}
	}
}

func TestIdleOptions_MapRoundTrip(t *testing.T) {
	opts := ParseIdleOptions(map[string]string{
		KeyIdleTimeoutSecs: "120",
		KeyIgnoreProcesses: "vim,less",
		KeySuspendAction:   "none",
	})
	if got := ParseIdleOptions(opts.Map()); !reflect.DeepEqual(got, opts) {
		t.Errorf("round trip = %+v, want %+v", got, opts)
	}
}

func TestValidation_ValidConfig(t *testing.T) {
	cfg := DefaultConfig()
	if errors := cfg.Validate(); len(errors) != 0 {
		t.Errorf("Validate() on default config returned errors: %v", errors)
	}
}

func TestValidation_InvalidLogging(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "loud"
	cfg.Logging.Format = "xml"
	cfg.StateDir = "relative/dir"

	errors := cfg.Validate()
	if len(errors) != 3 {
		t.Fatalf("Validate() returned %d errors, want 3: %v", len(errors), errors)
	}
	paths := map[string]bool{}
	for _, err := range errors {
		paths[err.Path] = true
	}
	for _, p := range []string{"logging.level", "logging.format", "state_dir"} {
		if !paths[p] {
			t.Errorf("missing validation error for %s", p)
		}
	}
}

func TestLoadFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `idle:
  idle_timeout_secs: 600
  countdown_secs: 30.5
  suspend_action: stop
  claude_code_idle_detection: false
  ignore_processes: [vim, htop]
logging:
  level: debug
  format: text
state_dir: /tmp/termidle-state
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Idle.IdleTimeoutSecs != 600 {
		t.Errorf("IdleTimeoutSecs = %v, want 600", cfg.Idle.IdleTimeoutSecs)
	}
	if cfg.Idle.CountdownSecs != 30.5 {
		t.Errorf("CountdownSecs = %v, want 30.5", cfg.Idle.CountdownSecs)
	}
	if cfg.Idle.SuspendAction != power.ActionStop {
		t.Errorf("SuspendAction = %v", cfg.Idle.SuspendAction)
	}
	if cfg.Idle.AgentDetection {
		t.Error("AgentDetection should be false")
	}
	if want := []string{"vim", "htop"}; !reflect.DeepEqual(cfg.Idle.IgnoreProcesses, want) {
		t.Errorf("IgnoreProcesses = %v, want %v", cfg.Idle.IgnoreProcesses, want)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.StateDir != "/tmp/termidle-state" {
		t.Errorf("StateDir = %s", cfg.StateDir)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("idle: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom() should fail on invalid YAML")
	}
}

func TestLoad_LayersAndOverrides(t *testing.T) {
	isolate(t)

	systemPath := SystemConfigPath()
	if err := os.WriteFile(systemPath, []byte("idle:\n  idle_timeout_secs: 900\n  countdown_secs: 90\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	userPath := UserConfigPath()
	if err := os.MkdirAll(filepath.Dir(userPath), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(userPath, []byte("idle:\n  countdown_secs: 45\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(LoadOptions{Overrides: map[string]string{
		"idle.suspend_action": "none",
		"logging.level":       "warn",
	}})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Idle.IdleTimeoutSecs != 900 {
		t.Errorf("IdleTimeoutSecs = %v, want system value 900", cfg.Idle.IdleTimeoutSecs)
	}
	if cfg.Idle.CountdownSecs != 45 {
		t.Errorf("CountdownSecs = %v, want user value 45", cfg.Idle.CountdownSecs)
	}
	if cfg.Idle.SuspendAction != power.ActionNone {
		t.Errorf("SuspendAction = %v, want override none", cfg.Idle.SuspendAction)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %s, want warn", cfg.Logging.Level)
	}
}

func TestLoad_NoFilesUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(LoadOptions{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(cfg.Idle, DefaultIdleOptions()) {
		t.Errorf("Idle = %+v, want defaults", cfg.Idle)
	}
}

func TestLoad_UnknownOverride(t *testing.T) {
	isolate(t)

	_, err := Load(LoadOptions{Overrides: map[string]string{"poll_interval": "1"}})
	if err == nil || !strings.Contains(err.Error(), "poll_interval") {
		t.Errorf("Load() error = %v, want unknown key error", err)
	}
}

func TestParseOverride(t *testing.T) {
	key, value, err := ParseOverride("ignore_processes=vim,less")
	if err != nil || key != "ignore_processes" || value != "vim,less" {
		t.Errorf("ParseOverride() = %q, %q, %v", key, value, err)
	}
	if _, _, err := ParseOverride("=x"); err == nil {
		t.Error("ParseOverride(\"=x\") should fail")
	}
	if _, _, err := ParseOverride("novalue"); err == nil {
		t.Error("ParseOverride(\"novalue\") should fail")
	}
}
