package config

import (
	"math"
	"strconv"
	"strings"

	"termidle/internal/power"
)

// ParseIdleOptions turns the string-keyed options map into IdleOptions.
// It never fails: a missing or unparseable value silently keeps its default.
func ParseIdleOptions(raw map[string]string) IdleOptions {
	opts := DefaultIdleOptions()

	if v, ok := parseSeconds(raw[KeyIdleTimeoutSecs]); ok {
		opts.IdleTimeoutSecs = v
	}
	if v, ok := parseSeconds(raw[KeyCountdownSecs]); ok {
		opts.CountdownSecs = v
	}
	if action, ok := power.ParseAction(raw[KeySuspendAction]); ok {
		opts.SuspendAction = action
	}
	if b, err := strconv.ParseBool(strings.TrimSpace(raw[KeyAgentDetection])); err == nil {
		opts.AgentDetection = b
	}
	opts.IgnoreProcesses = splitList(raw[KeyIgnoreProcesses])

	if v := strings.TrimSpace(raw[KeyProbeCommand]); v != "" {
		opts.ProbeCommand = v
	}
	if v := strings.TrimSpace(raw[KeySuspendCommand]); v != "" {
		opts.SuspendCommand = v
	}
	if v := strings.TrimSpace(raw[KeyStopCommand]); v != "" {
		opts.StopCommand = v
	}

	return opts
}

// Map renders the options back into their string-keyed form.
func (o IdleOptions) Map() map[string]string {
	return map[string]string{
		KeyIdleTimeoutSecs: strconv.FormatFloat(o.IdleTimeoutSecs, 'f', -1, 64),
		KeyCountdownSecs:   strconv.FormatFloat(o.CountdownSecs, 'f', -1, 64),
		KeySuspendAction:   string(o.SuspendAction),
		KeyAgentDetection:  strconv.FormatBool(o.AgentDetection),
		KeyIgnoreProcesses: strings.Join(o.IgnoreProcesses, ","),
		KeyProbeCommand:    o.ProbeCommand,
		KeySuspendCommand:  o.SuspendCommand,
		KeyStopCommand:     o.StopCommand,
	}
}

// IdleKeys lists the recognised idle option keys in display order.
func IdleKeys() []string {
	return []string{
		KeyIdleTimeoutSecs, KeyCountdownSecs, KeySuspendAction, KeyAgentDetection,
		KeyIgnoreProcesses, KeyProbeCommand, KeySuspendCommand, KeyStopCommand,
	}
}

func isIdleKey(key string) bool {
	for _, k := range IdleKeys() {
		if k == key {
			return true
		}
	}
	return false
}

func parseSeconds(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
