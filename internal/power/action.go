package power

import "strings"

// Action is what happens to the host when a countdown expires.
type Action string

const (
	// ActionSuspend suspends the host (default).
	ActionSuspend Action = "suspend"
	// ActionStop powers the host off, e.g. to stop a cloud VM.
	ActionStop Action = "stop"
	// ActionNone is an explicit opt-out: the episode is handled without any external call.
	ActionNone Action = "none"
)

// ParseAction maps a configuration value to an Action.
func ParseAction(s string) (Action, bool) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionSuspend:
		return ActionSuspend, true
	case ActionStop:
		return ActionStop, true
	case ActionNone:
		return ActionNone, true
	}
	return "", false
}

// Verb is the upper-case progressive form shown in the status line.
func (a Action) Verb() string {
	switch a {
	case ActionStop:
		return "STOPPING"
	case ActionNone:
		return "ACTION (none)"
	default:
		return "SUSPENDING"
	}
}
