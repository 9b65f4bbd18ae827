// Package status projects an engine snapshot onto a single status line.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"termidle/internal/idle"
	"termidle/internal/power"
)

// Unbounded disables padding and truncation
const Unbounded = -1

// Kind is the phase shown by the status line
type Kind string

// Kinds, in display priority order
const (
	KindLoading   Kind = "loading"
	KindTriggered Kind = "triggered"
	KindCountdown Kind = "countdown"
	KindIdle      Kind = "idle"
	KindActive    Kind = "active"
)

var styles = map[Kind]lipgloss.Style{
	KindLoading:   lipgloss.NewStyle().Faint(true),
	KindTriggered: lipgloss.NewStyle().Background(lipgloss.Color("1")).Foreground(lipgloss.Color("15")).Bold(true),
	KindCountdown: lipgloss.NewStyle().Background(lipgloss.Color("3")).Foreground(lipgloss.Color("0")).Bold(true),
	KindIdle:      lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	KindActive:    lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
}

// Classify picks the phase to display
func Classify(s idle.Snapshot) Kind {
	switch {
	case s.Lifecycle == idle.LifecycleLoading:
		return KindLoading
	case s.SuspendTriggered:
		return KindTriggered
	case s.CountdownActive:
		return KindCountdown
	case s.IsIdle:
		return KindIdle
	default:
		return KindActive
	}
}

// Message is the unpadded status text
func Message(s idle.Snapshot) string {
	switch Classify(s) {
	case KindLoading:
		return "termidle: loading..."
	case KindTriggered:
		return fmt.Sprintf(" %s NOW... ", s.Action.Verb())
	case KindCountdown:
		remaining := int64(max(s.CountdownRemainingSecs, 0))
		return fmt.Sprintf(" %s in %ds -- press any key to cancel ", s.Action.Verb(), remaining)
	case KindIdle:
		eta := int64(max(s.IdleTimeoutSecs-s.IdleElapsedSecs, 0))
		return fmt.Sprintf(" IDLE %ds | %s in %s ", int64(s.IdleElapsedSecs), actionNoun(s.Action), formatETA(eta))
	default:
		procs := "..."
		if len(s.ActiveLabels) > 0 {
			procs = JoinLabels(s.ActiveLabels)
		}
		return fmt.Sprintf(" ACTIVE: %s ", procs)
	}
}

// JoinLabels lists labels on one line, replacing control characters
func JoinLabels(labels []string) string {
	clean := make([]string, len(labels))
	for i, label := range labels {
		clean[i] = idle.SanitizeLabel(label)
	}
	return strings.Join(clean, ", ")
}

func actionNoun(a power.Action) string {
	switch a {
	case power.ActionStop:
		return "stop"
	case power.ActionNone:
		return "countdown"
	default:
		return "suspend"
	}
}

func formatETA(secs int64) string {
	if mins := secs / 60; mins > 0 {
		return fmt.Sprintf("%dm%02ds", mins, secs%60)
	}
	return fmt.Sprintf("%ds", secs)
}

// Text renders the status line without colour, exactly width cells wide.
// Urgent phases are centred, the rest left aligned. Width 0 yields "".
func Text(s idle.Snapshot, width int) string {
	return fit(Message(s), width, centred(Classify(s)))
}

// Render is Text with the phase colour applied
func Render(s idle.Snapshot, width int) string {
	text := Text(s, width)
	if text == "" {
		return ""
	}
	return styles[Classify(s)].Render(text)
}

func centred(k Kind) bool {
	return k == KindTriggered || k == KindCountdown
}

func fit(msg string, width int, centre bool) string {
	if width < 0 {
		return msg
	}
	if width == 0 {
		return ""
	}

	msg = ansi.Truncate(msg, width, "")
	padding := width - ansi.StringWidth(msg)
	if padding <= 0 {
		return msg
	}
	if !centre {
		return msg + strings.Repeat(" ", padding)
	}
	left := padding / 2
	return strings.Repeat(" ", left) + msg + strings.Repeat(" ", padding-left)
}
