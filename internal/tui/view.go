package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"termidle/internal/idle"
	"termidle/internal/status"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00d7ff")).MarginBottom(1)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5fafff")).MarginTop(1)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f")).Bold(true)
	staleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffaf00"))
	cursor     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00d7ff")).Bold(true)
)

// View renders the current screen
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.currentScreen {
	case ScreenDetail:
		return m.renderDetail()
	case ScreenHelp:
		return m.renderHelp()
	default:
		return m.renderSessions()
	}
}

func (m Model) renderSessions() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("termidle sessions"))
	b.WriteString("\n\n")

	if len(m.sessions) == 0 {
		b.WriteString(valueStyle.Render("No watched sessions in " + m.stateDir))
		b.WriteString("\n")
	}

	for i, s := range m.sessions {
		prefix := "  "
		if i == m.selection {
			prefix = cursor.Render("> ")
		}
		pid := fmt.Sprintf("%-8d", s.RootPID)
		line := status.Render(s, max(m.width-12, 20))
		b.WriteString(prefix + labelStyle.Render(pid) + line)
		if m.isStale(s) {
			b.WriteString(staleStyle.Render(" stale"))
		}
		b.WriteString("\n")
	}

	m.renderFooter(&b, "Navigate: ↑/↓ | Detail: Enter | Help: ? | Quit: q")
	return b.String()
}

func (m Model) renderDetail() string {
	var b strings.Builder

	s, ok := m.selected()
	if !ok {
		b.WriteString(titleStyle.Render(fmt.Sprintf("termidle session %d", m.selectedPID())))
		b.WriteString("\n\n")
		b.WriteString(valueStyle.Render("No state recorded for this session (watcher not running?)"))
		b.WriteString("\n")
		m.renderFooter(&b, "Back: Esc | Quit: q")
		return b.String()
	}

	b.WriteString(titleStyle.Render(fmt.Sprintf("termidle session %d", s.RootPID)))
	b.WriteString("\n\n")
	b.WriteString(status.Render(s, max(m.width, 20)))
	b.WriteString("\n\n")

	field := func(label, value string) {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-14s", label)))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	field("Lifecycle", string(s.Lifecycle))
	field("Action", string(s.Action))
	field("Idle", fmt.Sprintf("%ds of %ds", int64(s.IdleElapsedSecs), int64(s.IdleTimeoutSecs)))
	if s.CountdownActive {
		field("Countdown", fmt.Sprintf("%ds of %ds", int64(max(s.CountdownRemainingSecs, 0)), int64(s.CountdownSecs)))
	}
	field("Polls", fmt.Sprintf("%d (last activity at %d)", s.PollCount, s.LastActivityPollCount))
	if len(s.ActiveLabels) > 0 {
		field("Busy", status.JoinLabels(s.ActiveLabels))
	}
	if s.EpisodeID != "" {
		field("Episode", s.EpisodeID)
	}
	updated := s.UpdatedAt.Local().Format(time.TimeOnly)
	if m.isStale(s) {
		updated += staleStyle.Render(" (stale)")
	}
	field("Updated", updated)

	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(Progress(s)))
	b.WriteString("\n")

	if len(m.records) > 0 {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("Recent episodes"))
		b.WriteString("\n")
		for _, rec := range m.records {
			line := fmt.Sprintf("%s  %-18s %s", rec.Timestamp.Local().Format(time.TimeOnly), rec.Kind, shortID(rec.EpisodeID))
			if rec.Reason != "" {
				line += "  " + rec.Reason
			}
			b.WriteString(valueStyle.Render(line))
			b.WriteString("\n")
		}
	}

	hint := "Back: Esc | Reload: r | Help: ? | Quit: q"
	if m.pinned != 0 {
		hint = "Reload: r | Help: ? | Quit: q"
	}
	m.renderFooter(&b, hint)
	return b.String()
}

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("termidle monitor keys"))
	b.WriteString("\n\n")
	for _, k := range DefaultKeyHelp() {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-10s", k.Keys)))
		b.WriteString(valueStyle.Render(k.Description))
		b.WriteString("\n")
	}
	m.renderFooter(&b, "Back: ? or Esc")
	return b.String()
}

func (m Model) renderFooter(b *strings.Builder, hint string) {
	b.WriteString("\n")
	b.WriteString(hintStyle.Render(hint))
	b.WriteString("\n")
	if m.lastError != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("⚠ " + m.lastError))
		b.WriteString("\n")
	}
}

// Progress is how far the session is towards its action: idle time towards
// the timeout, then the countdown. Triggered sessions are full.
func Progress(s idle.Snapshot) float64 {
	switch {
	case s.SuspendTriggered:
		return 1
	case s.CountdownActive && s.CountdownSecs > 0:
		return clamp(1 - s.CountdownRemainingSecs/s.CountdownSecs)
	case s.IsIdle && s.IdleTimeoutSecs > 0:
		return clamp(s.IdleElapsedSecs / s.IdleTimeoutSecs)
	default:
		return 0
	}
}

func clamp(f float64) float64 {
	return min(max(f, 0), 1)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
