package idle

import (
	"strings"
	"time"
	"unicode"

	"termidle/internal/power"
)

// PollInterval is the fixed tick period of the engine
const PollInterval = 5 * time.Second

// Status is the verdict for one counted child of the session root
type Status string

// Classification statuses, as written on the line protocol
const (
	StatusIdle   Status = "idle"
	StatusActive Status = "active"
)

// Reason qualifies an idle classification
type Reason string

// Idle reasons
const (
	// ReasonNone: the child itself holds its terminal, nothing runs on top.
	ReasonNone Reason = ""
	// ReasonIgnored: the foreground program is on the ignore list.
	ReasonIgnored Reason = "ignored"
	// ReasonAgentIdle: an agentic tool sits at its own prompt with no children.
	ReasonAgentIdle Reason = "agent-idle"
)

// Classification is the per-child, per-poll verdict
type Classification struct {
	PID    int32
	Status Status
	// Reason is only set for idle classifications.
	Reason Reason
	// Label names the process that decided the verdict.
	Label string
}

// IsActive reports whether the classification keeps the session busy
func (c Classification) IsActive() bool {
	return c.Status == StatusActive
}

// Idle builds an idle classification
func Idle(pid int32, label string, reason Reason) Classification {
	return Classification{PID: pid, Status: StatusIdle, Reason: reason, Label: SanitizeLabel(label)}
}

// Active builds an active classification
func Active(pid int32, label string) Classification {
	return Classification{PID: pid, Status: StatusActive, Label: SanitizeLabel(label)}
}

// SanitizeLabel replaces control characters with '?', as the kernel does in
// /proc/<pid>/status. Process names are chosen by the process itself.
func SanitizeLabel(label string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return '?'
		}
		return r
	}, label)
}

// PollVerdict aggregates one poll's classifications
type PollVerdict struct {
	TotalChildren int      `json:"total_children"`
	ActiveCount   int      `json:"active_count"`
	ActiveLabels  []string `json:"active_labels"`
}

// Inconclusive reports whether the poll found no counted children at all.
// Such a verdict must not move the engine either way.
func (v PollVerdict) Inconclusive() bool {
	return v.TotalChildren == 0
}

// Lifecycle of the engine
type Lifecycle string

// Lifecycle values
const (
	LifecycleLoading    Lifecycle = "loading"
	LifecycleMonitoring Lifecycle = "monitoring"
)

// State is the engine state. It is owned by the engine and only mutated from
// its event handler; callers get copies.
type State struct {
	Lifecycle              Lifecycle `json:"lifecycle"`
	IsIdle                 bool      `json:"is_idle"`
	IdleElapsedSecs        float64   `json:"idle_elapsed_secs"`
	CountdownActive        bool      `json:"countdown_active"`
	CountdownRemainingSecs float64   `json:"countdown_remaining_secs"`
	SuspendTriggered       bool      `json:"suspend_triggered"`
	SuspendSent            bool      `json:"suspend_sent"`
	PollCount              uint64    `json:"poll_count"`
	LastActivityPollCount  uint64    `json:"last_activity_poll_count"`
	ActiveCount            int       `json:"active_count"`
	ActiveLabels           []string  `json:"active_labels"`
	EpisodeID              string    `json:"episode_id,omitempty"`
}

// Snapshot is an immutable view of the engine for rendering and persistence
type Snapshot struct {
	State
	RootPID         int32        `json:"root_pid"`
	IdleTimeoutSecs float64      `json:"idle_timeout_secs"`
	CountdownSecs   float64      `json:"countdown_secs"`
	Action          power.Action `json:"action"`
	UpdatedAt       time.Time    `json:"updated_at"`
}
