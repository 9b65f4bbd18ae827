package idle

import (
	"time"

	"termidle/internal/power"
)

// RecordKind names an idle-episode milestone
type RecordKind string

// Record kinds
const (
	RecordEpisodeStarted    RecordKind = "episode_started"
	RecordEpisodeEnded      RecordKind = "episode_ended"
	RecordCountdownStarted  RecordKind = "countdown_started"
	RecordCountdownCanceled RecordKind = "countdown_canceled"
	RecordActionTriggered   RecordKind = "action_triggered"
	RecordActionSkipped     RecordKind = "action_skipped"
	RecordActionSucceeded   RecordKind = "action_succeeded"
	RecordActionFailed      RecordKind = "action_failed"
)

// Record is one milestone of an idle episode
type Record struct {
	Timestamp   time.Time    `json:"ts"`
	Kind        RecordKind   `json:"kind"`
	EpisodeID   string       `json:"episode_id,omitempty"`
	RootPID     int32        `json:"root_pid"`
	PollCount   uint64       `json:"poll_count"`
	ElapsedSecs float64      `json:"idle_elapsed_secs"`
	Action      power.Action `json:"action,omitempty"`
	Reason      string       `json:"reason,omitempty"`
	Labels      []string     `json:"labels,omitempty"`
	Detail      string       `json:"detail,omitempty"`
}

// Recorder receives episode milestones. Implementations must not block the
// engine for long; errors are the recorder's own concern.
type Recorder interface {
	Record(rec Record)
}
