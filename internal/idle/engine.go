package idle

import (
	"time"

	"github.com/google/uuid"

	"termidle/internal/logging"
	"termidle/internal/power"
)

// Config holds the engine's timing and action settings
type Config struct {
	RootPID         int32
	IdleTimeoutSecs float64
	CountdownSecs   float64
	Action          power.Action
}

// Engine is the polling state machine. It is not safe for concurrent use:
// the host serializes events through Handle.
type Engine struct {
	config   Config
	state    State
	logger   *logging.Logger
	recorder Recorder

	now       func() time.Time
	episodeID func() string
}

// NewEngine creates an engine in the loading state. recorder may be nil.
func NewEngine(config Config, logger *logging.Logger, recorder Recorder) *Engine {
	return &Engine{
		config:    config,
		state:     State{Lifecycle: LifecycleLoading, ActiveLabels: []string{}},
		logger:    logger,
		recorder:  recorder,
		now:       time.Now,
		episodeID: uuid.NewString,
	}
}

// State returns a copy of the current state
func (e *Engine) State() State {
	s := e.state
	s.ActiveLabels = append([]string{}, e.state.ActiveLabels...)
	return s
}

// Snapshot returns an immutable view for rendering and persistence
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		State:           e.State(),
		RootPID:         e.config.RootPID,
		IdleTimeoutSecs: e.config.IdleTimeoutSecs,
		CountdownSecs:   e.config.CountdownSecs,
		Action:          e.config.Action,
		UpdatedAt:       e.now().UTC(),
	}
}

// Handle applies one event and returns the effects the host must perform.
func (e *Engine) Handle(ev Event) []Effect {
	switch ev := ev.(type) {
	case Tick:
		return e.onTick()
	case VerdictArrived:
		e.onVerdict(ev.Verdict)
	case ActivityObserved:
		e.onActivity(ev.Source)
	case ActionCompleted:
		e.onActionCompleted(ev)
	}
	return nil
}

func (e *Engine) onTick() []Effect {
	s := &e.state

	if s.Lifecycle == LifecycleLoading {
		e.state = State{Lifecycle: LifecycleMonitoring, ActiveLabels: s.ActiveLabels}
		e.logger.Info("idle.engine.monitoring", "Idle monitoring started", map[string]interface{}{
			"root_pid":          e.config.RootPID,
			"idle_timeout_secs": e.config.IdleTimeoutSecs,
			"countdown_secs":    e.config.CountdownSecs,
			"action":            string(e.config.Action),
		})
		return nil
	}

	var effects []Effect

	s.PollCount++
	if s.IsIdle {
		// Re-derived from the last activity so missed ticks self-correct.
		s.IdleElapsedSecs = float64(s.PollCount-s.LastActivityPollCount) * PollInterval.Seconds()
	}

	if s.CountdownActive {
		s.CountdownRemainingSecs -= PollInterval.Seconds()
		if s.CountdownRemainingSecs <= 0 {
			s.SuspendTriggered = true
			s.CountdownActive = false
			if eff := e.trigger(); eff != nil {
				effects = append(effects, eff)
			}
		}
	} else if s.IsIdle && s.IdleElapsedSecs >= e.config.IdleTimeoutSecs {
		s.CountdownActive = true
		s.CountdownRemainingSecs = e.config.CountdownSecs
		e.logger.Warn("idle.countdown.started", "Idle timeout reached, countdown started", map[string]interface{}{
			"episode_id":   s.EpisodeID,
			"idle_elapsed": s.IdleElapsedSecs,
			"remaining_s":  s.CountdownRemainingSecs,
			"action":       string(e.config.Action),
		})
		e.record(RecordCountdownStarted, "", "")
	}

	return append(effects, RequestProbe{})
}

// trigger issues the action at most once per episode. The guard is cleared
// only by an activity reset.
func (e *Engine) trigger() Effect {
	s := &e.state

	if s.SuspendSent {
		e.logger.Debug("idle.action.skipped", "Action already sent for this episode", map[string]interface{}{
			"episode_id": s.EpisodeID,
		})
		e.record(RecordActionSkipped, "already_sent", "")
		return nil
	}
	s.SuspendSent = true

	if e.config.Action == power.ActionNone {
		e.logger.Info("idle.action.none", "Countdown expired, no action configured", map[string]interface{}{
			"episode_id": s.EpisodeID,
		})
		e.record(RecordActionSkipped, "action_none", "")
		return nil
	}

	e.logger.Warn("idle.action.triggered", "Countdown expired, issuing action", map[string]interface{}{
		"episode_id": s.EpisodeID,
		"action":     string(e.config.Action),
	})
	e.record(RecordActionTriggered, "", "")
	return InvokeAction{Action: e.config.Action, EpisodeID: s.EpisodeID}
}

func (e *Engine) onVerdict(v PollVerdict) {
	s := &e.state

	if v.Inconclusive() {
		e.logger.Debug("idle.verdict.inconclusive", "No counted children, state unchanged", nil)
		return
	}

	s.ActiveCount = v.ActiveCount
	s.ActiveLabels = append([]string{}, v.ActiveLabels...)

	if v.ActiveCount == 0 {
		if !s.IsIdle {
			s.IsIdle = true
			s.EpisodeID = e.episodeID()
			e.logger.Info("idle.episode.started", "Session became idle", map[string]interface{}{
				"episode_id": s.EpisodeID,
				"children":   v.TotalChildren,
			})
			e.record(RecordEpisodeStarted, "", "")
		}
		return
	}

	if s.IsIdle {
		if s.CountdownActive {
			e.record(RecordCountdownCanceled, "process", "")
		}
		e.logger.Info("idle.episode.ended", "Session became active", map[string]interface{}{
			"episode_id": s.EpisodeID,
			"active":     v.ActiveLabels,
		})
		e.record(RecordEpisodeEnded, "process", "")
	}
	s.IsIdle = false
	s.IdleElapsedSecs = 0
	s.LastActivityPollCount = s.PollCount
	s.CountdownActive = false
	s.EpisodeID = ""
}

func (e *Engine) onActivity(source string) {
	s := &e.state

	if s.IsIdle || s.CountdownActive || s.SuspendTriggered {
		if s.CountdownActive {
			e.record(RecordCountdownCanceled, "activity", source)
		}
		e.logger.Info("idle.activity.reset", "User activity, idle state reset", map[string]interface{}{
			"episode_id": s.EpisodeID,
			"source":     source,
		})
		e.record(RecordEpisodeEnded, "activity", source)
	}

	s.LastActivityPollCount = s.PollCount
	s.IdleElapsedSecs = 0
	s.IsIdle = false
	s.CountdownActive = false
	s.CountdownRemainingSecs = 0
	s.SuspendTriggered = false
	s.SuspendSent = false
	s.EpisodeID = ""
}

func (e *Engine) onActionCompleted(ev ActionCompleted) {
	payload := map[string]interface{}{
		"episode_id": ev.EpisodeID,
		"action":     string(ev.Action),
	}
	if ev.Output != "" {
		payload["output"] = ev.Output
	}

	if ev.Err != nil {
		payload["error"] = ev.Err.Error()
		e.logger.Error("idle.action.failed", "Power action failed, not retrying", payload)
		e.recordFor(ev.EpisodeID, RecordActionFailed, ev.Err.Error(), ev.Output)
		return
	}

	e.logger.Info("idle.action.succeeded", "Power action completed", payload)
	e.recordFor(ev.EpisodeID, RecordActionSucceeded, "", ev.Output)
}

func (e *Engine) record(kind RecordKind, reason, detail string) {
	e.recordFor(e.state.EpisodeID, kind, reason, detail)
}

func (e *Engine) recordFor(episodeID string, kind RecordKind, reason, detail string) {
	if e.recorder == nil {
		return
	}
	rec := Record{
		Timestamp:   e.now().UTC(),
		Kind:        kind,
		EpisodeID:   episodeID,
		RootPID:     e.config.RootPID,
		PollCount:   e.state.PollCount,
		ElapsedSecs: e.state.IdleElapsedSecs,
		Reason:      reason,
		Detail:      detail,
	}
	switch kind {
	case RecordActionTriggered, RecordActionSkipped, RecordActionSucceeded, RecordActionFailed:
		rec.Action = e.config.Action
	case RecordEpisodeEnded:
		rec.Labels = append([]string(nil), e.state.ActiveLabels...)
	}
	e.recorder.Record(rec)
}
