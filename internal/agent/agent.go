// Package agent runs the idle engine: it owns the tick timer, dispatches
// probes and power actions outside the loop and feeds their results back in
// as events, one at a time.
package agent

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"termidle/internal/idle"
	"termidle/internal/logging"
	"termidle/internal/power"
)

const (
	// DefaultFirstTick is the delay before the loading tick
	DefaultFirstTick = time.Second
	// DefaultProbeTimeout bounds a single classification request
	DefaultProbeTimeout = 10 * time.Second
)

// ActionRunner performs a power action. power.Executor is the production
// implementation.
type ActionRunner interface {
	Run(ctx context.Context, action power.Action) (string, error)
}

// Options configures an Agent
type Options struct {
	Engine idle.Config
	Prober idle.Prober
	Runner ActionRunner

	// States persists a snapshot after every event. Optional.
	States *idle.StateManager
	// Recorder receives episode milestones. Optional.
	Recorder idle.Recorder

	// FirstTick and Interval default to DefaultFirstTick and idle.PollInterval.
	// Interval only paces the loop; the engine accounts in PollInterval units.
	FirstTick    time.Duration
	Interval     time.Duration
	ProbeTimeout time.Duration

	// HandleSignals makes Run stop on SIGINT, SIGTERM and SIGHUP.
	HandleSignals bool
}

type probeResult struct {
	verdict idle.PollVerdict
	err     error
}

// Agent serializes every event for one session's engine
type Agent struct {
	opts   Options
	logger *logging.Logger
	engine *idle.Engine

	verdicts chan probeResult
	results  chan idle.ActionCompleted
	activity chan string

	probing bool
	workers sync.WaitGroup
}

// New creates an agent. The engine starts in the loading state.
func New(opts Options, logger *logging.Logger) *Agent {
	if opts.FirstTick <= 0 {
		opts.FirstTick = DefaultFirstTick
	}
	if opts.Interval <= 0 {
		opts.Interval = idle.PollInterval
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}

	return &Agent{
		opts:     opts,
		logger:   logger,
		engine:   idle.NewEngine(opts.Engine, logger, opts.Recorder),
		verdicts: make(chan probeResult, 1),
		results:  make(chan idle.ActionCompleted, 1),
		activity: make(chan string, 16),
	}
}

// NotifyActivity reports user input. It never blocks: while a previous
// notification is still queued, further ones are redundant.
func (a *Agent) NotifyActivity(source string) {
	select {
	case a.activity <- source:
	default:
	}
}

// Run drives the engine until ctx is cancelled or a termination signal arrives
func (a *Agent) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.logger.Info("agent.started", "Idle watcher started", map[string]interface{}{
		"pid":      os.Getpid(),
		"root_pid": a.opts.Engine.RootPID,
		"interval": a.opts.Interval.String(),
	})

	var sigChan chan os.Signal
	if a.opts.HandleSignals {
		sigChan = make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(sigChan)
	}

	// Each tick schedules exactly one successor.
	timer := time.NewTimer(a.opts.FirstTick)
	defer timer.Stop()

	a.persist()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("agent.context_cancelled", "Agent context cancelled", nil)
			return a.shutdown(cancel)

		case sig := <-sigChan:
			a.logger.Info("agent.signal_received", "Received signal", map[string]interface{}{
				"signal": sig.String(),
			})
			return a.shutdown(cancel)

		case <-timer.C:
			a.apply(ctx, a.engine.Handle(idle.Tick{}))
			timer.Reset(a.opts.Interval)

		case res := <-a.verdicts:
			a.probing = false
			if res.err != nil {
				a.logger.Warn("agent.probe.failed", "Classification failed, treating poll as inconclusive", map[string]interface{}{
					"error": res.err.Error(),
				})
				continue
			}
			a.logger.Debug("agent.probe.verdict", "Classification verdict", map[string]interface{}{
				"total":  res.verdict.TotalChildren,
				"active": res.verdict.ActiveCount,
				"labels": res.verdict.ActiveLabels,
			})
			a.apply(ctx, a.engine.Handle(idle.VerdictArrived{Verdict: res.verdict}))

		case source := <-a.activity:
			a.apply(ctx, a.engine.Handle(idle.ActivityObserved{Source: source}))

		case done := <-a.results:
			a.apply(ctx, a.engine.Handle(done))
		}
	}
}

// apply performs effects and persists the post-event snapshot
func (a *Agent) apply(ctx context.Context, effects []idle.Effect) {
	for _, eff := range effects {
		switch eff := eff.(type) {
		case idle.RequestProbe:
			a.startProbe(ctx)
		case idle.InvokeAction:
			a.startAction(ctx, eff)
		}
	}
	a.persist()
}

func (a *Agent) startProbe(ctx context.Context) {
	if a.probing {
		a.logger.Debug("agent.probe.skipped", "Previous classification still running", nil)
		return
	}
	a.probing = true

	a.workers.Add(1)
	go func() {
		defer a.workers.Done()

		probeCtx, cancel := context.WithTimeout(ctx, a.opts.ProbeTimeout)
		defer cancel()

		var res probeResult
		classifications, err := a.opts.Prober.Probe(probeCtx, a.opts.Engine.RootPID)
		if err != nil {
			res.err = err
		} else {
			res.verdict = idle.Aggregate(classifications)
		}

		select {
		case a.verdicts <- res:
		case <-ctx.Done():
		}
	}()
}

func (a *Agent) startAction(ctx context.Context, inv idle.InvokeAction) {
	a.workers.Add(1)
	go func() {
		defer a.workers.Done()

		output, err := a.opts.Runner.Run(ctx, inv.Action)
		done := idle.ActionCompleted{Action: inv.Action, EpisodeID: inv.EpisodeID, Output: output, Err: err}

		select {
		case a.results <- done:
		case <-ctx.Done():
		}
	}()
}

func (a *Agent) persist() {
	if a.opts.States == nil {
		return
	}
	if err := a.opts.States.Save(a.engine.Snapshot()); err != nil {
		a.logger.Warn("agent.state.save_failed", "Failed to save idle state", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (a *Agent) shutdown(cancel context.CancelFunc) error {
	cancel()
	a.workers.Wait()

	if a.opts.States != nil {
		if err := a.opts.States.Delete(); err != nil {
			a.logger.Warn("agent.state.delete_failed", "Failed to remove state file", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	a.logger.Info("agent.shutdown", "Idle watcher stopped", map[string]interface{}{
		"polls": a.engine.State().PollCount,
	})
	return nil
}

// Snapshot returns the engine snapshot. Only call it after Run has returned.
func (a *Agent) Snapshot() idle.Snapshot {
	return a.engine.Snapshot()
}
