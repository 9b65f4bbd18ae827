package activity

import (
	"context"
	"time"

	"termidle/internal/logging"
	"termidle/internal/proc"
)

// DefaultTTYInterval is how often terminal access times are sampled
const DefaultTTYInterval = time.Second

// TerminalSource finds the processes of a session and their terminals
type TerminalSource interface {
	proc.Source
	TerminalPath(pid int32) (string, error)
}

// TTYWatcher reports activity when the access time of any terminal used by
// the session root's children advances. The kernel updates tty atime on
// input, with a granularity of a few seconds.
type TTYWatcher struct {
	rootPID  int32
	source   TerminalSource
	notify   Notifier
	logger   *logging.Logger
	interval time.Duration

	atime func(path string) (time.Time, error)
	seen  map[string]time.Time
}

// NewTTYWatcher creates a watcher for rootPID's children
func NewTTYWatcher(rootPID int32, source TerminalSource, notify Notifier, logger *logging.Logger) *TTYWatcher {
	return &TTYWatcher{
		rootPID:  rootPID,
		source:   source,
		notify:   notify,
		logger:   logger,
		interval: DefaultTTYInterval,
		atime:    accessTime,
		seen:     make(map[string]time.Time),
	}
}

// Run samples until ctx is cancelled
func (w *TTYWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.Poll(ctx)
		}
	}
}

// Poll samples every terminal once and reports whether input was seen.
// Terminals seen for the first time only establish a baseline.
func (w *TTYWatcher) Poll(ctx context.Context) bool {
	snap, err := w.source.Snapshot(ctx)
	if err != nil {
		w.logger.Debug("activity.tty.snapshot_failed", "Failed to snapshot processes", map[string]interface{}{
			"error": err.Error(),
		})
		return false
	}

	current := make(map[string]time.Time)
	active := false
	for _, child := range snap.Children(w.rootPID) {
		if !child.HasTerminal() {
			continue
		}
		path, err := w.source.TerminalPath(child.PID)
		if err != nil {
			continue
		}
		if _, done := current[path]; done {
			continue
		}
		at, err := w.atime(path)
		if err != nil {
			continue
		}
		current[path] = at

		if prev, ok := w.seen[path]; ok && at.After(prev) {
			active = true
			w.logger.Debug("activity.tty.input", "Terminal input observed", map[string]interface{}{
				"tty": path,
			})
		}
	}
	w.seen = current

	if active {
		w.notify("tty")
	}
	return active
}
