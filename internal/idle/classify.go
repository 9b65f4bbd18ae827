package idle

import (
	"errors"
	"strings"

	"termidle/internal/proc"
)

// unknownLabel is used when the foreground group leader has vanished
const unknownLabel = "unknown"

// Agentic tool signature: either the tool binary itself, or a generic runtime
// whose command line names the tool's package.
var (
	agentNames    = map[string]bool{"claude": true, "claude-code": true}
	agentRuntimes = map[string]bool{"node": true}
	agentMarkers  = []string{"@anthropic-ai/claude-code", "claude-code"}
)

// Classifier decides whether one child of the session root is busy.
// It is deterministic for a given snapshot and has no side effects.
type Classifier struct {
	ignore         map[string]struct{}
	agentDetection bool
}

// NewClassifier creates a classifier. Ignore names match the foreground
// command name exactly and case-sensitively.
func NewClassifier(ignore []string, agentDetection bool) *Classifier {
	set := make(map[string]struct{}, len(ignore))
	for _, name := range ignore {
		set[name] = struct{}{}
	}
	return &Classifier{ignore: set, agentDetection: agentDetection}
}

// Classify returns the verdict for one child. counted is false when the
// child has no controlling terminal and must be left out of the poll.
func (c *Classifier) Classify(child proc.Process, snap proc.Snapshot) (Classification, bool) {
	if !child.HasTerminal() {
		return Classification{}, false
	}

	if child.IsForeground() {
		return Idle(child.PID, child.Comm, ReasonNone), true
	}

	fg, err := snap.Lookup(child.TPGID)
	if err != nil {
		if errors.Is(err, proc.ErrNotFound) {
			fg = proc.Process{PID: child.TPGID, Comm: unknownLabel}
		} else {
			return Active(child.PID, unknownLabel), true
		}
	}

	if _, ok := c.ignore[fg.Comm]; ok {
		return Idle(child.PID, fg.Comm, ReasonIgnored), true
	}

	if c.agentDetection && IsAgentTool(fg) {
		if snap.HasChildren(fg.PID) {
			return Active(child.PID, fg.Comm+"(working)"), true
		}
		return Idle(child.PID, fg.Comm, ReasonAgentIdle), true
	}

	return Active(child.PID, fg.Comm), true
}

// ClassifyChildren classifies every counted child of root, in pid order.
func (c *Classifier) ClassifyChildren(root int32, snap proc.Snapshot) []Classification {
	children := snap.Children(root)
	out := make([]Classification, 0, len(children))
	for _, child := range children {
		if cls, counted := c.Classify(child, snap); counted {
			out = append(out, cls)
		}
	}
	return out
}

// IsAgentTool reports whether p looks like an agentic coding tool whose
// process is a dispatcher: busy only while it has children of its own.
func IsAgentTool(p proc.Process) bool {
	if agentNames[p.Comm] {
		return true
	}
	if !agentRuntimes[p.Comm] {
		return false
	}
	for _, arg := range p.Cmdline {
		for _, marker := range agentMarkers {
			if strings.Contains(arg, marker) {
				return true
			}
		}
	}
	return false
}
