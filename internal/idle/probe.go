package idle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"termidle/internal/logging"
	"termidle/internal/proc"
)

// PIDPlaceholder is substituted with the root pid in probe commands
const PIDPlaceholder = "{pid}"

// Prober classifies the children of a session root. Implementations may
// block; the host runs them outside the event loop.
type Prober interface {
	Probe(ctx context.Context, rootPID int32) ([]Classification, error)
}

// SnapshotProber classifies children from an in-process process snapshot
type SnapshotProber struct {
	source     proc.Source
	classifier *Classifier
}

// NewSnapshotProber creates a prober over source
func NewSnapshotProber(source proc.Source, classifier *Classifier) *SnapshotProber {
	return &SnapshotProber{source: source, classifier: classifier}
}

// Probe takes one snapshot and classifies the root's children
func (p *SnapshotProber) Probe(ctx context.Context, rootPID int32) ([]Classification, error) {
	snap, err := p.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("process snapshot: %w", err)
	}
	return p.classifier.ClassifyChildren(rootPID, snap), nil
}

// CommandProber runs an external command speaking the line protocol.
// The command is split on whitespace and executed without a shell.
type CommandProber struct {
	command string
	logger  *logging.Logger
}

// NewCommandProber creates a prober for command. "{pid}" in the command is
// replaced with the root pid.
func NewCommandProber(command string, logger *logging.Logger) *CommandProber {
	return &CommandProber{command: command, logger: logger}
}

// Probe runs the command once and parses its stdout. A non-zero exit is
// logged and whatever was printed is still used.
func (p *CommandProber) Probe(ctx context.Context, rootPID int32) ([]Classification, error) {
	argv := strings.Fields(strings.ReplaceAll(p.command, PIDPlaceholder, strconv.Itoa(int(rootPID))))
	if len(argv) == 0 {
		return nil, errors.New("probe command is empty")
	}

	// #nosec G204 -- command comes from the operator's configuration
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("run probe command: %w", err)
		}
		p.logger.Warn("idle.probe.exit", "Probe command exited non-zero", map[string]interface{}{
			"command":   argv[0],
			"exit_code": exitErr.ExitCode(),
			"stderr":    strings.TrimSpace(stderr.String()),
		})
	}

	return ParseLines(&stdout)
}
