package power

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"termidle/internal/logging"
)

// CommandRunner executes argv and returns its combined output
type CommandRunner func(ctx context.Context, argv []string) ([]byte, error)

// Executor runs the configured host command for an action. It never retries;
// the caller decides what a failure means.
type Executor struct {
	commands map[Action]string
	logger   *logging.Logger
	run      CommandRunner
}

// NewExecutor creates an executor. Commands are split on whitespace and run
// without a shell.
func NewExecutor(suspendCommand, stopCommand string, logger *logging.Logger) *Executor {
	return &Executor{
		commands: map[Action]string{
			ActionSuspend: suspendCommand,
			ActionStop:    stopCommand,
		},
		logger: logger,
		run:    execRunner,
	}
}

// WithRunner replaces the command runner. Used by tests and dry runs.
func (e *Executor) WithRunner(run CommandRunner) *Executor {
	e.run = run
	return e
}

// Command returns the argv configured for action
func (e *Executor) Command(action Action) ([]string, error) {
	if action == ActionNone {
		return nil, errors.New("action none has no command")
	}
	cmd, ok := e.commands[action]
	if !ok {
		return nil, fmt.Errorf("unknown action %q", action)
	}
	argv := strings.Fields(cmd)
	if len(argv) == 0 {
		return nil, fmt.Errorf("no command configured for action %q", action)
	}
	return argv, nil
}

// Run issues the action once and returns the command's output
func (e *Executor) Run(ctx context.Context, action Action) (string, error) {
	argv, err := e.Command(action)
	if err != nil {
		return "", err
	}

	if _, inhibitors, err := e.ActiveInhibitors(ctx); err == nil && len(inhibitors) > 0 {
		e.logger.Warn("power.inhibit.present", "Inhibitors active, requesting action anyway", map[string]interface{}{
			"action":     string(action),
			"inhibitors": inhibitors,
		})
	}

	e.logger.Info("power.action.requested", "Power action requested", map[string]interface{}{
		"action":  string(action),
		"command": strings.Join(argv, " "),
	})

	output, err := e.run(ctx, argv)
	text := strings.TrimSpace(string(output))
	if err != nil {
		e.logger.Error("power.action.failed", "Power action command failed", map[string]interface{}{
			"action": string(action),
			"error":  err.Error(),
			"output": text,
		})
		return text, fmt.Errorf("%s failed: %w", argv[0], err)
	}

	e.logger.Info("power.action.done", "Power action command completed", map[string]interface{}{
		"action": string(action),
	})
	return text, nil
}

// ActiveInhibitors lists systemd inhibitors that block sleep or shutdown
func (e *Executor) ActiveInhibitors(ctx context.Context) (bool, []string, error) {
	output, err := e.run(ctx, []string{"systemd-inhibit", "--list", "--no-pager", "--no-legend"})
	if err != nil {
		return false, nil, err
	}

	inhibitors := parseInhibitors(string(output))
	e.logger.Debug("power.inhibit.checked", "Checked for inhibitors", map[string]interface{}{
		"has_inhibit": len(inhibitors) > 0,
		"inhibitors":  inhibitors,
	})
	return len(inhibitors) > 0, inhibitors, nil
}

func parseInhibitors(output string) []string {
	inhibitors := make([]string, 0)
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if !strings.Contains(line, "sleep") && !strings.Contains(line, "shutdown") {
			continue
		}
		if fields := strings.Fields(line); len(fields) > 0 {
			inhibitors = append(inhibitors, fields[0])
		}
	}
	return inhibitors
}

// CheckCapability verifies that action could be performed, without performing it
func (e *Executor) CheckCapability(ctx context.Context, action Action) error {
	if action == ActionNone {
		return nil
	}
	argv, err := e.Command(action)
	if err != nil {
		return err
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return fmt.Errorf("%s not found: %w", argv[0], err)
	}

	// systemd only exposes a capability query for sleep states.
	if argv[0] != "systemctl" || action != ActionSuspend {
		return nil
	}
	if _, err := e.run(ctx, []string{"systemctl", "can-suspend"}); err != nil {
		return fmt.Errorf("%s not supported by system: %w", action, err)
	}
	return nil
}

func execRunner(ctx context.Context, argv []string) ([]byte, error) {
	// #nosec G204 -- argv comes from the operator's configuration
	return exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
}
