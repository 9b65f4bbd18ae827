//go:build !windows

package activity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"

	"termidle/internal/logging"
)

// PTYWrapper runs a command on a pseudo terminal, relays the user's terminal
// to it and reports every burst of keyboard input as activity. The command
// becomes a child of the current process, so the current pid is the session
// root.
type PTYWrapper struct {
	argv   []string
	notify Notifier
	logger *logging.Logger

	stdin  *os.File
	stdout io.Writer
}

// NewPTYWrapper creates a wrapper for argv
func NewPTYWrapper(argv []string, notify Notifier, logger *logging.Logger) *PTYWrapper {
	return &PTYWrapper{
		argv:   argv,
		notify: notify,
		logger: logger,
		stdin:  os.Stdin,
		stdout: os.Stdout,
	}
}

// Run starts the command and blocks until it exits or ctx is cancelled. It
// returns the command's exit code.
func (w *PTYWrapper) Run(ctx context.Context) (int, error) {
	if len(w.argv) == 0 {
		return 1, errors.New("no command to run")
	}

	// #nosec G204 -- the user names the command to wrap
	cmd := exec.Command(w.argv[0], w.argv[1:]...)
	cmd.Env = append(os.Environ(), fmt.Sprintf("TERMIDLE_ROOT_PID=%d", os.Getpid()))

	stdinFd := int(w.stdin.Fd()) // #nosec G115 -- file descriptors fit in int
	interactive := term.IsTerminal(stdinFd)

	var size *pty.Winsize
	if interactive {
		if ws, err := pty.GetsizeFull(w.stdin); err == nil {
			size = ws
		}
	}

	ptmx, err := pty.StartWithSize(cmd, size)
	if err != nil {
		return 1, fmt.Errorf("start %s on pty: %w", w.argv[0], err)
	}
	defer ptmx.Close()

	w.logger.Info("activity.pty.started", "Wrapped command started", map[string]interface{}{
		"command": w.argv[0],
		"pid":     cmd.Process.Pid,
	})

	if interactive {
		oldState, err := term.MakeRaw(stdinFd)
		if err != nil {
			w.logger.Warn("activity.pty.raw_failed", "Failed to put terminal in raw mode", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer func() { _ = term.Restore(stdinFd, oldState) }()
		}

		winch := make(chan os.Signal, 1)
		signal.Notify(winch, syscall.SIGWINCH)
		defer signal.Stop(winch)
		go func() {
			for range winch {
				if ws, err := pty.GetsizeFull(w.stdin); err == nil {
					_ = pty.Setsize(ptmx, ws)
				}
			}
		}()
	}

	go func() {
		_, _ = io.Copy(ptmx, NewReader(w.stdin, "stdin", w.notify))
	}()
	go func() {
		_, _ = io.Copy(w.stdout, ptmx)
	}()

	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	select {
	case err = <-waitErr:
	case <-ctx.Done():
		_ = cmd.Process.Signal(syscall.SIGHUP)
		err = <-waitErr
	}

	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return 1, fmt.Errorf("wait for %s: %w", w.argv[0], err)
		}
		code = exitErr.ExitCode()
	}

	w.logger.Info("activity.pty.exited", "Wrapped command exited", map[string]interface{}{
		"command":   w.argv[0],
		"exit_code": code,
	})
	return code, nil
}
