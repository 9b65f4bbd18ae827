package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/spf13/cobra"

	"termidle/internal/activity"
	"termidle/internal/fsutil"
	"termidle/internal/idle"
	"termidle/internal/logging"
	"termidle/internal/proc"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [--] [command [args...]]",
		Short: "Run a command (default $SHELL) in a watched pseudo terminal",
		Long: `run starts the command on a pseudo terminal and watches it. termidle itself
is the session root, keystrokes count as activity and logs go to a file in the
state directory so they never mix with the terminal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			argv := args
			if len(argv) == 0 {
				shell := os.Getenv("SHELL")
				if shell == "" {
					shell = "/bin/sh"
				}
				argv = []string{shell}
			}
			return runWrapped(argv)
		},
	}
}

func runWrapped(argv []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rootPID := int32(os.Getpid()) // #nosec G115 -- pids fit in int32
	stateDir := resolveStateDir(cfg)
	logger, err := newLogger(cfg, fsutil.SessionFile(stateDir, rootPID, ".log"))
	if err != nil {
		return err
	}
	defer logger.Close()

	s, err := openSession(cfg, rootPID, logger, false)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	agentCtx, cancelAgent := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.agent.Run(agentCtx); err != nil {
			logger.Error("agent.failed", "Idle watcher stopped with error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	wrapper := activity.NewPTYWrapper(argv, s.agent.NotifyActivity, logger)
	code, runErr := wrapper.Run(ctx)

	cancelAgent()
	wg.Wait()

	if runErr != nil {
		return runErr
	}
	if code != 0 {
		return exitCodeError{code: code}
	}
	return nil
}

func newWatchCmd() *cobra.Command {
	var pid int32

	cmd := &cobra.Command{
		Use:   "watch --pid PID",
		Short: "Watch an existing session root (tmux, zellij or screen server)",
		Long: `watch classifies the children of PID every poll. Input is detected from the
access time of their terminals. The watcher exits when PID goes away.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pid <= 0 {
				pid = rootPIDFromEnv()
			}
			if pid <= 0 {
				return errors.New("--pid is required")
			}
			return runWatch(cmd.Context(), pid)
		},
	}
	cmd.Flags().Int32VarP(&pid, "pid", "p", 0, "session root pid (default $TERMIDLE_ROOT_PID)")
	return cmd
}

func runWatch(parent context.Context, rootPID int32) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, "")
	if err != nil {
		return err
	}
	defer logger.Close()

	if exists, err := process.PidExistsWithContext(parent, rootPID); err == nil && !exists {
		return fmt.Errorf("process %d does not exist", rootPID)
	}

	s, err := openSession(cfg, rootPID, logger, true)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	watcher := activity.NewTTYWatcher(rootPID, proc.NewScanner(logger), s.agent.NotifyActivity, logger)
	go func() { _ = watcher.Run(ctx) }()
	go watchRoot(ctx, cancel, rootPID, logger)

	return s.agent.Run(ctx)
}

// watchRoot cancels the watcher once the session root has exited
func watchRoot(ctx context.Context, cancel context.CancelFunc, rootPID int32, logger *logging.Logger) {
	ticker := time.NewTicker(idle.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			exists, err := process.PidExistsWithContext(ctx, rootPID)
			if err == nil && !exists {
				logger.Info("agent.root.exited", "Session root exited, stopping", map[string]interface{}{
					"root_pid": rootPID,
				})
				cancel()
				return
			}
		}
	}
}
