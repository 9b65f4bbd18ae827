package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"termidle/internal/agent"
	"termidle/internal/config"
	"termidle/internal/fsutil"
	"termidle/internal/idle"
	"termidle/internal/journal"
	"termidle/internal/logging"
	"termidle/internal/power"
	"termidle/internal/proc"
)

// rootPIDEnv is exported to wrapped sessions so nested commands find their watcher
const rootPIDEnv = "TERMIDLE_ROOT_PID"

type globalOptions struct {
	configFile string
	sets       []string
	logLevel   string
}

var globals globalOptions

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "termidle",
		Short:   "Suspend or stop the host when a terminal session goes idle",
		Version: version,
		Long: `termidle watches the processes of a terminal session. When every pane sits
at a prompt for long enough it starts a countdown and then suspends (or stops)
the machine. Any keystroke or busy foreground program cancels it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&globals.configFile, "config", "c", "", "config file (merged over system and user config)")
	root.PersistentFlags().StringArrayVar(&globals.sets, "set", nil, "override a config key (key=value), repeatable")
	root.PersistentFlags().StringVar(&globals.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newRunCmd(),
		newWatchCmd(),
		newProbeCmd(),
		newStatusCmd(),
		newMonitorCmd(),
		newDoctorCmd(),
		newConfigCmd(),
		newJournalCmd(),
		newDiagCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig applies --config and --set on top of the system and user files
func loadConfig() (config.Config, error) {
	overrides := make(map[string]string, len(globals.sets))
	for _, arg := range globals.sets {
		key, value, err := config.ParseOverride(arg)
		if err != nil {
			return config.Config{}, err
		}
		overrides[key] = value
	}
	if globals.logLevel != "" {
		overrides["logging.level"] = globals.logLevel
	}
	return config.Load(config.LoadOptions{File: globals.configFile, Overrides: overrides})
}

// resolveStateDir prefers the configured directory, then TERMIDLE_STATE_DIR
func resolveStateDir(cfg config.Config) string {
	if cfg.StateDir != "" {
		return cfg.StateDir
	}
	return fsutil.GetStateDir(fsutil.DefaultStateDir())
}

// newLogger opens the configured sink. fallbackFile is used when no file is
// configured and stderr must stay clean (the wrapped terminal).
func newLogger(cfg config.Config, fallbackFile string) (*logging.Logger, error) {
	level := logging.ParseLevel(cfg.Logging.Level)
	format := logging.ParseFormat(cfg.Logging.Format)

	path := cfg.Logging.File
	if path == "" {
		path = fallbackFile
	}
	if path == "" {
		return logging.NewWriterLogger(level, format, os.Stderr), nil
	}
	return logging.NewFileLogger(level, format, path)
}

// rootPIDFromEnv returns the session root exported by `termidle run`
func rootPIDFromEnv() int32 {
	pid, err := strconv.ParseInt(os.Getenv(rootPIDEnv), 10, 32)
	if err != nil || pid <= 0 {
		return 0
	}
	return int32(pid)
}

func newProber(cfg config.Config, logger *logging.Logger) idle.Prober {
	if cfg.Idle.ProbeCommand != "" {
		return idle.NewCommandProber(cfg.Idle.ProbeCommand, logger)
	}
	return newSnapshotProber(cfg, logger)
}

func newSnapshotProber(cfg config.Config, logger *logging.Logger) *idle.SnapshotProber {
	classifier := idle.NewClassifier(cfg.Idle.IgnoreProcesses, cfg.Idle.AgentDetection)
	return idle.NewSnapshotProber(proc.NewScanner(logger), classifier)
}

func newExecutor(cfg config.Config, logger *logging.Logger) *power.Executor {
	return power.NewExecutor(cfg.Idle.SuspendCommand, cfg.Idle.StopCommand, logger)
}

// session holds what a watching command needs for one root pid
type session struct {
	rootPID  int32
	stateDir string
	lock     *fsutil.SessionLock
	agent    *agent.Agent
}

// openSession takes the per-root lock and builds the agent
func openSession(cfg config.Config, rootPID int32, logger *logging.Logger, handleSignals bool) (*session, error) {
	stateDir := resolveStateDir(cfg)
	if err := fsutil.EnsureStateDirectory(stateDir); err != nil {
		return nil, err
	}

	lock, err := fsutil.AcquireSessionLock(stateDir, rootPID)
	if err != nil {
		return nil, fmt.Errorf("session %d: %w", rootPID, err)
	}

	a := agent.New(agent.Options{
		Engine: idle.Config{
			RootPID:         rootPID,
			IdleTimeoutSecs: cfg.Idle.IdleTimeoutSecs,
			CountdownSecs:   cfg.Idle.CountdownSecs,
			Action:          cfg.Idle.SuspendAction,
		},
		Prober:        newProber(cfg, logger),
		Runner:        newExecutor(cfg, logger),
		States:        idle.SessionStateManager(stateDir, rootPID, logger),
		Recorder:      journal.InStateDir(stateDir, logger),
		HandleSignals: handleSignals,
	}, logger)

	return &session{rootPID: rootPID, stateDir: stateDir, lock: lock, agent: a}, nil
}

func (s *session) close() {
	_ = s.lock.Release()
}
