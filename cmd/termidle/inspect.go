package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"termidle/internal/idle"
	"termidle/internal/logging"
	"termidle/internal/status"
	"termidle/internal/tui"
)

func newProbeCmd() *cobra.Command {
	var (
		pid     int32
		verdict bool
	)

	cmd := &cobra.Command{
		Use:   "probe --pid PID",
		Short: "Classify the children of PID once and print one line per child",
		Long: `probe prints "<status>:<pid>:<label>" for every child of PID that holds a
terminal. The output is what probe_command must produce, so one termidle can
serve as the probe of another (for example across a container boundary).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pid <= 0 {
				pid = rootPIDFromEnv()
			}
			if pid <= 0 {
				return errors.New("--pid is required")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := logging.Discard()

			classifications, err := newSnapshotProber(cfg, logger).Probe(cmd.Context(), pid)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if verdict {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(idle.Aggregate(classifications))
			}
			return idle.WriteLines(out, classifications)
		},
	}
	cmd.Flags().Int32VarP(&pid, "pid", "p", 0, "session root pid (default $TERMIDLE_ROOT_PID)")
	cmd.Flags().BoolVar(&verdict, "verdict", false, "print the aggregated verdict as JSON instead")
	return cmd
}

func newStatusCmd() *cobra.Command {
	var (
		pid    int32
		width  int
		color  bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the status line of a watched session",
		Long: `status renders the last state written by a watcher, e.g. for a tmux
status-right. Without --pid it uses $TERMIDLE_ROOT_PID or the only session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			stateDir := resolveStateDir(cfg)

			if pid <= 0 {
				pid = rootPIDFromEnv()
			}
			if pid <= 0 {
				pids, err := idle.ListSessions(stateDir)
				if err != nil {
					return err
				}
				if len(pids) != 1 {
					return fmt.Errorf("%d sessions found in %s, pass --pid", len(pids), stateDir)
				}
				pid = pids[0]
			}

			snap, err := idle.SessionStateManager(stateDir, pid, logging.Discard()).Load()
			if err != nil {
				if errors.Is(err, idle.ErrNoState) {
					return fmt.Errorf("session %d is not watched", pid)
				}
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}

			line := status.Text(snap, width)
			if color {
				line = status.Render(snap, width)
			}
			_, err = fmt.Fprintln(out, line)
			return err
		},
	}
	cmd.Flags().Int32VarP(&pid, "pid", "p", 0, "session root pid")
	cmd.Flags().IntVarP(&width, "width", "w", status.Unbounded, "pad or truncate to this many cells (-1: natural width)")
	cmd.Flags().BoolVar(&color, "color", false, "colour the line with ANSI escapes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full snapshot as JSON")
	return cmd
}

func newMonitorCmd() *cobra.Command {
	var pid int32

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Live view of watched sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !term.IsTerminal(int(os.Stdout.Fd())) { // #nosec G115 -- file descriptors fit in int
				return errors.New("monitor needs a terminal")
			}

			logger := logging.Discard()
			model := tui.NewModel(logger, resolveStateDir(cfg), pid)
			_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
			return err
		},
	}
	cmd.Flags().Int32VarP(&pid, "pid", "p", 0, "show only this session")
	return cmd
}
