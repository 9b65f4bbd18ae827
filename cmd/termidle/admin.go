package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"termidle/internal/config"
	"termidle/internal/diag"
	"termidle/internal/fsutil"
	"termidle/internal/idle"
	"termidle/internal/journal"
	"termidle/internal/logging"
	"termidle/internal/power"
	"termidle/internal/proc"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that this host can be watched and suspended",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !runDoctor(cmd.Context(), cmd.OutOrStdout(), cfg) {
				return exitCodeError{code: 1}
			}
			return nil
		},
	}
}

// runDoctor prints one line per check and reports whether all passed
func runDoctor(ctx context.Context, out io.Writer, cfg config.Config) bool {
	logger := logging.Discard()
	ok := true
	check := func(name string, err error) {
		if err != nil {
			ok = false
			fmt.Fprintf(out, "❌ %s: %v\n", name, err)
			return
		}
		fmt.Fprintf(out, "✓ %s\n", name)
	}

	stateDir := resolveStateDir(cfg)
	check("state directory "+stateDir, checkWritable(stateDir))

	snap, err := proc.NewScanner(logger).Snapshot(ctx)
	if err == nil {
		_, err = snap.Lookup(int32(os.Getpid())) // #nosec G115 -- pids fit in int32
	}
	check("process table readable", err)

	executor := newExecutor(cfg, logger)
	check(fmt.Sprintf("action %q available", cfg.Idle.SuspendAction), executor.CheckCapability(ctx, cfg.Idle.SuspendAction))

	if cfg.Idle.SuspendAction != power.ActionNone {
		if has, inhibitors, err := executor.ActiveInhibitors(ctx); err != nil {
			fmt.Fprintf(out, "- inhibitors: unknown (%v)\n", err)
		} else if has {
			fmt.Fprintf(out, "! inhibitors active: %v\n", inhibitors)
		} else {
			fmt.Fprintln(out, "✓ no sleep or shutdown inhibitors")
		}
	}

	if cfg.Idle.ProbeCommand != "" {
		_, err := idle.NewCommandProber(cfg.Idle.ProbeCommand, logger).Probe(ctx, int32(os.Getpid())) // #nosec G115
		check("probe command runs", err)
	}

	return ok
}

func checkWritable(dir string) error {
	if err := fsutil.EnsureStateDirectory(dir); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".doctor")
	if err := fsutil.AtomicWriteFile(probe, []byte("ok"), fsutil.DefaultFilePermissions, logging.Discard()); err != nil {
		return err
	}
	return os.Remove(probe)
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or test configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return printConfig(cmd.OutOrStdout(), cfg)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "test [path]",
		Short: "Validate a config file (default: system and user files)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var (
				cfg config.Config
				err error
			)
			if len(args) == 1 {
				fmt.Fprintf(out, "Testing configuration file: %s\n", args[0])
				cfg, err = config.LoadFrom(args[0])
			} else {
				fmt.Fprintln(out, "Testing configuration (system + user merge):")
				fmt.Fprintf(out, "  System config: %s\n", config.SystemConfigPath())
				if userPath := config.UserConfigPath(); userPath != "" {
					fmt.Fprintf(out, "  User config:   %s\n", userPath)
				}
				cfg, err = config.Load(config.LoadOptions{})
			}
			if err != nil {
				fmt.Fprintf(out, "❌ Configuration validation FAILED:\n   %v\n", err)
				return exitCodeError{code: 1}
			}
			fmt.Fprintln(out, "✓ Configuration is valid")
			return printConfig(out, cfg)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "keys",
		Short: "List the idle option keys",
		Run: func(cmd *cobra.Command, args []string) {
			defaults := config.DefaultIdleOptions().Map()
			for _, key := range config.IdleKeys() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-28s default %q\n", key, defaults[key])
			}
		},
	})
	return cmd
}

func printConfig(out io.Writer, cfg config.Config) error {
	doc := struct {
		Idle     map[string]string    `yaml:"idle"`
		Logging  config.LoggingConfig `yaml:"logging"`
		StateDir string               `yaml:"state_dir"`
	}{
		Idle:     cfg.Idle.Map(),
		Logging:  cfg.Logging,
		StateDir: resolveStateDir(cfg),
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = out.Write(data)
	return err
}

func newJournalCmd() *cobra.Command {
	var (
		pid   int32
		lines int
	)

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print recent idle-episode records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path := journal.InStateDir(resolveStateDir(cfg), logging.Discard()).Path()
			records, err := journal.Tail(path, pid, lines)
			if err != nil {
				return err
			}
			sort.SliceStable(records, func(i, j int) bool { return records[i].Timestamp.Before(records[j].Timestamp) })

			out := cmd.OutOrStdout()
			for _, rec := range records {
				line := fmt.Sprintf("%s  %-8d %-18s %s", rec.Timestamp.Local().Format("2006-01-02 15:04:05"), rec.RootPID, rec.Kind, rec.EpisodeID)
				if rec.Reason != "" {
					line += "  " + rec.Reason
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().Int32VarP(&pid, "pid", "p", 0, "only this session")
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "number of records (0: all)")
	return cmd
}

func newDiagCmd() *cobra.Command {
	var (
		output   string
		noLogs   bool
		noConfig bool
	)

	cmd := &cobra.Command{
		Use:   "diag",
		Short: "Write a diagnostic bundle (state, journal, logs, redacted config)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			dc := diag.NewConfig(resolveStateDir(cfg), version)
			if output != "" {
				dc.OutputPath = output
			}
			dc.IncludeLogs = !noLogs
			dc.IncludeConfig = !noConfig
			dc.ConfigFiles["system.yaml"] = config.SystemConfigPath()
			dc.ConfigFiles["user.yaml"] = config.UserConfigPath()
			if globals.configFile != "" {
				dc.ConfigFiles["override.yaml"] = globals.configFile
			}

			var effective bytes.Buffer
			if err := printConfig(&effective, cfg); err != nil {
				return err
			}
			dc.Effective = effective.Bytes()

			path, err := diag.NewPackager(dc, logging.Discard()).CreatePackage()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Diagnostic bundle written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "bundle path (default termidle-diag-<timestamp>.zip)")
	cmd.Flags().BoolVar(&noLogs, "no-logs", false, "leave session logs out")
	cmd.Flags().BoolVar(&noConfig, "no-config", false, "leave config files out")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "termidle version %s\n", version)
		},
	}
}
