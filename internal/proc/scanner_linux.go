//go:build linux

package proc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"termidle/internal/logging"
)

// Scanner builds snapshots of the live Linux process table. Pids and command
// lines come from gopsutil; terminal relationships come from /proc/<pid>/stat,
// which gopsutil does not expose (tpgid in particular).
type Scanner struct {
	procRoot string
	logger   *logging.Logger
	listPIDs func(ctx context.Context) ([]int32, error)
	cmdline  func(ctx context.Context, pid int32) ([]string, error)
}

// NewScanner creates a scanner over /proc
func NewScanner(logger *logging.Logger) *Scanner {
	return &Scanner{
		procRoot: "/proc",
		logger:   logger,
		listPIDs: process.PidsWithContext,
		cmdline:  gopsutilCmdline,
	}
}

func gopsutilCmdline(ctx context.Context, pid int32) ([]string, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return nil, err
	}
	return p.CmdlineSliceWithContext(ctx)
}

// Snapshot implements Source. Processes that exit mid-scan are skipped.
func (s *Scanner) Snapshot(ctx context.Context) (Snapshot, error) {
	pids, err := s.listPIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pids: %w", err)
	}

	table := NewTable()
	for _, pid := range pids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(filepath.Join(s.procRoot, strconv.Itoa(int(pid)), "stat"))
		if err != nil {
			continue
		}
		p, err := ParseStat(string(data))
		if err != nil {
			s.logger.Debug("proc.stat.malformed", "Skipping unparseable stat entry", map[string]interface{}{
				"pid":   pid,
				"error": err.Error(),
			})
			continue
		}

		if p.HasTerminal() {
			if args, err := s.cmdline(ctx, pid); err == nil {
				p.Cmdline = args
			}
		}
		table.Add(p)
	}

	return table, nil
}

// TerminalPath resolves the terminal device a process reads its input from,
// e.g. /dev/pts/3.
func (s *Scanner) TerminalPath(pid int32) (string, error) {
	target, err := os.Readlink(filepath.Join(s.procRoot, strconv.Itoa(int(pid)), "fd", "0"))
	if err != nil {
		return "", fmt.Errorf("resolve stdin of %d: %w", pid, err)
	}
	if !strings.HasPrefix(target, "/dev/") {
		return "", fmt.Errorf("stdin of %d is not a terminal: %s", pid, target)
	}
	return target, nil
}
