//go:build !linux

package proc

import (
	"context"
	"fmt"

	"termidle/internal/logging"
)

// Scanner is unavailable outside Linux (stub)
type Scanner struct {
	logger *logging.Logger
}

// NewScanner creates a scanner stub
func NewScanner(logger *logging.Logger) *Scanner {
	return &Scanner{logger: logger}
}

// Snapshot always fails on non-Linux systems
func (s *Scanner) Snapshot(context.Context) (Snapshot, error) {
	return nil, fmt.Errorf("process scanning only supported on Linux")
}

// TerminalPath always fails on non-Linux systems
func (s *Scanner) TerminalPath(pid int32) (string, error) {
	return "", fmt.Errorf("terminal lookup only supported on Linux")
}
