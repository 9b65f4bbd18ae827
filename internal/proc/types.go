// Package proc provides process-table snapshots: which processes exist, who
// their parents are and how they relate to their controlling terminal.
package proc

import (
	"context"
	"errors"
)

// ErrNotFound is returned for a pid that is not (or no longer) in the snapshot.
var ErrNotFound = errors.New("process not found")

// Process is one process as seen at snapshot time.
type Process struct {
	PID  int32
	PPID int32
	// PGRP is the process group id.
	PGRP int32
	// TTY is the controlling terminal device number; 0 means none.
	TTY int32
	// TPGID is the foreground process group of the controlling terminal.
	TPGID int32
	// Comm is the bare command name (kernel comm, at most 15 bytes).
	Comm string
	// Cmdline is only populated for processes holding a terminal.
	Cmdline []string
}

// HasTerminal reports whether the process has a controlling terminal.
func (p Process) HasTerminal() bool {
	return p.TTY != 0
}

// IsForeground reports whether the process's own group holds its terminal.
func (p Process) IsForeground() bool {
	return p.PGRP == p.TPGID
}

// Snapshot is a consistent view of the process table for one poll.
type Snapshot interface {
	// Children returns the direct children of pid ordered by pid.
	Children(pid int32) []Process
	// Lookup returns the process with the given pid or ErrNotFound.
	Lookup(pid int32) (Process, error)
	// HasChildren reports whether pid currently has any child process.
	HasChildren(pid int32) bool
}

// Source produces snapshots of the live process table.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}
