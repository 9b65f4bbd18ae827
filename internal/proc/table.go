package proc

import (
	"context"
	"sort"
)

// Table is an in-memory Snapshot. The Linux scanner fills one per poll and
// tests build them by hand.
type Table struct {
	byPID    map[int32]Process
	children map[int32][]int32
}

// NewTable builds a table from a list of processes.
func NewTable(procs ...Process) *Table {
	t := &Table{
		byPID:    make(map[int32]Process, len(procs)),
		children: make(map[int32][]int32),
	}
	for _, p := range procs {
		t.Add(p)
	}
	return t
}

// Add inserts or replaces a process.
func (t *Table) Add(p Process) {
	if old, ok := t.byPID[p.PID]; ok {
		t.unlink(old)
	}
	t.byPID[p.PID] = p
	kids := append(t.children[p.PPID], p.PID)
	sort.Slice(kids, func(i, j int) bool { return kids[i] < kids[j] })
	t.children[p.PPID] = kids
}

// Remove drops a process, e.g. to simulate it exiting between polls.
func (t *Table) Remove(pid int32) {
	if p, ok := t.byPID[pid]; ok {
		t.unlink(p)
		delete(t.byPID, pid)
	}
}

func (t *Table) unlink(p Process) {
	kids := t.children[p.PPID]
	for i, k := range kids {
		if k == p.PID {
			t.children[p.PPID] = append(kids[:i:i], kids[i+1:]...)
			break
		}
	}
}

// Len returns the number of processes in the table.
func (t *Table) Len() int {
	return len(t.byPID)
}

// Children implements Snapshot.
func (t *Table) Children(pid int32) []Process {
	kids := t.children[pid]
	out := make([]Process, 0, len(kids))
	for _, k := range kids {
		out = append(out, t.byPID[k])
	}
	return out
}

// Lookup implements Snapshot.
func (t *Table) Lookup(pid int32) (Process, error) {
	p, ok := t.byPID[pid]
	if !ok {
		return Process{}, ErrNotFound
	}
	return p, nil
}

// HasChildren implements Snapshot.
func (t *Table) HasChildren(pid int32) bool {
	return len(t.children[pid]) > 0
}

// Snapshot lets a Table act as its own Source in tests.
func (t *Table) Snapshot(context.Context) (Snapshot, error) {
	return t, nil
}
