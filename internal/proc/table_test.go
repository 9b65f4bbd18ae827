package proc

import (
	"context"
	"errors"
	"testing"
)

func TestTable_ChildrenOrderedByPID(t *testing.T) {
	table := NewTable(
		Process{PID: 30, PPID: 1, Comm: "zsh"},
		Process{PID: 10, PPID: 1, Comm: "bash"},
		Process{PID: 20, PPID: 1, Comm: "fish"},
		Process{PID: 40, PPID: 10, Comm: "vim"},
	)

	kids := table.Children(1)
	if len(kids) != 3 {
		t.Fatalf("Children(1) returned %d processes, want 3", len(kids))
	}
	for i, want := range []int32{10, 20, 30} {
		if kids[i].PID != want {
			t.Errorf("Children(1)[%d].PID = %d, want %d", i, kids[i].PID, want)
		}
	}

	if !table.HasChildren(10) {
		t.Error("HasChildren(10) should be true")
	}
	if table.HasChildren(40) {
		t.Error("HasChildren(40) should be false")
	}
	if len(table.Children(999)) != 0 {
		t.Error("unknown pid should have no children")
	}
}

func TestTable_LookupAndRemove(t *testing.T) {
	table := NewTable(
		Process{PID: 10, PPID: 1, Comm: "bash"},
		Process{PID: 40, PPID: 10, Comm: "vim"},
	)

	p, err := table.Lookup(40)
	if err != nil || p.Comm != "vim" {
		t.Fatalf("Lookup(40) = %+v, %v", p, err)
	}

	table.Remove(40)
	if _, err := table.Lookup(40); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup after Remove error = %v, want ErrNotFound", err)
	}
	if table.HasChildren(10) {
		t.Error("HasChildren(10) should be false after child removed")
	}
	if table.Len() != 1 {
		t.Errorf("Len() = %d, want 1", table.Len())
	}
}

func TestTable_AddReplacesAndReparents(t *testing.T) {
	table := NewTable(Process{PID: 40, PPID: 10, Comm: "vim"})
	table.Add(Process{PID: 40, PPID: 20, Comm: "vim"})

	if table.HasChildren(10) {
		t.Error("old parent still lists the child")
	}
	if kids := table.Children(20); len(kids) != 1 || kids[0].PID != 40 {
		t.Errorf("Children(20) = %+v", kids)
	}
}

func TestTable_IsOwnSource(t *testing.T) {
	table := NewTable(Process{PID: 1})
	snap, err := table.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := snap.Lookup(1); err != nil {
		t.Errorf("Lookup via Snapshot failed: %v", err)
	}
}
