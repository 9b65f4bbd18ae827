package idle

import (
	"bytes"
	"context"
	"os/exec"
	"reflect"
	"testing"

	"termidle/internal/logging"
	"termidle/internal/proc"
)

func TestSnapshotProber(t *testing.T) {
	table := proc.NewTable(
		shell(1001, tty1, 1100),
		job(1100, 1001, tty1, "htop"),
		shell(1002, tty2, 1002),
	)
	p := NewSnapshotProber(table, NewClassifier(nil, true))

	got, err := p.Probe(context.Background(), rootPID)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	want := []Classification{Active(1001, "htop"), Idle(1002, "bash", ReasonNone)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Probe() = %+v, want %+v", got, want)
	}
}

// The wire form of an in-process pass must aggregate to the same verdict.
func TestSnapshotProber_WireVerdictMatches(t *testing.T) {
	renamed := shell(200, tty1, 200)
	renamed.Comm = "bash\nactive:1:x"
	table := proc.NewTable(
		proc.Process{PID: rootPID, PPID: 1, PGRP: rootPID, Comm: "tmux: server"},
		renamed,
		shell(201, tty2, 300),
		job(300, 201, tty2, "vim\r"),
	)

	got, err := NewSnapshotProber(table, NewClassifier(nil, true)).Probe(context.Background(), rootPID)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}

	var wire bytes.Buffer
	if err := WriteLines(&wire, got); err != nil {
		t.Fatal(err)
	}
	parsed, err := ParseLines(&wire)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(parsed, got) {
		t.Errorf("parsed = %+v, want %+v", parsed, got)
	}
	direct, viaWire := Aggregate(got), Aggregate(parsed)
	if !reflect.DeepEqual(direct, viaWire) {
		t.Errorf("wire verdict = %+v, in-process verdict = %+v", viaWire, direct)
	}
	if direct.TotalChildren != 2 || direct.ActiveCount != 1 {
		t.Errorf("verdict = %+v, want 2 children with 1 active", direct)
	}
}

func TestCommandProber(t *testing.T) {
	if _, err := exec.LookPath("printf"); err != nil {
		t.Skip("printf not available")
	}
	p := NewCommandProber(`printf idle:{pid}:bash\nbogus\nactive:7:make\n`, logging.Discard())

	got, err := p.Probe(context.Background(), 55)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	want := []Classification{Idle(55, "bash", ReasonNone), Active(7, "make")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Probe() = %+v, want %+v", got, want)
	}
}

func TestCommandProber_Errors(t *testing.T) {
	if _, err := NewCommandProber("   ", logging.Discard()).Probe(context.Background(), 1); err == nil {
		t.Error("empty command should fail")
	}
	if _, err := NewCommandProber("/nonexistent/termidle-probe", logging.Discard()).Probe(context.Background(), 1); err == nil {
		t.Error("missing binary should fail")
	}
}
