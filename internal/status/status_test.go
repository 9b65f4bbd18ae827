package status

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"termidle/internal/idle"
	"termidle/internal/power"
)

func snapshot(mut func(s *idle.Snapshot)) idle.Snapshot {
	s := idle.Snapshot{
		State:           idle.State{Lifecycle: idle.LifecycleMonitoring, ActiveLabels: []string{}},
		IdleTimeoutSecs: 300,
		CountdownSecs:   60,
		Action:          power.ActionSuspend,
	}
	if mut != nil {
		mut(&s)
	}
	return s
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		snap idle.Snapshot
		want string
		kind Kind
	}{
		{
			name: "loading",
			snap: snapshot(func(s *idle.Snapshot) { s.Lifecycle = idle.LifecycleLoading }),
			want: "termidle: loading...",
			kind: KindLoading,
		},
		{
			name: "active without labels",
			snap: snapshot(nil),
			want: " ACTIVE: ... ",
			kind: KindActive,
		},
		{
			name: "active with labels",
			snap: snapshot(func(s *idle.Snapshot) { s.ActiveLabels = []string{"make", "claude(working)"} }),
			want: " ACTIVE: make, claude(working) ",
			kind: KindActive,
		},
		{
			name: "idle with minutes left",
			snap: snapshot(func(s *idle.Snapshot) { s.IsIdle = true; s.IdleElapsedSecs = 35 }),
			want: " IDLE 35s | suspend in 4m25s ",
			kind: KindIdle,
		},
		{
			name: "idle under a minute, stop action",
			snap: snapshot(func(s *idle.Snapshot) {
				s.IsIdle = true
				s.IdleElapsedSecs = 270
				s.Action = power.ActionStop
			}),
			want: " IDLE 270s | stop in 30s ",
			kind: KindIdle,
		},
		{
			name: "countdown",
			snap: snapshot(func(s *idle.Snapshot) { s.IsIdle = true; s.CountdownActive = true; s.CountdownRemainingSecs = 45 }),
			want: " SUSPENDING in 45s -- press any key to cancel ",
			kind: KindCountdown,
		},
		{
			name: "countdown never negative",
			snap: snapshot(func(s *idle.Snapshot) { s.CountdownActive = true; s.CountdownRemainingSecs = -5 }),
			want: " SUSPENDING in 0s -- press any key to cancel ",
			kind: KindCountdown,
		},
		{
			name: "triggered wins over countdown",
			snap: snapshot(func(s *idle.Snapshot) {
				s.SuspendTriggered = true
				s.CountdownActive = true
				s.Action = power.ActionStop
			}),
			want: " STOPPING NOW... ",
			kind: KindTriggered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.snap); got != tt.kind {
				t.Errorf("Classify() = %s, want %s", got, tt.kind)
			}
			if got := Message(tt.snap); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestText_Width(t *testing.T) {
	idleSnap := snapshot(func(s *idle.Snapshot) { s.IsIdle = true; s.IdleElapsedSecs = 10 })
	countdown := snapshot(func(s *idle.Snapshot) { s.CountdownActive = true; s.CountdownRemainingSecs = 5 })

	if got := Text(idleSnap, 0); got != "" {
		t.Errorf("width 0 = %q, want empty", got)
	}
	if got := Text(idleSnap, Unbounded); got != Message(idleSnap) {
		t.Errorf("unbounded = %q", got)
	}

	for _, width := range []int{1, 5, 20, 80, 200} {
		for _, s := range []idle.Snapshot{idleSnap, countdown} {
			got := Text(s, width)
			if w := ansi.StringWidth(got); w != width {
				t.Errorf("Text(width=%d) is %d cells: %q", width, w, got)
			}
			if strings.Contains(got, "\n") {
				t.Errorf("Text(width=%d) wraps: %q", width, got)
			}
		}
	}

	if got := Text(idleSnap, 40); !strings.HasPrefix(got, " IDLE 10s") {
		t.Errorf("idle line should be left aligned: %q", got)
	}
	got := Text(countdown, 80)
	msg := Message(countdown)
	left := (80 - len(msg)) / 2
	if got[:left] != strings.Repeat(" ", left) || got[left:left+len(msg)] != msg {
		t.Errorf("countdown line should be centred: %q", got)
	}
}

func TestRender(t *testing.T) {
	s := snapshot(func(s *idle.Snapshot) { s.SuspendTriggered = true })

	if Render(s, 0) != "" {
		t.Error("Render(width 0) should be empty")
	}
	got := Render(s, 30)
	if !strings.Contains(ansi.Strip(got), "SUSPENDING NOW") {
		t.Errorf("Render() = %q", got)
	}
	if w := ansi.StringWidth(got); w != 30 {
		t.Errorf("Render() is %d cells, want 30", w)
	}
}

func TestText_ControlCharactersInLabels(t *testing.T) {
	s := snapshot(func(s *idle.Snapshot) { s.ActiveLabels = []string{"ev\nil", "esc\x1b[2J"} })

	if got := Message(s); got != " ACTIVE: ev?il, esc?[2J " {
		t.Errorf("Message() = %q", got)
	}
	for _, width := range []int{Unbounded, 12, 40} {
		got := Text(s, width)
		if strings.ContainsAny(got, "\n\r\x1b") {
			t.Errorf("Text(width=%d) = %q, want one plain line", width, got)
		}
	}
	if got := Render(s, 40); strings.Contains(got, "\n") {
		t.Errorf("Render() = %q, want one line", got)
	}
}
