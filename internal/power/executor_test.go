package power

import (
	"context"
	"errors"
	"strings"
	"testing"

	"termidle/internal/logging"
)

type recordedRunner struct {
	calls  [][]string
	output map[string]string
	fail   map[string]bool
}

func (r *recordedRunner) run(_ context.Context, argv []string) ([]byte, error) {
	r.calls = append(r.calls, argv)
	key := strings.Join(argv, " ")
	if r.fail[key] {
		return []byte(r.output[key]), errors.New("exit status 1")
	}
	return []byte(r.output[key]), nil
}

func (r *recordedRunner) count(cmd string) int {
	n := 0
	for _, c := range r.calls {
		if strings.Join(c, " ") == cmd {
			n++
		}
	}
	return n
}

func TestExecutor_RunIssuesCommandOnce(t *testing.T) {
	runner := &recordedRunner{}
	exec := NewExecutor("systemctl suspend", "systemctl poweroff", logging.Discard()).WithRunner(runner.run)

	if _, err := exec.Run(context.Background(), ActionSuspend); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := runner.count("systemctl suspend"); got != 1 {
		t.Errorf("suspend invoked %d times, want 1", got)
	}
	if got := runner.count("systemctl poweroff"); got != 0 {
		t.Errorf("poweroff invoked %d times, want 0", got)
	}
}

func TestExecutor_RunStop(t *testing.T) {
	runner := &recordedRunner{}
	exec := NewExecutor("systemctl suspend", "sudo shutdown -h now", logging.Discard()).WithRunner(runner.run)

	if _, err := exec.Run(context.Background(), ActionStop); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := runner.count("sudo shutdown -h now"); got != 1 {
		t.Errorf("stop command invoked %d times, want 1", got)
	}
}

func TestExecutor_RunFailureReturnsOutput(t *testing.T) {
	runner := &recordedRunner{
		output: map[string]string{"systemctl suspend": "Access denied\n"},
		fail:   map[string]bool{"systemctl suspend": true},
	}
	exec := NewExecutor("systemctl suspend", "systemctl poweroff", logging.Discard()).WithRunner(runner.run)

	out, err := exec.Run(context.Background(), ActionSuspend)
	if err == nil {
		t.Fatal("expected error from failing command")
	}
	if out != "Access denied" {
		t.Errorf("output = %q, want %q", out, "Access denied")
	}
	if got := runner.count("systemctl suspend"); got != 1 {
		t.Errorf("failed command retried: %d calls", got)
	}
}

func TestExecutor_Command(t *testing.T) {
	exec := NewExecutor("systemctl suspend", "   ", logging.Discard())

	tests := []struct {
		name    string
		action  Action
		want    string
		wantErr bool
	}{
		{"suspend", ActionSuspend, "systemctl suspend", false},
		{"empty stop command", ActionStop, "", true},
		{"none has no command", ActionNone, "", true},
		{"unknown action", Action("hibernate"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			argv, err := exec.Command(tt.action)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Command() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := strings.Join(argv, " "); got != tt.want {
				t.Errorf("Command() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExecutor_ActiveInhibitors(t *testing.T) {
	listing := "gdm      120 gdm   1234 gdm-session sleep  GNOME needs to lock the screen delay\n" +
		"backup   0   root  999  rsync       shutdown Backup in progress block\n" +
		"ModemManager 0 root 800 ModemManager handle-power-key Modem block\n"
	runner := &recordedRunner{
		output: map[string]string{"systemd-inhibit --list --no-pager --no-legend": listing},
	}
	exec := NewExecutor("systemctl suspend", "systemctl poweroff", logging.Discard()).WithRunner(runner.run)

	has, names, err := exec.ActiveInhibitors(context.Background())
	if err != nil {
		t.Fatalf("ActiveInhibitors() error = %v", err)
	}
	if !has {
		t.Fatal("expected inhibitors")
	}
	if strings.Join(names, ",") != "gdm,backup" {
		t.Errorf("inhibitors = %v, want [gdm backup]", names)
	}
}

func TestExecutor_CheckCapabilityNone(t *testing.T) {
	runner := &recordedRunner{}
	exec := NewExecutor("", "", logging.Discard()).WithRunner(runner.run)

	if err := exec.CheckCapability(context.Background(), ActionNone); err != nil {
		t.Errorf("CheckCapability(none) error = %v", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("unexpected calls: %v", runner.calls)
	}
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		in   string
		want Action
		ok   bool
	}{
		{"suspend", ActionSuspend, true},
		{" STOP ", ActionStop, true},
		{"none", ActionNone, true},
		{"hibernate", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseAction(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseAction(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestAction_Verb(t *testing.T) {
	if ActionSuspend.Verb() != "SUSPENDING" || ActionStop.Verb() != "STOPPING" || ActionNone.Verb() != "ACTION (none)" {
		t.Errorf("unexpected verbs: %s %s %s", ActionSuspend.Verb(), ActionStop.Verb(), ActionNone.Verb())
	}
}
