package tui

import "time"

// Screen represents different monitor screens
type Screen string

const (
	// ScreenSessions lists every watched session
	ScreenSessions Screen = "sessions"
	// ScreenDetail shows one session with its countdown and journal
	ScreenDetail Screen = "detail"
	// ScreenHelp shows the key bindings
	ScreenHelp Screen = "help"
)

// UIState represents the persisted monitor state
type UIState struct {
	CurrentScreen Screen    `json:"screen"`
	SelectedPID   int32     `json:"selected_pid"`
	LastError     string    `json:"last_error"`
	Updated       time.Time `json:"updated"`
}

// KeyHelp is one line of the help screen
type KeyHelp struct {
	Keys        string
	Description string
}

// DefaultKeyHelp returns the monitor key bindings
func DefaultKeyHelp() []KeyHelp {
	return []KeyHelp{
		{Keys: "↑/k ↓/j", Description: "Select session"},
		{Keys: "enter", Description: "Show session detail"},
		{Keys: "esc", Description: "Back to session list"},
		{Keys: "r", Description: "Reload state files now"},
		{Keys: "?", Description: "Toggle this help"},
		{Keys: "q", Description: "Quit"},
	}
}
