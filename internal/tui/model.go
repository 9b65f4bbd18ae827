package tui

import (
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"termidle/internal/idle"
	"termidle/internal/journal"
	"termidle/internal/logging"
)

const (
	down = "down"

	// RefreshInterval is how often state files are re-read
	RefreshInterval = time.Second
	// staleAfter marks a session whose watcher stopped writing
	staleAfter = 3 * idle.PollInterval
	// journalLines is how many episode records the detail screen shows
	journalLines = 6
)

type refreshMsg time.Time

// Model is the monitor's bubbletea model. It only reads what watchers
// persist; it never talks to them.
type Model struct {
	logger   *logging.Logger
	stateDir string
	pinned   int32

	currentScreen Screen
	selection     int
	lastError     string
	quitting      bool
	width         int

	sessions []idle.Snapshot
	records  []idle.Record
	bar      progress.Model

	store *UIStore
	now   func() time.Time
}

// NewModel creates a monitor over stateDir. A non-zero pid pins the detail
// screen to that session.
func NewModel(logger *logging.Logger, stateDir string, pid int32) Model {
	m := Model{
		logger:        logger,
		stateDir:      stateDir,
		pinned:        pid,
		currentScreen: ScreenSessions,
		width:         80,
		bar:           newBar(76),
		store:         NewUIStore(stateDir, logger),
		now:           time.Now,
	}

	selected := pid
	state := m.store.Load()
	m.lastError = state.LastError
	if pid == 0 {
		m.currentScreen = state.CurrentScreen
		selected = state.SelectedPID
	}
	if pid != 0 {
		m.currentScreen = ScreenDetail
	}

	m.reload()
	m.selectPID(selected)
	m.loadRecords()
	return m
}

func newBar(width int) progress.Model {
	return progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage(), progress.WithWidth(width))
}

// Init starts the refresh loop
func (m Model) Init() tea.Cmd {
	return scheduleRefresh()
}

func scheduleRefresh() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar = newBar(max(msg.Width-4, 10))
		return m, nil

	case refreshMsg:
		m = m.refresh()
		return m, scheduleRefresh()

	case tea.KeyMsg:
		return m.handleKey(msg.String())
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", "q":
		m.quitting = true
		m.saveState()
		return m, tea.Quit
	case "?":
		if m.currentScreen == ScreenHelp {
			m.currentScreen = m.homeScreen()
		} else {
			m.currentScreen = ScreenHelp
		}
	case "esc":
		if m.pinned == 0 {
			m.currentScreen = ScreenSessions
		} else {
			m.currentScreen = ScreenDetail
		}
	case "r":
		m = m.refresh()
	case "up", "k":
		if m.currentScreen == ScreenSessions && m.selection > 0 {
			m.selection--
		}
	case down, "j":
		if m.currentScreen == ScreenSessions && m.selection < len(m.sessions)-1 {
			m.selection++
		}
	case "enter", " ":
		if m.currentScreen == ScreenSessions && len(m.sessions) > 0 {
			m.currentScreen = ScreenDetail
			m.loadRecords()
		}
	}
	return m, nil
}

func (m Model) homeScreen() Screen {
	if m.pinned != 0 {
		return ScreenDetail
	}
	return ScreenSessions
}

func (m Model) refresh() Model {
	pid := m.selectedPID()
	m.reload()
	m.selectPID(pid)
	m.loadRecords()
	return m
}

// reload re-reads every session state file
func (m *Model) reload() {
	pids, err := idle.ListSessions(m.stateDir)
	if err != nil {
		m.lastError = err.Error()
		return
	}
	if m.pinned != 0 {
		pids = []int32{m.pinned}
	}

	sessions := make([]idle.Snapshot, 0, len(pids))
	for _, pid := range pids {
		snap, err := idle.SessionStateManager(m.stateDir, pid, m.logger).Load()
		if err != nil {
			continue
		}
		sessions = append(sessions, snap)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].RootPID < sessions[j].RootPID })

	m.sessions = sessions
	m.lastError = ""
}

func (m *Model) loadRecords() {
	pid := m.selectedPID()
	if pid == 0 {
		m.records = nil
		return
	}
	records, err := journal.Tail(journal.InStateDir(m.stateDir, m.logger).Path(), pid, journalLines)
	if err != nil {
		m.lastError = err.Error()
		return
	}
	m.records = records
}

func (m *Model) selectPID(pid int32) {
	for i, s := range m.sessions {
		if s.RootPID == pid {
			m.selection = i
			return
		}
	}
	if m.selection >= len(m.sessions) {
		m.selection = max(len(m.sessions)-1, 0)
	}
}

func (m Model) selectedPID() int32 {
	if m.pinned != 0 {
		return m.pinned
	}
	if m.selection < len(m.sessions) {
		return m.sessions[m.selection].RootPID
	}
	return 0
}

func (m Model) selected() (idle.Snapshot, bool) {
	pid := m.selectedPID()
	for _, s := range m.sessions {
		if s.RootPID == pid {
			return s, true
		}
	}
	return idle.Snapshot{}, false
}

func (m Model) isStale(s idle.Snapshot) bool {
	return !s.UpdatedAt.IsZero() && m.now().Sub(s.UpdatedAt) > staleAfter
}

// saveState persists the current UI state
func (m *Model) saveState() {
	screen := m.currentScreen
	if screen == ScreenHelp {
		screen = ScreenSessions
	}
	state := UIState{
		CurrentScreen: screen,
		SelectedPID:   m.selectedPID(),
		LastError:     m.lastError,
	}

	if err := m.store.Save(state); err != nil {
		m.logger.Warn("tui.state.save_failed", "Failed to save UI state", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
