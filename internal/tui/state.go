package tui

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"termidle/internal/fsutil"
	"termidle/internal/logging"
)

// UIStateFileName is the monitor state file inside the state directory
const UIStateFileName = "monitor_state.json"

// UIStore remembers the screen and session the monitor showed last
type UIStore struct {
	path   string
	logger *logging.Logger
}

// NewUIStore creates a store under stateDir
func NewUIStore(stateDir string, logger *logging.Logger) *UIStore {
	return &UIStore{
		path:   filepath.Join(stateDir, UIStateFileName),
		logger: logger,
	}
}

// Load returns the saved state. A missing or unreadable file yields the
// session list with nothing selected.
func (s *UIStore) Load() UIState {
	fallback := UIState{CurrentScreen: ScreenSessions}

	data, err := os.ReadFile(filepath.Clean(s.path)) // #nosec G304 -- path is inside the state directory
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("tui.state.read_failed", "Failed to read monitor state", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return fallback
	}

	var state UIState
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("tui.state.corrupt", "Ignoring corrupt monitor state", map[string]interface{}{
			"path":  s.path,
			"error": err.Error(),
		})
		return fallback
	}

	switch state.CurrentScreen {
	case ScreenSessions, ScreenDetail:
	default:
		// help is transient; everything else is unknown
		state.CurrentScreen = ScreenSessions
	}
	return state
}

// Save writes the state atomically and stamps Updated
func (s *UIStore) Save(state UIState) error {
	if err := fsutil.EnsureStateDirectory(filepath.Dir(s.path)); err != nil {
		return err
	}

	state.Updated = time.Now().UTC()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal monitor state: %w", err)
	}
	if err := fsutil.AtomicWriteFile(s.path, data, fsutil.DefaultFilePermissions, s.logger); err != nil {
		return err
	}

	s.logger.Debug("tui.state.saved", "Monitor state saved", map[string]interface{}{
		"screen":       state.CurrentScreen,
		"selected_pid": state.SelectedPID,
	})
	return nil
}
