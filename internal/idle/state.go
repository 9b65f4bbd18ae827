package idle

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"termidle/internal/fsutil"
	"termidle/internal/logging"
)

// ErrNoState is returned when no state file exists for a session
var ErrNoState = errors.New("no state recorded for session")

// StateManager persists engine snapshots so other processes (status, monitor)
// can observe a running watcher
type StateManager struct {
	filePath string
	logger   *logging.Logger
}

// NewStateManager creates a state manager for one session file
func NewStateManager(filePath string, logger *logging.Logger) *StateManager {
	return &StateManager{
		filePath: filePath,
		logger:   logger,
	}
}

// SessionStateManager returns the manager for rootPID inside stateDir
func SessionStateManager(stateDir string, rootPID int32, logger *logging.Logger) *StateManager {
	return NewStateManager(fsutil.SessionFile(stateDir, rootPID, ".json"), logger)
}

// Path returns the state file path
func (sm *StateManager) Path() string {
	return sm.filePath
}

// Save writes the snapshot atomically
func (sm *StateManager) Save(snap Snapshot) error {
	if err := fsutil.EnsureStateDirectory(filepath.Dir(sm.filePath)); err != nil {
		return err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := fsutil.AtomicWriteFile(sm.filePath, data, fsutil.DefaultFilePermissions, sm.logger); err != nil {
		return err
	}

	sm.logger.Debug("idle.state.saved", "Idle state saved", map[string]interface{}{
		"path":       sm.filePath,
		"poll_count": snap.PollCount,
	})
	return nil
}

// Load reads the last saved snapshot
func (sm *StateManager) Load() (Snapshot, error) {
	data, err := os.ReadFile(filepath.Clean(sm.filePath)) // #nosec G304 -- path is derived from the state directory
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, ErrNoState
		}
		return Snapshot{}, fmt.Errorf("failed to read state file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if snap.ActiveLabels == nil {
		snap.ActiveLabels = []string{}
	}
	return snap, nil
}

// Delete removes the state file
func (sm *StateManager) Delete() error {
	if err := os.Remove(sm.filePath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete state file: %w", err)
	}

	sm.logger.Debug("idle.state.deleted", "Idle state file deleted", map[string]interface{}{
		"path": sm.filePath,
	})
	return nil
}

// ListSessions returns the root pids that have a state file in stateDir
func ListSessions(stateDir string) ([]int32, error) {
	matches, err := filepath.Glob(filepath.Join(stateDir, "session-*.json"))
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	pids := make([]int32, 0, len(matches))
	for _, m := range matches {
		var pid int32
		if _, err := fmt.Sscanf(filepath.Base(m), "session-%d.json", &pid); err == nil {
			pids = append(pids, pid)
		}
	}
	return pids, nil
}
