// Package journal appends idle-episode milestones to a JSONL file.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"termidle/internal/fsutil"
	"termidle/internal/idle"
	"termidle/internal/logging"
)

// FileName is the journal file inside the state directory
const FileName = "episodes.jsonl"

// Writer appends records to a JSONL file. It implements idle.Recorder.
type Writer struct {
	mu     sync.Mutex
	path   string
	logger *logging.Logger
}

// NewWriter creates a journal writer for path
func NewWriter(path string, logger *logging.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

// InStateDir returns the writer for the default journal in stateDir
func InStateDir(stateDir string, logger *logging.Logger) *Writer {
	return NewWriter(filepath.Join(stateDir, FileName), logger)
}

// Path returns the journal file path
func (w *Writer) Path() string {
	return w.path
}

// Write appends one record
func (w *Writer) Write(rec idle.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := fsutil.EnsureStateDirectory(filepath.Dir(w.path)); err != nil {
		return err
	}
	file, err := os.OpenFile(filepath.Clean(w.path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, fsutil.DefaultFilePermissions)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer fsutil.CloseWithError(file.Close, w.logger, w.path)

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Record implements idle.Recorder. Failures are logged and dropped so the
// journal can never stall the engine.
func (w *Writer) Record(rec idle.Record) {
	if err := w.Write(rec); err != nil {
		w.logger.Warn("journal.write.failed", "Failed to append episode record", map[string]interface{}{
			"path":  w.path,
			"kind":  string(rec.Kind),
			"error": err.Error(),
		})
	}
}

// Read returns every record in the journal, oldest first. Lines that do not
// decode are skipped.
func Read(path string) ([]idle.Record, error) {
	file, err := os.Open(filepath.Clean(path)) // #nosec G304 -- path is derived from the state directory
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer file.Close()

	var records []idle.Record
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec idle.Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("failed to read journal: %w", err)
	}
	return records, nil
}

// Tail returns the last n records of the journal, optionally for one root pid
// (0 means every session)
func Tail(path string, rootPID int32, n int) ([]idle.Record, error) {
	all, err := Read(path)
	if err != nil {
		return nil, err
	}
	filtered := all[:0]
	for _, rec := range all {
		if rootPID == 0 || rec.RootPID == rootPID {
			filtered = append(filtered, rec)
		}
	}
	if n > 0 && len(filtered) > n {
		filtered = filtered[len(filtered)-n:]
	}
	return filtered, nil
}
