package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"termidle/internal/logging"
)

func TestGetStateDir(t *testing.T) {
	tests := []struct {
		name       string
		envValue   string
		defaultDir string
		wantEnv    bool
	}{
		{
			name:       "uses environment variable",
			envValue:   "/custom/state",
			defaultDir: "/default/state",
			wantEnv:    true,
		},
		{
			name:       "uses default when env not set",
			envValue:   "",
			defaultDir: "/default/state",
			wantEnv:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(StateDirEnv, tt.envValue)

			got := GetStateDir(tt.defaultDir)

			if tt.wantEnv && got != tt.envValue {
				t.Errorf("GetStateDir() = %v, want env value %v", got, tt.envValue)
			}
			if !tt.wantEnv && got != tt.defaultDir {
				t.Errorf("GetStateDir() = %v, want %v", got, tt.defaultDir)
			}
		})
	}
}

func TestEnsureStateDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c")

	if err := EnsureStateDirectory(path); err != nil {
		t.Fatalf("EnsureStateDirectory() error = %v", err)
	}
	// second call on an existing directory must succeed as well
	if err := EnsureStateDirectory(path); err != nil {
		t.Fatalf("EnsureStateDirectory() on existing dir error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("path is not a directory")
	}
}

func TestAtomicWriteFile(t *testing.T) {
	logger := logging.Discard()

	tests := []struct {
		name  string
		setup func(t *testing.T) (string, []byte)
	}{
		{
			name: "writes new file atomically",
			setup: func(t *testing.T) (string, []byte) {
				t.Helper()
				return filepath.Join(t.TempDir(), "session-1.json"), []byte(`{"poll_count":1}`)
			},
		},
		{
			name: "overwrites existing file",
			setup: func(t *testing.T) (string, []byte) {
				t.Helper()
				path := filepath.Join(t.TempDir(), "existing.json")
				_ = os.WriteFile(path, []byte("old content"), 0o600)
				return path, []byte("new content")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, data := tt.setup(t)

			if err := AtomicWriteFile(path, data, DefaultFilePermissions, logger); err != nil {
				t.Fatalf("AtomicWriteFile() error = %v", err)
			}

			got, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("failed to read file: %v", err)
			}
			if string(got) != string(data) {
				t.Errorf("file content = %q, want %q", got, data)
			}
			if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
				t.Errorf("temp file still exists: %s.tmp", path)
			}
		})
	}
}

func TestCloseWithError(t *testing.T) {
	called := false
	CloseWithError(func() error {
		called = true
		return errors.New("boom")
	}, logging.Discard(), "probe pipe")

	if !called {
		t.Error("closer was not invoked")
	}
}

func TestSessionFile(t *testing.T) {
	got := SessionFile("/state", 4242, ".json")
	if got != filepath.Join("/state", "session-4242.json") {
		t.Errorf("SessionFile() = %s", got)
	}
}

func TestSessionLock_Exclusive(t *testing.T) {
	dir := t.TempDir()

	first, err := AcquireSessionLock(dir, 100)
	if err != nil {
		t.Fatalf("first lock failed: %v", err)
	}

	if _, err := AcquireSessionLock(dir, 100); !errors.Is(err, ErrSessionLocked) {
		t.Fatalf("second lock error = %v, want ErrSessionLocked", err)
	}

	other, err := AcquireSessionLock(dir, 200)
	if err != nil {
		t.Fatalf("lock for another session failed: %v", err)
	}
	defer other.Release()

	if err := first.Release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	again, err := AcquireSessionLock(dir, 100)
	if err != nil {
		t.Fatalf("lock after release failed: %v", err)
	}
	defer again.Release()
}
