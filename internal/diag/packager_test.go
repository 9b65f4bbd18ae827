package diag

import (
	"archive/zip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"termidle/internal/logging"
)

func readZIP(t *testing.T, path string) map[string]string {
	t.Helper()
	reader, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("Failed to open ZIP: %v", err)
	}
	defer reader.Close()

	entries := make(map[string]string)
	for _, f := range reader.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		entries[f.Name] = string(data)
	}
	return entries
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestPackager_CreatePackage(t *testing.T) {
	stateDir := t.TempDir()
	writeFile(t, filepath.Join(stateDir, "session-4242.json"), `{"poll_count":3}`)
	writeFile(t, filepath.Join(stateDir, "session-4242.log"), `{"type":"idle.probe","message":"cmd --token abc123"}`+"\n")
	writeFile(t, filepath.Join(stateDir, "episodes.jsonl"), `{"kind":"episode_started"}`+"\n")
	writeFile(t, filepath.Join(stateDir, "session-4242.lock"), "")

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, configPath, "idle:\n  suspend_command: \"HA_TOKEN=sk-secret123 ha-suspend\"\n  countdown_secs: 60\n")

	config := NewConfig(stateDir, "0.9.0-test")
	config.OutputPath = filepath.Join(t.TempDir(), "diag.zip")
	config.ConfigFiles["system.yaml"] = configPath
	config.ConfigFiles["user.yaml"] = filepath.Join(t.TempDir(), "missing.yaml")
	config.Effective = []byte("state_dir: " + stateDir + "\n")

	zipPath, err := NewPackager(config, logging.Discard()).CreatePackage()
	if err != nil {
		t.Fatalf("CreatePackage() error = %v", err)
	}
	if zipPath != config.OutputPath {
		t.Errorf("CreatePackage() = %s, want %s", zipPath, config.OutputPath)
	}

	entries := readZIP(t, zipPath)
	for _, name := range []string{
		"state/session-4242.json",
		"state/episodes.jsonl",
		"logs/session-4242.log",
		"config/system.yaml",
		"config/effective.yaml",
		"system_info.json",
		ManifestName,
	} {
		if _, ok := entries[name]; !ok {
			t.Errorf("entry %s missing", name)
		}
	}
	if _, ok := entries["config/user.yaml"]; ok {
		t.Error("missing config file was packaged")
	}
	if _, ok := entries["state/session-4242.lock"]; ok {
		t.Error("lock file was packaged")
	}

	if strings.Contains(entries["config/system.yaml"], "sk-secret123") {
		t.Error("secret was not redacted in config")
	}
	if !strings.Contains(entries["config/system.yaml"], "countdown_secs: 60") {
		t.Error("non-sensitive config was modified")
	}
	if strings.Contains(entries["logs/session-4242.log"], "abc123") {
		t.Error("secret was not redacted in log")
	}

	var manifest Manifest
	if err := json.Unmarshal([]byte(entries[ManifestName]), &manifest); err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if manifest.Version != "0.9.0-test" || manifest.Timestamp == "" || manifest.Host == "" {
		t.Errorf("manifest = %+v", manifest)
	}
	if len(manifest.Files) != len(entries)-1 {
		t.Errorf("manifest lists %d files, bundle has %d", len(manifest.Files), len(entries)-1)
	}
	for _, f := range manifest.Files {
		if f.SHA256 != CalculateSHA256([]byte(entries[f.Path])) {
			t.Errorf("checksum mismatch for %s", f.Path)
		}
	}
}

func TestPackager_EmptyStateDir(t *testing.T) {
	config := NewConfig(filepath.Join(t.TempDir(), "absent"), "test")
	config.OutputPath = filepath.Join(t.TempDir(), "diag.zip")
	config.IncludeLogs = false
	config.IncludeConfig = false

	zipPath, err := NewPackager(config, logging.Discard()).CreatePackage()
	if err != nil {
		t.Fatalf("CreatePackage() error = %v", err)
	}

	entries := readZIP(t, zipPath)
	if len(entries) != 2 {
		t.Errorf("entries = %v, want system info and manifest only", entries)
	}
}

func TestGenerateOutputPath(t *testing.T) {
	got := NewConfig("/state", "v").OutputPath
	if !strings.HasPrefix(got, "termidle-diag-") || !strings.HasSuffix(got, ".zip") {
		t.Errorf("OutputPath = %s", got)
	}
}
