package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Workspace.SizeBytes != 1024*1024 {
		t.Errorf("Expected SizeBytes=1048576, got %d", cfg.Workspace.SizeBytes)
	}
	if cfg.Workspace.StackLimit != 1024 {
		t.Errorf("Expected StackLimit=1024, got %d", cfg.Workspace.StackLimit)
	}

	if cfg.Repl.Prompt != ">" {
		t.Errorf("Expected Prompt=%q, got %q", ">", cfg.Repl.Prompt)
	}
	if cfg.Repl.HistorySize != 1000 {
		t.Errorf("Expected HistorySize=1000, got %d", cfg.Repl.HistorySize)
	}

	if cfg.Listing.DefaultListo != 0 {
		t.Errorf("Expected DefaultListo=0, got %d", cfg.Listing.DefaultListo)
	}
	if cfg.Listing.PageLength != 20 {
		t.Errorf("Expected PageLength=20, got %d", cfg.Listing.PageLength)
	}

	if cfg.Trace.MaxEntries != 100000 {
		t.Errorf("Expected MaxEntries=100000, got %d", cfg.Trace.MaxEntries)
	}
	if cfg.Trace.Enabled {
		t.Error("Expected Trace.Enabled=false")
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()

	if path == "" {
		t.Error("GetConfigPath returned empty string")
	}
	if filepath.Base(path) != "config.toml" {
		t.Errorf("Expected path to end with config.toml, got %s", path)
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "config.toml" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}
	case "darwin", "linux":
		dir := filepath.Dir(path)
		if filepath.Base(dir) != "brandy" && path != "config.toml" {
			t.Errorf("Expected path in brandy directory or fallback, got %s", path)
		}
	}
}

func TestGetLogPath(t *testing.T) {
	path := GetLogPath()

	if path == "" {
		t.Error("GetLogPath returned empty string")
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "logs" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}
	case "darwin", "linux":
		if filepath.Base(path) != "logs" {
			t.Errorf("Expected path to end with logs, got %s", path)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.toml")

	cfg := DefaultConfig()
	cfg.Workspace.SizeBytes = 5_000_000
	cfg.Trace.Enabled = true
	cfg.Repl.HistorySize = 500
	cfg.Listing.Lowercase = true
	cfg.Paths.SearchPath = "/usr/lib/brandy,."

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Workspace.SizeBytes != 5_000_000 {
		t.Errorf("Expected SizeBytes=5000000, got %d", loaded.Workspace.SizeBytes)
	}
	if !loaded.Trace.Enabled {
		t.Error("Expected Trace.Enabled=true")
	}
	if loaded.Repl.HistorySize != 500 {
		t.Errorf("Expected HistorySize=500, got %d", loaded.Repl.HistorySize)
	}
	if !loaded.Listing.Lowercase {
		t.Error("Expected Listing.Lowercase=true")
	}
	if loaded.Paths.SearchPath != "/usr/lib/brandy,." {
		t.Errorf("Expected SearchPath=%q, got %q", "/usr/lib/brandy,.", loaded.Paths.SearchPath)
	}
}

func TestLoadNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom should not error on non-existent file: %v", err)
	}
	if cfg.Workspace.SizeBytes != 1024*1024 {
		t.Error("Expected default config when file doesn't exist")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")

	invalidTOML := `
[workspace]
size_bytes = "not a number"
`
	if err := os.WriteFile(configPath, []byte(invalidTOML), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	_, err := LoadFrom(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid TOML")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "subdir1", "subdir2", "config.toml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}
	dir := filepath.Dir(configPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("Parent directories were not created")
	}
}

func TestResolveEditor_FallsBackToConfig(t *testing.T) {
	for _, env := range []string{"BRANDY_EDITOR", "EDITOR", "VISUAL"} {
		t.Setenv(env, "")
	}
	cfg := DefaultConfig()
	cfg.Paths.Editor = "nano"
	if got := cfg.ResolveEditor(); got != "nano" {
		t.Errorf("got %q, want %q", got, "nano")
	}
}

func TestResolveEditor_EnvTakesPrecedence(t *testing.T) {
	t.Setenv("BRANDY_EDITOR", "vim")
	t.Setenv("EDITOR", "emacs")
	cfg := DefaultConfig()
	cfg.Paths.Editor = "nano"
	if got := cfg.ResolveEditor(); got != "vim" {
		t.Errorf("got %q, want %q", got, "vim")
	}
}
