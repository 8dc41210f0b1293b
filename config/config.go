// Package config loads and saves the interpreter's persistent settings
// using TOML, the same shape the teacher uses for its emulator config
// (originally config/config.go): a struct of nested, toml-tagged sections,
// a DefaultConfig constructor, and platform-specific XDG/APPDATA path
// resolution for the config and log directories, adapted here from
// execution/debugger/display/trace/statistics sections to the workspace,
// REPL, listing and tracing settings a BASIC interpreter actually has.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config is the interpreter's persistent configuration.
type Config struct {
	// Workspace settings govern the single contiguous byte region of
	// spec.md §3.1.
	Workspace struct {
		SizeBytes     int `toml:"size_bytes"`
		StackLimit    int `toml:"stack_limit"`
		SafetyBuffer  int `toml:"safety_buffer"`
	} `toml:"workspace"`

	// Repl settings control the command prompt's look and feel.
	Repl struct {
		Prompt         string `toml:"prompt"`
		HistorySize    int    `toml:"history_size"`
		EchoInput      bool   `toml:"echo_input"`
		StartupCommand string `toml:"startup_command"`
	} `toml:"repl"`

	// Listing settings supply LISTO's default bits (spec.md §6.4) and
	// keyword-case preference before any LISTO command overrides them.
	Listing struct {
		DefaultListo int  `toml:"default_listo"`
		Lowercase    bool `toml:"lowercase_keywords"`
		PageLength   int  `toml:"page_length"`
	} `toml:"listing"`

	// Trace settings mirror the teacher's trace section, adapted from a
	// per-instruction CPU trace to the TRACE statement's per-line log.
	Trace struct {
		Enabled    bool   `toml:"enabled"`
		OutputFile string `toml:"output_file"`
		MaxEntries int    `toml:"max_entries"`
	} `toml:"trace"`

	// Paths settings back FILEPATH$ and the editor-selection order of
	// spec.md §6.2.
	Paths struct {
		SearchPath string `toml:"search_path"`
		Editor     string `toml:"editor"`
	} `toml:"paths"`
}

// DefaultConfig returns a configuration with the interpreter's built-in
// defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Workspace.SizeBytes = 1024 * 1024
	cfg.Workspace.StackLimit = 1024
	cfg.Workspace.SafetyBuffer = 1024

	cfg.Repl.Prompt = ">"
	cfg.Repl.HistorySize = 1000
	cfg.Repl.EchoInput = false
	cfg.Repl.StartupCommand = ""

	cfg.Listing.DefaultListo = 0
	cfg.Listing.Lowercase = false
	cfg.Listing.PageLength = 20

	cfg.Trace.Enabled = false
	cfg.Trace.OutputFile = "trace.log"
	cfg.Trace.MaxEntries = 100000

	cfg.Paths.SearchPath = ""
	cfg.Paths.Editor = ""

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "brandy")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "brandy")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// GetLogPath returns the platform-specific log directory path.
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "brandy", "logs")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "brandy", "logs")

	default:
		return "logs"
	}

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}

	return logDir
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file, falling back to
// defaults (not an error) when the file does not exist — FILEPATH/EDITOR
// environment variables still take precedence downstream, at the call
// site that applies this config to an Interpreter.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// ResolveEditor applies spec.md §6.2's editor-selection order: BRANDY_EDITOR,
// then EDITOR, then VISUAL, then the config file's paths.editor, else empty.
func (c *Config) ResolveEditor() string {
	for _, env := range []string{"BRANDY_EDITOR", "EDITOR", "VISUAL"} {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return c.Paths.Editor
}
