// Package config provides XDG path helpers.
package config

import (
	"os"
	"path/filepath"
)

const appDir = "cwkeyer"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appDir, "config.toml")
}

// DefaultDataDir is the keyer's storage medium on a host.
func DefaultDataDir() string {
	return filepath.Join(XDGDataHome(), appDir)
}

// DefaultSettingsPath returns where the settings document lives.
func DefaultSettingsPath() string {
	return filepath.Join(DefaultDataDir(), "configuration.json")
}

// DefaultDBPath returns the default path for the journal database.
func DefaultDBPath() string {
	return filepath.Join(DefaultDataDir(), "cwkeyer.db")
}

// DefaultWordListPath returns the optional practice word list path.
func DefaultWordListPath() string {
	return filepath.Join(XDGConfigHome(), appDir, "words.txt")
}
