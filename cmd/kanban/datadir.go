// ABOUTME: XDG-based data and config directory resolution for the kanban CLI.
// ABOUTME: Checks XDG_DATA_HOME / XDG_CONFIG_HOME, falls back to ~/.local/share/kanban and ~/.config/kanban.
package main

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "kanban"

// xdgDir returns $envKey/kanban, or ~/<fallback...>/kanban when envKey is unset.
func xdgDir(envKey string, fallback ...string) (string, error) {
	if xdg := os.Getenv(envKey); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	parts := append([]string{home}, fallback...)
	return filepath.Join(append(parts, appName)...), nil
}

// defaultDataDir returns the directory holding boards/.
func defaultDataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", ".local", "share")
}

// defaultConfigDir returns the directory searched for kanban.yaml or kanban.toml.
func defaultConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}
