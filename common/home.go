package common

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// GetChorusDataHome returns a directory path for storing user-specific chorus
// data (the sqlite database). If needed, it also creates the necessary
// directories according to the XDG spec. Can be overridden by setting the
// CHORUS_DATA_HOME environment variable.
func GetChorusDataHome() (string, error) {
	chorusDataDir := os.Getenv("CHORUS_DATA_HOME")
	if chorusDataDir != "" {
		err := os.MkdirAll(chorusDataDir, 0755)
		if err != nil {
			return "", fmt.Errorf("failed to create chorus data directory from CHORUS_DATA_HOME: %w", err)
		}
		return chorusDataDir, nil
	}

	chorusDataDir = filepath.Join(xdg.DataHome, "chorus")
	err := os.MkdirAll(chorusDataDir, 0755)
	if err != nil {
		return "", fmt.Errorf("failed to create chorus data directory: %w", err)
	}
	return chorusDataDir, nil
}

// GetChorusStateHome returns a directory path for storing user-specific chorus
// state data (logs, traces). Can be overridden by setting the
// CHORUS_STATE_HOME environment variable.
func GetChorusStateHome() (string, error) {
	chorusStateDir := os.Getenv("CHORUS_STATE_HOME")
	if chorusStateDir != "" {
		err := os.MkdirAll(chorusStateDir, 0755)
		if err != nil {
			return "", fmt.Errorf("failed to create chorus state directory from CHORUS_STATE_HOME: %w", err)
		}
		return chorusStateDir, nil
	}

	chorusStateDir = filepath.Join(xdg.StateHome, "chorus")
	err := os.MkdirAll(chorusStateDir, 0755)
	if err != nil {
		return "", fmt.Errorf("failed to create chorus state directory: %w", err)
	}
	return chorusStateDir, nil
}

// GetChorusConfigHome returns a directory path for user-specific chorus
// configuration (config.yml with provider definitions). Can be overridden by
// setting the CHORUS_CONFIG_HOME environment variable.
func GetChorusConfigHome() (string, error) {
	chorusConfigDir := os.Getenv("CHORUS_CONFIG_HOME")
	if chorusConfigDir != "" {
		return chorusConfigDir, nil
	}

	chorusConfigDir = filepath.Join(xdg.ConfigHome, "chorus")
	err := os.MkdirAll(chorusConfigDir, 0755)
	if err != nil {
		return "", fmt.Errorf("failed to create chorus config directory: %w", err)
	}
	return chorusConfigDir, nil
}
