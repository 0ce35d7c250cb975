package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvLogPath names the environment variable that enables file logging
// when --log is not given.
const EnvLogPath = "TWSYNC_LOG_PATH"

// DefaultLogDir returns the log directory under the XDG data home
// (~/.local/share/twsync/log). Falls back to the temp directory if the
// home directory is unavailable.
func DefaultLogDir() string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "twsync", "log")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "twsync", "log")
	}
	return filepath.Join(home, ".local", "share", "twsync", "log")
}

// DefaultLogPath returns the suggested log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "twsync.log")
}

// ResolveLogPath picks the file log destination: the flag value, then
// $TWSYNC_LOG_PATH. Empty means file logging is off.
func ResolveLogPath(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(EnvLogPath)
}

// FindLogFile attempts to find the log file for viewing.
// Priority:
// 1. Explicit path (if provided)
// 2. $TWSYNC_LOG_PATH
// 3. DefaultLogPath()
//
// Returns an error if no log file is found.
func FindLogFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
		return "", fmt.Errorf("log file not found: %s", explicit)
	}

	candidates := []string{DefaultLogPath()}
	if env := os.Getenv(EnvLogPath); env != "" {
		candidates = append([]string{env}, candidates...)
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no log file found. Run with --log to write one.\nExpected at: %s", DefaultLogPath())
}
