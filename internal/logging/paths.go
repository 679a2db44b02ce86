package logging

import (
	"os"
	"path/filepath"
)

// LogDir returns the directory where nixseek log files are stored.
// Uses ~/.local/state/nixseek/logs, falling back to the temp dir when
// the home directory cannot be resolved.
func LogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "nixseek", "logs")
	}
	return filepath.Join(home, ".local", "state", "nixseek", "logs")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(LogDir(), "nixseek.log")
}
