package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DataDir returns the path to the Grokway data directory.
// - Windows: %APPDATA%\grokway
// - Other OS: ~/.grokway
func DataDir() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "grokway")
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".grokway"
	}
	return filepath.Join(home, ".grokway")
}

// DBPath returns the default path to the SQLite database file.
func DBPath() string {
	return filepath.Join(DataDir(), "grokway.db")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0700)
}
