package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	appDirName = ".threadstate"
	// DataDirEnv overrides the data directory, mostly for tests and CI.
	DataDirEnv = "THREADSTATE_HOME"
)

// DataDir returns the base data directory.
func DataDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(DataDirEnv)); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDirName), nil
}

// CoreConfigPath returns the path to the TOML configuration file.
func CoreConfigPath() (string, error) {
	return dataPath("config.toml")
}

// StorePath returns the default bbolt database path.
func StorePath() (string, error) {
	return dataPath("threadstate.db")
}

// JournalPath returns the default JSONL journal path used by the file backend.
func JournalPath() (string, error) {
	return dataPath("events.jsonl")
}

// ViewStatePath returns the path of the file-backed view state.
func ViewStatePath() (string, error) {
	return dataPath("view_state.json")
}

func dataPath(name string) (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, name), nil
}
