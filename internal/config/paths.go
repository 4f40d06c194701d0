package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	appDirName = ".routinetimer"
	homeEnvVar = "ROUTINETIMER_HOME"
)

// DataDir returns the base data directory. ROUTINETIMER_HOME overrides the
// default of ~/.routinetimer.
func DataDir() (string, error) {
	if override := strings.TrimSpace(os.Getenv(homeEnvVar)); override != "" {
		return filepath.Clean(override), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDirName), nil
}

// TokenPath returns the path to the daemon API token file.
func TokenPath() (string, error) {
	return dataFile("token")
}

// BoltPath returns the path to the default bbolt database.
func BoltPath() (string, error) {
	return dataFile("routinetimer.db")
}

func SQLitePath() (string, error) {
	return dataFile("routinetimer.sqlite")
}

// FileStoreDir returns the directory the file backend keeps its blobs in.
func FileStoreDir() (string, error) {
	return dataFile("blobs")
}

func RoutinesPath() (string, error) {
	return dataFile("routines.toml")
}

func StatusFilePath() (string, error) {
	return dataFile("status.json")
}

func CoreConfigPath() (string, error) {
	return dataFile("config.toml")
}

func DaemonLogPath() (string, error) {
	return dataFile("daemon.log")
}

func dataFile(name string) (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, name), nil
}
