package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	AppName       = "diary"
	DBFileName    = "diary.db"
	ConfigName    = "config"
	memoryDSNName = ":memory:"
)

// DataDir returns the per-user directory the diary keeps its files in.
func DataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(homeDir, "AppData", "Roaming", AppName)
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", AppName)
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName)
		}
		return filepath.Join(homeDir, ".local", "share", AppName)
	}
}

// DefaultDBPath is the database location used when none is configured.
func DefaultDBPath() string {
	return filepath.Join(DataDir(), DBFileName)
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", path, err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path[1:], "/")), nil
}

// ResolveAndEnsureDBPath turns the configured database path into an absolute
// one and creates its directory. An empty path selects DefaultDBPath and
// ":memory:" is passed through untouched.
func ResolveAndEnsureDBPath(providedPath string) (string, error) {
	if providedPath == memoryDSNName {
		return providedPath, nil
	}

	targetPath := providedPath
	if targetPath == "" {
		targetPath = DefaultDBPath()
	}

	targetPath, err := ExpandHome(targetPath)
	if err != nil {
		return "", err
	}

	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return "", fmt.Errorf("absolute path for %q: %w", targetPath, err)
	}

	dbDir := filepath.Dir(absPath)
	info, err := os.Stat(dbDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			return "", fmt.Errorf("create database directory %q: %w", dbDir, err)
		}
	case err != nil:
		return "", fmt.Errorf("stat database directory %q: %w", dbDir, err)
	case !info.IsDir():
		return "", fmt.Errorf("database directory %q is not a directory", dbDir)
	}

	return absPath, nil
}
