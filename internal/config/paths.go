package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Config path constants used by the CLI and loaders.
const (
	ConfigDirName    = ".editbench"
	ConfigFileName   = "config.yml"
	DefaultOutputDir = ".editbench/results"
	DefaultHistoryDB = ".editbench/history.duckdb"
	EnvFileName      = ".env"
)

// ConfigDir returns the .editbench directory under root.
func ConfigDir(root string) string {
	return filepath.Join(root, ConfigDirName)
}

// ConfigPath returns the full config file path under root.
func ConfigPath(root string) string {
	return filepath.Join(ConfigDir(root), ConfigFileName)
}

// RootFromConfigPath derives the project root from a config file path.
func RootFromConfigPath(configPath string) string {
	dir := filepath.Dir(configPath)
	if filepath.Base(dir) == ConfigDirName {
		return filepath.Dir(dir)
	}
	return dir
}

// ResolvePath joins a relative path onto root.
func ResolvePath(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// FindConfigPath walks up from startDir (default: the working directory)
// to the first directory holding .editbench/config.yml.
func FindConfigPath(startDir string) (string, error) {
	dir := strings.TrimSpace(startDir)
	if dir == "" {
		dir = "."
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve start directory: %w", err)
	}
	start := dir
	for {
		path, found, err := configIn(dir)
		if err != nil || found {
			return path, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: no %s in %s or any parent", ErrConfigNotFound, filepath.Join(ConfigDirName, ConfigFileName), start)
		}
		dir = parent
	}
}

// configIn checks dir for a config file. A .editbench directory without
// config.yml is an error rather than a reason to keep walking.
func configIn(dir string) (string, bool, error) {
	path := ConfigPath(dir)
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return "", false, fmt.Errorf("config path %q is a directory", path)
	case err == nil:
		return path, true, nil
	case !errors.Is(err, fs.ErrNotExist):
		return "", false, fmt.Errorf("stat config path %q: %w", path, err)
	}
	if info, err := os.Stat(ConfigDir(dir)); err == nil && info.IsDir() {
		return "", false, fmt.Errorf("found %q but %s is missing", ConfigDir(dir), ConfigFileName)
	}
	return "", false, nil
}
