package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"editbench/internal/config"
)

// loadedConfig is a config plus the project root its paths resolve against.
type loadedConfig struct {
	Config config.Config
	Root   string
	// Path is empty when defaults are used.
	Path string
}

// resolveConfigPath normalizes a config path or finds it from CWD.
func resolveConfigPath(configPath string) (string, error) {
	if strings.TrimSpace(configPath) == "" {
		return config.FindConfigPath("")
	}
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return abs, nil
}

// loadConfig loads the config file, falling back to defaults rooted at the
// working directory when none exists and none was requested. The .env file
// next to the project root is loaded first.
func loadConfig(configPath string) (loadedConfig, error) {
	path, err := resolveConfigPath(configPath)
	if err != nil {
		if strings.TrimSpace(configPath) != "" || !errors.Is(err, config.ErrConfigNotFound) {
			return loadedConfig{}, err
		}
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return loadedConfig{}, fmt.Errorf("get working directory: %w", wdErr)
		}
		if err := config.LoadEnv(filepath.Join(wd, config.EnvFileName)); err != nil {
			return loadedConfig{}, err
		}
		return loadedConfig{Config: config.Default(), Root: wd}, nil
	}
	root := config.RootFromConfigPath(path)
	if err := config.LoadEnv(filepath.Join(root, config.EnvFileName)); err != nil {
		return loadedConfig{}, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return loadedConfig{}, err
	}
	return loadedConfig{Config: cfg, Root: root, Path: path}, nil
}
