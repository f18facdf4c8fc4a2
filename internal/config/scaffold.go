package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const defaultConfig = `version: 1
output_dir: ".editbench/results"
history_db: ".editbench/history.duckdb"

engines:
  - id: baseline
    type: heuristic
  - id: recorded
    type: replay
    replay_file: ".editbench/replay.yml"
  - id: gpt
    type: openai
    model: "gpt-4.1-mini"
    api_key_env: "OPENAI_API_KEY"
    mode: insertion
    temperature: 0.2
    cache_size: 256
    rate_per_second: 2
    burst: 2

default_engine: "baseline"

runner:
  workers: 4
  window_lines: 8
  timeout_ms: 5000
  unavailable_threshold: 1.0

scoring:
  strategy: first_decisive
  chain: [edit_kind, keyword]
  min_keyword_ratio: 0.5

fixture:
  language: java
`

const defaultReplay = `version: 1
suggestions:
  - scenario: "Scenario 1"
    text: ";"
    confidence: 0.9
  - marker: 2
    text: "() {\n}"
    changes:
      - type: INSERT
        new_text: "() {\n}"
        confidence: 0.7
`

// Scaffold writes a starter config and replay file under root/.editbench.
// Existing files are never overwritten.
func Scaffold(root string) (string, error) {
	configPath := ConfigPath(root)
	replayPath := filepath.Join(ConfigDir(root), "replay.yml")
	for _, path := range []string{configPath, replayPath} {
		if info, err := os.Stat(path); err == nil {
			if info.IsDir() {
				return "", fmt.Errorf("path %q is a directory", path)
			}
			return "", fmt.Errorf("file already exists at %q", path)
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
	}

	if err := os.MkdirAll(ConfigDir(root), 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return "", fmt.Errorf("write config file: %w", err)
	}
	if err := os.WriteFile(replayPath, []byte(defaultReplay), 0o644); err != nil {
		return "", fmt.Errorf("write replay file: %w", err)
	}
	return configPath, nil
}
