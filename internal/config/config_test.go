package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		Version:   1,
		OutputDir: "./out",
		HistoryDB: "./history.duckdb",
		Engines: []EngineConfig{
			{ID: "baseline", Type: EngineHeuristic},
			{ID: "gpt", Type: EngineOpenAI, Model: "gpt-4.1-mini", Mode: "insertion"},
		},
		DefaultEngine: "baseline",
		Runner: RunnerConfig{
			Workers:              2,
			WindowLines:          8,
			TimeoutMS:            1000,
			UnavailableThreshold: 1,
		},
		Scoring: ScoringConfig{
			Strategy:        StrategyEditKind,
			MinKeywordRatio: 0.5,
		},
		Fixture: FixtureConfig{Language: "java"},
	}
}

func issueFields(t *testing.T, err error) []string {
	t.Helper()
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig match for %v", err)
	}
	fields := make([]string, 0, len(validationErr.Issues))
	for _, issue := range validationErr.Issues {
		fields = append(fields, issue.Field)
	}
	return fields
}

func hasField(fields []string, field string) bool {
	for _, candidate := range fields {
		if candidate == field {
			return true
		}
	}
	return false
}

// TestValidateAcceptsValidConfig verifies a complete config passes.
func TestValidateAcceptsValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := Validate(&cfg, t.TempDir()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestNormalizeFillsDefaults verifies an empty config gains a heuristic engine and defaults.
func TestNormalizeFillsDefaults(t *testing.T) {
	cfg := Config{Version: 1}
	Normalize(&cfg)

	if len(cfg.Engines) != 1 || cfg.Engines[0].Type != EngineHeuristic {
		t.Fatalf("expected heuristic engine, got %+v", cfg.Engines)
	}
	if cfg.DefaultEngine != EngineHeuristic {
		t.Fatalf("expected default engine heuristic, got %q", cfg.DefaultEngine)
	}
	if cfg.Runner.Workers != DefaultWorkers || cfg.Runner.WindowLines != DefaultWindowLines {
		t.Fatalf("unexpected runner defaults: %+v", cfg.Runner)
	}
	if cfg.Runner.UnavailableThreshold != 1 {
		t.Fatalf("expected threshold 1, got %v", cfg.Runner.UnavailableThreshold)
	}
	if cfg.Scoring.Strategy != StrategyEditKind {
		t.Fatalf("expected edit_kind strategy, got %q", cfg.Scoring.Strategy)
	}
	if cfg.Fixture.Language != DefaultLanguage {
		t.Fatalf("expected language %q, got %q", DefaultLanguage, cfg.Fixture.Language)
	}
	if err := Validate(&cfg, t.TempDir()); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
}

// TestNormalizeEngineIDsAndChain verifies engine ids default to their type and chains are filled.
func TestNormalizeEngineIDsAndChain(t *testing.T) {
	cfg := Config{
		Version: 1,
		Engines: []EngineConfig{{Type: " Heuristic "}},
		Scoring: ScoringConfig{
			Strategy: "First_Decisive",
			Rules:    []RuleConfig{{Phrases: []string{" Arrow Function ", ""}, Tokens: []string{"=>"}}},
		},
	}
	Normalize(&cfg)

	if cfg.Engines[0].ID != EngineHeuristic || cfg.DefaultEngine != EngineHeuristic {
		t.Fatalf("expected id and default heuristic, got %q/%q", cfg.Engines[0].ID, cfg.DefaultEngine)
	}
	if strings.Join(cfg.Scoring.Chain, ",") != "edit_kind,keyword" {
		t.Fatalf("unexpected chain: %v", cfg.Scoring.Chain)
	}
	if len(cfg.Scoring.Rules[0].Phrases) != 1 || cfg.Scoring.Rules[0].Phrases[0] != "arrow function" {
		t.Fatalf("unexpected phrases: %v", cfg.Scoring.Rules[0].Phrases)
	}
}

// TestValidateDetectsDuplicateEngineIDs verifies engine ids must be unique.
func TestValidateDetectsDuplicateEngineIDs(t *testing.T) {
	cfg := validConfig()
	cfg.Engines = append(cfg.Engines, cfg.Engines[0])

	fields := issueFields(t, Validate(&cfg, "."))
	if !hasField(fields, "engines[2].id") {
		t.Fatalf("expected duplicate id issue, got %v", fields)
	}
}

// TestValidateEngineRequirements verifies per-type required fields.
func TestValidateEngineRequirements(t *testing.T) {
	cfg := validConfig()
	cfg.Engines = []EngineConfig{
		{ID: "gpt", Type: EngineOpenAI, Mode: "diff"},
		{ID: "cmd", Type: EngineCommand},
		{ID: "rec", Type: EngineReplay, ReplayFile: "missing.yml"},
		{ID: "odd", Type: "telepathy"},
	}
	cfg.DefaultEngine = "nope"

	fields := issueFields(t, Validate(&cfg, t.TempDir()))
	for _, field := range []string{
		"engines[0].model",
		"engines[0].mode",
		"engines[1].command",
		"engines[2].replay_file",
		"engines[3].type",
		"default_engine",
	} {
		if !hasField(fields, field) {
			t.Fatalf("expected issue for %s, got %v", field, fields)
		}
	}
}

// TestValidateRequiresDefaultEngineWithSeveralEngines verifies ambiguity is rejected.
func TestValidateRequiresDefaultEngineWithSeveralEngines(t *testing.T) {
	cfg := validConfig()
	cfg.DefaultEngine = ""

	fields := issueFields(t, Validate(&cfg, "."))
	if !hasField(fields, "default_engine") {
		t.Fatalf("expected default_engine issue, got %v", fields)
	}
}

// TestValidateRunnerBounds verifies runner limits.
func TestValidateRunnerBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Runner = RunnerConfig{Workers: 0, WindowLines: 0, TimeoutMS: -1, UnavailableThreshold: 1.5}

	fields := issueFields(t, Validate(&cfg, "."))
	for _, field := range []string{"runner.workers", "runner.window_lines", "runner.timeout_ms", "runner.unavailable_threshold"} {
		if !hasField(fields, field) {
			t.Fatalf("expected issue for %s, got %v", field, fields)
		}
	}
}

// TestValidateScoring verifies strategies, chains, and rules.
func TestValidateScoring(t *testing.T) {
	cfg := validConfig()
	cfg.Scoring = ScoringConfig{
		Strategy:        "vibes",
		Chain:           []string{StrategyKeyword, StrategyFirstDecisive},
		MinKeywordRatio: 2,
		Rules: []RuleConfig{
			{Phrases: []string{"lambda"}},
			{Tokens: []string{"->"}, Classes: []string{"sparkle"}},
		},
	}

	fields := issueFields(t, Validate(&cfg, "."))
	for _, field := range []string{
		"scoring.strategy",
		"scoring.chain[1]",
		"scoring.min_keyword_ratio",
		"scoring.rules[0]",
		"scoring.rules[1].phrases",
		"scoring.rules[1].classes[0]",
	} {
		if !hasField(fields, field) {
			t.Fatalf("expected issue for %s, got %v", field, fields)
		}
	}
}

// TestValidateFixtureSettings verifies language and heading pattern checks.
func TestValidateFixtureSettings(t *testing.T) {
	cfg := validConfig()
	cfg.Fixture = FixtureConfig{Language: "cobol", HeadingPattern: "(unclosed"}

	fields := issueFields(t, Validate(&cfg, "."))
	if !hasField(fields, "fixture.language") || !hasField(fields, "fixture.heading_pattern") {
		t.Fatalf("expected fixture issues, got %v", fields)
	}
}

// TestParseRejectsUnknownFields verifies strict decoding.
func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("version: 1\nsurprise: true\n"))
	if err == nil || !strings.Contains(err.Error(), "surprise") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

// TestParseRejectsMultipleDocuments verifies single-document configs.
func TestParseRejectsMultipleDocuments(t *testing.T) {
	_, err := Parse([]byte("version: 1\n---\nversion: 1\n"))
	if err == nil || !strings.Contains(err.Error(), "multiple YAML documents") {
		t.Fatalf("expected multiple documents error, got %v", err)
	}
}

// TestScaffoldThenLoad verifies the starter config loads cleanly.
func TestScaffoldThenLoad(t *testing.T) {
	root := t.TempDir()
	path, err := Scaffold(root)
	if err != nil {
		t.Fatalf("scaffold: %v", err)
	}
	if path != ConfigPath(root) {
		t.Fatalf("expected %q, got %q", ConfigPath(root), path)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load scaffolded config: %v", err)
	}
	if cfg.DefaultEngine != "baseline" || len(cfg.Engines) != 3 {
		t.Fatalf("unexpected engines: %+v", cfg.Engines)
	}
	if cfg.Scoring.Strategy != StrategyFirstDecisive {
		t.Fatalf("unexpected strategy %q", cfg.Scoring.Strategy)
	}

	if _, err := Scaffold(root); err == nil {
		t.Fatalf("expected second scaffold to fail")
	}
}

// TestFindConfigPath verifies upward search and the not-found error.
func TestFindConfigPath(t *testing.T) {
	root := t.TempDir()
	if _, err := Scaffold(root); err != nil {
		t.Fatalf("scaffold: %v", err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	found, err := FindConfigPath(nested)
	if err != nil {
		t.Fatalf("find config: %v", err)
	}
	if RootFromConfigPath(found) != root {
		t.Fatalf("expected root %q, got %q", root, RootFromConfigPath(found))
	}

	_, err = FindConfigPath(t.TempDir())
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
}

// TestLoadEnvMissingFile verifies a missing .env is ignored.
func TestLoadEnvMissingFile(t *testing.T) {
	if err := LoadEnv(filepath.Join(t.TempDir(), EnvFileName)); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

// TestLoadEnvDoesNotOverride verifies existing variables win.
func TestLoadEnvDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), EnvFileName)
	if err := os.WriteFile(path, []byte("EDITBENCH_TEST_KEY=fromfile\nEDITBENCH_TEST_OTHER=loaded\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("EDITBENCH_TEST_KEY", "fromenv")
	t.Setenv("EDITBENCH_TEST_OTHER", "")
	os.Unsetenv("EDITBENCH_TEST_OTHER")

	if err := LoadEnv(path); err != nil {
		t.Fatalf("load env: %v", err)
	}
	if got := os.Getenv("EDITBENCH_TEST_KEY"); got != "fromenv" {
		t.Fatalf("expected fromenv, got %q", got)
	}
	if got := os.Getenv("EDITBENCH_TEST_OTHER"); got != "loaded" {
		t.Fatalf("expected loaded, got %q", got)
	}
}
