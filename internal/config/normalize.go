package config

import "strings"

// Defaults applied by Normalize.
const (
	DefaultWorkers              = 1
	DefaultWindowLines          = 8
	DefaultTimeoutMS            = 5000
	DefaultUnavailableThreshold = 1.0
	DefaultMinKeywordRatio      = 0.5
	DefaultLanguage             = "java"
)

// Default returns the config used when no config file exists: a single
// heuristic engine and default runner settings.
func Default() Config {
	cfg := Config{Version: 1}
	Normalize(&cfg)
	return cfg
}

// Normalize trims values and fills defaults in place.
func Normalize(cfg *Config) {
	if strings.TrimSpace(cfg.OutputDir) == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	if strings.TrimSpace(cfg.HistoryDB) == "" {
		cfg.HistoryDB = DefaultHistoryDB
	}
	if len(cfg.Engines) == 0 {
		cfg.Engines = []EngineConfig{{ID: EngineHeuristic, Type: EngineHeuristic}}
	}
	for i := range cfg.Engines {
		engine := &cfg.Engines[i]
		engine.ID = strings.TrimSpace(engine.ID)
		engine.Type = strings.ToLower(strings.TrimSpace(engine.Type))
		engine.Mode = strings.ToLower(strings.TrimSpace(engine.Mode))
		if engine.ID == "" {
			engine.ID = engine.Type
		}
	}
	cfg.DefaultEngine = strings.TrimSpace(cfg.DefaultEngine)
	if cfg.DefaultEngine == "" && len(cfg.Engines) == 1 {
		cfg.DefaultEngine = cfg.Engines[0].ID
	}

	if cfg.Runner.Workers == 0 {
		cfg.Runner.Workers = DefaultWorkers
	}
	if cfg.Runner.WindowLines == 0 {
		cfg.Runner.WindowLines = DefaultWindowLines
	}
	if cfg.Runner.TimeoutMS == 0 {
		cfg.Runner.TimeoutMS = DefaultTimeoutMS
	}
	if cfg.Runner.UnavailableThreshold == 0 {
		cfg.Runner.UnavailableThreshold = DefaultUnavailableThreshold
	}

	cfg.Scoring.Strategy = strings.ToLower(strings.TrimSpace(cfg.Scoring.Strategy))
	if cfg.Scoring.Strategy == "" {
		cfg.Scoring.Strategy = StrategyEditKind
	}
	if cfg.Scoring.Strategy == StrategyFirstDecisive && len(cfg.Scoring.Chain) == 0 {
		cfg.Scoring.Chain = []string{StrategyEditKind, StrategyKeyword}
	}
	if cfg.Scoring.MinKeywordRatio == 0 {
		cfg.Scoring.MinKeywordRatio = DefaultMinKeywordRatio
	}
	for i := range cfg.Scoring.Rules {
		rule := &cfg.Scoring.Rules[i]
		rule.Phrases = normalizeStrings(rule.Phrases, true)
		rule.Classes = normalizeStrings(rule.Classes, true)
	}

	cfg.Fixture.Language = strings.ToLower(strings.TrimSpace(cfg.Fixture.Language))
	if cfg.Fixture.Language == "" {
		cfg.Fixture.Language = DefaultLanguage
	}
}

func normalizeStrings(values []string, lower bool) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if lower {
			value = strings.ToLower(value)
		}
		if value != "" {
			out = append(out, value)
		}
	}
	return out
}
