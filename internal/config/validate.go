package config

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"editbench/internal/syntax"
)

var (
	engineTypes = []string{EngineOpenAI, EngineOpenRouter, EngineGemini, EngineCommand, EngineReplay, EngineHeuristic}
	strategies  = []string{StrategyEditKind, StrategyKeyword, StrategyFirstDecisive}
	ruleClasses = []string{"operand", "identifier", "literal", "keyword"}
	engineModes = []string{"", "insertion", "changes"}
)

// Validate checks a config for correctness and referenced files. Relative
// paths are resolved against baseDir.
func Validate(cfg *Config, baseDir string) error {
	var issues issueList

	if cfg.Version == 0 {
		issues.add("version", "is required")
	} else if cfg.Version != 1 {
		issues.add("version", fmt.Sprintf("unsupported version %d", cfg.Version))
	}
	validateEngines(cfg, baseDir, issues.add)
	validateRunner(cfg.Runner, issues.add)
	validateScoring(cfg.Scoring, issues.add)
	validateFixture(cfg.Fixture, issues.add)
	return issues.err()
}

func validateEngines(cfg *Config, baseDir string, add issueAdder) {
	if len(cfg.Engines) == 0 {
		add("engines", "at least one engine is required")
	}
	seen := map[string]struct{}{}
	for i, engine := range cfg.Engines {
		prefix := fmt.Sprintf("engines[%d]", i)
		if engine.ID == "" {
			add(prefix+".id", "is required")
		} else if _, exists := seen[engine.ID]; exists {
			add(prefix+".id", fmt.Sprintf("duplicate id %q", engine.ID))
		} else {
			seen[engine.ID] = struct{}{}
		}

		switch engine.Type {
		case "":
			add(prefix+".type", "is required")
		case EngineOpenAI, EngineOpenRouter, EngineGemini:
			if strings.TrimSpace(engine.Model) == "" {
				add(prefix+".model", "is required")
			}
			if !slices.Contains(engineModes, engine.Mode) {
				add(prefix+".mode", fmt.Sprintf("unsupported mode %q", engine.Mode))
			}
		case EngineCommand:
			if strings.TrimSpace(engine.Command) == "" {
				add(prefix+".command", "is required")
			}
		case EngineReplay:
			if strings.TrimSpace(engine.ReplayFile) == "" {
				add(prefix+".replay_file", "is required")
			} else if _, err := os.Stat(ResolvePath(baseDir, engine.ReplayFile)); err != nil {
				add(prefix+".replay_file", fmt.Sprintf("cannot read %q: %v", engine.ReplayFile, err))
			}
		case EngineHeuristic:
		default:
			add(prefix+".type", fmt.Sprintf("unsupported type %q (expected one of %s)", engine.Type, strings.Join(engineTypes, ", ")))
		}

		if engine.Temperature < 0 || engine.Temperature > 2 {
			add(prefix+".temperature", "must be between 0 and 2")
		}
		if engine.MaxTokens < 0 {
			add(prefix+".max_tokens", "must be >= 0")
		}
		if engine.TimeoutMS < 0 {
			add(prefix+".timeout_ms", "must be >= 0")
		}
		if engine.CacheSize < 0 {
			add(prefix+".cache_size", "must be >= 0")
		}
		if engine.RatePerSecond < 0 {
			add(prefix+".rate_per_second", "must be >= 0")
		}
		if engine.Burst < 0 {
			add(prefix+".burst", "must be >= 0")
		}
	}

	if cfg.DefaultEngine == "" {
		if len(cfg.Engines) > 1 {
			add("default_engine", "is required when more than one engine is configured")
		}
	} else if _, ok := seen[cfg.DefaultEngine]; !ok {
		add("default_engine", fmt.Sprintf("unknown engine %q", cfg.DefaultEngine))
	}
}

func validateRunner(runner RunnerConfig, add issueAdder) {
	if runner.Workers < 1 {
		add("runner.workers", "must be >= 1")
	}
	if runner.WindowLines < 1 {
		add("runner.window_lines", "must be >= 1")
	}
	if runner.TimeoutMS < 0 {
		add("runner.timeout_ms", "must be >= 0")
	}
	if runner.UnavailableThreshold <= 0 || runner.UnavailableThreshold > 1 {
		add("runner.unavailable_threshold", "must be in (0, 1]")
	}
}

func validateScoring(scoring ScoringConfig, add issueAdder) {
	if !slices.Contains(strategies, scoring.Strategy) {
		add("scoring.strategy", fmt.Sprintf("unsupported strategy %q (expected one of %s)", scoring.Strategy, strings.Join(strategies, ", ")))
	}
	for i, name := range scoring.Chain {
		if name == StrategyFirstDecisive || !slices.Contains(strategies, name) {
			add(fmt.Sprintf("scoring.chain[%d]", i), fmt.Sprintf("unsupported strategy %q", name))
		}
	}
	if scoring.MinKeywordRatio <= 0 || scoring.MinKeywordRatio > 1 {
		add("scoring.min_keyword_ratio", "must be in (0, 1]")
	}
	if scoring.ReplaceRules && len(scoring.Rules) == 0 {
		add("scoring.rules", "must not be empty when replace_rules is set")
	}
	for i, rule := range scoring.Rules {
		prefix := fmt.Sprintf("scoring.rules[%d]", i)
		if len(rule.Phrases) == 0 {
			add(prefix+".phrases", "must include at least one entry")
		}
		if len(rule.Tokens) == 0 && len(rule.Classes) == 0 {
			add(prefix, "needs tokens or classes")
		}
		for j, class := range rule.Classes {
			if !slices.Contains(ruleClasses, class) {
				add(fmt.Sprintf("%s.classes[%d]", prefix, j), fmt.Sprintf("unsupported class %q (expected one of %s)", class, strings.Join(ruleClasses, ", ")))
			}
		}
	}
}

func validateFixture(fixture FixtureConfig, add issueAdder) {
	if !slices.Contains(syntax.Languages(), fixture.Language) {
		add("fixture.language", fmt.Sprintf("unsupported language %q (expected one of %s)", fixture.Language, strings.Join(syntax.Languages(), ", ")))
	}
	if fixture.HeadingPattern != "" {
		if _, err := regexp.Compile(fixture.HeadingPattern); err != nil {
			add("fixture.heading_pattern", err.Error())
		}
	}
}
