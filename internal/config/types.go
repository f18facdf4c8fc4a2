package config

// Engine types accepted in engines[].type.
const (
	EngineOpenAI     = "openai"
	EngineOpenRouter = "openrouter"
	EngineGemini     = "gemini"
	EngineCommand    = "command"
	EngineReplay     = "replay"
	EngineHeuristic  = "heuristic"
)

// Scoring strategies accepted in scoring.strategy.
const (
	StrategyEditKind      = "edit_kind"
	StrategyKeyword       = "keyword"
	StrategyFirstDecisive = "first_decisive"
)

// Config is the parsed .editbench/config.yml.
type Config struct {
	Version       int            `yaml:"version"`
	OutputDir     string         `yaml:"output_dir"`
	HistoryDB     string         `yaml:"history_db"`
	Engines       []EngineConfig `yaml:"engines"`
	DefaultEngine string         `yaml:"default_engine"`
	Runner        RunnerConfig   `yaml:"runner"`
	Scoring       ScoringConfig  `yaml:"scoring"`
	Fixture       FixtureConfig  `yaml:"fixture"`
}

// EngineConfig describes one suggestion engine.
type EngineConfig struct {
	ID         string   `yaml:"id"`
	Type       string   `yaml:"type"`
	Model      string   `yaml:"model"`
	BaseURL    string   `yaml:"base_url"`
	APIKeyEnv  string   `yaml:"api_key_env"`
	Mode       string   `yaml:"mode"`
	Command    string   `yaml:"command"`
	Args       []string `yaml:"args"`
	ReplayFile string   `yaml:"replay_file"`

	Temperature   float64 `yaml:"temperature"`
	MaxTokens     int     `yaml:"max_tokens"`
	TimeoutMS     int     `yaml:"timeout_ms"`
	CacheSize     int     `yaml:"cache_size"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

// RunnerConfig tunes the harness runner.
type RunnerConfig struct {
	Workers     int `yaml:"workers"`
	WindowLines int `yaml:"window_lines"`
	TimeoutMS   int `yaml:"timeout_ms"`
	// UnavailableThreshold is the fraction of markers whose engine call may
	// fail as unavailable before the run is fatal. 1.0 means every marker.
	UnavailableThreshold float64 `yaml:"unavailable_threshold"`
}

// ScoringConfig selects and tunes the matching strategy.
type ScoringConfig struct {
	Strategy string `yaml:"strategy"`
	// Chain lists strategies for first_decisive, in order.
	Chain           []string     `yaml:"chain"`
	MinKeywordRatio float64      `yaml:"min_keyword_ratio"`
	Rules           []RuleConfig `yaml:"rules"`
	// ReplaceRules drops the built-in edit kind rules instead of extending them.
	ReplaceRules bool `yaml:"replace_rules"`
}

// RuleConfig maps an intent phrase to the tokens a suggestion must contain.
type RuleConfig struct {
	Phrases []string `yaml:"phrases"`
	Tokens  []string `yaml:"tokens"`
	// Classes are token classes: operand, identifier, literal, keyword.
	Classes []string `yaml:"classes"`
}

// FixtureConfig describes the annotation conventions of fixture files.
type FixtureConfig struct {
	Language         string   `yaml:"language"`
	HeadingPattern   string   `yaml:"heading_pattern"`
	MarkerPhrase     string   `yaml:"marker_phrase"`
	IntentDelimiters []string `yaml:"intent_delimiters"`
	CommentPrefixes  []string `yaml:"comment_prefixes"`
}

// Engine returns the engine config with the given id.
func (c Config) Engine(id string) (EngineConfig, bool) {
	for _, engine := range c.Engines {
		if engine.ID == id {
			return engine, true
		}
	}
	return EngineConfig{}, false
}
