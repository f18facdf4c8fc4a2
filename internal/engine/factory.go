package engine

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"editbench/internal/config"
)

// BuildOptions carries process-level dependencies for Build.
type BuildOptions struct {
	HTTPClient HTTPDoer
	// Getenv resolves API keys; defaults to os.Getenv.
	Getenv func(string) string
	// BaseDir resolves relative replay files.
	BaseDir string
}

var defaultKeyEnv = map[string]string{
	config.EngineOpenAI:     "OPENAI_API_KEY",
	config.EngineOpenRouter: "OPENROUTER_API_KEY",
	config.EngineGemini:     "GEMINI_API_KEY",
}

// Build constructs the engine described by cfg and wraps it with the
// configured rate limit and cache. The runner adds the call timeout with
// WithTimeout, which sits beneath both.
func Build(ctx context.Context, cfg config.EngineConfig, opts BuildOptions) (Engine, error) {
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}

	var (
		base Engine
		err  error
	)
	switch cfg.Type {
	case config.EngineOpenAI, config.EngineOpenRouter:
		key, keyErr := apiKey(cfg, opts.Getenv)
		if keyErr != nil {
			return nil, keyErr
		}
		baseURL := cfg.BaseURL
		if baseURL == "" && cfg.Type == config.EngineOpenRouter {
			baseURL = defaultOpenRouterBaseURL
		}
		base, err = NewChatEngine(ChatOptions{
			ID:          cfg.ID,
			Model:       cfg.Model,
			APIKey:      key,
			BaseURL:     baseURL,
			Mode:        Mode(cfg.Mode),
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Client:      opts.HTTPClient,
		})
	case config.EngineGemini:
		key, _ := apiKey(cfg, opts.Getenv)
		base, err = NewGeminiEngine(ctx, GeminiOptions{
			ID:     cfg.ID,
			Model:  cfg.Model,
			APIKey: key,
			Mode:   Mode(cfg.Mode),
		})
	case config.EngineCommand:
		base, err = NewCommandEngine(cfg.ID, cfg.Command, cfg.Args, nil)
	case config.EngineReplay:
		base, err = LoadReplay(cfg.ID, config.ResolvePath(opts.BaseDir, cfg.ReplayFile))
	case config.EngineHeuristic:
		base = NewHeuristicEngine(cfg.ID)
	default:
		return nil, fmt.Errorf("unsupported engine type %q", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("build engine %s: %w", cfg.ID, err)
	}

	limited := RateLimited(base, cfg.RatePerSecond, cfg.Burst)
	cached, err := Cached(limited, cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("build engine %s: %w", cfg.ID, err)
	}
	return cached, nil
}

// apiKey prefers the engine's api_key_env and falls back to the provider's
// conventional variable.
func apiKey(cfg config.EngineConfig, getenv func(string) string) (string, error) {
	candidates := make([]string, 0, 2)
	if name := strings.TrimSpace(cfg.APIKeyEnv); name != "" {
		candidates = append(candidates, name)
	}
	if name, ok := defaultKeyEnv[cfg.Type]; ok && name != cfg.APIKeyEnv {
		candidates = append(candidates, name)
	}
	for _, name := range candidates {
		if value := strings.TrimSpace(getenv(name)); value != "" {
			return value, nil
		}
	}
	return "", fmt.Errorf("engine %s: api key not set (checked %s)", cfg.ID, strings.Join(candidates, ", "))
}

// CallTimeout returns the engine's per-call timeout, falling back to the
// runner default.
func CallTimeout(cfg config.EngineConfig, fallbackMS int) time.Duration {
	if cfg.TimeoutMS > 0 {
		return time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	return time.Duration(fallbackMS) * time.Millisecond
}
