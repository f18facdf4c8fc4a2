package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"editbench/internal/config"
	"editbench/internal/engine"
	"editbench/internal/syntax"
)

// Status is the verdict classification.
type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusPartial Status = "partial"
)

// Verdict is the scored outcome for one suggestion.
type Verdict struct {
	Status    Status
	Rationale string
}

// Scorer classifies suggestions with a strategy and a syntax check.
type Scorer struct {
	strategy Strategy
	analyzer *syntax.Analyzer
}

// New builds a scorer. A nil strategy uses the default edit kind rules.
func New(strategy Strategy, analyzer *syntax.Analyzer) *Scorer {
	if strategy == nil {
		strategy = NewEditKind(DefaultRules())
	}
	return &Scorer{strategy: strategy, analyzer: analyzer}
}

// FromConfig builds the configured strategy for language.
func FromConfig(cfg config.ScoringConfig, language string) (*Scorer, error) {
	analyzer, err := syntax.NewAnalyzer(language)
	if err != nil {
		return nil, err
	}
	rules := DefaultRules()
	if cfg.ReplaceRules {
		rules = nil
	}
	for _, rule := range cfg.Rules {
		converted := Rule{Phrases: rule.Phrases, Tokens: rule.Tokens}
		for _, class := range rule.Classes {
			converted.Classes = append(converted.Classes, Class(class))
		}
		rules = append(rules, converted)
	}

	build := func(name string) (Strategy, error) {
		switch name {
		case "", config.StrategyEditKind:
			return NewEditKind(rules), nil
		case config.StrategyKeyword:
			return Keyword{MinRatio: cfg.MinKeywordRatio}, nil
		default:
			return nil, fmt.Errorf("unsupported strategy %q", name)
		}
	}

	if cfg.Strategy != config.StrategyFirstDecisive {
		strategy, err := build(cfg.Strategy)
		if err != nil {
			return nil, err
		}
		return New(strategy, analyzer), nil
	}
	chain := FirstDecisive{}
	for _, name := range cfg.Chain {
		strategy, err := build(name)
		if err != nil {
			return nil, err
		}
		chain.Strategies = append(chain.Strategies, strategy)
	}
	return New(chain, analyzer), nil
}

// Strategy returns the name of the scorer's strategy.
func (s *Scorer) Strategy() string {
	return s.strategy.Name()
}

// Score classifies a suggestion against intent. Mismatches are verdicts, not
// errors.
func (s *Scorer) Score(ctx context.Context, intent string, suggestion engine.Suggestion) Verdict {
	if strings.TrimSpace(suggestion.Text) == "" {
		return Verdict{Status: StatusFail, Rationale: "empty suggestion"}
	}

	var analysis syntax.Analysis
	if s.analyzer != nil {
		var err error
		analysis, err = s.analyzer.Analyze(ctx, suggestion.Text)
		if err != nil {
			return Verdict{Status: StatusFail, Rationale: fmt.Sprintf("syntax check failed: %v", err)}
		}
	}

	match, err := s.strategy.Match(ctx, intent, suggestion, analysis)
	var ambiguous *AmbiguousIntentError
	switch {
	case errors.As(err, &ambiguous):
		return Verdict{Status: StatusPartial, Rationale: "ambiguous intent: " + ambiguous.Reason}
	case err != nil:
		return Verdict{Status: StatusFail, Rationale: err.Error()}
	case match.Outcome == Matched:
		return Verdict{Status: StatusPass, Rationale: match.Rationale}
	case analysis.CommentOnly:
		return Verdict{Status: StatusPartial, Rationale: "comment only; " + match.Rationale}
	case analysis.Valid:
		return Verdict{Status: StatusPartial, Rationale: "valid code; " + match.Rationale}
	default:
		return Verdict{Status: StatusFail, Rationale: match.Rationale}
	}
}
