// Package scoring decides whether a suggestion satisfies a marker's intent.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"editbench/internal/engine"
	"editbench/internal/syntax"
)

// Outcome is the result of a single strategy.
type Outcome string

const (
	Matched    Outcome = "matched"
	NotMatched Outcome = "not_matched"
)

// Match is a strategy decision with a short human-readable rationale.
type Match struct {
	Outcome   Outcome
	Rationale string
}

// Strategy compares an intent with a suggestion and its syntax analysis.
// Returning an *AmbiguousIntentError means the intent cannot be classified.
type Strategy interface {
	Name() string
	Match(ctx context.Context, intent string, suggestion engine.Suggestion, analysis syntax.Analysis) (Match, error)
}

// FirstDecisive runs strategies in order and returns the first outcome that
// is not ambiguous.
type FirstDecisive struct {
	Strategies []Strategy
}

// Name lists the chained strategies.
func (c FirstDecisive) Name() string {
	names := make([]string, 0, len(c.Strategies))
	for _, strategy := range c.Strategies {
		names = append(names, strategy.Name())
	}
	return "first_decisive(" + strings.Join(names, ",") + ")"
}

// Match implements Strategy.
func (c FirstDecisive) Match(ctx context.Context, intent string, suggestion engine.Suggestion, analysis syntax.Analysis) (Match, error) {
	if len(c.Strategies) == 0 {
		return Match{}, &AmbiguousIntentError{Intent: intent, Reason: "no strategies configured"}
	}
	reasons := make([]string, 0, len(c.Strategies))
	for _, strategy := range c.Strategies {
		match, err := strategy.Match(ctx, intent, suggestion, analysis)
		var ambiguous *AmbiguousIntentError
		if errors.As(err, &ambiguous) {
			reasons = append(reasons, fmt.Sprintf("%s: %s", strategy.Name(), ambiguous.Reason))
			continue
		}
		if err != nil {
			return Match{}, fmt.Errorf("%s: %w", strategy.Name(), err)
		}
		return match, nil
	}
	return Match{}, &AmbiguousIntentError{Intent: intent, Reason: strings.Join(reasons, "; ")}
}
