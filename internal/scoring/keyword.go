package scoring

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"editbench/internal/engine"
	"editbench/internal/syntax"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "for": {}, "of": {}, "to": {},
	"in": {}, "on": {}, "at": {}, "with": {}, "by": {}, "is": {}, "be": {}, "it": {},
	"this": {}, "that": {}, "should": {}, "suggest": {}, "add": {}, "adding": {},
	"complete": {}, "completing": {}, "insert": {}, "inserting": {}, "missing": {},
	"cursor": {}, "here": {}, "some": {}, "new": {},
}

// Keyword passes when enough of the intent's content words appear in the
// suggestion's tokens.
type Keyword struct {
	// MinRatio is the fraction of content words that must be found.
	MinRatio float64
}

// Name implements Strategy.
func (k Keyword) Name() string {
	return "keyword"
}

// Match implements Strategy.
func (k Keyword) Match(_ context.Context, intent string, suggestion engine.Suggestion, analysis syntax.Analysis) (Match, error) {
	words := contentWords(intent)
	if len(words) == 0 {
		return Match{}, &AmbiguousIntentError{Intent: intent, Reason: "no content words"}
	}
	haystack := strings.ToLower(suggestion.Text)
	if !analysis.Empty() {
		texts := make([]string, 0, len(analysis.Tokens))
		for _, token := range analysis.Tokens {
			texts = append(texts, token.Text)
		}
		haystack = strings.ToLower(strings.Join(texts, " "))
	}

	var found []string
	for _, word := range words {
		if strings.Contains(haystack, word) {
			found = append(found, word)
		}
	}
	ratio := float64(len(found)) / float64(len(words))
	minRatio := k.MinRatio
	if minRatio <= 0 {
		minRatio = 0.5
	}
	rationale := fmt.Sprintf("found %d/%d keywords [%s]", len(found), len(words), strings.Join(found, ", "))
	if ratio >= minRatio {
		return Match{Outcome: Matched, Rationale: rationale}, nil
	}
	return Match{Outcome: NotMatched, Rationale: rationale}, nil
}

func contentWords(intent string) []string {
	fields := strings.FieldsFunc(strings.ToLower(intent), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	seen := map[string]struct{}{}
	words := make([]string, 0, len(fields))
	for _, field := range fields {
		if _, stop := stopWords[field]; stop {
			continue
		}
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		words = append(words, field)
	}
	return words
}
