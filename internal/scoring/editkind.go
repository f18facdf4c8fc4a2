package scoring

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"editbench/internal/engine"
	"editbench/internal/syntax"
)

// Class is a family of tokens a rule can require.
type Class string

const (
	// ClassOperand is any identifier or literal.
	ClassOperand    Class = "operand"
	ClassIdentifier Class = "identifier"
	ClassLiteral    Class = "literal"
	ClassKeyword    Class = "keyword"
)

// Rule maps intent phrases to the tokens and token classes a suggestion
// must contain.
type Rule struct {
	Phrases []string
	Tokens  []string
	Classes []Class
}

// DefaultRules is the built-in edit kind table.
func DefaultRules() []Rule {
	return []Rule{
		{Phrases: []string{"semicolon", "statement terminator"}, Tokens: []string{";"}},
		{Phrases: []string{"closing parenthesis", "close parenthesis", "closing paren", "close paren", "right parenthesis"}, Tokens: []string{")"}},
		{Phrases: []string{"opening parenthesis", "open parenthesis", "opening paren", "open paren", "left parenthesis"}, Tokens: []string{"("}},
		{Phrases: []string{"closing brace", "close brace", "closing curly brace", "right brace"}, Tokens: []string{"}"}},
		{Phrases: []string{"opening brace", "open brace", "opening curly brace", "left brace"}, Tokens: []string{"{"}},
		{Phrases: []string{"closing bracket", "close bracket", "right bracket"}, Tokens: []string{"]"}},
		{Phrases: []string{"opening bracket", "open bracket", "left bracket"}, Tokens: []string{"["}},
		{Phrases: []string{"comma"}, Tokens: []string{","}},
		{Phrases: []string{"method body", "function body", "block"}, Tokens: []string{"{", "}"}},
		{Phrases: []string{"return statement", "return"}, Tokens: []string{"return"}},
		{Phrases: []string{"expression", "operand", "string concatenation", "concatenation", "value", "argument"}, Classes: []Class{ClassOperand}},
	}
}

// EditKind classifies an intent through a phrase table and checks that the
// suggestion contains every required token.
type EditKind struct {
	rules []phraseRule
}

type phraseRule struct {
	phrase string
	rule   Rule
}

// NewEditKind builds the strategy. Longer phrases are matched first and
// consume the words they cover.
func NewEditKind(rules []Rule) *EditKind {
	var table []phraseRule
	for _, rule := range rules {
		for _, phrase := range rule.Phrases {
			phrase = strings.ToLower(strings.TrimSpace(phrase))
			if phrase != "" {
				table = append(table, phraseRule{phrase: phrase, rule: rule})
			}
		}
	}
	slices.SortStableFunc(table, func(a, b phraseRule) int {
		return len(b.phrase) - len(a.phrase)
	})
	return &EditKind{rules: table}
}

// Name implements Strategy.
func (e *EditKind) Name() string {
	return "edit_kind"
}

// Match implements Strategy.
func (e *EditKind) Match(_ context.Context, intent string, _ engine.Suggestion, analysis syntax.Analysis) (Match, error) {
	remaining := strings.ToLower(intent)
	var matched []phraseRule
	for _, entry := range e.rules {
		at := indexWord(remaining, entry.phrase)
		if at < 0 {
			continue
		}
		matched = append(matched, entry)
		remaining = remaining[:at] + strings.Repeat(" ", len(entry.phrase)) + remaining[at+len(entry.phrase):]
	}
	if len(matched) == 0 {
		return Match{}, &AmbiguousIntentError{Intent: intent, Reason: "no known edit kind"}
	}

	code := analysis.Code()
	var found, missing []string
	for _, entry := range matched {
		for _, token := range entry.rule.Tokens {
			label := fmt.Sprintf("%s (%s)", token, entry.phrase)
			if hasToken(code, token) {
				found = append(found, label)
			} else {
				missing = append(missing, label)
			}
		}
		for _, class := range entry.rule.Classes {
			label := fmt.Sprintf("%s (%s)", class, entry.phrase)
			if hasClass(code, class) {
				found = append(found, label)
			} else {
				missing = append(missing, label)
			}
		}
	}
	if len(missing) > 0 {
		return Match{Outcome: NotMatched, Rationale: "missing " + strings.Join(missing, ", ")}, nil
	}
	return Match{Outcome: Matched, Rationale: "found " + strings.Join(found, ", ")}, nil
}

// hasToken reports whether a required token occurs in code tokens. Words
// must be whole non-literal tokens; punctuation may sit inside a larger
// error token.
func hasToken(code []syntax.Token, want string) bool {
	word := isWordText(want)
	for _, token := range code {
		if word {
			if token.Kind != syntax.KindLiteral && indexWord(token.Text, want) >= 0 {
				return true
			}
			continue
		}
		if token.Kind != syntax.KindLiteral && strings.Contains(token.Text, want) {
			return true
		}
	}
	return false
}

func hasClass(code []syntax.Token, class Class) bool {
	for _, token := range code {
		switch class {
		case ClassOperand:
			if token.Kind == syntax.KindIdentifier || token.Kind == syntax.KindLiteral {
				return true
			}
		case ClassIdentifier:
			if token.Kind == syntax.KindIdentifier {
				return true
			}
		case ClassLiteral:
			if token.Kind == syntax.KindLiteral {
				return true
			}
		case ClassKeyword:
			if token.Kind == syntax.KindKeyword {
				return true
			}
		}
	}
	return false
}

// indexWord finds word in text at word boundaries.
func indexWord(text, word string) int {
	if word == "" {
		return -1
	}
	for offset := 0; offset+len(word) <= len(text); {
		at := strings.Index(text[offset:], word)
		if at < 0 {
			return -1
		}
		at += offset
		end := at + len(word)
		if (at == 0 || !isWordByte(text[at-1]) || !isWordByte(word[0])) &&
			(end == len(text) || !isWordByte(text[end]) || !isWordByte(word[len(word)-1])) {
			return at
		}
		offset = at + 1
	}
	return -1
}

func isWordByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func isWordText(text string) bool {
	if text == "" {
		return false
	}
	for i := 0; i < len(text); i++ {
		if !isWordByte(text[i]) {
			return false
		}
	}
	return true
}
