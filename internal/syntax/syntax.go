// Package syntax tokenizes and checks suggested code fragments with tree-sitter.
package syntax

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
)

// DefaultLanguage is used when no language is configured.
const DefaultLanguage = "java"

// TokenKind classifies a token in a fragment.
type TokenKind string

const (
	KindKeyword     TokenKind = "keyword"
	KindIdentifier  TokenKind = "identifier"
	KindLiteral     TokenKind = "literal"
	KindPunctuation TokenKind = "punctuation"
	KindComment     TokenKind = "comment"
)

// Token is a leaf of the parsed fragment.
type Token struct {
	Text string
	Kind TokenKind
}

// Analysis summarizes a parsed fragment.
type Analysis struct {
	Tokens []Token
	// Valid is true when the fragment parses without ERROR or MISSING nodes.
	Valid bool
	// CommentOnly is true when every token is a comment.
	CommentOnly bool
}

// Empty reports whether the fragment had no tokens.
func (a Analysis) Empty() bool {
	return len(a.Tokens) == 0
}

// Has reports whether any token has exactly the given text.
func (a Analysis) Has(text string) bool {
	for _, token := range a.Tokens {
		if token.Text == text {
			return true
		}
	}
	return false
}

// HasKind reports whether any token has the given kind.
func (a Analysis) HasKind(kind TokenKind) bool {
	for _, token := range a.Tokens {
		if token.Kind == kind {
			return true
		}
	}
	return false
}

// Code returns the non-comment tokens.
func (a Analysis) Code() []Token {
	out := make([]Token, 0, len(a.Tokens))
	for _, token := range a.Tokens {
		if token.Kind != KindComment {
			out = append(out, token)
		}
	}
	return out
}

var languages = map[string]func() *sitter.Language{
	"java":       java.GetLanguage,
	"javascript": javascript.GetLanguage,
	"python":     python.GetLanguage,
}

// Languages lists the supported language names.
func Languages() []string {
	names := make([]string, 0, len(languages))
	for name := range languages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Analyzer parses fragments for a single language. It is safe for
// concurrent use; every call creates its own parser.
type Analyzer struct {
	name     string
	language *sitter.Language
}

// NewAnalyzer returns an analyzer for a supported language.
func NewAnalyzer(language string) (*Analyzer, error) {
	name := strings.ToLower(strings.TrimSpace(language))
	if name == "" {
		name = DefaultLanguage
	}
	factory, ok := languages[name]
	if !ok {
		return nil, fmt.Errorf("unsupported language %q (supported: %s)", language, strings.Join(Languages(), ", "))
	}
	return &Analyzer{name: name, language: factory()}, nil
}

// Language returns the analyzer's language name.
func (a *Analyzer) Language() string {
	return a.name
}

// Analyze parses src as a standalone fragment.
func (a *Analyzer) Analyze(ctx context.Context, src string) (Analysis, error) {
	if strings.TrimSpace(src) == "" {
		return Analysis{}, nil
	}
	parser := sitter.NewParser()
	parser.SetLanguage(a.language)

	content := []byte(src)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return Analysis{}, fmt.Errorf("parse %s fragment: %w", a.name, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	analysis := Analysis{Valid: !root.HasError()}
	collectTokens(root, content, &analysis.Tokens)
	analysis.CommentOnly = len(analysis.Tokens) > 0
	for _, token := range analysis.Tokens {
		if token.Kind != KindComment {
			analysis.CommentOnly = false
			break
		}
	}
	return analysis, nil
}

func collectTokens(node *sitter.Node, content []byte, out *[]Token) {
	if node == nil || node.IsMissing() {
		return
	}
	nodeType := node.Type()
	if node.ChildCount() == 0 || isAtomic(nodeType) {
		text := node.Content(content)
		if strings.TrimSpace(text) == "" {
			return
		}
		*out = append(*out, Token{Text: text, Kind: classify(nodeType, text)})
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collectTokens(node.Child(i), content, out)
	}
}

func isAtomic(nodeType string) bool {
	return strings.Contains(nodeType, "literal") ||
		strings.Contains(nodeType, "comment") ||
		nodeType == "string"
}

func classify(nodeType, text string) TokenKind {
	switch {
	case strings.Contains(nodeType, "comment"):
		return KindComment
	case strings.HasSuffix(nodeType, "identifier"):
		return KindIdentifier
	case isAtomic(nodeType) || nodeType == "true" || nodeType == "false" || nodeType == "null" ||
		nodeType == "integer" || nodeType == "float" || nodeType == "number":
		return KindLiteral
	case isWord(text):
		return KindKeyword
	default:
		return KindPunctuation
	}
}

func isWord(text string) bool {
	if text == "" {
		return false
	}
	for _, r := range text {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
