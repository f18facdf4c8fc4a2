package fixture

import (
	"fmt"
	"regexp"
	"strings"
)

// Syntax describes the comment conventions recognized in fixture text.
type Syntax struct {
	// HeadingPattern matches the body of a scenario heading comment.
	HeadingPattern *regexp.Regexp
	// MarkerPhrase identifies a cursor marker comment (case-insensitive).
	MarkerPhrase string
	// IntentDelimiters are tried in order; the intent is the text that
	// follows the first one found after MarkerPhrase.
	IntentDelimiters []string
	// CommentPrefixes start a full-line comment.
	CommentPrefixes []string
}

const (
	defaultHeadingPattern = `^(?i:scenario)\s+[^:]+:\s*\S`
	defaultMarkerPhrase   = "Cursor here"
)

var (
	defaultIntentDelimiters = []string{"should suggest", "-", ":"}
	defaultCommentPrefixes  = []string{"/*", "//", "*", "#"}
)

// DefaultSyntax returns the conventions used by the bundled Java fixtures.
func DefaultSyntax() Syntax {
	return Syntax{
		HeadingPattern:   regexp.MustCompile(defaultHeadingPattern),
		MarkerPhrase:     defaultMarkerPhrase,
		IntentDelimiters: append([]string(nil), defaultIntentDelimiters...),
		CommentPrefixes:  append([]string(nil), defaultCommentPrefixes...),
	}
}

// CompileSyntax builds a Syntax from configuration values, falling back to
// defaults for empty inputs.
func CompileSyntax(headingPattern, markerPhrase string, delimiters, commentPrefixes []string) (Syntax, error) {
	syntax := DefaultSyntax()
	if strings.TrimSpace(headingPattern) != "" {
		re, err := regexp.Compile(headingPattern)
		if err != nil {
			return Syntax{}, fmt.Errorf("compile heading pattern: %w", err)
		}
		syntax.HeadingPattern = re
	}
	if strings.TrimSpace(markerPhrase) != "" {
		syntax.MarkerPhrase = strings.TrimSpace(markerPhrase)
	}
	if len(delimiters) > 0 {
		syntax.IntentDelimiters = append([]string(nil), delimiters...)
	}
	if len(commentPrefixes) > 0 {
		syntax.CommentPrefixes = append([]string(nil), commentPrefixes...)
	}
	return syntax, nil
}

// Option adjusts how Parse reads a fixture.
type Option func(*Syntax)

// WithSyntax replaces the default comment conventions.
func WithSyntax(syntax Syntax) Option {
	return func(target *Syntax) {
		*target = syntax
	}
}

// scanState is the per-call accumulator threaded through the line scan.
type scanState struct {
	scenario string
	sawCode  bool
}

// Parse scans text once, line by line, and returns the fixture with every
// cursor marker in source order. It fails with *MalformedFixtureError when
// no markers are found or a marker cannot be tied to preceding code.
func Parse(path, text string, opts ...Option) (*Fixture, error) {
	syntax := DefaultSyntax()
	for _, opt := range opts {
		if opt != nil {
			opt(&syntax)
		}
	}
	fixture := &Fixture{
		Path:       path,
		Text:       text,
		lineStarts: computeLineStarts(text),
		id:         nextFixtureID(),
	}
	collector := &issueCollector{}
	state := scanState{scenario: DefaultScenario}

	for lineIndex, start := range fixture.lineStarts {
		line := lineText(text, start)
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		body, isComment := commentBody(trimmed, syntax.CommentPrefixes)
		if !isComment {
			state.sawCode = true
			continue
		}
		if syntax.HeadingPattern != nil && syntax.HeadingPattern.MatchString(body) {
			state.scenario = body
			continue
		}
		phraseAt := indexFold(body, syntax.MarkerPhrase)
		if phraseAt < 0 {
			continue
		}
		lineNumber := lineIndex + 1
		intent := extractIntent(body[phraseAt+len(syntax.MarkerPhrase):], syntax.IntentDelimiters)
		if intent == "" {
			collector.add(lineNumber, "cursor marker has no expected intent")
			continue
		}
		if !state.sawCode {
			collector.add(lineNumber, "cursor marker has no preceding code region")
			continue
		}
		fixture.Markers = append(fixture.Markers, Marker{
			Index:    len(fixture.Markers),
			Offset:   start,
			Line:     lineNumber,
			Column:   len(line) - len(strings.TrimLeft(line, " \t")) + 1,
			Scenario: state.scenario,
			Intent:   intent,
			Comment:  trimmed,
			owner:    fixture.id,
		})
	}

	if len(fixture.Markers) == 0 && len(collector.issues) == 0 {
		collector.add(0, "no cursor markers found")
	}
	if err := collector.result(path); err != nil {
		return nil, err
	}
	return fixture, nil
}

func lineText(text string, start int) string {
	end := strings.IndexByte(text[start:], '\n')
	if end < 0 {
		return strings.TrimSuffix(text[start:], "\r")
	}
	return strings.TrimSuffix(text[start:start+end], "\r")
}

// commentBody strips a leading comment prefix and a trailing block-comment
// terminator.
func commentBody(trimmed string, prefixes []string) (string, bool) {
	for _, prefix := range prefixes {
		if prefix == "" || !strings.HasPrefix(trimmed, prefix) {
			continue
		}
		body := strings.TrimPrefix(trimmed, prefix)
		body = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(body), "*/"))
		return body, true
	}
	return "", false
}

// extractIntent returns the text after the first delimiter, ending at the
// end of the comment.
func extractIntent(rest string, delimiters []string) string {
	for _, delimiter := range delimiters {
		if delimiter == "" {
			continue
		}
		at := indexFold(rest, delimiter)
		if at < 0 {
			continue
		}
		return cleanIntent(rest[at+len(delimiter):])
	}
	return cleanIntent(rest)
}

func cleanIntent(value string) string {
	value = strings.TrimSpace(value)
	value = strings.TrimLeft(value, "-: ")
	value = strings.TrimRight(value, ". ")
	return strings.Join(strings.Fields(value), " ")
}

func indexFold(s, substr string) int {
	if substr == "" {
		return -1
	}
	for i := 0; i+len(substr) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}
