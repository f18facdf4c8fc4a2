// Package edit locates and applies structured suggestion changes to
// fixture text.
package edit

import (
	"errors"
	"strings"
	"unicode"

	"editbench/internal/window"
)

// ErrNotFound reports that a change's old text does not occur in the text.
var ErrNotFound = errors.New("old text not found")

// Method records how a span was located.
type Method string

const (
	MethodCursor     Method = "cursor"
	MethodExact      Method = "exact"
	MethodWhitespace Method = "whitespace"
	MethodFuzzyLine  Method = "fuzzy_line"
	MethodFuzzy      Method = "fuzzy"
)

// maxDifferences is the number of differing characters tolerated by the
// fuzzy tiers.
const maxDifferences = 2

// Span is a located byte range of the original text.
type Span struct {
	Start  int
	End    int
	Method Method
}

// Locate finds oldText in text. It tries an exact match, then a match with
// whitespace runs collapsed, then a same-length line with at most two
// differing characters, then a same-length substring with at most two
// differing characters. Cursor tokens in oldText are ignored.
func Locate(text, oldText string) (Span, error) {
	clean := strings.ReplaceAll(oldText, window.CursorToken, "")
	if strings.TrimSpace(clean) == "" {
		return Span{}, ErrNotFound
	}
	if at := strings.Index(text, clean); at >= 0 {
		return Span{Start: at, End: at + len(clean), Method: MethodExact}, nil
	}
	if span, ok := locateNormalized(text, clean); ok {
		return span, nil
	}
	if span, ok := locateFuzzyLine(text, clean); ok {
		return span, nil
	}
	if span, ok := locateFuzzy(text, clean); ok {
		return span, nil
	}
	return Span{}, ErrNotFound
}

// normalized is text with whitespace runs collapsed to one space and a map
// from each normalized byte back to its original offset.
type normalized struct {
	text    string
	offsets []int
}

func normalize(text string) normalized {
	var b strings.Builder
	offsets := make([]int, 0, len(text))
	inSpace := false
	for i, r := range text {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
				offsets = append(offsets, i)
			}
			inSpace = true
			continue
		}
		inSpace = false
		start := b.Len()
		b.WriteRune(r)
		for range b.Len() - start {
			offsets = append(offsets, i)
		}
	}
	return normalized{text: b.String(), offsets: offsets}
}

func locateNormalized(text, search string) (Span, bool) {
	needle := normalize(strings.TrimSpace(search)).text
	doc := normalize(text)
	at := strings.Index(doc.text, needle)
	if at < 0 {
		return Span{}, false
	}
	last := at + len(needle) - 1
	end := doc.offsets[last] + 1
	// Extend over the rest of a multi-byte rune.
	for end < len(text) && !isRuneStart(text[end]) {
		end++
	}
	return Span{Start: doc.offsets[at], End: end, Method: MethodWhitespace}, true
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func locateFuzzyLine(text, search string) (Span, bool) {
	first := strings.TrimSpace(strings.SplitN(search, "\n", 2)[0])
	if first == "" {
		return Span{}, false
	}
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		content := strings.TrimRight(line, "\r\n")
		trimmed := strings.TrimSpace(content)
		if trimmed != "" && similar(trimmed, first) {
			start := offset + strings.Index(content, trimmed)
			return Span{Start: start, End: start + len(trimmed), Method: MethodFuzzyLine}, true
		}
		offset += len(line)
	}
	return Span{}, false
}

func locateFuzzy(text, search string) (Span, bool) {
	for i := 0; i+len(search) <= len(text); i++ {
		if similar(text[i:i+len(search)], search) {
			return Span{Start: i, End: i + len(search), Method: MethodFuzzy}, true
		}
	}
	return Span{}, false
}

// similar reports whether a and b have equal length and differ in at most
// maxDifferences bytes.
func similar(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	differences := 0
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			differences++
			if differences > maxDifferences {
				return false
			}
		}
	}
	return true
}
