package edit

import (
	"fmt"
	"slices"
	"strings"

	"editbench/internal/engine"
)

// Located is a change with its resolved span in the original text.
type Located struct {
	Change engine.Change
	Span   Span
}

// Result is the text after applying changes.
type Result struct {
	Text string
	// Changed is the byte range of the result covered by the edits.
	Changed Span
	Applied []Located
}

// Resolve locates every change. Inserts go to cursor; replacements and
// deletions are found by their old text.
func Resolve(text string, cursor int, changes []engine.Change) ([]Located, error) {
	located := make([]Located, 0, len(changes))
	for i, change := range changes {
		switch change.Kind {
		case engine.ChangeInsert:
			located = append(located, Located{Change: change, Span: Span{Start: cursor, End: cursor, Method: MethodCursor}})
		case engine.ChangeReplace, engine.ChangeDelete:
			span, err := Locate(text, change.OldText)
			if err != nil {
				return nil, fmt.Errorf("changes[%d] %s: %w", i, change.Kind, err)
			}
			located = append(located, Located{Change: change, Span: span})
		default:
			return nil, fmt.Errorf("changes[%d]: unknown type %q", i, change.Kind)
		}
	}
	return located, nil
}

// Apply resolves changes against text and applies them in start order,
// shifting later spans by the length delta of earlier ones. Overlapping
// spans are rejected.
func Apply(text string, cursor int, changes []engine.Change) (Result, error) {
	if cursor < 0 || cursor > len(text) {
		return Result{}, fmt.Errorf("cursor %d outside text of %d bytes", cursor, len(text))
	}
	located, err := Resolve(text, cursor, changes)
	if err != nil {
		return Result{}, err
	}
	slices.SortStableFunc(located, func(a, b Located) int {
		return a.Span.Start - b.Span.Start
	})

	var b strings.Builder
	previous := 0
	adjustment := 0
	changed := Span{Start: -1}
	for _, entry := range located {
		if entry.Span.Start < previous {
			return Result{}, fmt.Errorf("change at %d overlaps the previous change", entry.Span.Start)
		}
		b.WriteString(text[previous:entry.Span.Start])
		replacement := entry.Change.NewText
		if entry.Change.Kind == engine.ChangeDelete {
			replacement = ""
		}
		b.WriteString(replacement)

		start := entry.Span.Start + adjustment
		if changed.Start < 0 {
			changed.Start = start
		}
		changed.End = start + len(replacement)
		adjustment += len(replacement) - (entry.Span.End - entry.Span.Start)
		previous = entry.Span.End
	}
	b.WriteString(text[previous:])
	if changed.Start < 0 {
		changed = Span{Start: cursor, End: cursor}
	}
	return Result{Text: b.String(), Changed: changed, Applied: located}, nil
}

// Preview returns the whole lines of r.Text touched by the applied changes,
// including the line before an edit that starts a line.
func (r Result) Preview() string {
	start := r.Changed.Start
	if start > 0 && r.Text[start-1] == '\n' {
		start--
	}
	lineStart := strings.LastIndexByte(r.Text[:start], '\n') + 1
	end := r.Changed.End
	if end > len(r.Text) {
		end = len(r.Text)
	}
	lineEnd := len(r.Text)
	if newline := strings.IndexByte(r.Text[end:], '\n'); newline >= 0 {
		lineEnd = end + newline
	}
	return r.Text[lineStart:lineEnd]
}

// Suggestion applies a suggestion at cursor. Suggestions without structured
// changes insert their text.
func Suggestion(text string, cursor int, suggestion engine.Suggestion) (Result, error) {
	changes := suggestion.Changes
	if len(changes) == 0 {
		changes = []engine.Change{{Kind: engine.ChangeInsert, NewText: suggestion.Text}}
	}
	return Apply(text, cursor, changes)
}
