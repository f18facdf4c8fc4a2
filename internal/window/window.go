// Package window cuts the code surrounding a cursor marker out of a fixture.
package window

import (
	"errors"
	"fmt"

	"editbench/internal/fixture"
)

// CursorToken is the placeholder engines see at the cursor position.
const CursorToken = "[CURSOR_HERE]"

var (
	// ErrForeignMarker reports a marker that was not parsed from the fixture.
	ErrForeignMarker = errors.New("marker does not belong to fixture")
	// ErrInvalidLineBudget reports a window size below one line.
	ErrInvalidLineBudget = errors.New("window lines must be at least 1")
)

// Window is the text before and after a cursor, bounded by a line budget.
type Window struct {
	Before string
	After  string
	// Start, Cursor and End are byte offsets into the fixture text;
	// Text[Start:End] == Before + After.
	Start  int
	Cursor int
	End    int
	// BeforeLines and AfterLines count whole lines on each side.
	BeforeLines int
	AfterLines  int
}

// Extract returns up to lines whole lines before the marker and up to lines
// lines starting at the marker, clipped at the fixture boundaries.
func Extract(f *fixture.Fixture, m fixture.Marker, lines int) (Window, error) {
	if f == nil || !m.BelongsTo(f) {
		return Window{}, ErrForeignMarker
	}
	if lines < 1 {
		return Window{}, fmt.Errorf("%w: got %d", ErrInvalidLineBudget, lines)
	}
	if m.Offset < 0 || m.Offset > len(f.Text) {
		return Window{}, fmt.Errorf("marker offset %d outside fixture of %d bytes", m.Offset, len(f.Text))
	}

	cursorLine := f.LineIndex(m.Offset)
	cursor := m.Offset
	startLine := max(cursorLine-lines, 0)
	endLine := min(cursorLine+lines, f.LineCount())
	if cursor == len(f.Text) {
		// Marker on a final line with no text after it.
		endLine = cursorLine
	}
	start := f.LineStart(startLine)
	end := f.LineStart(endLine)
	if end < cursor {
		end = cursor
	}
	return Window{
		Before:      f.Text[start:cursor],
		After:       f.Text[cursor:end],
		Start:       start,
		Cursor:      cursor,
		End:         end,
		BeforeLines: cursorLine - startLine,
		AfterLines:  endLine - cursorLine,
	}, nil
}

// Text joins both halves back into the original fixture slice.
func (w Window) Text() string {
	return w.Before + w.After
}

// Prompt renders the window with token inserted at the cursor. An empty
// token uses CursorToken.
func (w Window) Prompt(token string) string {
	if token == "" {
		token = CursorToken
	}
	return w.Before + token + w.After
}
