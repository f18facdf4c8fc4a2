package fixture

import "sync/atomic"

// DefaultScenario labels markers that appear before any scenario heading.
const DefaultScenario = "unlabeled"

// Fixture is an annotated source file and the cursor markers found in it.
// A Fixture is immutable once Parse returns it.
type Fixture struct {
	Path    string
	Text    string
	Markers []Marker

	lineStarts []int
	id         uint64
}

// Marker is a single test case: a cursor position plus the intent an
// editing assistant is expected to act on there.
type Marker struct {
	// Index is the 0-based position of the marker in source order.
	Index int
	// Offset is the byte offset of the start of the marker line.
	Offset int
	// Line is the 1-based line of the marker comment.
	Line int
	// Column is the 1-based byte column where the marker comment starts.
	Column   int
	Scenario string
	Intent   string
	// Comment is the raw marker comment line without surrounding whitespace.
	Comment string

	owner uint64
}

var fixtureSeq atomic.Uint64

func nextFixtureID() uint64 {
	return fixtureSeq.Add(1)
}

// BelongsTo reports whether the marker was produced by parsing f.
func (m Marker) BelongsTo(f *Fixture) bool {
	if f == nil || m.owner == 0 {
		return false
	}
	return m.owner == f.id
}

// LineCount returns the number of lines in the fixture text. A trailing
// newline does not start an extra line.
func (f *Fixture) LineCount() int {
	return len(f.lineStarts)
}

// LineStart returns the byte offset of the 0-based line n. Values past the
// last line return len(Text).
func (f *Fixture) LineStart(n int) int {
	if n <= 0 {
		return 0
	}
	if n >= len(f.lineStarts) {
		return len(f.Text)
	}
	return f.lineStarts[n]
}

// LineIndex returns the 0-based line containing offset.
func (f *Fixture) LineIndex(offset int) int {
	lo, hi := 0, len(f.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if f.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// Scenarios returns the distinct scenario labels in source order.
func (f *Fixture) Scenarios() []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(f.Markers))
	for _, marker := range f.Markers {
		if _, ok := seen[marker.Scenario]; ok {
			continue
		}
		seen[marker.Scenario] = struct{}{}
		out = append(out, marker.Scenario)
	}
	return out
}

func computeLineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' && i+1 < len(text) {
			starts = append(starts, i+1)
		}
	}
	return starts
}
