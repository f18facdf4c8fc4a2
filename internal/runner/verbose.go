package runner

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"editbench/internal/scoring"
)

const verbosePrefix = "[verbose]"

// verboseLog prints human-readable progress lines. Color follows the
// writer's terminal profile; workers share it, so writes are serialized.
// A nil *verboseLog discards everything.
type verboseLog struct {
	mu      sync.Mutex
	w       io.Writer
	prefix  lipgloss.Style
	summary lipgloss.Style
	status  map[scoring.Status]lipgloss.Style
}

func newVerboseLog(enabled bool, w io.Writer, noColor bool) *verboseLog {
	if !enabled || w == nil {
		return nil
	}
	v := &verboseLog{w: w, status: map[scoring.Status]lipgloss.Style{}}
	if noColor {
		return v
	}
	r := lipgloss.NewRenderer(w)
	v.prefix = r.NewStyle().Faint(true)
	v.summary = r.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	v.status[scoring.StatusPass] = r.NewStyle().Foreground(lipgloss.Color("4"))
	v.status[scoring.StatusPartial] = r.NewStyle().Foreground(lipgloss.Color("3"))
	v.status[scoring.StatusFail] = r.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	return v
}

func (v *verboseLog) println(style lipgloss.Style, line string) {
	if v == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.w, "%s %s\n", v.prefix.Render(verbosePrefix), style.Render(line))
}

// marker reports one finished verdict.
func (v *verboseLog) marker(index, line int, status scoring.Status, rationale string) {
	if v == nil {
		return
	}
	v.println(v.status[status], fmt.Sprintf("Marker %d line %d %s: %s", index, line, status, rationale))
}

// run reports the aggregate counts of a finished run.
func (v *verboseLog) run(format string, args ...any) {
	if v == nil {
		return
	}
	v.println(v.summary, fmt.Sprintf(format, args...))
}
