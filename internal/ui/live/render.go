package live

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the run header line.
func renderHeader(state State, now time.Time, noColor bool) string {
	line := "Run " + state.RunID
	if state.Fixture != "" {
		line += " | Fixture: " + state.Fixture
	}
	if state.Phase != "" {
		line += " | " + string(state.Phase)
	}
	if !state.StartedAt.IsZero() {
		line += " | Elapsed: " + now.Sub(state.StartedAt).Round(100*time.Millisecond).String()
	}
	return stylize(line, noColor, lipgloss.Color("33"))
}

// renderProgress renders a bar of finished markers out of all markers.
func renderProgress(state State, width int, noColor bool) string {
	total := len(state.Rows)
	barWidth := 40
	if width > 0 {
		barWidth = min(barWidth, max(width-12, 10))
	}
	filled := 0
	if total > 0 {
		filled = state.Counts.Done * barWidth / total
	}
	bar := stylize(strings.Repeat("█", filled), noColor, lipgloss.Color("35")) +
		stylize(strings.Repeat("░", barWidth-filled), noColor, lipgloss.Color("238"))
	return bar + " " + fmtInt(state.Counts.Done) + "/" + fmtInt(total)
}

// renderSummary renders the status counts line.
func renderSummary(state State, noColor bool) string {
	counts := state.Counts
	line := "Queued: " + fmtInt(counts.Queued) +
		" Active: " + fmtInt(counts.Active) +
		" Done: " + fmtInt(counts.Done) + "/" + fmtInt(len(state.Rows)) +
		" Pass: " + fmtInt(counts.Pass) +
		" Fail: " + fmtInt(counts.Fail) +
		" Partial: " + fmtInt(counts.Partial) +
		" Unavailable: " + fmtInt(counts.Unavailable) +
		" Skipped: " + fmtInt(counts.Skipped)
	return stylize(line, noColor, lipgloss.Color("242"))
}

// renderFooter renders the last event line.
func renderFooter(state State, noColor bool) string {
	if state.LastEvent == "" {
		return ""
	}
	return stylize("Last event: "+state.LastEvent, noColor, lipgloss.Color("244"))
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}

func fmtInt(value int) string {
	return strconv.Itoa(value)
}
