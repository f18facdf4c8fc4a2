package live

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// formatIndex formats a marker index as a display id.
func formatIndex(index int) string {
	if index+1 < 10 {
		return "M0" + strconv.Itoa(index+1)
	}
	return "M" + strconv.Itoa(index+1)
}

// truncate collapses whitespace and shortens text for a table cell.
func truncate(text string, limit int) string {
	normalized := strings.Join(strings.Fields(text), " ")
	if limit <= 3 || len(normalized) <= limit {
		return normalized
	}
	return normalized[:limit-3] + "..."
}

// formatRowDuration returns elapsed or total time for a row.
func formatRowDuration(row MarkerRow, now time.Time) string {
	switch {
	case row.StartedAt.IsZero():
		return ""
	case !row.FinishedAt.IsZero():
		return formatDuration(row.FinishedAt.Sub(row.StartedAt))
	default:
		return formatDuration(now.Sub(row.StartedAt))
	}
}

// formatDuration renders a rounded duration for display.
func formatDuration(duration time.Duration) string {
	if duration <= 0 {
		return "0s"
	}
	return duration.Round(10 * time.Millisecond).String()
}

// stylizeStatus applies status coloring when enabled.
func stylizeStatus(status RowStatus, noColor bool) string {
	text := string(status)
	if noColor {
		return text
	}
	return statusStyle(status).Render(text)
}

// statusStyle selects a style for a given status.
func statusStyle(status RowStatus) lipgloss.Style {
	color := lipgloss.Color("246")
	switch status {
	case RowPass:
		color = lipgloss.Color("42")
	case RowPartial:
		color = lipgloss.Color("220")
	case RowFail, RowUnavailable:
		color = lipgloss.Color("196")
	case RowSuggesting:
		color = lipgloss.Color("33")
	case RowExtracting, RowScoring:
		color = lipgloss.Color("39")
	}
	return lipgloss.NewStyle().Foreground(color)
}
