package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"editbench/internal/scoring"
)

var textHeaders = []string{"#", "LINE", "STATUS", "SCENARIO", "INTENT", "SUGGESTION", "RATIONALE"}

// statusColors follows the live view palette.
var statusColors = map[scoring.Status]string{
	scoring.StatusPass:    "42",
	scoring.StatusPartial: "220",
	scoring.StatusFail:    "196",
}

// RenderText writes the report as an aligned table followed by a summary
// line. Styling is applied only when w is a color terminal and noColor is
// false.
func RenderText(w io.Writer, report Report, noColor bool) error {
	renderer := lipgloss.NewRenderer(w)
	stylize := func(text string, style lipgloss.Style) string {
		if noColor {
			return text
		}
		return style.Render(text)
	}
	header := renderer.NewStyle().Bold(true)

	rows := make([][]string, 0, len(report.Verdicts))
	for _, verdict := range report.Verdicts {
		rows = append(rows, []string{
			strconv.Itoa(verdict.MarkerIndex),
			strconv.Itoa(verdict.Line),
			string(verdict.Status),
			verdict.Scenario,
			verdict.Intent,
			displaySuggestion(verdict.Suggestion),
			verdict.Rationale,
		})
	}
	widths := make([]int, len(textHeaders))
	for i, title := range textHeaders {
		widths[i] = lipgloss.Width(title)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	title := fmt.Sprintf("Run %s  fixture=%s  engine=%s  strategy=%s", report.RunID, report.Fixture, report.Engine, report.Strategy)
	if report.Cancelled {
		title += "  CANCELLED"
	}
	b.WriteString(stylize(title, header))
	b.WriteString("\n\n")
	b.WriteString(formatRow(textHeaders, widths, func(_ int, cell string) string {
		return stylize(cell, header)
	}))
	for _, row := range rows {
		status := scoring.Status(row[2])
		b.WriteString(formatRow(row, widths, func(column int, cell string) string {
			if column != 2 {
				return cell
			}
			return stylize(cell, renderer.NewStyle().Foreground(lipgloss.Color(statusColors[status])))
		}))
	}
	summary := report.Summary
	fmt.Fprintf(&b, "\nSummary: total=%d completed=%d pass=%d fail=%d partial=%d unavailable=%d pass_rate=%s%%\n",
		summary.Total, summary.Completed, summary.Pass, summary.Fail, summary.Partial, summary.Unavailable, summary.PassRatePercent())

	_, err := io.WriteString(w, b.String())
	return err
}

// formatRow pads cells to widths before styling so escape codes do not
// affect alignment.
func formatRow(cells []string, widths []int, style func(column int, cell string) string) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		padding := ""
		if i < len(cells)-1 {
			padding = strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
		}
		parts[i] = style(i, cell) + padding
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ") + "\n"
}

// displaySuggestion renders suggestion text on one line.
func displaySuggestion(text string) string {
	if text == "" {
		return "-"
	}
	replacer := strings.NewReplacer("\n", `\n`, "\t", `\t`, "\r", `\r`)
	return replacer.Replace(text)
}
