package live

import (
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// defaultColumns returns the table layout for an unknown terminal width.
func defaultColumns() []table.Column {
	return columnsForWidth(100)
}

// columnsForWidth sizes the scenario and suggestion columns to the width.
func columnsForWidth(width int) []table.Column {
	const fixed = 5 + 5 + 12 + 8
	flexible := max(width-fixed-10, 30)
	scenario := flexible * 2 / 3
	return []table.Column{
		{Title: "#", Width: 5},
		{Title: "Line", Width: 5},
		{Title: "Status", Width: 12},
		{Title: "Time", Width: 8},
		{Title: "Scenario", Width: scenario},
		{Title: "Suggestion", Width: flexible - scenario},
	}
}

// tableStyles returns table styles for the UI.
func tableStyles(noColor bool) table.Styles {
	styles := table.DefaultStyles()
	if noColor {
		return styles
	}
	styles.Header = styles.Header.Foreground(lipgloss.Color("252"))
	return styles
}

// rowsForState converts UI state into table rows.
func rowsForState(state State, now time.Time, noColor bool) []table.Row {
	rows := make([]table.Row, 0, len(state.Rows))
	for _, row := range state.Rows {
		rows = append(rows, table.Row{
			formatIndex(row.Index),
			lineLabel(row.Line),
			stylizeStatus(row.Status, noColor),
			formatRowDuration(row, now),
			truncate(row.Scenario, 60),
			truncate(row.Suggestion, 40),
		})
	}
	return rows
}

func lineLabel(line int) string {
	if line <= 0 {
		return ""
	}
	return fmtInt(line)
}
