package live

import (
	"fmt"

	"editbench/internal/fixture"
	"editbench/internal/report"
	"editbench/internal/runner"
	"editbench/internal/scoring"
)

// Begin seeds one queued row per marker.
func Begin(state State, runID, fixturePath string, markers []fixture.Marker) State {
	state.RunID = runID
	state.Fixture = fixturePath
	state.Rows = make([]MarkerRow, len(markers))
	for i, marker := range markers {
		state.Rows[i] = MarkerRow{
			Index:    marker.Index,
			Line:     marker.Line,
			Scenario: marker.Scenario,
			Intent:   marker.Intent,
			Status:   RowQueued,
		}
	}
	state.Counts = recount(state.Rows)
	return state
}

// Reduce applies a marker event to the UI state.
func Reduce(state State, event runner.MarkerEvent) State {
	if event.MarkerIndex < 0 {
		return state
	}
	state = ensureRow(state, event)
	row := state.Rows[event.MarkerIndex]
	if row.Scenario == "" {
		row.Scenario = event.Scenario
	}
	if row.Intent == "" {
		row.Intent = event.Intent
	}
	status := rowStatus(event)
	row.Status = status
	if status == RowExtracting && row.StartedAt.IsZero() {
		row.StartedAt = event.EmittedAt
	}
	if isTerminal(status) {
		row.FinishedAt = event.EmittedAt
		if event.Verdict != nil {
			row.Suggestion = event.Verdict.Suggestion
			row.Rationale = event.Verdict.Rationale
		}
	}
	state.Rows[event.MarkerIndex] = row
	state.Counts = recount(state.Rows)
	if message := formatLastEvent(event, status); message != "" {
		state.LastEvent = message
	}
	return state
}

// Finish replaces row outcomes with the verdicts of the final report.
func Finish(state State, result report.Report) State {
	for _, verdict := range result.Verdicts {
		state = ensureRow(state, runner.MarkerEvent{MarkerIndex: verdict.MarkerIndex})
		row := state.Rows[verdict.MarkerIndex]
		row.Status = verdictStatus(verdict)
		row.Suggestion = verdict.Suggestion
		row.Rationale = verdict.Rationale
		state.Rows[verdict.MarkerIndex] = row
	}
	for i, row := range state.Rows {
		if !isTerminal(row.Status) {
			state.Rows[i].Status = RowSkipped
		}
	}
	state.Finished = true
	state.Phase = runner.StateDone
	state.Counts = recount(state.Rows)
	state.LastEvent = fmt.Sprintf("Run finished: %d pass, %d fail, %d partial", result.Summary.Pass, result.Summary.Fail, result.Summary.Partial)
	if result.Cancelled {
		state.LastEvent += " (cancelled)"
	}
	return state
}

// ensureRow grows the state rows to include the target index.
func ensureRow(state State, event runner.MarkerEvent) State {
	if event.MarkerIndex < len(state.Rows) {
		return state
	}
	rows := make([]MarkerRow, event.MarkerIndex+1)
	copy(rows, state.Rows)
	for i := len(state.Rows); i < len(rows); i++ {
		rows[i] = MarkerRow{Index: i, Status: RowQueued}
	}
	state.Rows = rows
	return state
}

// rowStatus maps a marker event to a row status.
func rowStatus(event runner.MarkerEvent) RowStatus {
	switch event.Type {
	case runner.MarkerExtracting:
		return RowExtracting
	case runner.MarkerSuggesting:
		return RowSuggesting
	case runner.MarkerScoring:
		return RowScoring
	case runner.MarkerSkipped:
		return RowSkipped
	case runner.MarkerScored:
		if event.Verdict == nil {
			return RowFail
		}
		return verdictStatus(*event.Verdict)
	default:
		return RowQueued
	}
}

func verdictStatus(verdict report.Verdict) RowStatus {
	if verdict.Unavailable {
		return RowUnavailable
	}
	switch verdict.Status {
	case scoring.StatusPass:
		return RowPass
	case scoring.StatusPartial:
		return RowPartial
	default:
		return RowFail
	}
}

// isTerminal reports whether a status is final.
func isTerminal(status RowStatus) bool {
	switch status {
	case RowPass, RowFail, RowPartial, RowUnavailable, RowSkipped:
		return true
	default:
		return false
	}
}

// recount recomputes status counts for the current rows.
func recount(rows []MarkerRow) StatusCounts {
	var counts StatusCounts
	for _, row := range rows {
		switch row.Status {
		case RowQueued:
			counts.Queued++
		case RowExtracting, RowSuggesting, RowScoring:
			counts.Active++
		case RowPass:
			counts.Done++
			counts.Pass++
		case RowFail:
			counts.Done++
			counts.Fail++
		case RowPartial:
			counts.Done++
			counts.Partial++
		case RowUnavailable:
			counts.Done++
			counts.Fail++
			counts.Unavailable++
		case RowSkipped:
			counts.Done++
			counts.Skipped++
		}
	}
	return counts
}

// formatLastEvent creates a short footer message for the event.
func formatLastEvent(event runner.MarkerEvent, status RowStatus) string {
	label := formatIndex(event.MarkerIndex)
	switch status {
	case RowPass, RowFail, RowPartial:
		return fmt.Sprintf("%s %s in %s", label, status, formatDuration(event.Elapsed))
	case RowUnavailable:
		if event.Verdict != nil && event.Verdict.Error != "" {
			return fmt.Sprintf("%s engine unavailable: %s", label, event.Verdict.Error)
		}
		return label + " engine unavailable"
	case RowSkipped:
		return label + " skipped"
	}
	return ""
}
