package live

import (
	"time"

	"editbench/internal/runner"
)

// RowStatus is the display status of a marker row.
type RowStatus string

const (
	RowQueued      RowStatus = "queued"
	RowExtracting  RowStatus = "extracting"
	RowSuggesting  RowStatus = "suggesting"
	RowScoring     RowStatus = "scoring"
	RowPass        RowStatus = "pass"
	RowFail        RowStatus = "fail"
	RowPartial     RowStatus = "partial"
	RowUnavailable RowStatus = "unavailable"
	RowSkipped     RowStatus = "skipped"
)

// MarkerRow holds UI state for a single marker.
type MarkerRow struct {
	Index      int
	Line       int
	Scenario   string
	Intent     string
	Status     RowStatus
	Suggestion string
	Rationale  string
	StartedAt  time.Time
	FinishedAt time.Time
}

// StatusCounts aggregates rows by status bucket.
type StatusCounts struct {
	Queued      int
	Active      int
	Done        int
	Pass        int
	Fail        int
	Partial     int
	Unavailable int
	Skipped     int
}

// State captures the live UI state for a run.
type State struct {
	RunID     string
	Fixture   string
	Phase     runner.State
	StartedAt time.Time
	Finished  bool
	LastEvent string
	Rows      []MarkerRow
	Counts    StatusCounts
}
