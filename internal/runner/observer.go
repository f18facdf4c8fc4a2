package runner

import (
	"time"

	"editbench/internal/fixture"
	"editbench/internal/report"
)

// State is a phase of the harness state machine. Runs move through idle,
// parsing, then extracting, suggesting and scoring once per marker, then
// aggregating and done.
type State string

const (
	StateIdle        State = "idle"
	StateParsing     State = "parsing"
	StateExtracting  State = "extracting"
	StateSuggesting  State = "suggesting"
	StateScoring     State = "scoring"
	StateAggregating State = "aggregating"
	StateDone        State = "done"
)

// MarkerEventType identifies a marker status update for observers.
type MarkerEventType string

const (
	// MarkerQueued marks a marker known but not yet dispatched.
	MarkerQueued MarkerEventType = "queued"
	// MarkerExtracting marks context window extraction.
	MarkerExtracting MarkerEventType = "extracting"
	// MarkerSuggesting marks an active engine call.
	MarkerSuggesting MarkerEventType = "suggesting"
	// MarkerScoring marks scoring the returned suggestion.
	MarkerScoring MarkerEventType = "scoring"
	// MarkerScored marks a finished verdict.
	MarkerScored MarkerEventType = "scored"
	// MarkerSkipped marks a marker abandoned by cancellation.
	MarkerSkipped MarkerEventType = "skipped"
)

// MarkerEvent carries a single status update for a marker.
type MarkerEvent struct {
	MarkerIndex int
	Scenario    string
	Intent      string
	Type        MarkerEventType
	// Verdict is set for MarkerScored.
	Verdict   *report.Verdict
	Elapsed   time.Duration
	EmittedAt time.Time
}

// RunObserver receives run lifecycle events for UI or logging. Marker
// events may arrive from several workers at once.
type RunObserver interface {
	// OnRunStart signals the start of a run over a parsed fixture.
	OnRunStart(runID string, fixturePath string, markers []fixture.Marker)
	// OnStateChange reports run-level state transitions.
	OnStateChange(state State)
	// OnMarkerEvent delivers a marker status update.
	OnMarkerEvent(event MarkerEvent)
	// OnRunEnd signals run completion with the final report.
	OnRunEnd(result report.Report)
}

// MarkerState maps a marker event to the run state it belongs to.
func MarkerState(eventType MarkerEventType) State {
	switch eventType {
	case MarkerExtracting:
		return StateExtracting
	case MarkerSuggesting:
		return StateSuggesting
	case MarkerScoring:
		return StateScoring
	default:
		return ""
	}
}
