package live

import (
	"editbench/internal/fixture"
	"editbench/internal/report"
	"editbench/internal/runner"
)

// EventKind identifies the type of live UI event.
type EventKind int

const (
	// EventRunStart signals the start of a run.
	EventRunStart EventKind = iota
	// EventState delivers a run state transition.
	EventState
	// EventMarker delivers a marker status update.
	EventMarker
	// EventRunEnd delivers the final report.
	EventRunEnd
)

// Event carries a UI update payload.
type Event struct {
	Kind    EventKind
	RunID   string
	Fixture string
	Markers []fixture.Marker
	State   runner.State
	Marker  runner.MarkerEvent
	Report  *report.Report
}
