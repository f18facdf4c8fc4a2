package runner

import (
	"time"

	"editbench/internal/fixture"
	"editbench/internal/report"
)

// markerObserver bridges worker progress to RunObserver callbacks.
type markerObserver struct {
	observer RunObserver
	markers  []fixture.Marker
	now      func() time.Time
}

// newMarkerObserver constructs a marker observer when a RunObserver is set.
func newMarkerObserver(observer RunObserver, markers []fixture.Marker, now func() time.Time) *markerObserver {
	if observer == nil {
		return nil
	}
	return &markerObserver{observer: observer, markers: markers, now: now}
}

// EmitQueuedAll emits queued events for every marker in the fixture.
func (o *markerObserver) EmitQueuedAll() {
	if o == nil {
		return
	}
	for index := range o.markers {
		o.Emit(index, MarkerQueued, nil, 0)
	}
}

// Emit emits an observer event for the given marker index.
func (o *markerObserver) Emit(index int, eventType MarkerEventType, verdict *report.Verdict, elapsed time.Duration) {
	if o == nil || index < 0 || index >= len(o.markers) {
		return
	}
	if state := MarkerState(eventType); state != "" {
		o.observer.OnStateChange(state)
	}
	marker := o.markers[index]
	o.observer.OnMarkerEvent(MarkerEvent{
		MarkerIndex: marker.Index,
		Scenario:    marker.Scenario,
		Intent:      marker.Intent,
		Type:        eventType,
		Verdict:     verdict,
		Elapsed:     elapsed,
		EmittedAt:   o.now(),
	})
}

// State forwards a run-level state change.
func (o *markerObserver) State(state State) {
	if o == nil {
		return
	}
	o.observer.OnStateChange(state)
}
