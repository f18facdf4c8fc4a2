package live

import (
	"io"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"editbench/internal/fixture"
	"editbench/internal/report"
	"editbench/internal/runner"
)

// eventBuffer bounds queued UI events; marker updates beyond it are dropped.
const eventBuffer = 256

var _ runner.RunObserver = (*Controller)(nil)

// Controller feeds runner events to a Bubble Tea program. All methods are
// safe on a nil *Controller.
type Controller struct {
	events chan Event
	exited chan struct{}
	once   sync.Once
}

// Start runs the live UI on stdout (os.Stdout when nil) until the run ends
// or the user quits.
func Start(stdout io.Writer, opts Options) *Controller {
	if stdout == nil {
		stdout = os.Stdout
	}
	c := &Controller{
		events: make(chan Event, eventBuffer),
		exited: make(chan struct{}),
	}
	program := tea.NewProgram(NewModel(c.events, opts), tea.WithOutput(stdout), tea.WithAltScreen())
	go func() {
		defer close(c.exited)
		_, _ = program.Run()
	}()
	return c
}

// Close ends the event stream; the UI exits after draining it.
func (c *Controller) Close() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.events) })
}

// Wait blocks until the UI program has exited.
func (c *Controller) Wait() {
	if c == nil {
		return
	}
	<-c.exited
}

func (c *Controller) OnRunStart(runID string, fixturePath string, markers []fixture.Marker) {
	c.post(Event{Kind: EventRunStart, RunID: runID, Fixture: fixturePath, Markers: markers}, true)
}

func (c *Controller) OnStateChange(state runner.State) {
	c.post(Event{Kind: EventState, State: state}, false)
}

func (c *Controller) OnMarkerEvent(event runner.MarkerEvent) {
	c.post(Event{Kind: EventMarker, Marker: event}, false)
}

// OnRunEnd delivers the final report, which reconciles any dropped marker
// updates, and closes the stream.
func (c *Controller) OnRunEnd(result report.Report) {
	c.post(Event{Kind: EventRunEnd, Report: &result}, true)
	c.Close()
}

// post queues an event. Non-blocking posts drop the event when the buffer is
// full; blocking posts give up once the UI has exited.
func (c *Controller) post(event Event, blocking bool) {
	if c == nil {
		return
	}
	if !blocking {
		select {
		case c.events <- event:
		default:
		}
		return
	}
	select {
	case c.events <- event:
	case <-c.exited:
	}
}
