package live

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Options configures the live UI model.
type Options struct {
	NoColor bool
	// TickInterval sets how often elapsed times refresh; default 200ms.
	TickInterval time.Duration
	// OnQuit is called when the user quits the UI before the run ends.
	OnQuit func()
}

// Model is the Bubble Tea model behind the live run view.
type Model struct {
	opts    Options
	events  <-chan Event
	state   State
	markers table.Model
	spin    spinner.Model
	width   int
	now     time.Time
}

// NewModel builds a model that renders events read from events.
func NewModel(events <-chan Event, opts Options) Model {
	if opts.TickInterval <= 0 {
		opts.TickInterval = 200 * time.Millisecond
	}
	markers := table.New(table.WithColumns(defaultColumns()), table.WithFocused(false))
	markers.SetStyles(tableStyles(opts.NoColor))
	spin := spinner.New(spinner.WithSpinner(spinner.MiniDot))
	if !opts.NoColor {
		spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	}
	return Model{opts: opts, events: events, markers: markers, spin: spin, now: time.Now()}
}

// EventMsg delivers a run event to the model.
type EventMsg struct {
	Event Event
}

type (
	tickMsg   time.Time
	closedMsg struct{}
)

// Init starts the clock, the spinner and the event reader.
func (m Model) Init() tea.Cmd {
	return tea.Batch(next(m.events), m.clock(), m.spin.Tick)
}

// Update handles keys, resizes, run events and ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key := msg.String(); key == "q" || key == "ctrl+c" {
			if !m.state.Finished && m.opts.OnQuit != nil {
				m.opts.OnQuit()
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.markers.SetWidth(msg.Width)
		m.markers.SetHeight(max(msg.Height-5, 1))
		m.markers.SetColumns(columnsForWidth(msg.Width))
	case EventMsg:
		m.apply(msg.Event)
		return m, next(m.events)
	case closedMsg:
		return m, tea.Quit
	case tickMsg:
		m.now = time.Time(msg)
		m.refresh()
		return m, m.clock()
	case spinner.TickMsg:
		if m.state.Finished {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders header, progress, counts, the marker table and the last event.
func (m Model) View() string {
	header := renderHeader(m.state, m.now, m.opts.NoColor)
	if !m.state.Finished {
		header = m.spin.View() + " " + header
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		renderProgress(m.state, m.width, m.opts.NoColor),
		renderSummary(m.state, m.opts.NoColor),
		m.markers.View(),
		renderFooter(m.state, m.opts.NoColor),
	)
}

func (m *Model) apply(event Event) {
	switch event.Kind {
	case EventRunStart:
		m.state = Begin(m.state, event.RunID, event.Fixture, event.Markers)
		if m.state.StartedAt.IsZero() {
			m.state.StartedAt = m.now
		}
	case EventState:
		m.state.Phase = event.State
	case EventMarker:
		m.state = Reduce(m.state, event.Marker)
	case EventRunEnd:
		if event.Report != nil {
			m.state = Finish(m.state, *event.Report)
		}
	}
	m.refresh()
}

func (m *Model) refresh() {
	m.markers.SetRows(rowsForState(m.state, m.now, m.opts.NoColor))
}

func (m Model) clock() tea.Cmd {
	return tea.Tick(m.opts.TickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// next reads one event; a closed channel ends the program.
func next(events <-chan Event) tea.Cmd {
	return func() tea.Msg {
		if events == nil {
			return nil
		}
		event, ok := <-events
		if !ok {
			return closedMsg{}
		}
		return EventMsg{Event: event}
	}
}
