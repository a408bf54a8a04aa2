// Package tui provides interactive terminal UI components.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/avearchive/avocado/internal/pipeline"
)

const (
	defaultBarWidth = 50
	statusHistory   = 8
)

var runProgram = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m).Run()
}

// Outcome is the final state of a monitored run.
type Outcome struct {
	Result    *pipeline.Result
	Cancelled bool
	Err       error
}

type eventMsg struct {
	event pipeline.Event
	ok    bool
}

type progressModel struct {
	events  <-chan pipeline.Event
	stop    func()
	bar     progress.Model
	percent int
	status  []string
	done    bool
	outcome Outcome
}

func newProgressModel(events <-chan pipeline.Event, stop func()) *progressModel {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(defaultBarWidth))
	return &progressModel{
		events: events,
		stop:   stop,
		bar:    bar,
	}
}

func (m *progressModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		return eventMsg{event: ev, ok: ok}
	}
}

func (m *progressModel) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			// Request a cooperative stop; the run confirms with its own
			// terminal event, so keep draining.
			m.stop()
			return m, nil
		}
	case eventMsg:
		if !msg.ok {
			return m, tea.Quit
		}
		m.apply(msg.event)
		return m, m.waitForEvent()
	case tea.WindowSizeMsg:
		width := msg.Width - 8
		if width > defaultBarWidth {
			width = defaultBarWidth
		}
		if width > 10 {
			m.bar.Width = width
		}
	}
	return m, nil
}

func (m *progressModel) apply(ev pipeline.Event) {
	switch ev.Kind {
	case pipeline.EventStatus:
		m.status = append(m.status, ev.Message)
		if len(m.status) > statusHistory {
			m.status = m.status[len(m.status)-statusHistory:]
		}
	case pipeline.EventProgress:
		m.percent = ev.Percent
	case pipeline.EventCompleted:
		m.done = true
		m.percent = 100
		m.outcome = Outcome{Result: ev.Result}
	case pipeline.EventCancelled:
		m.done = true
		m.outcome = Outcome{Result: ev.Result, Cancelled: true}
	case pipeline.EventFailed:
		m.done = true
		m.outcome = Outcome{Err: ev.Err}
	}
}

func (m *progressModel) View() string {
	header := headerStyle.Render("AVOCADO - OCLC Metadata Enrichment")
	bar := m.bar.ViewAs(float64(m.percent) / 100)
	percentLine := percentStyle.Render(fmt.Sprintf("%3d%%", m.percent))

	lines := make([]string, 0, len(m.status))
	for _, s := range m.status {
		lines = append(lines, statusStyle.Render(s))
	}
	log := strings.Join(lines, "\n")

	help := helpStyle.Render("q or ctrl+c to stop")
	if m.done {
		help = helpStyle.Render("finishing...")
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, "", bar+" "+percentLine, "", log, help)
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("114")).
			MarginBottom(1)

	percentStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("248"))

	helpStyle = lipgloss.NewStyle().
			MarginTop(1).
			Foreground(lipgloss.Color("244"))
)

// RunProgress renders a live progress bar for a pipeline run and returns
// its outcome. stop is invoked when the user requests cancellation; the
// function returns once the event channel closes.
func RunProgress(events <-chan pipeline.Event, stop func()) (Outcome, error) {
	m := newProgressModel(events, stop)
	finalModel, err := runProgram(m)
	if err != nil {
		return Outcome{}, err
	}
	if typed, ok := finalModel.(*progressModel); ok {
		return typed.outcome, nil
	}
	return Outcome{}, fmt.Errorf("unexpected program result")
}
