// Package tui is the terminal stopwatch: time a session against one project
// and log it, with an optional summary, when stopped.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"trackboard/internal/timeutil"
	"trackboard/timelog"
)

// TimeLogger records a finished session.
type TimeLogger interface {
	LogTime(ctx context.Context, input timelog.LogTimeInput) (timelog.LogTimeResult, error)
}

type phase int

const (
	phaseTiming phase = iota
	phaseSummary
	phaseSaving
	phaseDone
)

type tickMsg time.Time

type loggedMsg struct {
	result timelog.LogTimeResult
	err    error
}

type Options struct {
	ProjectID   string
	ProjectName string
	// AutoStart starts the stopwatch as soon as the program runs.
	AutoStart bool
	Now       func() time.Time
}

type Model struct {
	ctx    context.Context
	logger TimeLogger
	opts   Options

	watch   stopwatch
	phase   phase
	summary textinput.Model

	result *timelog.LogTimeResult
	err    error
	status string
}

func NewModel(ctx context.Context, logger TimeLogger, opts Options) Model {
	input := textinput.New()
	input.Placeholder = "What did you work on? (optional)"
	input.CharLimit = 500
	input.Width = 60

	m := Model{
		ctx:     ctx,
		logger:  logger,
		opts:    opts,
		watch:   newStopwatch(opts.Now),
		summary: input,
	}
	if opts.AutoStart {
		m.watch.start()
	}
	return m
}

// Result is set once the session was logged.
func (m Model) Result() *timelog.LogTimeResult {
	return m.result
}

func (m Model) Err() error {
	return m.err
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.phase == phaseDone {
			return m, nil
		}
		return m, tick()

	case loggedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.phase = phaseSummary
			m.status = ""
			return m, nil
		}
		m.err = nil
		m.result = &msg.result
		m.phase = phaseDone
		return m, tea.Quit

	case tea.KeyMsg:
		switch m.phase {
		case phaseTiming:
			return m.updateTiming(msg)
		case phaseSummary:
			return m.updateSummary(msg)
		}
	}
	return m, nil
}

func (m Model) updateTiming(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.phase = phaseDone
		return m, tea.Quit
	case key.Matches(msg, keys.Start):
		m.watch.start()
	case key.Matches(msg, keys.Pause):
		m.watch.toggle()
	case key.Matches(msg, keys.Stop):
		m.watch.halt()
		if m.watch.seconds() < 1 {
			m.status = "nothing to log yet"
			return m, nil
		}
		m.status = ""
		m.phase = phaseSummary
		return m, m.summary.Focus()
	}
	return m, nil
}

func (m Model) updateSummary(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		m.phase = phaseDone
		return m, tea.Quit
	case key.Matches(msg, keys.Back):
		m.summary.Blur()
		m.phase = phaseTiming
		return m, nil
	case key.Matches(msg, keys.Submit):
		m.phase = phaseSaving
		m.status = "logging..."
		return m, m.logCmd(m.watch.seconds(), m.summary.Value())
	}

	var cmd tea.Cmd
	m.summary, cmd = m.summary.Update(msg)
	return m, cmd
}

func (m Model) logCmd(seconds int64, summary string) tea.Cmd {
	ctx := m.ctx
	logger := m.logger
	input := timelog.LogTimeInput{
		ProjectID:       m.opts.ProjectID,
		DurationSeconds: seconds,
		Summary:         summary,
	}
	return func() tea.Msg {
		result, err := logger.LogTime(ctx, input)
		return loggedMsg{result: result, err: err}
	}
}

func (m Model) View() string {
	name := m.opts.ProjectName
	if name == "" {
		name = m.opts.ProjectID
	}

	clock := timeutil.FormatClock(m.watch.seconds())
	var clockView string
	switch {
	case m.watch.running():
		clockView = clockRunningStyle.Render(clock)
	case m.watch.state == stopwatchPaused:
		clockView = clockPausedStyle.Render(clock + "  paused")
	default:
		clockView = clockStyle.Render(clock)
	}

	rows := []string{titleStyle.Render(name), "", clockView, ""}
	switch m.phase {
	case phaseTiming:
		rows = append(rows, helpLine(keys.timerHelp()))
	case phaseSummary, phaseSaving:
		rows = append(rows, m.summary.View(), "", helpLine(keys.summaryHelp()))
	case phaseDone:
		if m.result != nil {
			rows = append(rows, successStyle.Render(fmt.Sprintf(
				"logged %s on %s, day total %s",
				timeutil.FormatClock(m.result.TotalSeconds-m.result.PriorSeconds),
				m.result.Date,
				timeutil.FormatClock(m.result.TotalSeconds),
			)))
		}
	}
	if m.status != "" {
		rows = append(rows, helpStyle.Render(m.status))
	}
	if m.err != nil {
		rows = append(rows, errorStyle.Render("error: "+m.err.Error()))
	}

	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)) + "\n"
}

func helpLine(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return helpStyle.Render(strings.Join(parts, " • "))
}

// Run drives the stopwatch until the session is logged or abandoned. A nil
// result with a nil error means the user quit without logging.
func Run(ctx context.Context, logger TimeLogger, opts Options) (*timelog.LogTimeResult, error) {
	final, err := tea.NewProgram(NewModel(ctx, logger, opts), tea.WithContext(ctx)).Run()
	if err != nil {
		return nil, fmt.Errorf("run timer: %w", err)
	}
	model := final.(Model)
	return model.Result(), model.Err()
}
