// Package tui is an interactive dashboard that starts and stops
// continuous runs per sink and shows their output and results.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"throughput-bench/bench"
)

const maxLines = 500

// RunFunc performs one run for a sink, reporting progress to rep, until
// tok is cancelled or the run ends on its own.
type RunFunc func(tok *bench.Token, rep bench.Reporter) bench.RunResult

// Entry is one row of the dashboard.
type Entry struct {
	Name string
	Run  RunFunc
}

type lineMsg struct {
	system string
	line   string
}

type doneMsg struct {
	result bench.RunResult
}

// events carries messages from run goroutines into the program.
type events struct {
	msgs   chan tea.Msg
	closed chan struct{}
}

func newEvents(size int) events {
	return events{msgs: make(chan tea.Msg, size), closed: make(chan struct{})}
}

// send never blocks; lines are dropped when the UI falls behind.
func (e events) send(msg tea.Msg) {
	select {
	case e.msgs <- msg:
	default:
	}
}

// deliver blocks until the program takes msg or has exited.
func (e events) deliver(msg tea.Msg) {
	select {
	case e.msgs <- msg:
	case <-e.closed:
	}
}

func (e events) close() { close(e.closed) }

func (e events) listen() tea.Cmd {
	return func() tea.Msg { return <-e.msgs }
}

type reporter struct {
	system string
	events events
}

func (r reporter) Report(line string) {
	r.events.send(lineMsg{system: r.system, line: line})
}

// Model represents the state of the dashboard.
type Model struct {
	entries  []Entry
	registry *bench.Registry
	results  *bench.ResultTable
	events   events

	cursor int
	lines  []string
	status string
	width  int
	height int

	keys KeyMap
	help help.Model
}

func New(entries []Entry, results *bench.ResultTable) Model {
	if results == nil {
		results = bench.NewResultTable()
	}
	return Model{
		entries:  entries,
		registry: bench.NewRegistry(),
		results:  results,
		events:   newEvents(1024),
		keys:     DefaultKeyMap(),
		help:     help.New(),
	}
}

// Registry exposes the run registry, mainly for shutdown.
func (m Model) Registry() *bench.Registry { return m.registry }

func (m Model) Init() tea.Cmd {
	return m.events.listen()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case lineMsg:
		m.appendLine(fmt.Sprintf("[%s] %s", msg.system, msg.line))
		return m, m.events.listen()

	case doneMsg:
		m.results.Record(msg.result)
		m.status = fmt.Sprintf("%s finished: %s", msg.result.SystemName, msg.result.State)
		return m, m.events.listen()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.registry.CancelAll()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Start):
		if len(m.entries) == 0 {
			return m, nil
		}
		e := m.entries[m.cursor]
		ev := m.events
		started := m.registry.Start(e.Name, func(tok *bench.Token) bench.RunResult {
			res := e.Run(tok, reporter{system: e.Name, events: ev})
			ev.deliver(doneMsg{result: res})
			return res
		})
		if started {
			m.status = e.Name + " started"
		} else {
			m.status = e.Name + " is already running"
		}

	case key.Matches(msg, m.keys.Stop):
		if len(m.entries) == 0 {
			return m, nil
		}
		name := m.entries[m.cursor].Name
		if m.registry.Stop(name) {
			m.status = name + " stopping"
		} else {
			m.status = name + " is not running"
		}

	case key.Matches(msg, m.keys.Clear):
		m.lines = nil
		m.results.Clear()
		m.status = ""
	}
	return m, nil
}

func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	if n := len(m.lines); n > maxLines {
		m.lines = append([]string(nil), m.lines[n-maxLines:]...)
	}
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	runningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boxStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Throughput benchmark"))
	b.WriteString("\n\n")
	b.WriteString(boxStyle.Render(m.sinksView()))
	b.WriteString("\n")
	b.WriteString(m.outputView())
	if m.status != "" {
		b.WriteString("\n" + dimStyle.Render(m.status))
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m Model) sinksView() string {
	var rows []string
	rows = append(rows, dimStyle.Render(fmt.Sprintf("  %-14s %-10s %10s %10s %12s", "SYSTEM", "STATE", "OPS", "ELAPSED", "OPS/S")))
	for i, e := range m.entries {
		state, ops, elapsed, tput := "idle", "-", "-", "-"
		if r, ok := m.results.Get(e.Name); ok {
			state = r.State.String()
			ops = fmt.Sprintf("%d", r.TotalOperations)
			elapsed = fmt.Sprintf("%.2fs", r.ElapsedSeconds())
			tput = fmt.Sprintf("%.2f", r.Throughput())
		}
		running := m.registry.Running(e.Name)
		if running {
			state = "running"
		}

		row := fmt.Sprintf("  %-14s %-10s %10s %10s %12s", e.Name, state, ops, elapsed, tput)
		switch {
		case i == m.cursor:
			row = selectedStyle.Render("> " + row[2:])
		case running:
			row = runningStyle.Render(row)
		}
		rows = append(rows, row)
	}
	return strings.Join(rows, "\n")
}

func (m Model) outputView() string {
	visible := m.height - len(m.entries) - 10
	if visible < 5 {
		visible = 5
	}
	lines := m.lines
	if len(lines) > visible {
		lines = lines[len(lines)-visible:]
	}
	return strings.Join(lines, "\n")
}

// Run starts the dashboard and blocks until the user quits.
func Run(entries []Entry, results *bench.ResultTable) error {
	m := New(entries, results)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	m.events.close()
	m.registry.StopAll()
	return err
}
