// Package tui is the bubbletea front end: a live generation view, an input
// form and a selection menu.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/studyplan/internal/ui"
)

// TUI implements ui.UI by sending messages to a running program.
type TUI struct {
	program *tea.Program
}

var _ ui.UI = (*TUI)(nil)

func NewTUI(p *tea.Program) *TUI {
	return &TUI{program: p}
}

func (t *TUI) Status(msg string) {
	t.program.Send(StatusMsg(msg))
}

func (t *TUI) Agent(name, state string, elapsed time.Duration) {
	t.program.Send(AgentMsg{Name: name, State: state, Elapsed: elapsed})
}

func (t *TUI) Log(msg string) {
	t.program.Send(LogMsg(msg))
}

func (t *TUI) Done(err error) {
	t.program.Send(DoneMsg{Err: err})
}

type (
	LogMsg    string
	StatusMsg string
	AgentMsg  struct {
		Name    string
		State   string
		Elapsed time.Duration
	}
	DoneMsg struct{ Err error }
)

var (
	agentStyle = lipgloss.NewStyle().Width(18)
	logStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

type agentRow struct {
	name    string
	state   string
	elapsed time.Duration
}

// Model shows each agent's state while a plan is generated.
type Model struct {
	Title    string
	Status   string
	Agents   []agentRow
	Log      []string
	Spinner  spinner.Model
	Progress progress.Model
	Viewport viewport.Model
	Err      error
	Finished bool
	Quitting bool
	Ready    bool
	Width    int
	Height   int
}

// NewModel lists agents in display order.
func NewModel(title string, agents ...string) Model {
	rows := make([]agentRow, len(agents))
	for i, a := range agents {
		rows[i] = agentRow{name: a, state: "waiting"}
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{
		Title:    title,
		Status:   "Initializing...",
		Agents:   rows,
		Spinner:  s,
		Progress: progress.New(progress.WithDefaultGradient()),
		Viewport: viewport.New(80, 6),
	}
}

func (m Model) Init() tea.Cmd {
	return m.Spinner.Tick
}

func (m Model) finishedAgents() int {
	n := 0
	for _, a := range m.Agents {
		if a.state != "waiting" && a.state != ui.StateRunning {
			n++
		}
	}
	return n
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			m.Quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Viewport.Width = msg.Width
		m.Viewport.Height = max(3, msg.Height-len(m.Agents)-8)
		m.Progress.Width = max(10, msg.Width-4)
		m.Ready = true

	case StatusMsg:
		m.Status = string(msg)

	case AgentMsg:
		found := false
		for i := range m.Agents {
			if m.Agents[i].name == msg.Name {
				m.Agents[i].state, m.Agents[i].elapsed = msg.State, msg.Elapsed
				found = true
			}
		}
		if !found {
			m.Agents = append(m.Agents, agentRow{name: msg.Name, state: msg.State, elapsed: msg.Elapsed})
		}

	case LogMsg:
		m.Log = append(m.Log, string(msg))
		m.Viewport.SetContent(strings.Join(m.Log, "\n"))
		m.Viewport.GotoBottom()

	case DoneMsg:
		m.Finished = true
		m.Err = msg.Err
		if msg.Err != nil {
			m.Status = "Generation failed"
		} else {
			m.Status = "Done"
		}
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(ui.TitleStyle.Render(" "+m.Title+" ") + " " + ui.InfoStyle.Render(m.Status) + "\n\n")

	for _, a := range m.Agents {
		var mark string
		switch a.state {
		case ui.StateRunning:
			mark = m.Spinner.View()
		case ui.StateDone:
			mark = ui.InfoStyle.Render("✓")
		case ui.StateFailed, ui.StateCancelled:
			mark = ui.ErrorStyle.Render("✗")
		default:
			mark = " "
		}
		line := fmt.Sprintf("%s %s %s", mark, agentStyle.Render(a.name), a.state)
		if a.elapsed > 0 {
			line += fmt.Sprintf(" (%.1fs)", a.elapsed.Seconds())
		}
		sb.WriteString(line + "\n")
	}

	if len(m.Agents) > 0 {
		sb.WriteString("\n" + m.Progress.ViewAs(float64(m.finishedAgents())/float64(len(m.Agents))) + "\n")
	}
	if len(m.Log) > 0 {
		sb.WriteString("\n" + logStyle.Render(m.Viewport.View()) + "\n")
	}
	if m.Err != nil {
		sb.WriteString("\n" + ui.ErrorStyle.Render(m.Err.Error()) + "\n")
	}
	if m.Quitting {
		sb.WriteString("\n  Quitting...\n")
	}
	return sb.String()
}
