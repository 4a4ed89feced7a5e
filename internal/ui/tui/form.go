package tui

import (
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/studyplan/internal/ui"
)

// Field is one input of a form.
type Field struct {
	Label       string
	Value       string
	Placeholder string
	// Validate returns a message when the value is unacceptable.
	Validate func(string) string
}

var (
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// FormModel edits several fields; enter advances and submits on the last one.
type FormModel struct {
	Title     string
	fields    []Field
	inputs    []textinput.Model
	focus     int
	errMsg    string
	Submitted bool
	Cancelled bool
}

func NewForm(title string, fields []Field) FormModel {
	inputs := make([]textinput.Model, len(fields))
	for i, f := range fields {
		in := textinput.New()
		in.Placeholder = f.Placeholder
		in.SetValue(f.Value)
		in.CharLimit = 20000
		in.Width = 60
		if i == 0 {
			in.Focus()
		}
		inputs[i] = in
	}
	return FormModel{Title: title, fields: fields, inputs: inputs}
}

// Values returns the current value of every field.
func (m FormModel) Values() []string {
	out := make([]string, len(m.inputs))
	for i, in := range m.inputs {
		out[i] = strings.TrimSpace(in.Value())
	}
	return out
}

func (m FormModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m FormModel) setFocus(i int) (FormModel, tea.Cmd) {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m, m.inputs[i].Focus()
}

func (m FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.Cancelled = true
			return m, tea.Quit
		case tea.KeyUp, tea.KeyShiftTab:
			if m.focus > 0 {
				return m.setFocus(m.focus - 1)
			}
			return m, nil
		case tea.KeyDown, tea.KeyTab, tea.KeyEnter:
			if v := m.fields[m.focus].Validate; v != nil {
				if msg := v(strings.TrimSpace(m.inputs[m.focus].Value())); msg != "" {
					m.errMsg = msg
					return m, nil
				}
			}
			m.errMsg = ""
			if m.focus < len(m.inputs)-1 {
				return m.setFocus(m.focus + 1)
			}
			if key.Type == tea.KeyEnter {
				m.Submitted = true
				return m, tea.Quit
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m FormModel) View() string {
	var sb strings.Builder
	sb.WriteString(ui.TitleStyle.Render(" "+m.Title+" ") + "\n\n")
	for i, f := range m.fields {
		label := f.Label
		if i == m.focus {
			label = focusedStyle.Render("› " + label)
		} else {
			label = "  " + label
		}
		sb.WriteString(label + "\n  " + m.inputs[i].View() + "\n\n")
	}
	if m.errMsg != "" {
		sb.WriteString(ui.ErrorStyle.Render(m.errMsg) + "\n")
	}
	sb.WriteString(hintStyle.Render("enter: next/submit • shift+tab: back • esc: cancel") + "\n")
	return sb.String()
}

// Prompter implements ui.Prompter with bubbletea programs.
type Prompter struct {
	in  io.Reader
	out io.Writer
}

var _ ui.Prompter = (*Prompter)(nil)

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out}
}

func (p *Prompter) run(m tea.Model) (tea.Model, error) {
	opts := []tea.ProgramOption{}
	if p.in != nil {
		opts = append(opts, tea.WithInput(p.in))
	}
	if p.out != nil {
		opts = append(opts, tea.WithOutput(p.out))
	}
	return tea.NewProgram(m, opts...).Run()
}

// Form runs a form and returns the submitted values.
func (p *Prompter) Form(title string, fields []Field) ([]string, error) {
	final, err := p.run(NewForm(title, fields))
	if err != nil {
		return nil, err
	}
	m := final.(FormModel)
	if !m.Submitted {
		return nil, ui.ErrAborted
	}
	return m.Values(), nil
}

func (p *Prompter) Ask(label, def string) (string, error) {
	values, err := p.Form(label, []Field{{Label: label, Value: def}})
	if err != nil {
		return "", err
	}
	if values[0] == "" {
		return def, nil
	}
	return values[0], nil
}

func (p *Prompter) Choose(title string, options []string) (int, error) {
	final, err := p.run(NewMenu(title, options))
	if err != nil {
		return -1, err
	}
	m := final.(MenuModel)
	if m.Chosen < 0 {
		return -1, ui.ErrAborted
	}
	return m.Chosen, nil
}
