package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/studyplan/internal/ui"
)

var errNoOptions = errors.New("menu has no options")

// MenuModel picks one option with the arrow keys or its number.
type MenuModel struct {
	Title   string
	Options []string
	Cursor  int
	Chosen  int
}

func NewMenu(title string, options []string) MenuModel {
	return MenuModel{Title: title, Options: options, Chosen: -1}
}

func (m MenuModel) Init() tea.Cmd {
	if len(m.Options) == 0 {
		return func() tea.Msg { return errNoOptions }
	}
	return nil
}

func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case error:
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Options)-1 {
				m.Cursor++
			}
		case "enter", " ":
			m.Chosen = m.Cursor
			return m, tea.Quit
		default:
			var n int
			if _, err := fmt.Sscanf(msg.String(), "%d", &n); err == nil && n >= 1 && n <= len(m.Options) {
				m.Cursor, m.Chosen = n-1, n-1
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m MenuModel) View() string {
	var sb strings.Builder
	sb.WriteString(ui.TitleStyle.Render(" "+m.Title+" ") + "\n\n")
	for i, o := range m.Options {
		if i == m.Cursor {
			sb.WriteString(focusedStyle.Render(fmt.Sprintf("› %d. %s", i+1, o)) + "\n")
		} else {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, o))
		}
	}
	sb.WriteString("\n" + hintStyle.Render("↑/↓ move • enter select • q quit") + "\n")
	return sb.String()
}
