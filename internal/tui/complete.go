package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/example/homelabctl/internal/homelab"
)

type completeModel struct {
	state  *wizardState
	cursor int // 0=Run Again, 1=Exit
}

func newCompleteModel(state *wizardState) *completeModel {
	return &completeModel{state: state}
}

func (m *completeModel) Init() tea.Cmd {
	m.cursor = 1 // Default to Exit
	return nil
}

func (m *completeModel) Update(msg tea.Msg) (screenModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if isLeft(msg) && m.cursor > 0 {
			m.cursor--
		}
		if isRight(msg) && m.cursor < 1 {
			m.cursor++
		}
		if isEnter(msg) {
			if m.cursor == 0 {
				return m, func() tea.Msg { return resetMsg{} }
			}
			return m, tea.Quit
		}
		if msg.String() == "q" || isEsc(msg) {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *completeModel) View() string {
	var b strings.Builder

	b.WriteString(successStyle.Render("  Setup Complete!"))
	b.WriteString("\n\n")

	cfg := homelab.LoadConfig()
	b.WriteString(fmt.Sprintf("  Deployment:   %s\n", selectedStyle.Render(m.state.deployment)))
	b.WriteString(fmt.Sprintf("  Path:         %s\n", normalStyle.Render(cfg.HomelabRoot)))
	b.WriteString(fmt.Sprintf("  Domain:       %s\n", normalStyle.Render(m.state.domain)))

	if len(m.state.services) > 0 {
		b.WriteString(fmt.Sprintf("  Services:     %s\n", normalStyle.Render(strings.Join(m.state.services, ", "))))
	}

	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("  Next Steps"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("  $ homelabctl status                    # check stack status"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("  $ homelabctl role install mysql dev    # install a role instance"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("  $ homelabctl backup create             # snapshot config + volumes"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("  $ homelabctl doctor                    # verify system"))
	b.WriteString("\n\n")

	buttons := []string{"Run Setup Again", "Exit"}
	for i, btn := range buttons {
		if i == m.cursor {
			b.WriteString("  " + borderStyle.Render(selectedStyle.Render(btn)))
		} else {
			b.WriteString("  " + normalStyle.Render("["+btn+"]"))
		}
		b.WriteString("  ")
	}

	b.WriteString(helpStyle.Render("\n\n  left/right: navigate  enter: select  q: quit"))
	return b.String()
}
