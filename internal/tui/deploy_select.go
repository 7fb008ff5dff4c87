package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/example/homelabctl/internal/homelab"
)

type deployOption struct {
	value string
	label string
	desc  string
}

type deploySelectModel struct {
	state   *wizardState
	cursor  int
	options []deployOption
}

func newDeploySelectModel(state *wizardState) *deploySelectModel {
	return &deploySelectModel{
		state: state,
		options: []deployOption{
			{value: homelab.DeployDirect, label: "direct", desc: "Expose ports 80/443 directly on this host"},
			{value: homelab.DeployTailscale, label: "tailscale", desc: "Private access over a Tailscale mesh VPN"},
			{value: homelab.DeployCloudflare, label: "cloudflare", desc: "Inbound traffic through a Cloudflare tunnel"},
		},
	}
}

func (m *deploySelectModel) Init() tea.Cmd {
	// Restore cursor position if going back
	for i, opt := range m.options {
		if opt.value == m.state.deployment {
			m.cursor = i
			break
		}
	}
	return nil
}

func (m *deploySelectModel) Update(msg tea.Msg) (screenModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if isEsc(msg) {
			return m, func() tea.Msg { return navigateMsg{to: screenWelcome} }
		}
		if isUp(msg) && m.cursor > 0 {
			m.cursor--
		}
		if isDown(msg) && m.cursor < len(m.options)-1 {
			m.cursor++
		}
		if isEnter(msg) {
			m.state.deployment = m.options[m.cursor].value
			return m, func() tea.Msg { return navigateMsg{to: screenDomainInput} }
		}
	}
	return m, nil
}

func (m *deploySelectModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Select Deployment Type"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Choose how the stack will be reached."))
	b.WriteString("\n\n")

	for i, opt := range m.options {
		radio := radioOff
		label := normalStyle.Render(opt.label)
		if i == m.cursor {
			radio = radioOn
			label = selectedStyle.Render(opt.label)
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", radio, label))
		b.WriteString(fmt.Sprintf("      %s\n", mutedStyle.Render(opt.desc)))
	}

	b.WriteString(helpStyle.Render("\n  up/down: navigate  enter: select  esc: back"))
	return b.String()
}
