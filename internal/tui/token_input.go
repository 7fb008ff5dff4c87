package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/example/homelabctl/internal/homelab"
)

// tokenInputModel collects the deployment-specific access credential:
// the Cloudflare API token or the Tailscale auth key.
type tokenInputModel struct {
	state  *wizardState
	input  textinput.Model
	errMsg string
}

func newTokenInputModel(state *wizardState) *tokenInputModel {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '*'

	return &tokenInputModel{
		state: state,
		input: ti,
	}
}

func (m *tokenInputModel) Init() tea.Cmd {
	if m.state.token != "" {
		m.input.SetValue(m.state.token)
	}
	switch m.state.deployment {
	case homelab.DeployCloudflare:
		m.input.Placeholder = "Cloudflare API token"
	case homelab.DeployTailscale:
		m.input.Placeholder = "tskey-auth-..."
	}
	m.input.Focus()
	return textinput.Blink
}

func (m *tokenInputModel) Update(msg tea.Msg) (screenModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if isEsc(msg) {
			return m, func() tea.Msg { return navigateMsg{to: screenEmailInput} }
		}
		if isEnter(msg) {
			val := strings.TrimSpace(m.input.Value())
			if val == "" {
				m.errMsg = "A token is required for this deployment type"
				return m, nil
			}
			m.errMsg = ""
			m.state.token = val
			return m, func() tea.Msg { return navigateMsg{to: screenServiceSelect} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *tokenInputModel) View() string {
	var b strings.Builder

	title := "Access Token"
	desc := "Enter the access credential for the selected deployment type."
	switch m.state.deployment {
	case homelab.DeployCloudflare:
		title = "Cloudflare API Token"
		desc = "Token with Zone.DNS edit permission; stored as CF_DNS_API_TOKEN."
	case homelab.DeployTailscale:
		title = "Tailscale Auth Key"
		desc = "Reusable auth key for this node; stored as TS_AUTHKEY."
	}

	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(desc))
	b.WriteString("\n\n")
	b.WriteString("  " + m.input.View())
	b.WriteString("\n")

	if m.errMsg != "" {
		b.WriteString("\n  " + errorStyle.Render(m.errMsg))
	}

	b.WriteString(helpStyle.Render("\n  enter: confirm  esc: back"))
	return b.String()
}
