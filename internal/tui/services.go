package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/example/homelabctl/internal/homelab"
)

func StartServiceManager() error {
	if !homelab.Initialized() {
		return fmt.Errorf("no homelab stack found; run 'homelabctl init' first")
	}

	cfg := homelab.LoadConfig()
	if err := homelab.HydrateFromDotEnv(&cfg); err != nil {
		return err
	}

	m := newServicesRootModel(cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type servicesRootModel struct {
	cfg  homelab.Config
	list *servicesListModel
}

func newServicesRootModel(cfg homelab.Config) servicesRootModel {
	return servicesRootModel{
		cfg:  cfg,
		list: newServicesListModel(cfg),
	}
}

func (m servicesRootModel) Init() tea.Cmd {
	return m.list.Init()
}

func (m servicesRootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if isQuit(msg) {
			if m.list.dirty {
				m.list.showQuitWarning = true
				return m, nil
			}
			return m, tea.Quit
		}
	}

	newList, cmd := m.list.Update(msg)
	m.list = newList.(*servicesListModel)
	return m, cmd
}

func (m servicesRootModel) View() string {
	return m.list.View()
}
