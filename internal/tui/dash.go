package tui

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/example/homelabctl/internal/homelab"
)

type dashTab int

const (
	dashTabOverview dashTab = iota
	dashTabStack
	dashTabDetail
)

type containerInfo struct {
	Service string
	State   string
	Health  string
	CPU     string
	Mem     string
	Ports   string
}

type stackStatus struct {
	Name       string
	Containers []containerInfo
	Status     string // OK, DEGRADED, NOT DEPLOYED
}

type refreshMsg struct {
	stackStatuses []stackStatus
}

type tickMsg time.Time

func StartDashboard() error {
	m := newDashModel()
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type dashModel struct {
	focusStack    string
	activeTab     dashTab
	stackStatuses []stackStatus
	stackCursor   int
	rowCursor     int
	detailModel   *dashDetailModel
	width         int
	height        int
}

func newDashModel() dashModel {
	return dashModel{
		activeTab:   dashTabOverview,
		detailModel: newDashDetailModel(),
	}
}

func (m dashModel) Init() tea.Cmd {
	return tea.Batch(m.fetchAll(), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// stackComposeArgs returns the compose argument prefix for a named stack:
// "homelab" for the core stack, otherwise a role instance directory.
func stackComposeArgs(cfg homelab.Config, name string) []string {
	if name == "homelab" {
		return homelab.ComposeBaseArgs(cfg)
	}
	return homelab.InstanceComposeArgs(homelab.InstanceDir(cfg, name), name)
}

func (m dashModel) fetchAll() tea.Cmd {
	return func() tea.Msg {
		cfg := homelab.LoadConfig()

		stacks := []string{"homelab"}
		stacks = append(stacks, homelab.InstalledInstances(cfg, "")...)
		if m.focusStack != "" {
			stacks = []string{m.focusStack}
		}

		var statuses []stackStatus
		for _, name := range stacks {
			containers := fetchContainers(stackComposeArgs(cfg, name))
			status := "OK"
			if len(containers) == 0 {
				status = "NOT DEPLOYED"
			} else {
				for _, c := range containers {
					if c.State != "running" {
						status = "DEGRADED"
						break
					}
				}
			}
			statuses = append(statuses, stackStatus{
				Name:       name,
				Containers: containers,
				Status:     status,
			})
		}
		return refreshMsg{stackStatuses: statuses}
	}
}

type composePS struct {
	Service string `json:"Service"`
	State   string `json:"State"`
	Health  string `json:"Health"`
	Ports   string `json:"Ports"`
}

func fetchContainers(baseArgs []string) []containerInfo {
	args := append(append([]string{}, baseArgs...), "ps", "--format", "json")
	out, err := homelab.RunCmdCapture("docker", args...)
	if err != nil {
		return nil
	}

	var containers []containerInfo
	// docker compose ps --format json outputs one JSON object per line
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var ps composePS
		if err := json.Unmarshal([]byte(line), &ps); err != nil {
			continue
		}
		containers = append(containers, containerInfo{
			Service: ps.Service,
			State:   ps.State,
			Health:  ps.Health,
			Ports:   ps.Ports,
		})
	}

	// Fetch stats
	statsArgs := append(append([]string{}, baseArgs...), "stats", "--no-stream", "--format", "json")
	statsOut, err := homelab.RunCmdCapture("docker", statsArgs...)
	if err == nil {
		type dockerStats struct {
			Name    string `json:"Name"`
			CPUPerc string `json:"CPUPerc"`
			MemPerc string `json:"MemPerc"`
		}
		for _, line := range strings.Split(strings.TrimSpace(statsOut), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			var ds dockerStats
			if err := json.Unmarshal([]byte(line), &ds); err != nil {
				continue
			}
			for i := range containers {
				if strings.Contains(ds.Name, containers[i].Service) {
					containers[i].CPU = ds.CPUPerc
					containers[i].Mem = ds.MemPerc
				}
			}
		}
	}

	return containers
}

func (m dashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if isQuit(msg) {
			return m, tea.Quit
		}
		switch {
		case msg.String() == "q" || isEsc(msg):
			if m.activeTab == dashTabDetail {
				m.activeTab = dashTabStack
				return m, nil
			}
			if m.activeTab == dashTabStack {
				m.activeTab = dashTabOverview
				m.focusStack = ""
				return m, nil
			}
			return m, tea.Quit
		case isTab(msg):
			m.activeTab = (m.activeTab + 1) % 3
			return m, nil
		case msg.String() == "1":
			m.activeTab = dashTabOverview
		case msg.String() == "2":
			m.activeTab = dashTabStack
		case msg.String() == "3":
			m.activeTab = dashTabDetail
		}

		switch m.activeTab {
		case dashTabOverview:
			return m.updateOverview(msg)
		case dashTabStack:
			return m.updateStack(msg)
		case dashTabDetail:
			return m.updateDetail(msg)
		}

	case refreshMsg:
		m.stackStatuses = msg.stackStatuses
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetchAll(), tickCmd())
	}

	return m, nil
}

func (m dashModel) updateOverview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case isUp(msg) && m.stackCursor > 0:
		m.stackCursor--
	case isDown(msg) && m.stackCursor < len(m.stackStatuses)-1:
		m.stackCursor++
	case isEnter(msg):
		if m.stackCursor < len(m.stackStatuses) {
			m.focusStack = m.stackStatuses[m.stackCursor].Name
			m.activeTab = dashTabStack
			m.rowCursor = 0
		}
	}
	return m, nil
}

func (m dashModel) updateStack(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ss := m.currentStackStatus()
	if ss == nil {
		return m, nil
	}

	switch {
	case isUp(msg) && m.rowCursor > 0:
		m.rowCursor--
	case isDown(msg) && m.rowCursor < len(ss.Containers)-1:
		m.rowCursor++
	case isEnter(msg):
		if m.rowCursor < len(ss.Containers) {
			m.detailModel.container = &ss.Containers[m.rowCursor]
			m.detailModel.stackName = ss.Name
			m.activeTab = dashTabDetail
		}
	case msg.String() == "r":
		// Restart selected service
		if m.rowCursor < len(ss.Containers) {
			svc := ss.Containers[m.rowCursor].Service
			return m, m.restartService(ss.Name, svc)
		}
	}
	return m, nil
}

func (m dashModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "l":
		if m.detailModel.container != nil {
			return m, m.execLogs(m.detailModel.stackName, m.detailModel.container.Service)
		}
	case msg.String() == "x":
		if m.detailModel.container != nil {
			return m, m.execShell(m.detailModel.stackName, m.detailModel.container.Service)
		}
	}
	return m, nil
}

func (m dashModel) currentStackStatus() *stackStatus {
	for i := range m.stackStatuses {
		if m.stackStatuses[i].Name == m.focusStack {
			return &m.stackStatuses[i]
		}
	}
	if len(m.stackStatuses) > 0 && m.stackCursor < len(m.stackStatuses) {
		return &m.stackStatuses[m.stackCursor]
	}
	return nil
}

type restartDoneMsg struct{ err error }

func (m dashModel) restartService(stack, service string) tea.Cmd {
	return func() tea.Msg {
		cfg := homelab.LoadConfig()
		args := append(stackComposeArgs(cfg, stack), "restart", service)
		_, err := homelab.RunCmdCapture("docker", args...)
		return restartDoneMsg{err: err}
	}
}

func (m dashModel) execLogs(stack, service string) tea.Cmd {
	cfg := homelab.LoadConfig()
	args := append(stackComposeArgs(cfg, stack), "logs", "-f", service)
	return tea.ExecProcess(execCmd("docker", args...), func(err error) tea.Msg {
		return restartDoneMsg{err: err}
	})
}

func (m dashModel) execShell(stack, service string) tea.Cmd {
	cfg := homelab.LoadConfig()
	args := append(stackComposeArgs(cfg, stack), "exec", service, "sh")
	return tea.ExecProcess(execCmd("docker", args...), func(err error) tea.Msg {
		return restartDoneMsg{err: err}
	})
}

func (m dashModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("homelabctl Dashboard"))
	b.WriteString("\n")

	// Tabs
	tabs := []string{"Overview", "Stack", "Detail"}
	for i, tab := range tabs {
		if dashTab(i) == m.activeTab {
			b.WriteString(activeTabStyle.Render(tab))
		} else {
			b.WriteString(inactiveTabStyle.Render(tab))
		}
		b.WriteString(" ")
	}
	b.WriteString("\n\n")

	switch m.activeTab {
	case dashTabOverview:
		b.WriteString(m.viewOverview())
	case dashTabStack:
		b.WriteString(m.viewStack())
	case dashTabDetail:
		b.WriteString(m.viewDetail())
	}

	b.WriteString(helpStyle.Render("\n  tab/1-3: switch tabs  j/k: navigate  enter: select  r: restart  l: logs  x: shell  q: quit"))
	return b.String()
}

func (m dashModel) viewOverview() string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Render("  Stacks"))
	b.WriteString("\n\n")

	if len(m.stackStatuses) == 0 {
		b.WriteString(mutedStyle.Render("  No stacks detected. Run 'homelabctl init' first."))
		b.WriteString("\n")
		return b.String()
	}

	// Header
	b.WriteString(fmt.Sprintf("  %s%-16s %-14s %-8s%s\n",
		"  ",
		tableHeaderStyle.Render("STACK"),
		tableHeaderStyle.Render("CONTAINERS"),
		tableHeaderStyle.Render("STATUS"),
		""))

	for i, ss := range m.stackStatuses {
		prefix := "  "
		if i == m.stackCursor {
			prefix = cursorChar
		}

		statusStyle := statusRunning
		switch ss.Status {
		case "DEGRADED":
			statusStyle = statusUnknown
		case "NOT DEPLOYED":
			statusStyle = statusStopped
		}

		b.WriteString(fmt.Sprintf("  %s %-16s %-14s %s\n",
			prefix,
			normalStyle.Render(ss.Name),
			mutedStyle.Render(fmt.Sprintf("%d", len(ss.Containers))),
			statusStyle.Render(ss.Status)))
	}
	return b.String()
}

func (m dashModel) viewStack() string {
	var b strings.Builder

	ss := m.currentStackStatus()
	if ss == nil {
		b.WriteString(mutedStyle.Render("  Select a stack from the Overview tab."))
		return b.String()
	}

	b.WriteString(subtitleStyle.Render(fmt.Sprintf("  %s containers", ss.Name)))
	b.WriteString("\n\n")

	if len(ss.Containers) == 0 {
		b.WriteString(mutedStyle.Render("  No containers running."))
		b.WriteString("\n")
		return b.String()
	}

	// Header
	b.WriteString(fmt.Sprintf("     %-20s %-12s %-10s %-8s %-8s %s\n",
		tableHeaderStyle.Render("SERVICE"),
		tableHeaderStyle.Render("STATE"),
		tableHeaderStyle.Render("HEALTH"),
		tableHeaderStyle.Render("CPU"),
		tableHeaderStyle.Render("MEM"),
		tableHeaderStyle.Render("PORTS")))

	for i, c := range ss.Containers {
		prefix := "  "
		if i == m.rowCursor {
			prefix = cursorChar
		}

		stateStyle := statusRunning
		if c.State != "running" {
			stateStyle = statusStopped
		}

		health := c.Health
		if health == "" {
			health = "-"
		}
		cpu := c.CPU
		if cpu == "" {
			cpu = "-"
		}
		mem := c.Mem
		if mem == "" {
			mem = "-"
		}
		ports := c.Ports
		if ports == "" {
			ports = "-"
		}

		b.WriteString(fmt.Sprintf("  %s %-20s %-12s %-10s %-8s %-8s %s\n",
			prefix,
			normalStyle.Render(c.Service),
			stateStyle.Render(c.State),
			mutedStyle.Render(health),
			mutedStyle.Render(cpu),
			mutedStyle.Render(mem),
			mutedStyle.Render(ports)))
	}
	return b.String()
}

func (m dashModel) viewDetail() string {
	return m.detailModel.View()
}
