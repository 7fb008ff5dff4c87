package tui

import (
	"fmt"
	"strings"

	"github.com/example/homelabctl/internal/homelab"
)

type servicesDetailModel struct {
	service string
	cfg     homelab.Config
	enabled map[string]bool
}

func newServicesDetailModel() *servicesDetailModel {
	return &servicesDetailModel{}
}

func (m *servicesDetailModel) View() string {
	if m.service == "" {
		return ""
	}

	info, ok := homelab.ServiceCatalog[m.service]
	if !ok {
		return ""
	}

	var b strings.Builder

	b.WriteString(borderStyle.Render(subtitleStyle.Render(info.Name)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s\n", normalStyle.Render(info.Description)))
	b.WriteString(fmt.Sprintf("  Category: %s\n", mutedStyle.Render(info.Category)))

	// Ports
	if len(info.Ports) > 0 {
		b.WriteString(fmt.Sprintf("  Ports:    %s\n", mutedStyle.Render(strings.Join(info.Ports, ", "))))
	} else {
		b.WriteString(fmt.Sprintf("  Ports:    %s\n", mutedStyle.Render("none")))
	}

	// Dependencies
	if deps, ok := homelab.ServiceDependencies[m.service]; ok && len(deps) > 0 {
		b.WriteString(fmt.Sprintf("  Depends:  %s\n", mutedStyle.Render(strings.Join(deps, ", "))))
	}

	// Reverse dependencies
	var rdeps []string
	for svc, deps := range homelab.ServiceDependencies {
		for _, dep := range deps {
			if dep == m.service {
				rdeps = append(rdeps, svc)
			}
		}
	}
	if len(rdeps) > 0 {
		b.WriteString(fmt.Sprintf("  Needed by: %s\n", mutedStyle.Render(strings.Join(rdeps, ", "))))
	}

	// Status
	if m.enabled[m.service] {
		if homelab.ComposeServiceRunning(m.cfg, m.service) {
			b.WriteString(fmt.Sprintf("  Status:   %s\n", statusRunning.Render("running")))
		} else {
			b.WriteString(fmt.Sprintf("  Status:   %s\n", statusStopped.Render("stopped")))
		}
	} else {
		b.WriteString(fmt.Sprintf("  Status:   %s\n", mutedStyle.Render("disabled")))
	}

	return b.String()
}
