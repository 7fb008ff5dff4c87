package homelab

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type ServiceInfo struct {
	Name        string
	Description string
	Ports       []string
	Category    string
}

var ServiceCatalog = map[string]ServiceInfo{
	"traefik": {
		Name:        "traefik",
		Description: "Reverse proxy with automatic ACME certificates",
		Ports:       []string{"80", "443"},
		Category:    "Core",
	},
	"portainer": {
		Name:        "portainer",
		Description: "Container management web UI",
		Ports:       []string{"127.0.0.1:9000"},
		Category:    "Management",
	},
	"tailscale": {
		Name:        "tailscale",
		Description: "Mesh VPN access to the stack",
		Ports:       []string{},
		Category:    "Network",
	},
	"cloudflared": {
		Name:        "cloudflared",
		Description: "Cloudflare tunnel for inbound traffic without open ports",
		Ports:       []string{},
		Category:    "Network",
	},
	"whoami": {
		Name:        "whoami",
		Description: "Routing smoke-test service",
		Ports:       []string{},
		Category:    "Utilities",
	},
}

var ServiceDependencies = map[string][]string{
	"portainer":   {"traefik"},
	"cloudflared": {"traefik"},
	"whoami":      {"traefik"},
}

// defaultServices maps a deployment type to the services seeded at init.
var defaultServices = map[string][]string{
	DeployDirect:     {"traefik"},
	DeployTailscale:  {"tailscale", "traefik"},
	DeployCloudflare: {"cloudflared", "traefik"},
}

// DefaultServices returns the services seeded for a deployment type,
// falling back to the direct defaults for unknown types.
func DefaultServices(deployment string) []string {
	svcs, ok := defaultServices[deployment]
	if !ok {
		svcs = defaultServices[DeployDirect]
	}
	return append([]string(nil), svcs...)
}

type EnabledConfig struct {
	Services []string `yaml:"services"`
}

func LoadEnabledServices(cfg Config) ([]string, error) {
	enabled, err := LoadEnabled(cfg)
	if err != nil {
		return nil, err
	}
	if len(enabled.Services) == 0 {
		return []string{}, nil
	}

	svcs := make([]string, 0, len(enabled.Services))
	for _, s := range enabled.Services {
		if _, ok := ServiceCatalog[s]; ok {
			svcs = append(svcs, s)
		}
	}
	svcs = AddServiceDependencies(svcs)
	sort.Strings(svcs)
	return svcs, nil
}

func LoadEnabled(cfg Config) (EnabledConfig, error) {
	path := filepath.Join(cfg.HomelabRoot, "enabled.yml")
	b, err := os.ReadFile(path)
	if err != nil {
		return EnabledConfig{}, err
	}
	var conf EnabledConfig
	if err := yaml.Unmarshal(b, &conf); err != nil {
		return EnabledConfig{}, err
	}
	return conf, nil
}

func WriteEnabled(cfg Config, conf EnabledConfig) error {
	path := filepath.Join(cfg.HomelabRoot, "enabled.yml")
	out, err := yaml.Marshal(conf)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o640)
}

func AddServiceDependencies(services []string) []string {
	set := map[string]bool{}
	for _, s := range services {
		set[s] = true
	}
	for _, s := range services {
		for _, dep := range ServiceDependencies[s] {
			set[dep] = true
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func SortedServiceNames() []string {
	names := make([]string, 0, len(ServiceCatalog))
	for name := range ServiceCatalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedServicePorts(name string) string {
	s, ok := ServiceCatalog[name]
	if !ok || len(s.Ports) == 0 {
		return "-"
	}
	return strings.Join(s.Ports, ",")
}
