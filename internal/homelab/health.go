package homelab

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
)

const (
	defaultWaitAttempts = 30
	defaultWaitDelay    = 2 * time.Second
)

type serviceState struct {
	Service string `json:"Service"`
	State   string `json:"State"`
	Health  string `json:"Health"`
}

func composeServiceStates(baseArgs []string) ([]serviceState, error) {
	args := append(append([]string{}, baseArgs...), "ps", "--format", "json")
	out, err := RunCmdCapture("docker", args...)
	if err != nil {
		return nil, fmt.Errorf("docker compose ps: %w", err)
	}

	var states []serviceState
	// docker compose ps --format json outputs one JSON object per line
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var st serviceState
		if err := json.Unmarshal([]byte(line), &st); err != nil {
			continue
		}
		states = append(states, st)
	}
	return states, nil
}

func serviceReady(baseArgs []string, service string) bool {
	states, err := composeServiceStates(baseArgs)
	if err != nil {
		return false
	}
	for _, st := range states {
		if st.Service != service {
			continue
		}
		if st.State != "running" {
			return false
		}
		// No healthcheck defined counts as ready once running.
		return st.Health == "" || st.Health == "healthy"
	}
	return false
}

// WaitForInstanceService polls until the service reports ready. Past the
// attempt budget it warns and returns; transient slowness never fails an
// install (matching the originals' fixed polling loops).
func WaitForInstanceService(dir, project, service string, attempts int, delay time.Duration) {
	waitForService(InstanceComposeArgs(dir, project), service, attempts, delay)
}

func WaitForCoreService(cfg Config, service string, attempts int, delay time.Duration) {
	waitForService(ComposeBaseArgs(cfg), service, attempts, delay)
}

func waitForService(baseArgs []string, service string, attempts int, delay time.Duration) {
	for i := 0; i < attempts; i++ {
		if serviceReady(baseArgs, service) {
			fmt.Printf("%s %s is ready\n", color.GreenString("✓"), service)
			return
		}
		time.Sleep(delay)
	}
	fmt.Printf("%s %s not ready after %d attempts, continuing\n",
		color.YellowString("!"), service, attempts)
}

// RunHealth probes the running stack: service states per enabled service,
// the Traefik ping endpoint, and DNS resolution of the domain.
func RunHealth(cfg Config) error {
	services, err := LoadEnabledServices(cfg)
	if err != nil {
		return err
	}

	fmt.Println("homelab health")

	states, err := composeServiceStates(ComposeBaseArgs(cfg))
	if err != nil {
		return err
	}
	byService := map[string]serviceState{}
	for _, st := range states {
		byService[st.Service] = st
	}

	healthy := true
	for _, svc := range services {
		st, ok := byService[svc]
		switch {
		case !ok:
			fmt.Printf("%s %-14s not created\n", color.RedString("✗"), svc)
			healthy = false
		case st.State != "running":
			fmt.Printf("%s %-14s %s\n", color.RedString("✗"), svc, st.State)
			healthy = false
		case st.Health != "" && st.Health != "healthy":
			fmt.Printf("%s %-14s running (%s)\n", color.YellowString("!"), svc, st.Health)
		default:
			fmt.Printf("%s %-14s running\n", color.GreenString("✓"), svc)
		}
	}

	for _, inst := range InstalledInstances(cfg, "") {
		instStates, err := composeServiceStates(InstanceComposeArgs(
			filepath.Join(cfg.InstanceRoot, inst), inst))
		if err != nil || len(instStates) == 0 {
			fmt.Printf("%s %-14s no containers\n", color.YellowString("!"), inst)
			continue
		}
		down := 0
		for _, st := range instStates {
			if st.State != "running" {
				down++
			}
		}
		if down == 0 {
			fmt.Printf("%s %-14s %d containers running\n", color.GreenString("✓"), inst, len(instStates))
		} else {
			fmt.Printf("%s %-14s %d/%d containers down\n", color.RedString("✗"), inst, down, len(instStates))
			healthy = false
		}
	}

	if contains(services, "traefik") {
		probeHTTP("traefik ping", "http://127.0.0.1/ping", defaultWaitAttempts)
	}

	if cfg.Domain != "" {
		if _, err := net.LookupHost(cfg.Domain); err != nil {
			fmt.Printf("%s dns %s: %v\n", color.YellowString("!"), cfg.Domain, err)
		} else {
			fmt.Printf("%s dns %s resolves\n", color.GreenString("✓"), cfg.Domain)
		}
	}

	if !healthy {
		return fmt.Errorf("one or more services are unhealthy")
	}
	return nil
}

// probeHTTP retries a GET with a short sleep, then warns and moves on.
func probeHTTP(name, url string, attempts int) {
	client := &http.Client{Timeout: 3 * time.Second}
	for i := 0; i < attempts; i++ {
		resp, err := client.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode < 500 {
				fmt.Printf("%s %s responded (%d)\n", color.GreenString("✓"), name, resp.StatusCode)
				return
			}
		}
		time.Sleep(time.Second)
	}
	fmt.Printf("%s %s unreachable after %d attempts, continuing\n",
		color.YellowString("!"), name, attempts)
}
