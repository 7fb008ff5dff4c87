package homelab

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Songmu/prompter"
	"github.com/fatih/color"
)

func Run(args []string) error {
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}

	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "init":
		return cmdInit(cmdArgs)
	case "enable":
		return cmdEnableDisable(cmdArgs, true)
	case "disable":
		return cmdEnableDisable(cmdArgs, false)
	case "apply":
		return cmdApply(cmdArgs)
	case "status":
		return cmdStatus(cmdArgs)
	case "role":
		return cmdRole(cmdArgs)
	case "dns":
		return cmdDNS(cmdArgs)
	case "backup":
		return cmdBackup(cmdArgs)
	case "doctor":
		return RunDoctor()
	case "health":
		return cmdHealth(cmdArgs)
	case "help", "--help", "-h":
		usage()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func usage() {
	fmt.Println(`homelabctl - Docker Compose homelab manager

Usage:
  homelabctl init --domain example.com --email admin@example.com [--deployment direct|tailscale|cloudflare]
  homelabctl enable <service>
  homelabctl disable <service>
  homelabctl apply
  homelabctl status
  homelabctl role <install|uninstall|status|logs|update|config|list|install-all|status-all|uninstall-all> [role] [instance]
  homelabctl dns <upsert|list|delete|validate> [name] [content]
  homelabctl backup [create|list|restore <archive>|cleanup]
  homelabctl doctor
  homelabctl health
  homelabctl setup                  # interactive setup wizard
  homelabctl dash                   # status dashboard
  homelabctl services               # service manager
  homelabctl config                 # configuration editor

Core services:`)

	for _, name := range SortedServiceNames() {
		s := ServiceCatalog[name]
		fmt.Printf("  - %-14s %-55s ports: %s\n", s.Name, s.Description, sortedServicePorts(name))
	}

	fmt.Println("\nRoles:")
	for _, name := range SortedRoleNames() {
		r := RoleCatalog[name]
		fmt.Printf("  - %-14s %s\n", r.Name, r.Description)
	}
}

func cmdInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	domain := fs.String("domain", "example.com", "base domain")
	email := fs.String("email", "admin@example.com", "ops email for ACME")
	deployment := fs.String("deployment", DeployDirect, "deployment type: direct, tailscale, or cloudflare")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !ValidDeploymentType(*deployment) {
		return errors.New("--deployment must be one of: direct, tailscale, cloudflare")
	}

	cfg := LoadConfig()
	cfg.Domain = *domain
	cfg.Email = *email
	cfg.DeploymentType = *deployment

	return RunInit(cfg)
}

func cmdEnableDisable(args []string, enable bool) error {
	if len(args) == 0 {
		return errors.New("service is required")
	}
	service := args[0]
	if _, ok := ServiceCatalog[service]; !ok {
		return fmt.Errorf("unknown service: %s", service)
	}

	cfg := LoadConfig()
	current, err := LoadEnabled(cfg)
	if err != nil {
		return err
	}

	changed := false
	if enable {
		if !contains(current.Services, service) {
			current.Services = append(current.Services, service)
			changed = true
		}
	} else {
		filtered := make([]string, 0, len(current.Services))
		for _, item := range current.Services {
			if item != service {
				filtered = append(filtered, item)
			}
		}
		if len(filtered) != len(current.Services) {
			current.Services = filtered
			changed = true
		}
	}

	sort.Strings(current.Services)
	if err := WriteEnabled(cfg, current); err != nil {
		return err
	}

	verb := "already disabled"
	if enable {
		verb = "already enabled"
	}
	if changed {
		if enable {
			verb = "enabled"
		} else {
			verb = "disabled"
		}
	}

	fmt.Printf("%s %s\n", service, verb)
	fmt.Println("run: homelabctl apply")
	return nil
}

func cmdApply(args []string) error {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := LoadConfig()
	if err := HydrateFromDotEnv(&cfg); err != nil {
		return err
	}

	services, err := LoadEnabledServices(cfg)
	if err != nil {
		return err
	}

	if err := writeCompose(cfg, services); err != nil {
		return err
	}
	if err := syncServiceAssets(cfg); err != nil {
		return err
	}

	composeArgs := ComposeBaseArgs(cfg)
	for _, service := range services {
		composeArgs = append(composeArgs, "--profile", service)
	}
	composeArgs = append(composeArgs, "up", "-d", "--remove-orphans")

	if err := RunCmdStream("docker", composeArgs...); err != nil {
		return err
	}

	for _, service := range services {
		WaitForCoreService(cfg, service, defaultWaitAttempts, defaultWaitDelay)
	}

	fmt.Printf("applied with services: %s\n", strings.Join(services, ", "))
	return nil
}

func cmdStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := LoadConfig()
	if err := HydrateFromDotEnv(&cfg); err != nil {
		return err
	}

	services, err := LoadEnabledServices(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("homelab root: %s\n", cfg.HomelabRoot)
	fmt.Printf("deployment: %s\n", cfg.DeploymentType)
	fmt.Printf("enabled services: %s\n", strings.Join(services, ", "))

	composeArgs := ComposeBaseArgs(cfg)
	composeArgs = append(composeArgs, "ps")
	output, cmdErr := RunCmdCapture("docker", composeArgs...)
	if cmdErr != nil {
		fmt.Println("docker compose status unavailable:")
		fmt.Println(strings.TrimSpace(output))
		return nil
	}
	fmt.Println(output)
	return nil
}

func cmdHealth(args []string) error {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := LoadConfig()
	if err := HydrateFromDotEnv(&cfg); err != nil {
		return err
	}
	return RunHealth(cfg)
}

func cmdRole(args []string) error {
	if len(args) == 0 {
		return errors.New("role action is required")
	}
	action := args[0]
	args = args[1:]

	fs := flag.NewFlagSet("role", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "skip confirmation prompts")
	volumes := fs.Bool("volumes", false, "also remove named volumes on uninstall")
	tail := fs.Int("tail", 100, "log lines to show")
	follow := fs.Bool("follow", false, "follow log output")

	// Positional args come before flags: role install mysql dev --yes
	var positional []string
	for len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		positional = append(positional, args[0])
		args = args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := LoadConfig()
	if err := HydrateFromDotEnv(&cfg); err != nil && action != "list" {
		return err
	}

	if action == "list" {
		return roleList(cfg)
	}

	if len(positional) == 0 {
		return errors.New("role name is required")
	}
	role := positional[0]
	if _, ok := RoleCatalog[role]; !ok {
		return fmt.Errorf("unknown role: %s", role)
	}

	single := func(name string) (func(string) error, bool) {
		switch name {
		case "install":
			return func(inst string) error { return InstallInstance(cfg, role, inst) }, true
		case "uninstall":
			return func(inst string) error { return UninstallInstance(cfg, role, inst, *volumes) }, true
		case "status":
			return func(inst string) error { return InstanceStatus(cfg, role, inst) }, true
		}
		return nil, false
	}

	switch action {
	case "install", "uninstall", "status", "logs", "update", "config":
		if len(positional) < 2 {
			return fmt.Errorf("instance name is required for role %s", action)
		}
		instance := positional[1]
		switch action {
		case "install":
			return InstallInstance(cfg, role, instance)
		case "uninstall":
			if !*yes && !prompter.YN(fmt.Sprintf("Uninstall %s and delete its directory?", InstanceProject(role, instance)), false) {
				return nil
			}
			return UninstallInstance(cfg, role, instance, *volumes)
		case "status":
			return InstanceStatus(cfg, role, instance)
		case "logs":
			return InstanceLogs(cfg, role, instance, *tail, *follow)
		case "update":
			return UpdateInstance(cfg, role, instance)
		case "config":
			return InstanceConfig(cfg, role, instance)
		}

	case "install-all", "status-all", "uninstall-all":
		base := strings.TrimSuffix(action, "-all")
		if base == "uninstall" && !*yes &&
			!prompter.YN(fmt.Sprintf("Uninstall ALL declared %s instances?", role), false) {
			return nil
		}
		fn, _ := single(base)
		res, err := ForEachDeclaredInstance(role, fn)
		if err != nil {
			return err
		}
		fmt.Printf("%s %d/%d %s actions succeeded\n",
			color.GreenString("✓"), res.Succeeded, res.Total, base)
		if res.AllFailed() {
			return fmt.Errorf("all %s actions failed for role %s", base, role)
		}
		return nil
	}

	return fmt.Errorf("unknown role action: %s", action)
}

func cmdDNS(args []string) error {
	if len(args) == 0 {
		return errors.New("dns action is required")
	}
	action := args[0]
	args = args[1:]

	fs := flag.NewFlagSet("dns", flag.ContinueOnError)
	recType := fs.String("type", "A", "record type: A or CNAME")
	ttl := fs.Int("ttl", 1, "record TTL (1 = automatic)")
	proxied := fs.Bool("proxied", true, "proxy the record through Cloudflare")

	var positional []string
	for len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		positional = append(positional, args[0])
		args = args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := LoadConfig()
	if err := HydrateFromDotEnv(&cfg); err != nil {
		return err
	}
	if cfg.CFAPIToken == "" {
		return errors.New("CF_DNS_API_TOKEN is not set in .env")
	}
	if cfg.Domain == "" {
		return errors.New("DOMAIN is not set in .env")
	}

	ctx := context.Background()
	client := NewDNSClient(cfg.CFAPIToken)
	zoneID, err := client.ZoneID(ctx, cfg.Domain)
	if err != nil {
		return err
	}

	name := ""
	if len(positional) > 0 {
		name = FQDN(positional[0], cfg.Domain)
	}

	switch action {
	case "upsert":
		if len(positional) < 2 {
			return errors.New("usage: dns upsert <name> <content>")
		}
		rec, err := client.UpsertRecord(ctx, zoneID, DNSRecord{
			Type:    *recType,
			Name:    name,
			Content: positional[1],
			TTL:     *ttl,
			Proxied: *proxied,
		})
		if err != nil {
			return err
		}
		fmt.Printf("%s %s %s -> %s (proxied=%v)\n",
			color.GreenString("✓"), rec.Type, rec.Name, rec.Content, rec.Proxied)
		return nil

	case "list":
		records, err := client.ListRecords(ctx, zoneID, name)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("no records found")
			return nil
		}
		for _, r := range records {
			fmt.Printf("%-6s %-40s %-20s proxied=%v\n", r.Type, r.Name, r.Content, r.Proxied)
		}
		return nil

	case "delete":
		if name == "" {
			return errors.New("usage: dns delete <name>")
		}
		records, err := client.ListRecords(ctx, zoneID, name)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return fmt.Errorf("no dns record found for %s", name)
		}
		for _, r := range records {
			if err := client.DeleteRecord(ctx, zoneID, r.ID); err != nil {
				return err
			}
			fmt.Printf("%s deleted %s %s\n", color.GreenString("✓"), r.Type, r.Name)
		}
		return nil

	case "validate":
		if name == "" {
			return errors.New("usage: dns validate <name> [content]")
		}
		expected := ""
		if len(positional) > 1 {
			expected = positional[1]
		}
		if err := client.ValidateRecord(ctx, zoneID, name, expected); err != nil {
			return err
		}
		fmt.Printf("%s %s is valid\n", color.GreenString("✓"), name)
		return nil
	}

	return fmt.Errorf("unknown dns action: %s", action)
}

func cmdBackup(args []string) error {
	action := "create"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		action = args[0]
		args = args[1:]
	}

	fs := flag.NewFlagSet("backup", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "skip confirmation prompts")
	skipVolumes := fs.Bool("skip-volumes", false, "back up config files only")

	var positional []string
	for len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		positional = append(positional, args[0])
		args = args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := LoadConfig()
	if err := HydrateFromDotEnv(&cfg); err != nil {
		return err
	}

	switch action {
	case "create":
		path, err := CreateBackup(cfg, !*skipVolumes)
		if err != nil {
			return err
		}
		fmt.Printf("%s wrote %s\n", color.GreenString("✓"), path)
		return nil

	case "list":
		backups, err := ListBackups(cfg)
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			fmt.Println("no backups found")
			return nil
		}
		for _, b := range backups {
			fmt.Printf("%-40s %s  %8.1f MiB\n",
				b.Name, b.Timestamp.Format("2006-01-02 15:04:05"),
				float64(b.Size)/(1024*1024))
		}
		return nil

	case "restore":
		if len(positional) == 0 {
			return errors.New("usage: backup restore <archive>")
		}
		if !*yes && !prompter.YN("Restore will overwrite current config files. Continue?", false) {
			return nil
		}
		if err := RestoreBackup(cfg, positional[0], !*skipVolumes); err != nil {
			return err
		}
		fmt.Printf("%s restore complete\n", color.GreenString("✓"))
		return nil

	case "cleanup":
		removed, err := CleanupBackups(cfg, timeNow())
		if err != nil {
			return err
		}
		fmt.Printf("%s removed %d archives older than %d days\n",
			color.GreenString("✓"), removed, cfg.RetentionDays)
		return nil
	}

	return fmt.Errorf("unknown backup action: %s", action)
}

func roleList(cfg Config) error {
	fmt.Println("roles:")
	for _, name := range SortedRoleNames() {
		r := RoleCatalog[name]
		fmt.Printf("  - %-12s %s\n", r.Name, r.Description)

		tpl, err := LoadRoleTemplate(name)
		if err == nil && len(tpl.Instances) > 0 {
			fmt.Printf("    declared:  %s\n", strings.Join(tpl.Instances, ", "))
		}
		if installed := InstalledInstances(cfg, name); len(installed) > 0 {
			fmt.Printf("    installed: %s\n", strings.Join(installed, ", "))
		}
	}
	return nil
}
