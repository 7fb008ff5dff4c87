package homelab

import (
	"fmt"
	"os"
	"path/filepath"
)

// RunInit scaffolds the stack: directory roots, .env from the rendered
// template, default enabled services for the deployment type, and the
// first merged compose file. Existing files are never overwritten.
func RunInit(cfg Config) error {
	for _, dir := range []string{cfg.HomelabRoot, cfg.InstanceRoot, cfg.BackupRoot} {
		if err := ensureDir(dir, 0o750); err != nil {
			return err
		}
	}

	if err := ensureDotEnv(cfg); err != nil {
		return err
	}
	if err := ensureDefaultEnabled(cfg); err != nil {
		return err
	}
	if err := ensureComposeOverride(cfg); err != nil {
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

	fmt.Printf("initialized homelab at %s\n", cfg.HomelabRoot)
	fmt.Println("next: homelabctl apply")
	return nil
}

func ensureDotEnv(cfg Config) error {
	target := filepath.Join(cfg.HomelabRoot, ".env")
	if _, err := os.Stat(target); err == nil {
		return nil
	}

	tplPath := filepath.Join(FindTemplatesDir(), ".env.example")
	text, err := renderFile(tplPath, cfg.RenderData())
	if err != nil {
		return fmt.Errorf("render .env template: %w", err)
	}
	return os.WriteFile(target, []byte(text), 0o640)
}

func ensureDefaultEnabled(cfg Config) error {
	path := filepath.Join(cfg.HomelabRoot, "enabled.yml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	services := defaultServices[cfg.DeploymentType]
	if services == nil {
		services = defaultServices[DeployDirect]
	}
	def := EnabledConfig{Services: append([]string{}, services...)}
	return WriteEnabled(cfg, def)
}

func ensureComposeOverride(cfg Config) error {
	target := filepath.Join(cfg.HomelabRoot, "compose.override.yml")
	if _, err := os.Stat(target); err == nil {
		return nil
	}

	tplPath := filepath.Join(FindTemplatesDir(), "base", "compose.override.yml")
	content, err := os.ReadFile(tplPath)
	if err != nil {
		return err
	}
	return os.WriteFile(target, content, 0o640)
}
