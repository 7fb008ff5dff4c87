package homelab

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

func writeCompose(cfg Config, enabledServices []string) error {
	templates := FindTemplatesDir()
	data := cfg.RenderData()

	basePath := filepath.Join(templates, "base", "compose.base.yml")
	rendered, err := renderFile(basePath, data)
	if err != nil {
		return err
	}

	merged := map[string]any{}
	if err := yaml.Unmarshal([]byte(rendered), &merged); err != nil {
		return err
	}

	// Only merge enabled services, not the whole catalog.
	for _, service := range enabledServices {
		svcPath := filepath.Join(templates, "services", service, "compose.yml")
		if _, err := os.Stat(svcPath); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		svcRendered, err := renderFile(svcPath, data)
		if err != nil {
			return fmt.Errorf("render service %s compose: %w", service, err)
		}
		var overlay map[string]any
		if err := yaml.Unmarshal([]byte(svcRendered), &overlay); err != nil {
			return fmt.Errorf("parse service %s compose: %w", service, err)
		}
		deepMerge(merged, overlay)
	}

	if _, ok := merged["x-homelab"]; !ok {
		merged["x-homelab"] = map[string]any{}
	}
	x := merged["x-homelab"].(map[string]any)
	x["enabled_services"] = enabledServices
	x["deployment_type"] = cfg.DeploymentType
	x["generated_at"] = time.Now().UTC().Format(time.RFC3339)

	out, err := yaml.Marshal(merged)
	if err != nil {
		return err
	}

	target := filepath.Join(cfg.HomelabRoot, "compose.yml")
	return os.WriteFile(target, out, 0o640)
}

func deepMerge(dst, src map[string]any) {
	for k, v := range src {
		existing, exists := dst[k]
		if !exists {
			dst[k] = v
			continue
		}

		dstMap, dstMapOK := existing.(map[string]any)
		srcMap, srcMapOK := v.(map[string]any)
		if dstMapOK && srcMapOK {
			deepMerge(dstMap, srcMap)
			continue
		}

		dstSlice, dstSliceOK := existing.([]any)
		srcSlice, srcSliceOK := v.([]any)
		if dstSliceOK && srcSliceOK {
			dst[k] = append(dstSlice, srcSlice...)
			continue
		}

		dst[k] = v
	}
}

func syncServiceAssets(cfg Config) error {
	templates := FindTemplatesDir()
	servicesDir := filepath.Join(templates, "services")
	entries, err := os.ReadDir(servicesDir)
	if err != nil {
		return nil
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		serviceName := entry.Name()
		srcDir := filepath.Join(servicesDir, serviceName)
		dstDir := filepath.Join(cfg.HomelabRoot, serviceName)

		err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			rel, err := filepath.Rel(srcDir, path)
			if err != nil {
				return err
			}
			if rel == "." {
				return nil
			}
			if d.IsDir() {
				return ensureDir(filepath.Join(dstDir, rel), 0o750)
			}
			if filepath.Base(path) == "compose.yml" {
				return nil
			}

			target := filepath.Join(dstDir, rel)
			if _, err := os.Stat(target); err == nil {
				return nil
			}
			return copyFile(path, target)
		})
		if err != nil {
			return fmt.Errorf("sync service assets for %s: %w", serviceName, err)
		}
	}
	return nil
}

// ComposeBaseArgs builds the docker compose argument prefix for the core
// stack.
func ComposeBaseArgs(cfg Config) []string {
	return []string{
		"compose",
		"-f", filepath.Join(cfg.HomelabRoot, "compose.yml"),
		"-f", filepath.Join(cfg.HomelabRoot, "compose.override.yml"),
		"--env-file", filepath.Join(cfg.HomelabRoot, ".env"),
		"-p", "homelab",
	}
}

// InstanceComposeArgs builds the docker compose argument prefix for one
// role instance. The project name doubles as the instance directory name.
func InstanceComposeArgs(dir, project string) []string {
	return []string{
		"compose",
		"-f", filepath.Join(dir, "compose.yml"),
		"--env-file", filepath.Join(dir, ".env"),
		"-p", project,
	}
}

func ComposeServiceExists(cfg Config, service string) bool {
	args := ComposeBaseArgs(cfg)
	args = append(args, "config", "--services")
	out, err := RunCmdCapture("docker", args...)
	if err != nil {
		return false
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == service {
			return true
		}
	}
	return false
}

func ComposeServiceRunning(cfg Config, service string) bool {
	args := ComposeBaseArgs(cfg)
	args = append(args, "ps", "-q", service)
	out, err := RunCmdCapture("docker", args...)
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) != ""
}
