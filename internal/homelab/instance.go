package homelab

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// InstallInstance materializes <instanceRoot>/<role>-<instance> from the
// role template and brings the stack up. The directory name doubles as the
// compose project name and must be unique.
func InstallInstance(cfg Config, role, instance string) error {
	info, ok := RoleCatalog[role]
	if !ok {
		return fmt.Errorf("unknown role: %s", role)
	}

	tpl, err := LoadRoleTemplate(role)
	if err != nil {
		return err
	}

	dir := InstancePath(cfg, role, instance)
	if DirExists(dir) {
		return fmt.Errorf("instance %s already exists at %s", InstanceProject(role, instance), dir)
	}

	if err := materializeInstance(cfg, role, instance, tpl); err != nil {
		return err
	}

	project := InstanceProject(role, instance)
	args := InstanceComposeArgs(dir, project)
	args = append(args, "up", "-d")
	if err := RunCmdStream("docker", args...); err != nil {
		// Best-effort teardown so a half-started stack doesn't linger.
		downArgs := InstanceComposeArgs(dir, project)
		downArgs = append(downArgs, "down")
		_ = RunCmdStream("docker", downArgs...)
		return fmt.Errorf("compose up for %s: %w", project, err)
	}

	WaitForInstanceService(dir, project, info.Service, defaultWaitAttempts, defaultWaitDelay)

	fmt.Printf("%s installed %s at %s\n", color.GreenString("✓"), project, dir)
	return nil
}

func materializeInstance(cfg Config, role, instance string, tpl RoleTemplate) error {
	srcDir := filepath.Join(FindTemplatesDir(), "roles", role)
	dir := InstancePath(cfg, role, instance)

	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return ensureDir(dir, 0o750)
		}
		if d.IsDir() {
			return ensureDir(filepath.Join(dir, rel), 0o750)
		}
		if filepath.Base(path) == ".env.example" {
			return nil
		}
		return copyFile(path, filepath.Join(dir, rel))
	})
	if err != nil {
		return fmt.Errorf("copy role template %s: %w", role, err)
	}

	for _, sub := range []string{"data", "config", "logs"} {
		if err := ensureDir(filepath.Join(dir, sub), 0o750); err != nil {
			return err
		}
	}

	env := tpl.InstanceEnv(role, instance)
	return os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o640)
}

// UninstallInstance stops the stack and removes the instance directory.
func UninstallInstance(cfg Config, role, instance string, removeVolumes bool) error {
	dir := InstancePath(cfg, role, instance)
	project := InstanceProject(role, instance)
	if !DirExists(dir) {
		return fmt.Errorf("instance %s not found at %s", project, dir)
	}

	args := InstanceComposeArgs(dir, project)
	args = append(args, "down")
	if removeVolumes {
		args = append(args, "--volumes")
	}
	if err := RunCmdStream("docker", args...); err != nil {
		return fmt.Errorf("compose down for %s: %w", project, err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove instance dir: %w", err)
	}
	fmt.Printf("%s uninstalled %s\n", color.GreenString("✓"), project)
	return nil
}

func InstanceStatus(cfg Config, role, instance string) error {
	dir := InstancePath(cfg, role, instance)
	project := InstanceProject(role, instance)
	if !DirExists(dir) {
		return fmt.Errorf("instance %s not found at %s", project, dir)
	}
	args := InstanceComposeArgs(dir, project)
	args = append(args, "ps")
	return RunCmdStream("docker", args...)
}

func InstanceLogs(cfg Config, role, instance string, tail int, follow bool) error {
	dir := InstancePath(cfg, role, instance)
	project := InstanceProject(role, instance)
	if !DirExists(dir) {
		return fmt.Errorf("instance %s not found at %s", project, dir)
	}
	args := InstanceComposeArgs(dir, project)
	args = append(args, "logs", "--tail", fmt.Sprintf("%d", tail))
	if follow {
		args = append(args, "-f")
	}
	return RunCmdStream("docker", args...)
}

// UpdateInstance pulls fresh images and recreates changed containers.
func UpdateInstance(cfg Config, role, instance string) error {
	dir := InstancePath(cfg, role, instance)
	project := InstanceProject(role, instance)
	if !DirExists(dir) {
		return fmt.Errorf("instance %s not found at %s", project, dir)
	}
	args := InstanceComposeArgs(dir, project)
	pullArgs := append(append([]string{}, args...), "pull")
	if err := RunCmdStream("docker", pullArgs...); err != nil {
		return fmt.Errorf("compose pull for %s: %w", project, err)
	}
	upArgs := append(append([]string{}, args...), "up", "-d")
	if err := RunCmdStream("docker", upArgs...); err != nil {
		return fmt.Errorf("compose up for %s: %w", project, err)
	}
	fmt.Printf("%s updated %s\n", color.GreenString("✓"), project)
	return nil
}

// InstanceConfig prints the generated .env with secret values masked.
func InstanceConfig(cfg Config, role, instance string) error {
	dir := InstancePath(cfg, role, instance)
	project := InstanceProject(role, instance)
	path := filepath.Join(dir, ".env")
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("instance %s has no generated config: %w", project, err)
	}

	fmt.Printf("config for %s (%s)\n", project, path)
	for _, line := range strings.Split(string(b), "\n") {
		key, value, ok := splitEnvLine(line)
		if !ok {
			fmt.Println(line)
			continue
		}
		if isSecretKey(key) && value != "" {
			fmt.Printf("%s=********\n", key)
		} else {
			fmt.Printf("%s=%s\n", key, value)
		}
	}
	return nil
}

func isSecretKey(key string) bool {
	upper := strings.ToUpper(key)
	for _, marker := range []string{"PASSWORD", "SECRET", "TOKEN", "AUTHKEY"} {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

// BatchResult tallies a *-all action over a role's declared instances.
// There is no rollback across the batch; failures are reported and the
// iteration keeps going.
type BatchResult struct {
	Succeeded int
	Total     int
}

func (r BatchResult) AllFailed() bool {
	return r.Total > 0 && r.Succeeded == 0
}

func ForEachDeclaredInstance(role string, fn func(instance string) error) (BatchResult, error) {
	tpl, err := LoadRoleTemplate(role)
	if err != nil {
		return BatchResult{}, err
	}
	if len(tpl.Instances) == 0 {
		return BatchResult{}, fmt.Errorf("role %s declares no INSTANCES", role)
	}

	res := BatchResult{Total: len(tpl.Instances)}
	for _, instance := range tpl.Instances {
		if err := fn(instance); err != nil {
			fmt.Printf("%s %s: %v\n", color.RedString("✗"), InstanceProject(role, instance), err)
			continue
		}
		res.Succeeded++
	}
	return res, nil
}
