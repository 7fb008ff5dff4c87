package homelab

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/fatih/color"
)

type CheckResult struct {
	Name string
	OK   bool
	Err  error
}

// RunChecks performs the host preflight used by both `doctor` and the TUI
// setup wizard.
func RunChecks() []CheckResult {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"docker binary", func() error {
			_, err := exec.LookPath("docker")
			return err
		}},
		{"docker compose", func() error {
			_, err := RunCmdCapture("docker", "compose", "version")
			return err
		}},
		{"docker daemon", func() error {
			_, err := RunCmdCapture("docker", "info")
			return err
		}},
		{"homelab root writable", func() error {
			return writableCheck(GetHomelabRoot())
		}},
		{"disk space >= 5GiB", func() error {
			return diskCheck(GetHomelabRoot(), 5)
		}},
		{"ports 80/443 status", func() error {
			out, err := RunCmdCapture("ss", "-ltn")
			if err != nil {
				return err
			}
			if strings.Contains(out, ":80 ") || strings.Contains(out, ":443 ") {
				return fmt.Errorf("ports 80/443 already in use")
			}
			return nil
		}},
		{"templates present", func() error {
			dir := FindTemplatesDir()
			if !fileExists(filepath.Join(dir, "base", "compose.base.yml")) {
				return fmt.Errorf("no base compose template under %s", dir)
			}
			return nil
		}},
	}

	results := make([]CheckResult, 0, len(checks))
	for _, check := range checks {
		err := check.fn()
		results = append(results, CheckResult{Name: check.name, OK: err == nil, Err: err})
	}
	return results
}

func RunDoctor() error {
	fmt.Println("homelabctl doctor")
	fmt.Printf("runtime: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	for _, r := range RunChecks() {
		if r.OK {
			fmt.Printf("[%s] %s\n", color.GreenString(" OK "), r.Name)
		} else {
			fmt.Printf("[%s] %s: %v\n", color.YellowString("WARN"), r.Name, r.Err)
		}
	}
	return nil
}

func writableCheck(dir string) error {
	if err := ensureDir(dir, 0o750); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "homelabctl-write-check-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}

func diskCheck(path string, minGiB uint64) error {
	if !DirExists(path) {
		path = filepath.Dir(path)
	}
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return err
	}
	free := (stat.Bavail * uint64(stat.Bsize)) / (1024 * 1024 * 1024)
	if free < minGiB {
		return fmt.Errorf("free space %dGiB < %dGiB", free, minGiB)
	}
	return nil
}
