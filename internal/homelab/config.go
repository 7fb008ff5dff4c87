package homelab

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultHomelabRoot = "/srv/homelab"

	DeployDirect     = "direct"
	DeployTailscale  = "tailscale"
	DeployCloudflare = "cloudflare"
)

type Config struct {
	HomelabRoot    string
	InstanceRoot   string
	BackupRoot     string
	Domain         string
	Email          string
	DeploymentType string
	CFAPIToken     string
	TSAuthKey      string
	RetentionDays  int
}

func (cfg Config) RenderData() RenderData {
	return RenderData{
		Domain:         cfg.Domain,
		Email:          cfg.Email,
		DeploymentType: cfg.DeploymentType,
		NetworkName:    "homelab_net",
		HomelabRoot:    cfg.HomelabRoot,
		InstanceRoot:   cfg.InstanceRoot,
		BackupRoot:     cfg.BackupRoot,
	}
}

func LoadConfig() Config {
	root := GetHomelabRoot()
	return Config{
		HomelabRoot:   root,
		InstanceRoot:  getInstanceRoot(root),
		BackupRoot:    getBackupRoot(root),
		RetentionDays: 7,
	}
}

// HydrateFromDotEnv fills the config from the stack .env without clobbering
// values already set by flags.
func HydrateFromDotEnv(cfg *Config) error {
	m, err := ReadDotEnv(filepath.Join(cfg.HomelabRoot, ".env"))
	if err != nil {
		return err
	}
	if cfg.Domain == "" {
		cfg.Domain = m["DOMAIN"]
	}
	if cfg.Email == "" {
		cfg.Email = m["ACME_EMAIL"]
	}
	if cfg.DeploymentType == "" {
		cfg.DeploymentType = m["DEPLOYMENT_TYPE"]
	}
	if cfg.CFAPIToken == "" {
		cfg.CFAPIToken = m["CF_DNS_API_TOKEN"]
	}
	if cfg.TSAuthKey == "" {
		cfg.TSAuthKey = m["TS_AUTHKEY"]
	}
	if v := strings.TrimSpace(m["BACKUP_RETENTION_DAYS"]); v != "" {
		var days int
		if _, err := fmt.Sscanf(v, "%d", &days); err == nil && days > 0 {
			cfg.RetentionDays = days
		}
	}
	return nil
}

func ValidDeploymentType(dt string) bool {
	return dt == DeployDirect || dt == DeployTailscale || dt == DeployCloudflare
}

func ReadDotEnv(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	vars := map[string]string{}
	s := bufio.NewScanner(file)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		k := strings.TrimSpace(parts[0])
		v := strings.Trim(strings.TrimSpace(parts[1]), "\"")
		vars[k] = v
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return vars, nil
}

func WriteDotEnv(path string, vars map[string]string) error {
	// Read original file to preserve comments and ordering
	file, err := os.Open(path)
	if err != nil {
		// File doesn't exist, write all vars
		var b strings.Builder
		for k, v := range vars {
			b.WriteString(k + "=" + v + "\n")
		}
		return os.WriteFile(path, []byte(b.String()), 0o640)
	}
	defer file.Close()

	written := map[string]bool{}
	var lines []string
	s := bufio.NewScanner(file)
	for s.Scan() {
		line := s.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			lines = append(lines, line)
			continue
		}
		parts := strings.SplitN(trimmed, "=", 2)
		if len(parts) != 2 {
			lines = append(lines, line)
			continue
		}
		key := strings.TrimSpace(parts[0])
		if newVal, ok := vars[key]; ok {
			lines = append(lines, key+"="+newVal)
			written[key] = true
		} else {
			lines = append(lines, line)
		}
	}
	if err := s.Err(); err != nil {
		return err
	}
	file.Close()

	// Append any new keys that weren't in original file
	for k, v := range vars {
		if !written[k] {
			lines = append(lines, k+"="+v)
		}
	}

	content := strings.Join(lines, "\n") + "\n"
	return os.WriteFile(path, []byte(content), 0o640)
}

// Initialized reports whether a stack has been scaffolded at the root.
func Initialized() bool {
	return DirExists(GetHomelabRoot()) &&
		fileExists(filepath.Join(GetHomelabRoot(), ".env"))
}

func GetHomelabRoot() string {
	if v := strings.TrimSpace(os.Getenv("HOMELAB_ROOT")); v != "" {
		return v
	}
	return defaultHomelabRoot
}

func getInstanceRoot(root string) string {
	if v := strings.TrimSpace(os.Getenv("HOMELAB_INSTANCE_ROOT")); v != "" {
		return v
	}
	return filepath.Join(root, "instances")
}

func getBackupRoot(root string) string {
	if v := strings.TrimSpace(os.Getenv("HOMELAB_BACKUP_ROOT")); v != "" {
		return v
	}
	return filepath.Join(root, "backups")
}
