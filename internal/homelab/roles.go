package homelab

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type RoleInfo struct {
	Name        string
	Description string
	// Service is the compose service polled for readiness after install.
	Service string
	// Volumes are the named volumes included in backups.
	Volumes []string
}

var RoleCatalog = map[string]RoleInfo{
	"mysql": {
		Name:        "mysql",
		Description: "MySQL database server",
		Service:     "mysql",
		Volumes:     []string{"mysql_data"},
	},
	"postgres": {
		Name:        "postgres",
		Description: "PostgreSQL database server",
		Service:     "postgres",
		Volumes:     []string{"postgres_data"},
	},
	"wordpress": {
		Name:        "wordpress",
		Description: "WordPress site with bundled MariaDB",
		Service:     "wordpress",
		Volumes:     []string{"wordpress_data", "wordpress_db"},
	},
}

// RoleTemplate is the structured form of a role's .env.example: ordered
// defaults, the declared instance list, and per-instance overrides. The
// original tooling derived overrides by regex-matching `<instance>_<KEY>`
// lines against flat text; parsing once into this shape keeps the same
// observable semantics.
type RoleTemplate struct {
	Instances []string
	Keys      []string
	Defaults  map[string]string
	Overrides map[string]map[string]string
}

func LoadRoleTemplate(role string) (RoleTemplate, error) {
	path := filepath.Join(FindTemplatesDir(), "roles", role, ".env.example")
	b, err := os.ReadFile(path)
	if err != nil {
		return RoleTemplate{}, fmt.Errorf("read role template for %s: %w", role, err)
	}
	return ParseRoleTemplate(string(b))
}

func ParseRoleTemplate(content string) (RoleTemplate, error) {
	tpl := RoleTemplate{
		Defaults:  map[string]string{},
		Overrides: map[string]map[string]string{},
	}

	lines := strings.Split(content, "\n")

	// First pass: the INSTANCES declaration decides which prefixes are
	// instance overrides in the second pass.
	for _, line := range lines {
		key, value, ok := splitEnvLine(line)
		if !ok || key != "INSTANCES" {
			continue
		}
		tpl.Instances = ParseInstanceList(value)
	}

	for _, line := range lines {
		key, value, ok := splitEnvLine(line)
		if !ok || key == "INSTANCES" {
			continue
		}

		if instance, baseKey, ok := splitOverrideKey(key, tpl.Instances); ok {
			if tpl.Overrides[instance] == nil {
				tpl.Overrides[instance] = map[string]string{}
			}
			tpl.Overrides[instance][baseKey] = value
			continue
		}

		if _, seen := tpl.Defaults[key]; !seen {
			tpl.Keys = append(tpl.Keys, key)
		}
		tpl.Defaults[key] = value
	}

	return tpl, nil
}

// ParseInstanceList splits a comma-separated INSTANCES declaration,
// trimming whitespace and dropping empty entries.
func ParseInstanceList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func splitEnvLine(line string) (key, value string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	key = strings.TrimSpace(parts[0])
	value = strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", false
	}
	return key, value, true
}

func splitOverrideKey(key string, instances []string) (instance, baseKey string, ok bool) {
	for _, inst := range instances {
		prefix := inst + "_"
		if strings.HasPrefix(key, prefix) && len(key) > len(prefix) {
			return inst, key[len(prefix):], true
		}
	}
	return "", "", false
}

// InstanceEnv renders the .env for one instance: defaults in declaration
// order with that instance's overrides applied, then the generated fields.
func (tpl RoleTemplate) InstanceEnv(role, instance string) string {
	var b strings.Builder
	overrides := tpl.Overrides[instance]

	for _, key := range tpl.Keys {
		value := tpl.Defaults[key]
		if ov, ok := overrides[key]; ok {
			value = ov
		}
		b.WriteString(key + "=" + value + "\n")
	}

	b.WriteString("\n# generated by homelabctl\n")
	b.WriteString("INSTANCE_NAME=" + instance + "\n")
	b.WriteString("COMPOSE_PROJECT_NAME=" + InstanceProject(role, instance) + "\n")
	b.WriteString("INSTANCE_SUBDOMAIN=" + instance + "\n")
	return b.String()
}

func InstanceProject(role, instance string) string {
	return role + "-" + instance
}

func InstancePath(cfg Config, role, instance string) string {
	return filepath.Join(cfg.InstanceRoot, InstanceProject(role, instance))
}

// InstanceDir resolves an instance directory from its project name alone,
// for callers that scan the instance root rather than compute role+instance.
func InstanceDir(cfg Config, project string) string {
	return filepath.Join(cfg.InstanceRoot, project)
}

func SortedRoleNames() []string {
	names := make([]string, 0, len(RoleCatalog))
	for name := range RoleCatalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InstalledInstances scans the instance root for directories belonging to
// the given role, or to any role when role is empty.
func InstalledInstances(cfg Config, role string) []string {
	entries, err := os.ReadDir(cfg.InstanceRoot)
	if err != nil {
		return nil
	}
	var out []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if role == "" {
			if roleOf(name) != "" {
				out = append(out, name)
			}
			continue
		}
		if strings.HasPrefix(name, role+"-") {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func roleOf(instanceDir string) string {
	for name := range RoleCatalog {
		if strings.HasPrefix(instanceDir, name+"-") {
			return name
		}
	}
	return ""
}
