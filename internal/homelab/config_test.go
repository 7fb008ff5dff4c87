package homelab

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := `# stack config
DOMAIN=example.com
ACME_EMAIL=ops@example.com

QUOTED="hello world"
BROKEN LINE
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o640))

	vars, err := ReadDotEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "example.com", vars["DOMAIN"])
	assert.Equal(t, "ops@example.com", vars["ACME_EMAIL"])
	assert.Equal(t, "hello world", vars["QUOTED"])
	assert.NotContains(t, vars, "BROKEN LINE")
}

func TestWriteDotEnvPreservesCommentsAndOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := `# leading comment
DOMAIN=old.example.com

# retention
BACKUP_RETENTION_DAYS=7
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o640))

	err := WriteDotEnv(path, map[string]string{
		"DOMAIN": "new.example.com",
		"NEW":    "value",
	})
	require.NoError(t, err)

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "# leading comment\n")
	assert.Contains(t, text, "# retention\n")
	assert.Contains(t, text, "DOMAIN=new.example.com\n")
	assert.Contains(t, text, "BACKUP_RETENTION_DAYS=7\n")
	// New keys are appended after the original content.
	assert.Contains(t, text, "NEW=value\n")
	assert.Less(t, strings.Index(text, "DOMAIN="), strings.Index(text, "NEW="))
}

func TestWriteDotEnvCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	require.NoError(t, WriteDotEnv(path, map[string]string{"A": "1"}))

	vars, err := ReadDotEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "1", vars["A"])
}

func TestHydrateFromDotEnv(t *testing.T) {
	root := t.TempDir()
	content := `DOMAIN=example.com
ACME_EMAIL=ops@example.com
DEPLOYMENT_TYPE=cloudflare
CF_DNS_API_TOKEN=tok-123
TS_AUTHKEY=tskey-abc
BACKUP_RETENTION_DAYS=14
`
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte(content), 0o640))

	cfg := Config{HomelabRoot: root, RetentionDays: 7}
	require.NoError(t, HydrateFromDotEnv(&cfg))

	assert.Equal(t, "example.com", cfg.Domain)
	assert.Equal(t, "ops@example.com", cfg.Email)
	assert.Equal(t, DeployCloudflare, cfg.DeploymentType)
	assert.Equal(t, "tok-123", cfg.CFAPIToken)
	assert.Equal(t, "tskey-abc", cfg.TSAuthKey)
	assert.Equal(t, 14, cfg.RetentionDays)
}

func TestHydrateDoesNotClobberFlags(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"),
		[]byte("DOMAIN=env.example.com\n"), 0o640))

	cfg := Config{HomelabRoot: root, Domain: "flag.example.com", RetentionDays: 7}
	require.NoError(t, HydrateFromDotEnv(&cfg))
	assert.Equal(t, "flag.example.com", cfg.Domain)
}

func TestLoadConfigRespectsEnvOverrides(t *testing.T) {
	t.Setenv("HOMELAB_ROOT", "/tmp/lab")
	t.Setenv("HOMELAB_INSTANCE_ROOT", "/tmp/lab-instances")
	t.Setenv("HOMELAB_BACKUP_ROOT", "")

	cfg := LoadConfig()
	assert.Equal(t, "/tmp/lab", cfg.HomelabRoot)
	assert.Equal(t, "/tmp/lab-instances", cfg.InstanceRoot)
	assert.Equal(t, filepath.Join("/tmp/lab", "backups"), cfg.BackupRoot)
	assert.Equal(t, 7, cfg.RetentionDays)
}

func TestValidDeploymentType(t *testing.T) {
	assert.True(t, ValidDeploymentType(DeployDirect))
	assert.True(t, ValidDeploymentType(DeployTailscale))
	assert.True(t, ValidDeploymentType(DeployCloudflare))
	assert.False(t, ValidDeploymentType("vpn"))
	assert.False(t, ValidDeploymentType(""))
}
