package homelab

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInitFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.example"),
		[]byte("DOMAIN={{.Domain}}\nACME_EMAIL={{.Email}}\nDEPLOYMENT_TYPE={{.DeploymentType}}\n"), 0o640))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "base"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base", "compose.base.yml"),
		[]byte("networks:\n  {{.NetworkName}}:\n    name: {{.NetworkName}}\n"), 0o640))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base", "compose.override.yml"),
		[]byte("services: {}\n"), 0o640))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "services", "traefik"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "services", "traefik", "compose.yml"),
		[]byte("services:\n  traefik:\n    image: traefik:v3.1\n"), 0o640))

	return dir
}

func TestRunInitScaffoldsStack(t *testing.T) {
	templates := writeInitFixture(t)
	t.Setenv("HOMELAB_TEMPLATES", templates)

	root := t.TempDir()
	cfg := Config{
		HomelabRoot:    root,
		InstanceRoot:   filepath.Join(root, "instances"),
		BackupRoot:     filepath.Join(root, "backups"),
		Domain:         "example.com",
		Email:          "ops@example.com",
		DeploymentType: DeployDirect,
		RetentionDays:  7,
	}

	require.NoError(t, RunInit(cfg))

	assert.DirExists(t, cfg.InstanceRoot)
	assert.DirExists(t, cfg.BackupRoot)

	env, err := os.ReadFile(filepath.Join(root, ".env"))
	require.NoError(t, err)
	assert.Contains(t, string(env), "DOMAIN=example.com\n")
	assert.Contains(t, string(env), "DEPLOYMENT_TYPE=direct\n")

	enabled, err := LoadEnabled(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"traefik"}, enabled.Services)

	assert.FileExists(t, filepath.Join(root, "compose.yml"))
	assert.FileExists(t, filepath.Join(root, "compose.override.yml"))
}

func TestRunInitIsIdempotent(t *testing.T) {
	templates := writeInitFixture(t)
	t.Setenv("HOMELAB_TEMPLATES", templates)

	root := t.TempDir()
	cfg := Config{
		HomelabRoot:    root,
		InstanceRoot:   filepath.Join(root, "instances"),
		BackupRoot:     filepath.Join(root, "backups"),
		Domain:         "example.com",
		Email:          "ops@example.com",
		DeploymentType: DeployDirect,
	}

	require.NoError(t, RunInit(cfg))

	// Hand-edited files survive a second init.
	envPath := filepath.Join(root, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("DOMAIN=edited.example.com\n"), 0o640))

	require.NoError(t, RunInit(cfg))

	env, err := os.ReadFile(envPath)
	require.NoError(t, err)
	assert.Equal(t, "DOMAIN=edited.example.com\n", string(env))
}
