package homelab

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRoleFixture(t *testing.T, role, envExample string) string {
	t.Helper()
	dir := t.TempDir()
	roleDir := filepath.Join(dir, "roles", role)
	require.NoError(t, os.MkdirAll(roleDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(roleDir, "compose.yml"),
		[]byte("services:\n  "+role+":\n    image: "+role+":latest\n"), 0o640))
	require.NoError(t, os.WriteFile(filepath.Join(roleDir, ".env.example"),
		[]byte(envExample), 0o640))
	return dir
}

func TestMaterializeInstance(t *testing.T) {
	templates := writeRoleFixture(t, "mysql", mysqlTemplate)
	t.Setenv("HOMELAB_TEMPLATES", templates)

	cfg := Config{InstanceRoot: filepath.Join(t.TempDir(), "instances")}
	tpl, err := LoadRoleTemplate("mysql")
	require.NoError(t, err)

	require.NoError(t, materializeInstance(cfg, "mysql", "dev", tpl))

	dir := InstancePath(cfg, "mysql", "dev")
	assert.FileExists(t, filepath.Join(dir, "compose.yml"))
	assert.NoFileExists(t, filepath.Join(dir, ".env.example"))
	assert.DirExists(t, filepath.Join(dir, "data"))
	assert.DirExists(t, filepath.Join(dir, "config"))
	assert.DirExists(t, filepath.Join(dir, "logs"))

	env, err := os.ReadFile(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Contains(t, string(env), "MYSQL_ROOT_PASSWORD=secret\n")
	assert.Contains(t, string(env), "COMPOSE_PROJECT_NAME=mysql-dev\n")
}

func TestInstalledInstances(t *testing.T) {
	cfg := Config{InstanceRoot: t.TempDir()}
	for _, d := range []string{"mysql-dev", "mysql-prod", "postgres-dev", "not-a-role"} {
		require.NoError(t, os.MkdirAll(filepath.Join(cfg.InstanceRoot, d), 0o750))
	}
	// Plain files are skipped.
	require.NoError(t, os.WriteFile(filepath.Join(cfg.InstanceRoot, "mysql-file"), []byte("x"), 0o640))

	assert.Equal(t, []string{"mysql-dev", "mysql-prod"}, InstalledInstances(cfg, "mysql"))
	assert.Equal(t, []string{"mysql-dev", "mysql-prod", "postgres-dev"}, InstalledInstances(cfg, ""))
	assert.Empty(t, InstalledInstances(cfg, "wordpress"))
}

func TestIsSecretKey(t *testing.T) {
	assert.True(t, isSecretKey("MYSQL_ROOT_PASSWORD"))
	assert.True(t, isSecretKey("CF_DNS_API_TOKEN"))
	assert.True(t, isSecretKey("TS_AUTHKEY"))
	assert.True(t, isSecretKey("jwt_secret"))
	assert.False(t, isSecretKey("MYSQL_PORT"))
	assert.False(t, isSecretKey("DOMAIN"))
}

func TestForEachDeclaredInstanceContinuesOnFailure(t *testing.T) {
	templates := writeRoleFixture(t, "mysql", mysqlTemplate)
	t.Setenv("HOMELAB_TEMPLATES", templates)

	var seen []string
	res, err := ForEachDeclaredInstance("mysql", func(inst string) error {
		seen = append(seen, inst)
		if inst == "qa" {
			return assert.AnError
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"dev", "qa", "prod"}, seen)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 3, res.Total)
	assert.False(t, res.AllFailed())
}

func TestForEachDeclaredInstanceNoInstances(t *testing.T) {
	templates := writeRoleFixture(t, "mysql", "MYSQL_PORT=3306\n")
	t.Setenv("HOMELAB_TEMPLATES", templates)

	_, err := ForEachDeclaredInstance("mysql", func(string) error { return nil })
	assert.ErrorContains(t, err, "declares no INSTANCES")
}

func TestBatchResultAllFailed(t *testing.T) {
	assert.True(t, BatchResult{Succeeded: 0, Total: 3}.AllFailed())
	assert.False(t, BatchResult{Succeeded: 1, Total: 3}.AllFailed())
	assert.False(t, BatchResult{}.AllFailed())
}
