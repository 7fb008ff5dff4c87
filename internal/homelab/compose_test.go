package homelab

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"services": map[string]any{
			"traefik": map[string]any{"image": "traefik:v3.1"},
		},
		"volumes": []any{"a"},
		"scalar":  "old",
	}
	src := map[string]any{
		"services": map[string]any{
			"whoami": map[string]any{"image": "traefik/whoami"},
		},
		"volumes": []any{"b"},
		"scalar":  "new",
	}

	deepMerge(dst, src)

	services := dst["services"].(map[string]any)
	assert.Contains(t, services, "traefik")
	assert.Contains(t, services, "whoami")
	assert.Equal(t, []any{"a", "b"}, dst["volumes"])
	assert.Equal(t, "new", dst["scalar"])
}

func writeTemplateFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	base := `networks:
  {{.NetworkName}}:
    name: {{.NetworkName}}
`
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "base"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base", "compose.base.yml"), []byte(base), 0o640))

	svc := `services:
  whoami:
    image: traefik/whoami
    labels:
      - traefik.http.routers.whoami.rule=Host(` + "`whoami.{{.Domain}}`" + `)
`
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "services", "whoami"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "services", "whoami", "compose.yml"), []byte(svc), 0o640))

	return dir
}

func TestWriteCompose(t *testing.T) {
	templates := writeTemplateFixture(t)
	t.Setenv("HOMELAB_TEMPLATES", templates)

	root := t.TempDir()
	cfg := Config{
		HomelabRoot:    root,
		Domain:         "example.com",
		Email:          "ops@example.com",
		DeploymentType: DeployDirect,
	}

	require.NoError(t, writeCompose(cfg, []string{"whoami"}))

	out, err := os.ReadFile(filepath.Join(root, "compose.yml"))
	require.NoError(t, err)

	var merged map[string]any
	require.NoError(t, yaml.Unmarshal(out, &merged))

	networks := merged["networks"].(map[string]any)
	assert.Contains(t, networks, "homelab_net")

	services := merged["services"].(map[string]any)
	assert.Contains(t, services, "whoami")
	assert.Contains(t, string(out), "whoami.example.com")

	x := merged["x-homelab"].(map[string]any)
	assert.Equal(t, DeployDirect, x["deployment_type"])
	assert.Equal(t, []any{"whoami"}, x["enabled_services"])
	assert.NotEmpty(t, x["generated_at"])
}

func TestWriteComposeSkipsDisabledServices(t *testing.T) {
	templates := writeTemplateFixture(t)
	t.Setenv("HOMELAB_TEMPLATES", templates)

	root := t.TempDir()
	cfg := Config{HomelabRoot: root, Domain: "example.com", DeploymentType: DeployDirect}

	require.NoError(t, writeCompose(cfg, nil))

	out, err := os.ReadFile(filepath.Join(root, "compose.yml"))
	require.NoError(t, err)
	assert.NotContains(t, string(out), "whoami")
}

func TestComposeBaseArgs(t *testing.T) {
	cfg := Config{HomelabRoot: "/srv/homelab"}
	args := ComposeBaseArgs(cfg)

	assert.Equal(t, "compose", args[0])
	assert.Contains(t, args, filepath.Join("/srv/homelab", "compose.yml"))
	assert.Contains(t, args, filepath.Join("/srv/homelab", ".env"))
	assert.Equal(t, "homelab", args[len(args)-1])
}

func TestInstanceComposeArgs(t *testing.T) {
	args := InstanceComposeArgs("/srv/homelab/instances/mysql-dev", "mysql-dev")
	assert.Contains(t, args, filepath.Join("/srv/homelab/instances/mysql-dev", "compose.yml"))
	assert.Equal(t, "mysql-dev", args[len(args)-1])
}
