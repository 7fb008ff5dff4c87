package homelab

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInstanceList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, ParseInstanceList("a, b ,c"))
	assert.Equal(t, []string{"dev"}, ParseInstanceList("dev"))
	assert.Equal(t, []string{"dev", "prod"}, ParseInstanceList("dev,,prod,"))
	assert.Nil(t, ParseInstanceList(""))
	assert.Nil(t, ParseInstanceList(" , "))
}

const mysqlTemplate = `# role defaults
INSTANCES=dev,qa,prod

MYSQL_ROOT_PASSWORD=default
MYSQL_DATABASE=app
MYSQL_PORT=3306

# per-instance overrides
dev_MYSQL_ROOT_PASSWORD=secret
dev_MYSQL_PORT=3307
qa_MYSQL_PORT=3308
`

func TestParseRoleTemplate(t *testing.T) {
	tpl, err := ParseRoleTemplate(mysqlTemplate)
	require.NoError(t, err)

	assert.Equal(t, []string{"dev", "qa", "prod"}, tpl.Instances)
	assert.Equal(t, []string{"MYSQL_ROOT_PASSWORD", "MYSQL_DATABASE", "MYSQL_PORT"}, tpl.Keys)
	assert.Equal(t, "default", tpl.Defaults["MYSQL_ROOT_PASSWORD"])
	assert.Equal(t, "secret", tpl.Overrides["dev"]["MYSQL_ROOT_PASSWORD"])
	assert.Equal(t, "3308", tpl.Overrides["qa"]["MYSQL_PORT"])
	assert.Empty(t, tpl.Overrides["prod"])
}

func TestInstanceEnvAppliesOverrides(t *testing.T) {
	tpl, err := ParseRoleTemplate(mysqlTemplate)
	require.NoError(t, err)

	env := tpl.InstanceEnv("mysql", "dev")
	assert.Contains(t, env, "MYSQL_ROOT_PASSWORD=secret\n")
	assert.Contains(t, env, "MYSQL_PORT=3307\n")
	assert.Contains(t, env, "MYSQL_DATABASE=app\n")
	assert.NotContains(t, env, "INSTANCES=")
	assert.NotContains(t, env, "dev_MYSQL_ROOT_PASSWORD")

	// Instances without overrides get the defaults.
	prodEnv := tpl.InstanceEnv("mysql", "prod")
	assert.Contains(t, prodEnv, "MYSQL_ROOT_PASSWORD=default\n")
	assert.Contains(t, prodEnv, "MYSQL_PORT=3306\n")
}

func TestInstanceEnvGeneratedFields(t *testing.T) {
	tpl, err := ParseRoleTemplate(mysqlTemplate)
	require.NoError(t, err)

	env := tpl.InstanceEnv("mysql", "dev")
	assert.Contains(t, env, "INSTANCE_NAME=dev\n")
	assert.Contains(t, env, "COMPOSE_PROJECT_NAME=mysql-dev\n")
	assert.Contains(t, env, "INSTANCE_SUBDOMAIN=dev\n")

	// Defaults keep their declaration order before the generated block.
	idx := func(s string) int { return strings.Index(env, s) }
	assert.Less(t, idx("MYSQL_ROOT_PASSWORD="), idx("MYSQL_DATABASE="))
	assert.Less(t, idx("MYSQL_DATABASE="), idx("MYSQL_PORT="))
	assert.Less(t, idx("MYSQL_PORT="), idx("INSTANCE_NAME="))
}

func TestInstanceEnvOverridesOnlyForDeclaredInstances(t *testing.T) {
	// A key with an undeclared prefix is a regular default, not an
	// override.
	tpl, err := ParseRoleTemplate("INSTANCES=dev\nFOO=1\nstaging_FOO=2\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"dev"}, tpl.Instances)
	assert.Equal(t, "2", tpl.Defaults["staging_FOO"])
	assert.Empty(t, tpl.Overrides["staging"])
}

func TestInstancePath(t *testing.T) {
	cfg := Config{InstanceRoot: "/srv/homelab/instances"}
	assert.Equal(t, filepath.Join("/srv/homelab/instances", "mysql-dev"),
		InstancePath(cfg, "mysql", "dev"))
	assert.Equal(t, "mysql-dev", InstanceProject("mysql", "dev"))
}

func TestSplitOverrideKey(t *testing.T) {
	instances := []string{"dev", "qa"}

	inst, key, ok := splitOverrideKey("dev_MYSQL_PORT", instances)
	require.True(t, ok)
	assert.Equal(t, "dev", inst)
	assert.Equal(t, "MYSQL_PORT", key)

	_, _, ok = splitOverrideKey("prod_MYSQL_PORT", instances)
	assert.False(t, ok)

	// A bare prefix with no key is not an override.
	_, _, ok = splitOverrideKey("dev_", instances)
	assert.False(t, ok)
}

func TestRoleOf(t *testing.T) {
	assert.Equal(t, "mysql", roleOf("mysql-dev"))
	assert.Equal(t, "wordpress", roleOf("wordpress-blog"))
	assert.Equal(t, "", roleOf("unknown-dev"))
	assert.Equal(t, "", roleOf("mysql"))
}
