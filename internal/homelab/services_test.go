package homelab

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddServiceDependencies(t *testing.T) {
	out := AddServiceDependencies([]string{"whoami"})
	assert.ElementsMatch(t, []string{"whoami", "traefik"}, out)

	out = AddServiceDependencies([]string{"traefik"})
	assert.ElementsMatch(t, []string{"traefik"}, out)

	out = AddServiceDependencies(nil)
	assert.Empty(t, out)
}

func TestDefaultServices(t *testing.T) {
	assert.ElementsMatch(t, []string{"traefik"}, DefaultServices(DeployDirect))
	assert.ElementsMatch(t, []string{"traefik", "tailscale"}, DefaultServices(DeployTailscale))
	assert.ElementsMatch(t, []string{"traefik", "cloudflared"}, DefaultServices(DeployCloudflare))
	// Unknown types fall back to direct.
	assert.ElementsMatch(t, []string{"traefik"}, DefaultServices("bogus"))
}

func TestEnabledRoundTrip(t *testing.T) {
	cfg := Config{HomelabRoot: t.TempDir()}

	require.NoError(t, WriteEnabled(cfg, EnabledConfig{Services: []string{"traefik", "whoami"}}))

	loaded, err := LoadEnabled(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"traefik", "whoami"}, loaded.Services)
}

func TestLoadEnabledServicesFiltersUnknownAndAddsDeps(t *testing.T) {
	cfg := Config{HomelabRoot: t.TempDir()}
	content := "services:\n  - whoami\n  - not-a-service\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.HomelabRoot, "enabled.yml"), []byte(content), 0o640))

	svcs, err := LoadEnabledServices(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"traefik", "whoami"}, svcs)
}

func TestSortedServiceNames(t *testing.T) {
	names := SortedServiceNames()
	assert.Contains(t, names, "traefik")
	assert.Contains(t, names, "whoami")
	assert.IsNonDecreasing(t, names)
}
