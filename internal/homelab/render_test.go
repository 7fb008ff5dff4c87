package homelab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderString(t *testing.T) {
	out, err := renderString("domain={{.Domain}} net={{.NetworkName}}", RenderData{
		Domain:      "example.com",
		NetworkName: "homelab_net",
	})
	require.NoError(t, err)
	assert.Equal(t, "domain=example.com net=homelab_net", out)
}

func TestRenderStringUnknownField(t *testing.T) {
	_, err := renderString("{{.Nope}}", RenderData{})
	assert.Error(t, err)
}

func TestFindTemplatesDirEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOMELAB_TEMPLATES", dir)
	assert.Equal(t, dir, FindTemplatesDir())
}
