package mcpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	data := []byte(`
api_url: http://provisioner.internal:8090
api_key: fbp_testkey123
`)
	cfg, err := ParseConfig(data)
	require.NoError(t, err)
	assert.Equal(t, "http://provisioner.internal:8090", cfg.APIURL)
	assert.Equal(t, "fbp_testkey123", cfg.APIKey)
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8090", cfg.APIURL)
	assert.Empty(t, cfg.APIKey)
}

func TestParseConfig_Invalid(t *testing.T) {
	_, err := ParseConfig([]byte("api_url: [nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse mcp config")
}
