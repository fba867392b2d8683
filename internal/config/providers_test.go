package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProvidersFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "providers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadProviders_MissingFile(t *testing.T) {
	p, err := LoadProviders(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, p.Deploy)
}

func TestLoadProviders_EmptyPath(t *testing.T) {
	p, err := LoadProviders("")
	require.NoError(t, err)
	assert.Empty(t, p.Deploy)
}

func TestLoadProviders_RankedList(t *testing.T) {
	path := writeProvidersFile(t, `
deploy:
  - name: s3
    enabled: false
    endpoint: https://s3.example.com
    bucket: faceblog-sites
    access_key: AKIA123
    secret_key: sekrit
  - name: docker
    enabled: true
    host: unix:///var/run/docker.sock
    image: faceblog/blog-runtime:latest
  - name: rest
    enabled: true
    url: http://builder:9000
    token: tk
`)

	p, err := LoadProviders(path)
	require.NoError(t, err)
	require.Len(t, p.Deploy, 3)

	assert.Equal(t, "s3", p.Deploy[0].Name)
	assert.False(t, p.Deploy[0].Enabled)
	assert.Equal(t, "faceblog-sites", p.Deploy[0].Bucket)

	assert.Equal(t, "docker", p.Deploy[1].Name)
	assert.True(t, p.Deploy[1].Enabled)
	assert.Equal(t, "faceblog/blog-runtime:latest", p.Deploy[1].Image)

	assert.Equal(t, "rest", p.Deploy[2].Name)
	assert.Equal(t, "http://builder:9000", p.Deploy[2].URL)
}

func TestLoadProviders_UnnamedEntry(t *testing.T) {
	path := writeProvidersFile(t, `
deploy:
  - enabled: true
`)

	_, err := LoadProviders(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no name")
}

func TestLoadProviders_BadYAML(t *testing.T) {
	path := writeProvidersFile(t, "deploy: [")

	_, err := LoadProviders(path)
	require.Error(t, err)
}
