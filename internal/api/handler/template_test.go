package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergiomvj/faceblog-provisioner/internal/templates"
)

func loadedRegistry(t *testing.T) *templates.Registry {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "default-blog"), 0o755))
	meta := "name: Default Blog\nversion: \"1.0\"\ndescription: Starter blog\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default-blog", "template.yaml"), []byte(meta), 0o644))

	reg := templates.NewRegistry(dir, zerolog.Nop())
	require.NoError(t, reg.Load())
	return reg
}

func TestTemplateList(t *testing.T) {
	h := NewTemplate(loadedRegistry(t))

	rec := httptest.NewRecorder()
	h.List(rec, newRequest(http.MethodGet, "/templates", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body["templates"], 1)
	assert.Equal(t, "default-blog", body["templates"][0]["id"])
	assert.Equal(t, "Default Blog", body["templates"][0]["name"])
}

func TestTemplateList_Empty(t *testing.T) {
	reg := templates.NewRegistry(t.TempDir(), zerolog.Nop())
	require.NoError(t, reg.Load())
	h := NewTemplate(reg)

	rec := httptest.NewRecorder()
	h.List(rec, newRequest(http.MethodGet, "/templates", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	list, ok := body["templates"]
	assert.True(t, ok)
	assert.Empty(t, list)
}
