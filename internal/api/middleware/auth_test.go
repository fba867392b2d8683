package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuth_MissingKey(t *testing.T) {
	// Auth checks the headers before any DB lookup, so nil pool is safe here.
	handler := Auth(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/jobs", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	err := json.Unmarshal(rec.Body.Bytes(), &body)
	assert.NoError(t, err)
	assert.Equal(t, "missing API key", body["error"])
}

func TestExtractAPIKey(t *testing.T) {
	tests := []struct {
		name   string
		header string
		value  string
		want   string
	}{
		{"x-api-key header", "X-API-Key", "fbp_abc123", "fbp_abc123"},
		{"bearer token", "Authorization", "Bearer fbp_abc123", "fbp_abc123"},
		{"basic auth ignored", "Authorization", "Basic dXNlcjpwYXNz", ""},
		{"no headers", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			assert.Equal(t, tt.want, extractAPIKey(req))
		})
	}
}

func TestExtractAPIKey_HeaderPrecedence(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-API-Key", "from-header")
	req.Header.Set("Authorization", "Bearer from-bearer")
	assert.Equal(t, "from-header", extractAPIKey(req))
}

func TestGetIdentity_Outside(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	assert.Nil(t, GetIdentity(req.Context()))
}

func TestHashConsistency(t *testing.T) {
	key := "test-api-key-12345"
	hash := sha256.Sum256([]byte(key))
	keyHash := hex.EncodeToString(hash[:])
	assert.Len(t, keyHash, 64) // SHA-256 = 64 hex chars
}
