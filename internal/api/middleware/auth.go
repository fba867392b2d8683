package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sergiomvj/faceblog-provisioner/internal/api/response"
)

type contextKey string

const apiKeyIdentityKey contextKey = "api_key_identity"

// APIKeyIdentity holds the authenticated key's ID and scopes.
type APIKeyIdentity struct {
	ID     string
	Name   string
	Scopes []string
}

// GetIdentity returns the authenticated key identity from the request
// context, or nil outside the auth middleware.
func GetIdentity(ctx context.Context) *APIKeyIdentity {
	id, _ := ctx.Value(apiKeyIdentityKey).(*APIKeyIdentity)
	return id
}

// Auth returns a middleware that validates the caller's API key against the
// api_keys table. Only platform keys (tenant_id IS NULL) grant access;
// tenant-scoped keys minted for blog instances never reach the provisioner.
func Auth(pool *pgxpool.Pool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extractAPIKey(r)
			if key == "" {
				response.WriteError(w, http.StatusUnauthorized, "missing API key")
				return
			}

			identity, err := lookupKey(r.Context(), pool, key)
			if err != nil {
				response.WriteError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), apiKeyIdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractAPIKey reads the key from the X-API-Key header, falling back to a
// bearer token for clients that only speak Authorization.
func extractAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// lookupKey resolves a raw API key to its identity. Shared with the
// WebSocket watch endpoint, which carries the key as a query parameter.
func lookupKey(ctx context.Context, pool *pgxpool.Pool, key string) (*APIKeyIdentity, error) {
	hash := sha256.Sum256([]byte(key))
	keyHash := hex.EncodeToString(hash[:])

	var identity APIKeyIdentity
	err := pool.QueryRow(ctx,
		`SELECT id, name, scopes FROM api_keys WHERE key_hash = $1 AND revoked_at IS NULL AND tenant_id IS NULL`, keyHash,
	).Scan(&identity.ID, &identity.Name, &identity.Scopes)
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

// ValidateKey checks a raw API key without threading an identity into a
// request context.
func ValidateKey(ctx context.Context, pool *pgxpool.Pool, key string) error {
	_, err := lookupKey(ctx, pool, key)
	return err
}
