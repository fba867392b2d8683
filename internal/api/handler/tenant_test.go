package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTenantGet_EmptyID(t *testing.T) {
	h := NewTenant(nil)
	rec := httptest.NewRecorder()
	r := withChiURLParam(newRequest(http.MethodGet, "/tenants/", nil), "id", "")

	h.Get(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, decodeErrorResponse(rec)["error"], "missing required ID")
}

func TestTenantGet_MissingURLParam(t *testing.T) {
	h := NewTenant(nil)
	rec := httptest.NewRecorder()
	// No chi context set, so URLParam returns "".
	r := newRequest(http.MethodGet, "/tenants/", nil)

	h.Get(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
