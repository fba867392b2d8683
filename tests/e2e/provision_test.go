package e2e

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestProvisionLifecycle provisions a blog end to end:
// request -> job polling -> completed -> tenant active.
func TestProvisionLifecycle(t *testing.T) {
	sub := uniqueSubdomain("e2e-blog")

	resp, body := httpPost(t, provisionerURL+"/provision", map[string]interface{}{
		"blog_name":     "E2E Test Blog",
		"subdomain":     sub,
		"owner_email":   "e2e@faceblog.test",
		"owner_name":    "E2E Runner",
		"niche":         "tech",
		"primary_color": "#336699",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode, "provision: %s", body)

	accepted := parseJSON(t, body)
	jobID, _ := accepted["job_id"].(string)
	require.NotEmpty(t, jobID)
	require.Equal(t, "initializing", accepted["status"])
	t.Logf("provisioning job: %s", jobID)

	job := waitForJobState(t, jobID, "completed", provisionTimeout)
	require.Equal(t, float64(100), job["progress"])
	tenantID, _ := job["tenant_id"].(string)
	require.NotEmpty(t, tenantID, "completed job must carry the tenant id")

	// Every step finished.
	steps, _ := job["steps"].([]interface{})
	require.Len(t, steps, 5)
	for _, s := range steps {
		step := s.(map[string]interface{})
		require.Equal(t, "completed", step["status"], "step %v", step["name"])
	}

	// The tenant is live.
	resp, body = httpGet(t, provisionerURL+"/tenants/"+tenantID)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	tenant := parseJSON(t, body)
	require.Equal(t, sub, tenant["subdomain"])
	require.Equal(t, "active", tenant["status"])

	// And findable through the list search.
	resp, body = httpGet(t, provisionerURL+"/tenants?search="+sub)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	items := parsePaginatedItems(t, body)
	require.Len(t, items, 1)
	require.Equal(t, tenantID, items[0]["id"])
	t.Logf("tenant active: %s", tenantID)
}

// TestProvisionDuplicateSubdomain verifies the synchronous availability check.
func TestProvisionDuplicateSubdomain(t *testing.T) {
	sub := uniqueSubdomain("e2e-dup")

	payload := map[string]interface{}{
		"blog_name":   "Duplicate Test",
		"subdomain":   sub,
		"owner_email": "e2e@faceblog.test",
	}
	resp, body := httpPost(t, provisionerURL+"/provision", payload)
	require.Equal(t, http.StatusAccepted, resp.StatusCode, body)
	jobID, _ := parseJSON(t, body)["job_id"].(string)
	waitForJobState(t, jobID, "completed", provisionTimeout)

	resp, body = httpPost(t, provisionerURL+"/provision", payload)
	require.Equal(t, http.StatusConflict, resp.StatusCode, "second provision: %s", body)
	errResp := parseJSON(t, body)
	require.Contains(t, errResp["error"], "already taken")
}

// TestProvisionValidation verifies that invalid requests are rejected
// without creating a job.
func TestProvisionValidation(t *testing.T) {
	resp, body := httpPost(t, provisionerURL+"/provision", map[string]interface{}{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, "empty body: %s", body)
	_, hasError := parseJSON(t, body)["error"]
	require.True(t, hasError, "error response missing 'error' key")

	resp, body = httpPost(t, provisionerURL+"/provision", map[string]interface{}{
		"blog_name":   "Bad Subdomain",
		"subdomain":   "Not_Valid",
		"owner_email": "e2e@faceblog.test",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, "bad subdomain: %s", body)
}

// TestCancelProvisioningJob cancels a job right after acceptance. The job
// may reach a terminal state first; both outcomes are valid.
func TestCancelProvisioningJob(t *testing.T) {
	resp, body := httpPost(t, provisionerURL+"/provision", map[string]interface{}{
		"blog_name":   "Cancel Test",
		"subdomain":   uniqueSubdomain("e2e-cancel"),
		"owner_email": "e2e@faceblog.test",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode, body)
	jobID, _ := parseJSON(t, body)["job_id"].(string)

	resp, body = httpPost(t, provisionerURL+"/jobs/"+jobID+"/cancel", nil)
	switch resp.StatusCode {
	case http.StatusAccepted:
		job := waitForJobState(t, jobID, "failed", time.Minute)
		require.Equal(t, "canceled", job["error"])
	case http.StatusConflict:
		// The job finished before the cancel landed.
	default:
		t.Fatalf("cancel: unexpected status %d: %s", resp.StatusCode, body)
	}
}

func TestJobNotFound(t *testing.T) {
	resp, _ := httpGet(t, provisionerURL+"/jobs/nonexistent-id-12345")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestJobListPagination(t *testing.T) {
	resp, body := httpGet(t, provisionerURL+"/jobs")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	result := parseJSON(t, body)
	_, hasItems := result["items"]
	require.True(t, hasItems, "response missing 'items' key")
	_, hasMore := result["has_more"]
	require.True(t, hasMore, "response missing 'has_more' key")
}

func TestTemplatesListed(t *testing.T) {
	resp, body := httpGet(t, provisionerURL+"/templates")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	result := parseJSON(t, body)
	templates, ok := result["templates"].([]interface{})
	require.True(t, ok, "response missing 'templates' array: %s", body)
	require.NotEmpty(t, templates)
}

// TestAuthRequired verifies that requests without a platform key are
// rejected.
func TestAuthRequired(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, provisionerURL+"/jobs", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
