package deployer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sergiomvj/faceblog-provisioner/internal/model"
)

// RESTBuilder delegates deployment to an external build service that owns
// the actual hosting (static builds, CDN pushes). The service gets the
// instance location and replies with the serving URL.
type RESTBuilder struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewRESTBuilder(baseURL, token string) *RESTBuilder {
	return &RESTBuilder{
		baseURL: baseURL,
		token:   token,
		// Builds can take a while; this is an end-to-end request timeout.
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (p *RESTBuilder) Name() string { return "rest" }

type buildRequest struct {
	TenantID     string `json:"tenant_id"`
	Subdomain    string `json:"subdomain"`
	CustomDomain string `json:"custom_domain,omitempty"`
	InstancePath string `json:"instance_path"`
	Theme        string `json:"theme,omitempty"`
}

type buildResponse struct {
	URL string `json:"url"`
	Ref string `json:"ref"`
}

func (p *RESTBuilder) Deploy(ctx context.Context, tenant *model.Tenant, instancePath string) (*model.DeploymentResult, error) {
	reqBody := buildRequest{
		TenantID:     tenant.ID,
		Subdomain:    tenant.Subdomain,
		InstancePath: instancePath,
		Theme:        tenant.Theme,
	}
	if tenant.CustomDomain != nil {
		reqBody.CustomDomain = *tenant.CustomDomain
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal build request: %w", err)
	}

	url := fmt.Sprintf("%s/deploy", p.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", ErrProviderUnavailable, resp.StatusCode, string(respBody))
	}
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("build %s: status %d: %s", tenant.Subdomain, resp.StatusCode, string(respBody))
	}

	var out buildResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode build response: %w", err)
	}
	if out.URL == "" {
		return nil, fmt.Errorf("build %s: service returned no url", tenant.Subdomain)
	}

	return &model.DeploymentResult{
		Provider: p.Name(),
		URL:      out.URL,
		Ref:      out.Ref,
	}, nil
}
