package dns

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Certificate states reported by the edge.
const (
	CertPending = "pending"
	CertIssued  = "issued"
	CertFailed  = "failed"
)

// Provider registers custom domains on the platform edge and reports TLS
// certificate state.
type Provider interface {
	RegisterDomain(ctx context.Context, domain, target string) error
	CertificateStatus(ctx context.Context, domain string) (string, error)
}

// RESTProvider talks to the edge proxy's admin API.
type RESTProvider struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewRESTProvider(baseURL, token string) *RESTProvider {
	return &RESTProvider{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// RegisterDomain adds the domain to the edge and points it at target. A 409
// from the edge maps to ErrDomainInUse.
func (p *RESTProvider) RegisterDomain(ctx context.Context, domain, target string) error {
	payload := map[string]any{
		"domain": domain,
		"target": target,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal register domain: %w", err)
	}

	url := fmt.Sprintf("%s/api/domains", p.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("register domain request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("domain %s: %w", domain, ErrDomainInUse)
	case resp.StatusCode >= 500:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", ErrProviderUnavailable, resp.StatusCode, string(respBody))
	case resp.StatusCode >= 300:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("register domain %s: status %d: %s", domain, resp.StatusCode, string(respBody))
	}
	return nil
}

// CertificateStatus queries the edge for the domain's TLS certificate state.
func (p *RESTProvider) CertificateStatus(ctx context.Context, domain string) (string, error) {
	url := fmt.Sprintf("%s/api/domains/%s/certificate", p.baseURL, domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("certificate status request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("certificate status %s: status %d: %s", domain, resp.StatusCode, string(respBody))
	}

	var out struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode certificate status: %w", err)
	}
	return out.Status, nil
}
