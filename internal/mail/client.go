// Package mail sends transactional mail through the platform mail service.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	baseURL    string
	token      string
	from       string
	httpClient *http.Client
}

func NewClient(baseURL, token, from string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		from:       from,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Enabled reports whether a mail service is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// WelcomeParams fills the welcome template sent to a new blog owner.
type WelcomeParams struct {
	To           string `json:"to"`
	Name         string `json:"name"`
	BlogName     string `json:"blog_name"`
	BlogURL      string `json:"blog_url"`
	AdminURL     string `json:"admin_url"`
	APIKey       string `json:"api_key,omitempty"`
	TempPassword string `json:"temp_password,omitempty"`
}

// SendWelcome delivers the welcome mail. Callers treat failures as
// non-fatal; the blog is already live at this point.
func (c *Client) SendWelcome(ctx context.Context, params WelcomeParams) error {
	payload := map[string]any{
		"from":     c.from,
		"to":       params.To,
		"subject":  fmt.Sprintf("Your blog %s is live", params.BlogName),
		"template": "welcome",
		"vars":     params,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal welcome mail: %w", err)
	}

	url := fmt.Sprintf("%s/api/send", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("welcome mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send welcome mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("send welcome mail to %s: status %d: %s", params.To, resp.StatusCode, string(respBody))
	}
	return nil
}
