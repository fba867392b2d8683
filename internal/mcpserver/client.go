package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
)

// Client calls the provisioner REST API on behalf of MCP tools.
type Client struct {
	apiURL string
	apiKey string
	http   *http.Client
	logger zerolog.Logger
}

// NewClient creates a client targeting the given API base URL.
func NewClient(apiURL, apiKey string, logger zerolog.Logger) *Client {
	return &Client{
		apiURL: strings.TrimRight(apiURL, "/"),
		apiKey: apiKey,
		http:   &http.Client{},
		logger: logger,
	}
}

// call performs an API request and wraps the outcome as an MCP tool result.
// API failures are reported through the result rather than as a Go error, so
// the calling agent sees what went wrong.
func (c *Client) call(ctx context.Context, req mcp.CallToolRequest, method, path string, query url.Values, body any) (*mcp.CallToolResult, error) {
	u := c.apiURL + "/api/v1" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode request body: %s", err)), nil
		}
		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("build request: %s", err)), nil
	}
	if bodyReader != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	// A key presented by the MCP client wins over the configured one.
	key := sessionAPIKey(req)
	if key == "" {
		key = c.apiKey
	}
	if key != "" {
		httpReq.Header.Set("X-API-Key", key)
	}

	c.logger.Debug().
		Str("method", method).
		Str("url", u).
		Str("tool", req.Params.Name).
		Msg("calling provisioner API")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API request failed: %s", err)), nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read response: %s", err)), nil
	}

	if resp.StatusCode >= 400 {
		return mcp.NewToolResultError(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(respBody))), nil
	}
	if resp.StatusCode == http.StatusNoContent {
		return mcp.NewToolResultText(`{"status":"success"}`), nil
	}

	return mcp.NewToolResultText(string(respBody)), nil
}

// sessionAPIKey extracts the API key the MCP client sent with the session.
func sessionAPIKey(req mcp.CallToolRequest) string {
	if key := req.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if auth := req.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
