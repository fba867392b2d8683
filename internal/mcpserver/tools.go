package mcpserver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// provisionFields are the argument keys forwarded as the provision request
// body. Keys match the REST API's JSON field names.
var provisionFields = []string{
	"blog_name", "subdomain", "custom_domain", "owner_email", "owner_name",
	"theme", "primary_color", "niche", "description", "template_id",
	"callback_url",
}

// Tools builds the provisioning tool set backed by the given API client.
func Tools(client *Client) []server.ServerTool {
	return []server.ServerTool{
		provisionBlogTool(client),
		getJobTool(client),
		listJobsTool(client),
		listTemplatesTool(client),
	}
}

func provisionBlogTool(c *Client) server.ServerTool {
	tool := mcp.NewTool("provision_blog",
		mcp.WithDescription("Provision a new blog on the platform. Returns immediately with a job ID; poll get_provisioning_job to track progress."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithString("blog_name", mcp.Required(), mcp.Description("Display name of the blog")),
		mcp.WithString("subdomain", mcp.Required(), mcp.Description("DNS label the blog is served under (lowercase letters, digits and hyphens)")),
		mcp.WithString("owner_email", mcp.Required(), mcp.Description("Email address of the blog owner")),
		mcp.WithString("owner_name", mcp.Description("Display name of the blog owner")),
		mcp.WithString("template_id", mcp.Description("Template to generate the blog from; the platform default is used when omitted")),
		mcp.WithString("theme", mcp.Description("Theme name within the template")),
		mcp.WithString("primary_color", mcp.Description("Brand color as a hex value, for example #336699")),
		mcp.WithString("niche", mcp.Description("Content niche of the blog")),
		mcp.WithString("description", mcp.Description("Short description of the blog")),
		mcp.WithString("custom_domain", mcp.Description("Custom domain to serve the blog on in addition to the subdomain")),
		mcp.WithString("callback_url", mcp.Description("URL to POST the outcome to when provisioning finishes")),
	)

	return server.ServerTool{
		Tool: tool,
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			body := make(map[string]any)
			for _, key := range provisionFields {
				if val, ok := args[key]; ok && val != nil && fmt.Sprintf("%v", val) != "" {
					body[key] = val
				}
			}
			return c.call(ctx, req, http.MethodPost, "/provision", nil, body)
		},
	}
}

func getJobTool(c *Client) server.ServerTool {
	tool := mcp.NewTool("get_provisioning_job",
		mcp.WithDescription("Fetch a provisioning job with its state, progress percentage and per-step records."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("job_id", mcp.Required(), mcp.Description("Provisioning job ID")),
	)

	return server.ServerTool{
		Tool: tool,
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			id, _ := args["job_id"].(string)
			if id == "" {
				return mcp.NewToolResultError("missing required parameter: job_id"), nil
			}
			return c.call(ctx, req, http.MethodGet, "/jobs/"+url.PathEscape(id), nil, nil)
		},
	}
}

func listJobsTool(c *Client) server.ServerTool {
	tool := mcp.NewTool("list_provisioning_jobs",
		mcp.WithDescription("List provisioning jobs, optionally filtered by state or subdomain."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("state", mcp.Description("Filter by job state"), mcp.Enum("initializing", "running", "completed", "failed")),
		mcp.WithString("subdomain", mcp.Description("Filter by subdomain")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of jobs to return")),
	)

	return server.ServerTool{
		Tool: tool,
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			query := url.Values{}
			for _, key := range []string{"state", "subdomain", "limit"} {
				if val, ok := args[key]; ok && val != nil && fmt.Sprintf("%v", val) != "" {
					query.Set(key, fmt.Sprintf("%v", val))
				}
			}
			return c.call(ctx, req, http.MethodGet, "/jobs", query, nil)
		},
	}
}

func listTemplatesTool(c *Client) server.ServerTool {
	tool := mcp.NewTool("list_templates",
		mcp.WithDescription("List the blog templates available for provisioning."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)

	return server.ServerTool{
		Tool: tool,
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return c.call(ctx, req, http.MethodGet, "/templates", nil, nil)
		},
	}
}
