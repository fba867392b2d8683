package mcpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

// Server exposes the provisioning tools to agents over streamable HTTP MCP.
type Server struct {
	router chi.Router
	logger zerolog.Logger
}

// New creates and configures the MCP server from the given config.
func New(cfg *Config, logger zerolog.Logger) *Server {
	client := NewClient(cfg.APIURL, cfg.APIKey, logger)
	tools := Tools(client)

	mcpSrv := server.NewMCPServer(
		"faceblog-provisioner",
		"1.0.0",
		server.WithInstructions("FaceBlog tenant provisioning tools for spinning up new blogs and tracking provisioning jobs."),
	)
	mcpSrv.AddTools(tools...)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	// Health check
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	router.Mount("/mcp", server.NewStreamableHTTPServer(mcpSrv, server.WithEndpointPath("/")))
	logger.Info().Int("tools", len(tools)).Msg("mounted MCP endpoint at /mcp")

	return &Server{
		router: router,
		logger: logger,
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
