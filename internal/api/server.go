package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sergiomvj/faceblog-provisioner/internal/api/handler"
	mw "github.com/sergiomvj/faceblog-provisioner/internal/api/middleware"
	"github.com/sergiomvj/faceblog-provisioner/internal/config"
	"github.com/sergiomvj/faceblog-provisioner/internal/core"
	"github.com/sergiomvj/faceblog-provisioner/internal/jobstore"
	"github.com/sergiomvj/faceblog-provisioner/internal/pipeline"
	"github.com/sergiomvj/faceblog-provisioner/internal/templates"
)

//go:embed docs/swagger.json
var swaggerJSON []byte

type Server struct {
	router   chi.Router
	logger   zerolog.Logger
	services *core.Services
	corePool *pgxpool.Pool
	zonePool *pgxpool.Pool
	store    jobstore.Store
	orc      *pipeline.Orchestrator
	registry *templates.Registry
	cfg      *config.Config
}

func NewServer(
	logger zerolog.Logger,
	corePool, zonePool *pgxpool.Pool,
	store jobstore.Store,
	orc *pipeline.Orchestrator,
	registry *templates.Registry,
	cfg *config.Config,
) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger,
		services: core.NewServices(corePool),
		corePool: corePool,
		zonePool: zonePool,
		store:    store,
		orc:      orc,
		registry: registry,
		cfg:      cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	// API documentation (no auth required)
	s.router.Get("/docs/openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(swaggerJSON)
	})
	s.router.Get("/docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(scalarHTML))
	})

	job := handler.NewJob(s.store, s.orc, s.corePool)

	// Job watch WebSocket sits outside the header middleware. Browsers
	// cannot set headers on WebSocket upgrades, so it takes a query token.
	s.router.Get("/api/v1/jobs/{id}/watch", job.Watch)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(s.corePool))

		// Provisioning
		provision := handler.NewProvision(s.orc, s.services.Tenant, s.cfg.DefaultTemplate)
		r.Post("/provision", provision.Create)

		// Jobs
		r.Get("/jobs", job.List)
		r.Get("/jobs/{id}", job.Get)
		r.Post("/jobs/{id}/cancel", job.Cancel)

		// Templates
		template := handler.NewTemplate(s.registry)
		r.Get("/templates", template.List)

		// Tenants (read-only)
		tenant := handler.NewTenant(s.services.Tenant)
		r.Get("/tenants", tenant.List)
		r.Get("/tenants/{id}", tenant.Get)

		// API keys
		apiKey := handler.NewAPIKey(s.services.APIKey)
		r.Get("/api-keys", apiKey.List)
		r.Post("/api-keys", apiKey.Create)
		r.Get("/api-keys/{id}", apiKey.Get)
		r.Delete("/api-keys/{id}", apiKey.Revoke)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.corePool.Ping(ctx); err != nil {
		checks["core_db"] = err.Error()
		healthy = false
	} else {
		checks["core_db"] = "ok"
	}

	// The zone pool is absent when DNS publishing is disabled.
	if s.zonePool != nil {
		if err := s.zonePool.Ping(ctx); err != nil {
			checks["zones_db"] = err.Error()
			healthy = false
		} else {
			checks["zones_db"] = "ok"
		}
	}

	if s.registry.Len() == 0 {
		checks["templates"] = "no templates loaded"
		healthy = false
	} else {
		checks["templates"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

const scalarHTML = `<!DOCTYPE html>
<html>
<head>
  <title>FaceBlog Provisioner API</title>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
</head>
<body>
  <script id="api-reference" data-url="/docs/openapi.json"></script>
  <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body>
</html>`
