package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sergiomvj/faceblog-provisioner/internal/api"
	"github.com/sergiomvj/faceblog-provisioner/internal/config"
	"github.com/sergiomvj/faceblog-provisioner/internal/core"
	"github.com/sergiomvj/faceblog-provisioner/internal/db"
	"github.com/sergiomvj/faceblog-provisioner/internal/deployer"
	"github.com/sergiomvj/faceblog-provisioner/internal/dns"
	"github.com/sergiomvj/faceblog-provisioner/internal/finalizer"
	"github.com/sergiomvj/faceblog-provisioner/internal/generator"
	"github.com/sergiomvj/faceblog-provisioner/internal/jobstore"
	"github.com/sergiomvj/faceblog-provisioner/internal/logging"
	"github.com/sergiomvj/faceblog-provisioner/internal/mail"
	"github.com/sergiomvj/faceblog-provisioner/internal/metrics"
	"github.com/sergiomvj/faceblog-provisioner/internal/model"
	"github.com/sergiomvj/faceblog-provisioner/internal/pipeline"
	"github.com/sergiomvj/faceblog-provisioner/internal/templates"
)

func main() {
	if len(os.Args) >= 2 && os.Args[1] == "create-api-key" {
		createAPIKey(os.Args[2:])
		return
	}

	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	migrateDirFlag := flag.String("migrate-dir", "migrations/core", "Migration files directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("provisioner-api"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *migrateFlag {
		logger.Info().Str("dir", *migrateDirFlag).Msg("running database migrations")
		if err := db.RunMigrations(ctx, cfg.CoreDatabaseURL, *migrateDirFlag); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	corePool, err := db.NewCorePool(ctx, cfg.CoreDatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to core database")
	}
	defer corePool.Close()
	metrics.RegisterPgxPoolMetrics("core", corePool)

	zonePool, err := db.NewDNSPool(ctx, cfg.DNSDatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to dns database")
	}
	if zonePool != nil {
		defer zonePool.Close()
		metrics.RegisterPgxPoolMetrics("zones", zonePool)
	}

	var store jobstore.Store
	switch cfg.JobStore {
	case "redis":
		rs, err := jobstore.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.JobRetention)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rs.Close()
		store = rs
		logger.Info().Str("addr", cfg.RedisAddr).Msg("using redis job store")
	default:
		store = jobstore.NewMemoryStore(nil)
		logger.Info().Msg("using in-memory job store")
	}

	janitor := jobstore.NewJanitor(store, cfg.JobRetention, nil, logger)
	if err := janitor.Start(cfg.JobSweepSchedule); err != nil {
		logger.Fatal().Err(err).Msg("failed to start job janitor")
	}
	defer janitor.Stop()

	registry := templates.NewRegistry(cfg.TemplatesDir, logger)
	if err := registry.Load(); err != nil {
		logger.Fatal().Err(err).Msg("failed to load templates")
	}

	services := core.NewServices(corePool)

	gen := generator.New(registry, cfg.InstancesDir, cfg.BaseDomain, cfg.PublicAPIURL, logger)

	var zones *dns.ZoneStore
	if zonePool != nil {
		zones = dns.NewZoneStore(zonePool)
	}
	var dnsProvider dns.Provider
	if cfg.DNSAPIURL != "" {
		dnsProvider = dns.NewRESTProvider(cfg.DNSAPIURL, cfg.DNSAPIToken)
	}
	domains := dns.NewConfigurator(dns.ConfiguratorOptions{
		Zones:        zones,
		Provider:     dnsProvider,
		BaseDomain:   cfg.BaseDomain,
		RecordTarget: cfg.EdgeRecordTarget,
		PollInterval: cfg.CertPollInterval,
		PollTimeout:  cfg.CertPollTimeout,
	}, logger)

	providers, err := config.LoadProviders(cfg.ProvidersPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load providers config")
	}
	deploy, err := deployer.NewExecutor(providers, cfg.BaseDomain, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build deploy provider")
	}

	mailer := mail.NewClient(cfg.MailAPIURL, cfg.MailAPIToken, cfg.MailFrom)

	orc := pipeline.NewOrchestrator(pipeline.Options{
		Store: store,
		Deps: pipeline.Deps{
			Tenants:   services.Tenant,
			Users:     services.User,
			Generator: gen,
			Domains:   domains,
			Deployer:  deploy,
			Finalizer: finalizer.New(services.Tenant, services.APIKey, mailer, logger),
		},
		StepTimeout:       cfg.StepTimeout,
		MaxConcurrentJobs: cfg.MaxConcurrentJobs,
		Logger:            logger,
	})

	srv := api.NewServer(logger, corePool, zonePool, store, orc, registry, cfg)

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting provisioner API server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	var metricsServer *http.Server
	if cfg.MetricsListenAddr != "" {
		metricsServer = metrics.NewServer(cfg.MetricsListenAddr)
		g.Go(func() error {
			logger.Info().Str("addr", cfg.MetricsListenAddr).Msg("starting metrics server")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info().Msg("shutting down server")
	case <-gctx.Done():
		logger.Error().Msg("a server exited, shutting down")
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	httpServer.Shutdown(shutdownCtx)
	if metricsServer != nil {
		metricsServer.Shutdown(shutdownCtx)
	}

	// Running pipelines are canceled; their goroutines write terminal state
	// before we let the process exit.
	if err := orc.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("jobs still running at shutdown deadline")
	}

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func createAPIKey(args []string) {
	fs := flag.NewFlagSet("create-api-key", flag.ExitOnError)
	name := fs.String("name", "", "Name for the API key (required)")
	scopes := fs.String("scopes", "provision", "Comma-separated scopes for the key")
	raw := fs.String("key", "", "Use this raw key value instead of generating one (dev/test only)")
	fs.Parse(args)

	if *name == "" {
		fmt.Fprintln(os.Stderr, "error: --name is required")
		fmt.Fprintln(os.Stderr, "usage: provisioner-api create-api-key --name <name> [--scopes <a,b>] [--key <raw>]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewCorePool(ctx, cfg.CoreDatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	svc := core.NewAPIKeyService(pool)
	var (
		key    *model.APIKey
		rawKey string
	)
	if *raw != "" {
		rawKey = *raw
		key, err = svc.CreateWithRawKey(ctx, nil, *name, rawKey, strings.Split(*scopes, ","))
	} else {
		key, rawKey, err = svc.Create(ctx, nil, *name, strings.Split(*scopes, ","))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to create API key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Platform API key created successfully.\n\n")
	fmt.Printf("  Name:   %s\n", key.Name)
	fmt.Printf("  ID:     %s\n", key.ID)
	fmt.Printf("  Key:    %s\n\n", rawKey)
	fmt.Printf("Save this key. It will not be shown again.\n")
}
