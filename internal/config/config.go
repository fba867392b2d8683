package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName       string
	CoreDatabaseURL   string
	DNSDatabaseURL    string
	HTTPListenAddr    string
	MetricsListenAddr string
	LogLevel          string

	// BaseDomain is the apex under which blog subdomains are created,
	// e.g. "faceblog.app" for coffee-corner.faceblog.app.
	BaseDomain   string
	PublicAPIURL string

	// EdgeRecordTarget is what blog DNS records point at. An IP yields an
	// A record, a hostname a CNAME. Defaults to edge.<BaseDomain>.
	EdgeRecordTarget string

	TemplatesDir string
	InstancesDir string

	// DefaultTemplate is used when a provisioning request names none.
	DefaultTemplate string

	// ProvidersPath points at the deploy provider config file.
	ProvidersPath string

	JobStore         string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	JobRetention     time.Duration
	JobSweepSchedule string

	StepTimeout       time.Duration
	MaxConcurrentJobs int

	DNSAPIURL        string
	DNSAPIToken      string
	CertPollInterval time.Duration
	CertPollTimeout  time.Duration

	MailAPIURL   string
	MailAPIToken string
	MailFrom     string
}

func Load() (*Config, error) {
	cfg := &Config{
		ServiceName:       getEnv("SERVICE_NAME", "provisioner-api"),
		CoreDatabaseURL:   getEnv("CORE_DATABASE_URL", ""),
		DNSDatabaseURL:    getEnv("DNS_DATABASE_URL", ""),
		HTTPListenAddr:    getEnv("HTTP_LISTEN_ADDR", ":8090"),
		MetricsListenAddr: getEnv("METRICS_LISTEN_ADDR", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		BaseDomain:        getEnv("BASE_DOMAIN", "faceblog.app"),
		PublicAPIURL:      getEnv("PUBLIC_API_URL", ""),
		EdgeRecordTarget:  getEnv("EDGE_RECORD_TARGET", ""),
		TemplatesDir:      getEnv("TEMPLATES_DIR", "templates"),
		InstancesDir:      getEnv("INSTANCES_DIR", "instances"),
		DefaultTemplate:   getEnv("DEFAULT_TEMPLATE", "default-blog"),
		ProvidersPath:     getEnv("PROVIDERS_CONFIG", "providers.yaml"),
		JobStore:          getEnv("JOB_STORE", "memory"),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		JobSweepSchedule:  getEnv("JOB_SWEEP_SCHEDULE", "@hourly"),
		DNSAPIURL:         getEnv("DNS_API_URL", ""),
		DNSAPIToken:       getEnv("DNS_API_TOKEN", ""),
		MailAPIURL:        getEnv("MAIL_API_URL", ""),
		MailAPIToken:      getEnv("MAIL_API_TOKEN", ""),
		MailFrom:          getEnv("MAIL_FROM", "welcome@faceblog.app"),
	}

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrentJobs, err = getEnvInt("MAX_CONCURRENT_JOBS", 0); err != nil {
		return nil, err
	}
	if cfg.JobRetention, err = getEnvDuration("JOB_RETENTION", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.StepTimeout, err = getEnvDuration("STEP_TIMEOUT", 2*time.Minute); err != nil {
		return nil, err
	}
	if cfg.CertPollInterval, err = getEnvDuration("CERT_POLL_INTERVAL", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.CertPollTimeout, err = getEnvDuration("CERT_POLL_TIMEOUT", 90*time.Second); err != nil {
		return nil, err
	}

	if cfg.EdgeRecordTarget == "" {
		cfg.EdgeRecordTarget = "edge." + cfg.BaseDomain
	}

	return cfg, nil
}

// Validate checks that the fields required by the given role are set.
func (c *Config) Validate(role string) error {
	var missing []string

	require := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}

	switch role {
	case "provisioner-api":
		require("CORE_DATABASE_URL", c.CoreDatabaseURL)
		require("HTTP_LISTEN_ADDR", c.HTTPListenAddr)
		require("BASE_DOMAIN", c.BaseDomain)
		require("TEMPLATES_DIR", c.TemplatesDir)
		require("INSTANCES_DIR", c.InstancesDir)
		if c.JobStore == "redis" {
			require("REDIS_ADDR", c.RedisAddr)
		}
	default:
		return fmt.Errorf("unknown role %q", role)
	}

	if c.JobStore != "memory" && c.JobStore != "redis" {
		return fmt.Errorf("JOB_STORE must be \"memory\" or \"redis\", got %q", c.JobStore)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required config for %s: %s", role, strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
