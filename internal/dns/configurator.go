package dns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/sergiomvj/faceblog-provisioner/internal/model"
	"github.com/sergiomvj/faceblog-provisioner/internal/platform"
)

var errCertPending = errors.New("certificate still pending")

// Configurator performs the configure-domain step: a zone record for the
// platform subdomain, plus edge registration and certificate polling when
// the tenant brings a custom domain.
type Configurator struct {
	zones    *ZoneStore
	provider Provider

	baseDomain   string
	recordTarget string
	pollInterval time.Duration
	pollTimeout  time.Duration
	logger       zerolog.Logger
}

type ConfiguratorOptions struct {
	// Zones is optional. Without it subdomains rely on a wildcard record
	// and no zone rows are written.
	Zones *ZoneStore

	// Provider is optional. Without it custom domains cannot be configured.
	Provider Provider

	BaseDomain   string
	RecordTarget string
	PollInterval time.Duration
	PollTimeout  time.Duration
}

func NewConfigurator(opts ConfiguratorOptions, logger zerolog.Logger) *Configurator {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 90 * time.Second
	}
	return &Configurator{
		zones:        opts.Zones,
		provider:     opts.Provider,
		baseDomain:   opts.BaseDomain,
		recordTarget: opts.RecordTarget,
		pollInterval: opts.PollInterval,
		pollTimeout:  opts.PollTimeout,
		logger:       logger.With().Str("component", "dns").Logger(),
	}
}

// Configure sets up DNS for the tenant and returns what was done. The
// subdomain is always handled; the custom domain only when the tenant has
// one, and any custom domain failure fails the whole step.
func (c *Configurator) Configure(ctx context.Context, tenant *model.Tenant) (*model.DomainConfig, error) {
	fqdn := platform.BlogHostname(c.baseDomain, tenant.Subdomain)
	cfg := &model.DomainConfig{Domain: fqdn}

	if c.zones != nil {
		zoneID, err := c.zones.EnsureZone(ctx, c.baseDomain)
		if err != nil {
			return nil, err
		}
		if err := c.zones.UpsertBlogRecord(ctx, zoneID, fqdn, c.recordTarget); err != nil {
			return nil, err
		}
		cfg.ZoneID = fmt.Sprintf("%d", zoneID)
		c.logger.Info().Str("fqdn", fqdn).Int("zone_id", zoneID).Msg("subdomain record written")
	} else {
		c.logger.Debug().Str("fqdn", fqdn).Msg("no zone database, relying on wildcard record")
	}

	if tenant.CustomDomain == nil || *tenant.CustomDomain == "" {
		return cfg, nil
	}

	domain := *tenant.CustomDomain
	if c.provider == nil {
		return nil, fmt.Errorf("custom domain %s: %w", domain, ErrProviderUnavailable)
	}

	if err := c.provider.RegisterDomain(ctx, domain, fqdn); err != nil {
		return nil, err
	}
	cfg.Domain = domain
	cfg.CustomDomain = true

	issued, err := c.waitForCertificate(ctx, domain)
	if err != nil {
		return nil, err
	}
	cfg.CertIssued = issued

	return cfg, nil
}

// waitForCertificate polls the edge until the certificate is issued or the
// polling window closes. A window that closes on a still-pending cert is not
// fatal; issuance continues in the background and the tenant is told so.
func (c *Configurator) waitForCertificate(ctx context.Context, domain string) (bool, error) {
	backoff := retry.WithMaxDuration(c.pollTimeout, retry.NewConstant(c.pollInterval))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		status, err := c.provider.CertificateStatus(ctx, domain)
		if err != nil {
			return retry.RetryableError(err)
		}
		switch status {
		case CertIssued:
			return nil
		case CertFailed:
			return fmt.Errorf("certificate issuance failed for %s", domain)
		default:
			return retry.RetryableError(errCertPending)
		}
	})

	if err == nil {
		c.logger.Info().Str("domain", domain).Msg("certificate issued")
		return true, nil
	}
	if errors.Is(err, errCertPending) || errors.Is(err, ErrProviderUnavailable) {
		c.logger.Warn().Str("domain", domain).Err(err).Msg("certificate not confirmed within polling window")
		return false, nil
	}
	return false, err
}
