// Package deployer publishes generated blog instances. Providers are ranked
// by their order in the providers file; the first enabled one handles every
// deployment.
package deployer

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sergiomvj/faceblog-provisioner/internal/config"
	"github.com/sergiomvj/faceblog-provisioner/internal/model"
)

var (
	// ErrNoProvider means no deploy provider is enabled.
	ErrNoProvider = errors.New("no deploy provider enabled")

	// ErrProviderUnavailable means the selected provider cannot be reached.
	ErrProviderUnavailable = errors.New("deploy provider unavailable")
)

// Provider deploys an instance directory and reports where it is reachable.
type Provider interface {
	Name() string
	Deploy(ctx context.Context, tenant *model.Tenant, instancePath string) (*model.DeploymentResult, error)
}

// Executor owns the selected provider.
type Executor struct {
	provider Provider
	logger   zerolog.Logger
}

// NewExecutor builds the provider stack from the providers file and selects
// the first enabled entry. A config with no enabled providers is valid; the
// executor then fails deployments with ErrNoProvider.
func NewExecutor(providers *config.Providers, baseDomain string, logger zerolog.Logger) (*Executor, error) {
	log := logger.With().Str("component", "deployer").Logger()

	for _, dp := range providers.Deploy {
		if !dp.Enabled {
			continue
		}
		p, err := buildProvider(dp, baseDomain)
		if err != nil {
			return nil, err
		}
		log.Info().Str("provider", p.Name()).Msg("deploy provider selected")
		return &Executor{provider: p, logger: log}, nil
	}

	log.Warn().Msg("no deploy provider enabled, deployments will fail")
	return &Executor{logger: log}, nil
}

func buildProvider(dp config.DeployProvider, baseDomain string) (Provider, error) {
	switch dp.Name {
	case "s3":
		return NewS3Provider(S3Config{
			Endpoint:  dp.Endpoint,
			Region:    dp.Region,
			Bucket:    dp.Bucket,
			AccessKey: dp.AccessKey,
			SecretKey: dp.SecretKey,
			PublicURL: dp.PublicURL,
		}, baseDomain), nil
	case "docker":
		return NewDockerProvider(DockerConfig{
			Host:    dp.Host,
			Image:   dp.Image,
			Network: dp.Network,
		}, baseDomain), nil
	case "rest":
		return NewRESTBuilder(dp.URL, dp.Token), nil
	default:
		return nil, fmt.Errorf("unknown deploy provider %q", dp.Name)
	}
}

// ProviderName returns the selected provider's name, or "" when none is
// enabled.
func (e *Executor) ProviderName() string {
	if e.provider == nil {
		return ""
	}
	return e.provider.Name()
}

// Deploy hands the instance to the selected provider.
func (e *Executor) Deploy(ctx context.Context, tenant *model.Tenant, instancePath string) (*model.DeploymentResult, error) {
	if e.provider == nil {
		return nil, ErrNoProvider
	}

	result, err := e.provider.Deploy(ctx, tenant, instancePath)
	if err != nil {
		return nil, fmt.Errorf("deploy via %s: %w", e.provider.Name(), err)
	}

	e.logger.Info().
		Str("tenant_id", tenant.ID).
		Str("provider", e.provider.Name()).
		Str("url", result.URL).
		Msg("instance deployed")
	return result, nil
}
