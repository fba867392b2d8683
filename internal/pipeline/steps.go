package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sergiomvj/faceblog-provisioner/internal/finalizer"
	"github.com/sergiomvj/faceblog-provisioner/internal/model"
	"github.com/sergiomvj/faceblog-provisioner/internal/platform"
)

type TenantService interface {
	Create(ctx context.Context, tenant *model.Tenant) error
	SeedDefaults(ctx context.Context, tenantID, niche string) error
}

type UserService interface {
	CreateAdmin(ctx context.Context, tenantID, email, name string) (*model.User, string, error)
}

type Generator interface {
	Generate(ctx context.Context, tenant *model.Tenant) (string, error)
}

type DomainConfigurator interface {
	Configure(ctx context.Context, tenant *model.Tenant) (*model.DomainConfig, error)
}

type Deployer interface {
	Deploy(ctx context.Context, tenant *model.Tenant, instancePath string) (*model.DeploymentResult, error)
}

type Finalizer interface {
	Finalize(ctx context.Context, in finalizer.Input) (*model.FinalizationResult, error)
}

// Deps bundles the collaborators the pipeline steps call out to.
type Deps struct {
	Tenants   TenantService
	Users     UserService
	Generator Generator
	Domains   DomainConfigurator
	Deployer  Deployer
	Finalizer Finalizer
}

// runState threads step outputs through a single pipeline run.
type runState struct {
	tenant       *model.Tenant
	tempPassword string
	instancePath string
	domain       *model.DomainConfig
	deployment   *model.DeploymentResult
}

// BuildSteps assembles the five provisioning steps for one request. The
// returned steps share run state and are bound to this single run.
func BuildSteps(deps Deps, req Request) []Step {
	st := &runState{}

	return []Step{
		{
			Name:       model.StepCreateTenant,
			Checkpoint: checkpointCreateTenant,
			Run: func(ctx context.Context) (string, error) {
				tenant := newTenant(req)
				if err := deps.Tenants.Create(ctx, tenant); err != nil {
					return "", err
				}
				st.tenant = tenant

				user, password, err := deps.Users.CreateAdmin(ctx, tenant.ID, req.OwnerEmail, req.OwnerName)
				if err != nil {
					return "", err
				}
				st.tempPassword = password

				if err := deps.Tenants.SeedDefaults(ctx, tenant.ID, tenant.Niche); err != nil {
					return "", err
				}
				return fmt.Sprintf("tenant %s created, owner %s", tenant.ID, user.Email), nil
			},
			OnSuccess: func(j *model.ProvisioningJob) {
				j.TenantID = st.tenant.ID
			},
		},
		{
			Name:       model.StepGenerateInstance,
			Checkpoint: checkpointGenerateInstance,
			Run: func(ctx context.Context) (string, error) {
				path, err := deps.Generator.Generate(ctx, st.tenant)
				if err != nil {
					return "", err
				}
				st.instancePath = path
				return "instance generated at " + path, nil
			},
			OnSuccess: func(j *model.ProvisioningJob) {
				j.InstancePath = st.instancePath
			},
		},
		{
			Name:       model.StepConfigureDomain,
			Checkpoint: checkpointConfigureDomain,
			Run: func(ctx context.Context) (string, error) {
				domain, err := deps.Domains.Configure(ctx, st.tenant)
				if err != nil {
					return "", err
				}
				st.domain = domain

				msg := "domain " + domain.Domain + " configured"
				if domain.CustomDomain && !domain.CertIssued {
					msg += " (certificate pending)"
				}
				return msg, nil
			},
		},
		{
			Name:       model.StepDeploy,
			Checkpoint: checkpointDeploy,
			Run: func(ctx context.Context) (string, error) {
				result, err := deps.Deployer.Deploy(ctx, st.tenant, st.instancePath)
				if err != nil {
					return "", err
				}
				st.deployment = result
				return fmt.Sprintf("deployed via %s to %s", result.Provider, result.URL), nil
			},
			OnSuccess: func(j *model.ProvisioningJob) {
				j.DeployURL = st.deployment.URL
			},
		},
		{
			Name:       model.StepFinalize,
			Checkpoint: checkpointFinalize,
			Run: func(ctx context.Context) (string, error) {
				result, err := deps.Finalizer.Finalize(ctx, finalizer.Input{
					Tenant:       st.tenant,
					DeployURL:    st.deployment.URL,
					OwnerEmail:   req.OwnerEmail,
					OwnerName:    req.OwnerName,
					TempPassword: st.tempPassword,
				})
				if err != nil {
					return "", err
				}

				msg := "tenant activated, api key " + result.APIKeyPrefix + " issued"
				if result.WelcomeMail {
					msg += ", welcome mail sent"
				}
				return msg, nil
			},
		},
	}
}

func newTenant(req Request) *model.Tenant {
	now := time.Now().UTC()
	tenant := &model.Tenant{
		ID:           platform.NewID(),
		Name:         req.BlogName,
		Subdomain:    req.Subdomain,
		TemplateID:   req.TemplateID,
		Theme:        req.Theme,
		PrimaryColor: req.PrimaryColor,
		Niche:        req.Niche,
		Status:       model.StatusProvisioning,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.CustomDomain != "" {
		domain := req.CustomDomain
		tenant.CustomDomain = &domain
	}
	if req.Description != "" {
		desc := req.Description
		tenant.Description = &desc
	}
	return tenant
}
