package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergiomvj/faceblog-provisioner/internal/dns"
	"github.com/sergiomvj/faceblog-provisioner/internal/finalizer"
	"github.com/sergiomvj/faceblog-provisioner/internal/jobstore"
	"github.com/sergiomvj/faceblog-provisioner/internal/model"
	"github.com/sergiomvj/faceblog-provisioner/internal/templates"
)

// ---------- Fake step collaborators ----------

type fakeTenants struct {
	mu        sync.Mutex
	created   []*model.Tenant
	seeded    []string
	createErr error
	seedErr   error

	// blockCreate, when set, makes Create wait until the channel closes or
	// the context ends.
	blockCreate chan struct{}
}

func (f *fakeTenants) Create(ctx context.Context, tenant *model.Tenant) error {
	if f.blockCreate != nil {
		select {
		case <-f.blockCreate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, tenant)
	return nil
}

func (f *fakeTenants) SeedDefaults(ctx context.Context, tenantID, niche string) error {
	if f.seedErr != nil {
		return f.seedErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeded = append(f.seeded, tenantID+"/"+niche)
	return nil
}

func (f *fakeTenants) createdTenants() []*model.Tenant {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*model.Tenant(nil), f.created...)
}

type fakeUsers struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeUsers) CreateAdmin(ctx context.Context, tenantID, email, name string) (*model.User, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return &model.User{ID: "usr-1", TenantID: tenantID, Email: email, Role: model.RoleAdmin}, "temp-pass", nil
}

type fakeGenerator struct {
	mu        sync.Mutex
	calls     int
	gotTenant *model.Tenant
	err       error
}

func (f *fakeGenerator) Generate(ctx context.Context, tenant *model.Tenant) (string, error) {
	f.mu.Lock()
	f.calls++
	f.gotTenant = tenant
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return "/instances/" + tenant.ID, nil
}

type fakeDomains struct {
	mu    sync.Mutex
	calls int
	cfg   *model.DomainConfig
	err   error
}

func (f *fakeDomains) Configure(ctx context.Context, tenant *model.Tenant) (*model.DomainConfig, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.cfg != nil {
		return f.cfg, nil
	}
	return &model.DomainConfig{Domain: tenant.Subdomain + ".faceblog.app"}, nil
}

type fakeDeployer struct {
	mu      sync.Mutex
	calls   int
	gotPath string
	err     error
}

func (f *fakeDeployer) Deploy(ctx context.Context, tenant *model.Tenant, instancePath string) (*model.DeploymentResult, error) {
	f.mu.Lock()
	f.calls++
	f.gotPath = instancePath
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &model.DeploymentResult{Provider: "s3", URL: "https://" + tenant.Subdomain + ".faceblog.app"}, nil
}

type fakeFinalizer struct {
	mu       sync.Mutex
	calls    int
	gotInput finalizer.Input
	err      error
}

func (f *fakeFinalizer) Finalize(ctx context.Context, in finalizer.Input) (*model.FinalizationResult, error) {
	f.mu.Lock()
	f.calls++
	f.gotInput = in
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &model.FinalizationResult{APIKeyPrefix: "fbp_12345678", WelcomeMail: true}, nil
}

type testDeps struct {
	tenants   *fakeTenants
	users     *fakeUsers
	generator *fakeGenerator
	domains   *fakeDomains
	deployer  *fakeDeployer
	finalizer *fakeFinalizer
}

func newTestDeps() *testDeps {
	return &testDeps{
		tenants:   &fakeTenants{},
		users:     &fakeUsers{},
		generator: &fakeGenerator{},
		domains:   &fakeDomains{},
		deployer:  &fakeDeployer{},
		finalizer: &fakeFinalizer{},
	}
}

func (d *testDeps) deps() Deps {
	return Deps{
		Tenants:   d.tenants,
		Users:     d.users,
		Generator: d.generator,
		Domains:   d.domains,
		Deployer:  d.deployer,
		Finalizer: d.finalizer,
	}
}

func testRequest() Request {
	return Request{
		BlogName:   "Acme Blog",
		Subdomain:  "acme",
		OwnerEmail: "a@acme.com",
		OwnerName:  "Alice",
		Niche:      "tech",
		TemplateID: "default-blog",
	}
}

func runPipeline(t *testing.T, d *testDeps, req Request) *model.ProvisioningJob {
	t.Helper()
	store := jobstore.NewMemoryStore(nil)
	job := newTestJob(t, store)
	runner := NewRunner(store, 0, zerolog.Nop())

	_ = runner.Run(context.Background(), job.ID, BuildSteps(d.deps(), req))
	return getJob(t, store, job.ID)
}

// ---------- Step wiring ----------

func TestSteps_HappyPath(t *testing.T) {
	d := newTestDeps()
	got := runPipeline(t, d, testRequest())

	assert.Equal(t, model.JobStateCompleted, got.State)
	assert.Equal(t, 100, got.Progress)
	assert.Empty(t, got.Error)

	// Outputs threaded from step to step.
	created := d.tenants.createdTenants()
	require.Len(t, created, 1)
	tenant := created[0]
	assert.Equal(t, "Acme Blog", tenant.Name)
	assert.Equal(t, "acme", tenant.Subdomain)
	assert.Equal(t, model.StatusProvisioning, tenant.Status)

	assert.Equal(t, []string{tenant.ID + "/tech"}, d.tenants.seeded)
	assert.Same(t, tenant, d.generator.gotTenant)
	assert.Equal(t, "/instances/"+tenant.ID, d.deployer.gotPath)

	input := d.finalizer.gotInput
	assert.Same(t, tenant, input.Tenant)
	assert.Equal(t, "https://acme.faceblog.app", input.DeployURL)
	assert.Equal(t, "a@acme.com", input.OwnerEmail)
	assert.Equal(t, "temp-pass", input.TempPassword)

	// Job fields recorded as steps complete.
	assert.Equal(t, tenant.ID, got.TenantID)
	assert.Equal(t, "/instances/"+tenant.ID, got.InstancePath)
	assert.Equal(t, "https://acme.faceblog.app", got.DeployURL)

	// Step log reads like a narrative.
	assert.Contains(t, got.Step(model.StepCreateTenant).Message, "owner a@acme.com")
	assert.Contains(t, got.Step(model.StepDeploy).Message, "deployed via s3")
	assert.Contains(t, got.Step(model.StepFinalize).Message, "api key fbp_12345678 issued")
	assert.Contains(t, got.Step(model.StepFinalize).Message, "welcome mail sent")
}

func TestSteps_UnknownTemplateFailsAtGeneration(t *testing.T) {
	d := newTestDeps()
	d.generator.err = fmt.Errorf("template %q: %w", "nope", templates.ErrNotFound)

	got := runPipeline(t, d, testRequest())

	assert.Equal(t, model.JobStateFailed, got.State)
	assert.Equal(t, model.StepGenerateInstance, got.FailedStep)
	assert.Equal(t, checkpointGenerateInstance, got.Progress)
	assert.Contains(t, got.Error, "template not found")

	// The tenant record from the previous step stays.
	assert.Len(t, d.tenants.createdTenants(), 1)

	// Nothing after the failing step ran.
	assert.Zero(t, d.domains.calls)
	assert.Zero(t, d.deployer.calls)
	assert.Zero(t, d.finalizer.calls)
}

func TestSteps_DomainFailureLeavesEarlierWorkInPlace(t *testing.T) {
	d := newTestDeps()
	d.domains.err = dns.ErrProviderUnavailable

	got := runPipeline(t, d, testRequest())

	assert.Equal(t, model.JobStateFailed, got.State)
	assert.Equal(t, model.StepConfigureDomain, got.FailedStep)
	assert.Equal(t, checkpointConfigureDomain, got.Progress)
	assert.Equal(t, "dns provider unavailable", got.Error)

	// No rollback: the tenant record and generated instance survive.
	assert.Len(t, d.tenants.createdTenants(), 1)
	assert.Equal(t, 1, d.generator.calls)
	assert.Equal(t, got.TenantID, d.tenants.createdTenants()[0].ID)
	assert.NotEmpty(t, got.InstancePath)

	assert.Zero(t, d.deployer.calls)
	assert.Zero(t, d.finalizer.calls)
}

func TestSteps_CreateTenantFailure(t *testing.T) {
	d := newTestDeps()
	d.tenants.createErr = errors.New("subdomain acme: subdomain already taken")

	got := runPipeline(t, d, testRequest())

	assert.Equal(t, model.JobStateFailed, got.State)
	assert.Equal(t, model.StepCreateTenant, got.FailedStep)
	assert.Equal(t, checkpointCreateTenant, got.Progress)
	assert.Empty(t, got.TenantID)
	assert.Zero(t, d.generator.calls)
}

func TestSteps_FinalizeFailureKeepsDeployURL(t *testing.T) {
	d := newTestDeps()
	d.finalizer.err = fmt.Errorf("activate tenant: connection refused")

	got := runPipeline(t, d, testRequest())

	assert.Equal(t, model.JobStateFailed, got.State)
	assert.Equal(t, model.StepFinalize, got.FailedStep)
	assert.Equal(t, checkpointFinalize, got.Progress)

	// The deploy already happened and its URL stays on the job.
	assert.Equal(t, "https://acme.faceblog.app", got.DeployURL)
}

func TestSteps_CustomDomainCertPendingMessage(t *testing.T) {
	d := newTestDeps()
	d.domains.cfg = &model.DomainConfig{Domain: "blog.acme.com", CustomDomain: true, CertIssued: false}

	got := runPipeline(t, d, testRequest())

	require.Equal(t, model.JobStateCompleted, got.State)
	assert.Equal(t, "domain blog.acme.com configured (certificate pending)", got.Step(model.StepConfigureDomain).Message)
}

func TestNewTenant_OptionalFields(t *testing.T) {
	req := testRequest()
	req.CustomDomain = "blog.acme.com"
	req.Description = "A blog about acme things"

	tenant := newTenant(req)
	require.NotNil(t, tenant.CustomDomain)
	assert.Equal(t, "blog.acme.com", *tenant.CustomDomain)
	require.NotNil(t, tenant.Description)
	assert.Equal(t, "A blog about acme things", *tenant.Description)
	assert.NotEmpty(t, tenant.ID)

	bare := newTenant(testRequest())
	assert.Nil(t, bare.CustomDomain)
	assert.Nil(t, bare.Description)
}
