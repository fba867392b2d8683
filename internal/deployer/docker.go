package deployer

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"

	"github.com/sergiomvj/faceblog-provisioner/internal/model"
	"github.com/sergiomvj/faceblog-provisioner/internal/platform"
)

const blogContainerPort = 8080

// DockerConfig configures the container provider.
type DockerConfig struct {
	Host    string
	Image   string
	Network string
}

// DockerProvider runs each blog as a container of the shared runtime image
// with the instance directory bind-mounted in. The edge reaches the
// container over the configured network; the published ephemeral port is
// kept in the deployment ref for debugging.
type DockerProvider struct {
	cfg        DockerConfig
	baseDomain string
}

func NewDockerProvider(cfg DockerConfig, baseDomain string) *DockerProvider {
	if cfg.Image == "" {
		cfg.Image = "faceblog/blog-runtime:latest"
	}
	return &DockerProvider{cfg: cfg, baseDomain: baseDomain}
}

func (p *DockerProvider) Name() string { return "docker" }

func (p *DockerProvider) newClient() (*client.Client, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}
	if p.cfg.Host != "" {
		opts = append(opts, client.WithHost(p.cfg.Host))
	} else {
		opts = append(opts, client.FromEnv)
	}
	return client.NewClientWithOpts(opts...)
}

func (p *DockerProvider) Deploy(ctx context.Context, tenant *model.Tenant, instancePath string) (*model.DeploymentResult, error) {
	cli, err := p.newClient()
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	defer cli.Close()

	reader, err := cli.ImagePull(ctx, p.cfg.Image, image.PullOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: pull image %s: %v", ErrProviderUnavailable, p.cfg.Image, err)
	}
	// Drain the pull output.
	_, _ = io.Copy(io.Discard, reader)
	reader.Close()

	absPath, err := filepath.Abs(instancePath)
	if err != nil {
		return nil, fmt.Errorf("resolve instance path: %w", err)
	}

	fqdn := platform.BlogHostname(p.baseDomain, tenant.Subdomain)
	containerPort := nat.Port(strconv.Itoa(blogContainerPort) + "/tcp")

	config := &container.Config{
		Image: p.cfg.Image,
		Env: []string{
			"SITE_DOMAIN=" + fqdn,
			"SITE_ROOT=/srv/site",
			"TENANT_ID=" + tenant.ID,
		},
		ExposedPorts: nat.PortSet{containerPort: struct{}{}},
	}

	hostConfig := &container.HostConfig{
		Binds: []string{absPath + ":/srv/site:ro"},
		// Empty host port lets Docker pick an ephemeral one.
		PortBindings:  nat.PortMap{containerPort: []nat.PortBinding{{HostPort: ""}}},
		RestartPolicy: container.RestartPolicy{Name: container.RestartPolicyUnlessStopped},
	}

	var networkConfig *network.NetworkingConfig
	if p.cfg.Network != "" {
		networkConfig = &network.NetworkingConfig{
			EndpointsConfig: map[string]*network.EndpointSettings{
				p.cfg.Network: {Aliases: []string{tenant.Subdomain}},
			},
		}
	}

	name := containerName(tenant.Subdomain)
	resp, err := cli.ContainerCreate(ctx, config, hostConfig, networkConfig, nil, name)
	if err != nil {
		return nil, fmt.Errorf("create container %s: %w", name, err)
	}

	if err := cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		// Leave no half-started container behind.
		_ = cli.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return nil, fmt.Errorf("start container %s: %w", name, err)
	}

	ref := resp.ID
	info, err := cli.ContainerInspect(ctx, resp.ID)
	if err == nil {
		if bindings := info.NetworkSettings.Ports[containerPort]; len(bindings) > 0 && bindings[0].HostPort != "" {
			ref = fmt.Sprintf("%s (host port %s)", resp.ID[:12], bindings[0].HostPort)
		}
	}

	return &model.DeploymentResult{
		Provider: p.Name(),
		URL:      "https://" + fqdn,
		Ref:      ref,
	}, nil
}

func containerName(subdomain string) string {
	return "blog-" + subdomain
}
