package deployer

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sergiomvj/faceblog-provisioner/internal/model"
	"github.com/sergiomvj/faceblog-provisioner/internal/platform"
)

// S3Config configures the static-site provider.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string

	// PublicURL is the serving URL pattern; {subdomain} is replaced per
	// tenant. Empty means https://<subdomain>.<base domain>.
	PublicURL string
}

// S3Provider uploads the instance as a static site, one object per file
// under the subdomain prefix. Works against AWS or any S3-compatible store
// (MinIO, Ceph RGW).
type S3Provider struct {
	cfg        S3Config
	baseDomain string
	client     *s3.Client
}

func NewS3Provider(cfg S3Config, baseDomain string) *S3Provider {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return &S3Provider{
		cfg:        cfg,
		baseDomain: baseDomain,
		client:     s3.New(opts),
	}
}

func (p *S3Provider) Name() string { return "s3" }

func (p *S3Provider) Deploy(ctx context.Context, tenant *model.Tenant, instancePath string) (*model.DeploymentResult, error) {
	uploaded := 0
	err := filepath.WalkDir(instancePath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(instancePath, path)
		if err != nil {
			return err
		}
		key := objectKey(tenant.Subdomain, rel)

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(p.cfg.Bucket),
			Key:         aws.String(key),
			Body:        f,
			ContentType: aws.String(contentType(rel)),
		})
		if err != nil {
			return fmt.Errorf("%w: put %s: %v", ErrProviderUnavailable, key, err)
		}
		uploaded++
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &model.DeploymentResult{
		Provider: p.Name(),
		URL:      p.publicURL(tenant.Subdomain),
		Ref:      fmt.Sprintf("s3://%s/%s/ (%d objects)", p.cfg.Bucket, tenant.Subdomain, uploaded),
	}, nil
}

func (p *S3Provider) publicURL(subdomain string) string {
	if p.cfg.PublicURL != "" {
		return strings.ReplaceAll(p.cfg.PublicURL, "{subdomain}", subdomain)
	}
	return "https://" + platform.BlogHostname(p.baseDomain, subdomain)
}

func objectKey(subdomain, rel string) string {
	return subdomain + "/" + filepath.ToSlash(rel)
}

func contentType(rel string) string {
	if ct := mime.TypeByExtension(filepath.Ext(rel)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
