// Package generator materializes blog instances from template blueprints.
// An instance is a directory under the instances dir holding a copy of the
// template files plus a site.json with the tenant's settings.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sergiomvj/faceblog-provisioner/internal/model"
	"github.com/sergiomvj/faceblog-provisioner/internal/templates"
)

const siteConfigFile = "site.json"

// SiteConfig is written to site.json at the instance root. The blog runtime
// reads it to render the tenant's site.
type SiteConfig struct {
	TenantID        string    `json:"tenant_id"`
	Name            string    `json:"name"`
	Subdomain       string    `json:"subdomain"`
	Domain          string    `json:"domain"`
	Description     string    `json:"description,omitempty"`
	Theme           string    `json:"theme"`
	PrimaryColor    string    `json:"primary_color"`
	Niche           string    `json:"niche,omitempty"`
	TemplateID      string    `json:"template_id"`
	TemplateVersion string    `json:"template_version,omitempty"`
	GeneratedAt     time.Time `json:"generated_at"`
}

type Generator struct {
	registry     *templates.Registry
	instancesDir string
	baseDomain   string
	apiBaseURL   string
	logger       zerolog.Logger
}

func New(registry *templates.Registry, instancesDir, baseDomain, apiBaseURL string, logger zerolog.Logger) *Generator {
	if apiBaseURL == "" {
		apiBaseURL = "https://api." + baseDomain
	}
	return &Generator{
		registry:     registry,
		instancesDir: instancesDir,
		baseDomain:   baseDomain,
		apiBaseURL:   apiBaseURL,
		logger:       logger.With().Str("component", "generator").Logger(),
	}
}

// Generate builds the instance directory for the tenant and returns its
// path. The template is resolved here, so a missing template fails the
// generate step rather than request validation.
func (g *Generator) Generate(ctx context.Context, tenant *model.Tenant) (string, error) {
	tpl, err := g.registry.Get(tenant.TemplateID)
	if err != nil {
		return "", err
	}

	theme := tenant.Theme
	if theme == "" {
		theme = tpl.DefaultTheme
	}
	if !tpl.SupportsTheme(theme) {
		g.logger.Warn().
			Str("tenant_id", tenant.ID).
			Str("theme", theme).
			Str("template", tpl.ID).
			Msg("theme not shipped by template, falling back to default")
		theme = tpl.DefaultTheme
	}

	// A leftover instance from a previous attempt is replaced wholesale, so
	// retrying the generate step never mixes old and new files.
	dest := filepath.Join(g.instancesDir, tenant.Subdomain)
	if err := os.RemoveAll(dest); err != nil {
		return "", fmt.Errorf("clear instance directory %s: %w", dest, err)
	}

	if err := copyTree(ctx, tpl.Path, dest); err != nil {
		os.RemoveAll(dest)
		return "", fmt.Errorf("copy template %s: %w", tpl.ID, err)
	}

	if err := g.substituteVariables(tpl, tenant, theme, dest); err != nil {
		os.RemoveAll(dest)
		return "", err
	}

	cfg := SiteConfig{
		TenantID:        tenant.ID,
		Name:            tenant.Name,
		Subdomain:       tenant.Subdomain,
		Domain:          tenant.Domain(g.baseDomain),
		Theme:           theme,
		PrimaryColor:    tenant.PrimaryColor,
		Niche:           tenant.Niche,
		TemplateID:      tpl.ID,
		TemplateVersion: tpl.Version,
		GeneratedAt:     time.Now().UTC(),
	}
	if tenant.Description != nil {
		cfg.Description = *tenant.Description
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		os.RemoveAll(dest)
		return "", fmt.Errorf("marshal site config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dest, siteConfigFile), data, 0o644); err != nil {
		os.RemoveAll(dest)
		return "", fmt.Errorf("write site config: %w", err)
	}

	g.logger.Info().
		Str("tenant_id", tenant.ID).
		Str("template", tpl.ID).
		Str("path", dest).
		Msg("instance generated")

	return dest, nil
}

// variableValues maps the template's declared variable names to their
// tenant-specific values.
func (g *Generator) variableValues(tenant *model.Tenant, tpl *model.Template, theme string) map[string]string {
	return map[string]string{
		"TENANT_ID":            tenant.ID,
		"SITE_NAME":            tenant.Name,
		"SUBDOMAIN":            tenant.Subdomain,
		"DOMAIN":               tenant.Domain(g.baseDomain),
		"THEME":                theme,
		"PRIMARY_COLOR":        tenant.PrimaryColor,
		"NICHE":                tenant.Niche,
		"TEMPLATE_VERSION":     tpl.Version,
		"API_BASE_URL":         g.apiBaseURL,
		"CREDENTIALS_ENDPOINT": g.apiBaseURL + "/api/v1/auth",
	}
}

// substituteVariables rewrites the template's declared config files in the
// copied instance, replacing every declared {{VAR}} token. A declared
// variable with no known value becomes empty, with a warning.
func (g *Generator) substituteVariables(tpl *model.Template, tenant *model.Tenant, theme, dest string) error {
	if len(tpl.ConfigFiles) == 0 || len(tpl.Variables) == 0 {
		return nil
	}

	values := g.variableValues(tenant, tpl, theme)

	for _, rel := range tpl.ConfigFiles {
		path := filepath.Join(dest, filepath.FromSlash(rel))
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config file %s: %w", rel, err)
		}

		content := string(data)
		for _, name := range tpl.Variables {
			value, ok := values[name]
			if !ok {
				g.logger.Warn().
					Str("template", tpl.ID).
					Str("variable", name).
					Msg("declared variable has no value, substituting empty")
			}
			content = strings.ReplaceAll(content, "{{"+name+"}}", value)
		}

		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write config file %s: %w", rel, err)
		}
	}
	return nil
}

// copyTree copies the template directory into dest, skipping the metadata
// file. It checks ctx between files so a canceled step stops promptly.
func copyTree(ctx context.Context, src, dest string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "template.yaml" {
			return nil
		}
		target := filepath.Join(dest, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		return copyFile(path, target)
	})
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
