package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/sergiomvj/faceblog-provisioner/internal/platform"
)

// Starter categories per niche. Unknown niches fall back to the general set
// so a fresh blog never starts with an empty taxonomy.
var nicheCategories = map[string][]string{
	"tech":      {"Tutorials", "Reviews", "Industry News"},
	"food":      {"Recipes", "Restaurants", "Kitchen Tips"},
	"travel":    {"Destinations", "Guides", "Travel Stories"},
	"lifestyle": {"Wellness", "Home", "Inspiration"},
	"business":  {"Strategy", "Marketing", "Finance"},
	"fashion":   {"Trends", "Outfits", "Beauty"},
}

var generalCategories = []string{"General", "Updates"}

var nicheTags = map[string][]string{
	"tech":      {"howto", "tools", "opinion"},
	"food":      {"quick", "vegetarian", "seasonal"},
	"travel":    {"budget", "citytrip", "outdoors"},
	"lifestyle": {"minimalism", "routine", "wellbeing"},
	"business":  {"startup", "growth", "remote"},
	"fashion":   {"streetwear", "vintage", "sustainable"},
}

var generalTags = []string{"featured", "news"}

// SeedDefaults inserts the starter categories and tags for a new tenant.
// Inserts are conflict-tolerant so a re-run of the create step never fails
// on rows it already wrote.
func (s *TenantService) SeedDefaults(ctx context.Context, tenantID, niche string) error {
	categories, ok := nicheCategories[niche]
	if !ok {
		categories = generalCategories
	}
	tags, ok := nicheTags[niche]
	if !ok {
		tags = generalTags
	}

	for _, name := range categories {
		_, err := s.db.Exec(ctx,
			`INSERT INTO categories (id, tenant_id, name, slug, created_at)
			 VALUES ($1, $2, $3, $4, now())
			 ON CONFLICT (tenant_id, slug) DO NOTHING`,
			platform.NewID(), tenantID, name, slugify(name),
		)
		if err != nil {
			return fmt.Errorf("seed category %q: %w", name, err)
		}
	}

	for _, name := range tags {
		_, err := s.db.Exec(ctx,
			`INSERT INTO tags (id, tenant_id, name, slug, created_at)
			 VALUES ($1, $2, $3, $4, now())
			 ON CONFLICT (tenant_id, slug) DO NOTHING`,
			platform.NewID(), tenantID, name, slugify(name),
		)
		if err != nil {
			return fmt.Errorf("seed tag %q: %w", name, err)
		}
	}

	return nil
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(slug, " ", "-")
}
