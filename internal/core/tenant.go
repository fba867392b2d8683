package core

import (
	"context"
	"fmt"

	"github.com/sergiomvj/faceblog-provisioner/internal/api/request"
	"github.com/sergiomvj/faceblog-provisioner/internal/model"
)

const tenantColumns = `id, name, subdomain, custom_domain, template_id, theme, primary_color, niche, description, deploy_url, status, activated_at, created_at, updated_at`

type TenantService struct {
	db DB
}

func NewTenantService(db DB) *TenantService {
	return &TenantService{db: db}
}

func (s *TenantService) Create(ctx context.Context, tenant *model.Tenant) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO tenants (id, name, subdomain, custom_domain, template_id, theme, primary_color, niche, description, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		tenant.ID, tenant.Name, tenant.Subdomain, tenant.CustomDomain, tenant.TemplateID,
		tenant.Theme, tenant.PrimaryColor, tenant.Niche, tenant.Description,
		tenant.Status, tenant.CreatedAt, tenant.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("subdomain %s: %w", tenant.Subdomain, ErrSubdomainTaken)
		}
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

func scanTenant(row interface{ Scan(...any) error }, t *model.Tenant) error {
	return row.Scan(&t.ID, &t.Name, &t.Subdomain, &t.CustomDomain, &t.TemplateID,
		&t.Theme, &t.PrimaryColor, &t.Niche, &t.Description, &t.DeployURL,
		&t.Status, &t.ActivatedAt, &t.CreatedAt, &t.UpdatedAt)
}

func (s *TenantService) GetByID(ctx context.Context, id string) (*model.Tenant, error) {
	var t model.Tenant
	err := scanTenant(s.db.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id), &t)
	if err != nil {
		return nil, fmt.Errorf("get tenant %s: %w", id, err)
	}
	return &t, nil
}

func (s *TenantService) GetBySubdomain(ctx context.Context, subdomain string) (*model.Tenant, error) {
	var t model.Tenant
	err := scanTenant(s.db.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE subdomain = $1`, subdomain), &t)
	if err != nil {
		return nil, fmt.Errorf("get tenant by subdomain %s: %w", subdomain, err)
	}
	return &t, nil
}

// SubdomainAvailable reports whether no tenant holds the subdomain yet.
// Provisioning also relies on the unique constraint, this is the cheap
// synchronous check for request validation.
func (s *TenantService) SubdomainAvailable(ctx context.Context, subdomain string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tenants WHERE subdomain = $1 AND status != 'deleted')`, subdomain,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check subdomain %s: %w", subdomain, err)
	}
	return !exists, nil
}

func (s *TenantService) List(ctx context.Context, params request.ListParams) ([]model.Tenant, bool, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE status != 'deleted'`
	args := []any{}
	argIdx := 1

	if params.Search != "" {
		query += fmt.Sprintf(` AND (subdomain ILIKE $%d OR name ILIKE $%d)`, argIdx, argIdx)
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}
	if params.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, params.Status)
		argIdx++
	}
	if params.Cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, params.Cursor)
		argIdx++
	}

	query += ` ORDER BY id`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, params.Limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []model.Tenant
	for rows.Next() {
		var t model.Tenant
		if err := scanTenant(rows, &t); err != nil {
			return nil, false, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate tenants: %w", err)
	}

	hasMore := len(tenants) > params.Limit
	if hasMore {
		tenants = tenants[:params.Limit]
	}
	return tenants, hasMore, nil
}

// Activate marks the tenant live once its instance is deployed.
func (s *TenantService) Activate(ctx context.Context, id, deployURL string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE tenants SET status = 'active', deploy_url = $1, activated_at = now(), updated_at = now() WHERE id = $2`,
		deployURL, id,
	)
	if err != nil {
		return fmt.Errorf("activate tenant %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tenant %s not found", id)
	}
	return nil
}

func (s *TenantService) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE tenants SET status = $1, updated_at = now() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("update tenant %s status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tenant %s not found", id)
	}
	return nil
}
