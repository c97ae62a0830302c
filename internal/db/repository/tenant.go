package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"auditdna/internal/domain"
)

var _ domain.TenantRepository = (*TenantRepo)(nil)

// tenantConfig is the JSON blob persisted alongside the searchable tenant
// columns. Keeping the nested sub-objects as one document mirrors their
// all-or-nothing lifecycle.
type tenantConfig struct {
	Branding domain.Branding       `json:"branding"`
	Features domain.FeatureFlags   `json:"features"`
	Limits   domain.UsageLimits    `json:"limits"`
	Settings domain.TenantSettings `json:"settings"`
	Billing  domain.Billing        `json:"billing"`
}

// TenantRepo stores tenant configuration in the control plane.
type TenantRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

// NewTenantRepo creates a new TenantRepo.
func NewTenantRepo(writeDB, readDB *sql.DB) *TenantRepo {
	return &TenantRepo{writeDB: writeDB, readDB: readDB}
}

// Insert persists a new tenant. Domain uniqueness is enforced by the schema.
func (r *TenantRepo) Insert(ctx context.Context, t *domain.Tenant) error {
	if t == nil || t.ID == "" {
		return domain.ErrValidation("tenant with id is required")
	}

	cfg, err := json.Marshal(tenantConfig{
		Branding: t.Branding, Features: t.Features, Limits: t.Limits,
		Settings: t.Settings, Billing: t.Billing,
	})
	if err != nil {
		return fmt.Errorf("marshal tenant config: %w", err)
	}

	_, err = r.writeDB.ExecContext(ctx, `
		INSERT INTO tenants (tenant_id, company_name, domain, plan, config_json, active, suspended, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.CompanyName, t.Domain, t.Plan, string(cfg),
		boolToInt(t.Active), boolToInt(t.Suspended), t.CreatedAt.Unix(), t.UpdatedAt.Unix())
	return mapDBError(err)
}

// GetActiveByID returns a tenant only if it is active and not suspended.
// Inactive tenants are indistinguishable from missing ones.
func (r *TenantRepo) GetActiveByID(ctx context.Context, id string) (*domain.Tenant, error) {
	return r.getOne(ctx, `
		SELECT tenant_id, company_name, domain, plan, config_json, active, suspended, created_at, updated_at
		FROM tenants WHERE tenant_id = ? AND active = 1 AND suspended = 0
	`, id)
}

// Update replaces a tenant's mutable configuration.
func (r *TenantRepo) Update(ctx context.Context, t *domain.Tenant) error {
	cfg, err := json.Marshal(tenantConfig{
		Branding: t.Branding, Features: t.Features, Limits: t.Limits,
		Settings: t.Settings, Billing: t.Billing,
	})
	if err != nil {
		return fmt.Errorf("marshal tenant config: %w", err)
	}

	res, err := r.writeDB.ExecContext(ctx, `
		UPDATE tenants
		SET company_name = ?, domain = ?, plan = ?, config_json = ?, active = ?, suspended = ?, updated_at = ?
		WHERE tenant_id = ?
	`, t.CompanyName, t.Domain, t.Plan, string(cfg),
		boolToInt(t.Active), boolToInt(t.Suspended), time.Now().UTC().Unix(), t.ID)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("tenant %q not found", t.ID)
	}
	return nil
}

// Deactivate soft-deactivates a tenant. Tenants are never physically deleted.
func (r *TenantRepo) Deactivate(ctx context.Context, id string) error {
	res, err := r.writeDB.ExecContext(ctx, `
		UPDATE tenants SET active = 0, updated_at = ? WHERE tenant_id = ?
	`, time.Now().UTC().Unix(), id)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("tenant %q not found", id)
	}
	return nil
}

// ListActive returns every active, unsuspended tenant.
func (r *TenantRepo) ListActive(ctx context.Context) ([]domain.Tenant, error) {
	rows, err := r.readDB.QueryContext(ctx, `
		SELECT tenant_id, company_name, domain, plan, config_json, active, suspended, created_at, updated_at
		FROM tenants WHERE active = 1 AND suspended = 0
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *TenantRepo) getOne(ctx context.Context, query string, args ...interface{}) (*domain.Tenant, error) {
	t, err := scanTenant(r.readDB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapDBError(err)
	}
	return t, nil
}

func scanTenant(row rowScanner) (*domain.Tenant, error) {
	var t domain.Tenant
	var cfg string
	var active, suspended, createdAt, updatedAt int64

	err := row.Scan(&t.ID, &t.CompanyName, &t.Domain, &t.Plan, &cfg,
		&active, &suspended, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	var parsed tenantConfig
	if err := json.Unmarshal([]byte(cfg), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal tenant config: %w", err)
	}
	t.Branding = parsed.Branding
	t.Features = parsed.Features
	t.Limits = parsed.Limits
	t.Settings = parsed.Settings
	t.Billing = parsed.Billing
	t.Active = active != 0
	t.Suspended = suspended != 0
	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	t.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return &t, nil
}
