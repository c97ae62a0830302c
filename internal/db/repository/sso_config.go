package repository

import (
	"context"
	"database/sql"
	"time"

	"auditdna/internal/domain"
)

var _ domain.SSOConfigRepository = (*SSOConfigRepo)(nil)

// SSOConfigRepo stores per-tenant SSO integration configs in the control plane.
type SSOConfigRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

// NewSSOConfigRepo creates a new SSOConfigRepo.
func NewSSOConfigRepo(writeDB, readDB *sql.DB) *SSOConfigRepo {
	return &SSOConfigRepo{writeDB: writeDB, readDB: readDB}
}

// Upsert writes a tenant's SSO config, replacing any existing config for the
// same provider.
func (r *SSOConfigRepo) Upsert(ctx context.Context, c *domain.SSOConfig) error {
	if c == nil || c.TenantID == "" || c.Provider == "" {
		return domain.ErrValidation("sso config with tenant id and provider is required")
	}
	now := time.Now().UTC().Unix()

	_, err := r.writeDB.ExecContext(ctx, `
		INSERT INTO sso_configs (tenant_id, provider, issuer_url, client_id, client_secret,
			entry_point, certificate, identifier_format, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tenant_id, provider) DO UPDATE SET
			issuer_url = excluded.issuer_url,
			client_id = excluded.client_id,
			client_secret = excluded.client_secret,
			entry_point = excluded.entry_point,
			certificate = excluded.certificate,
			identifier_format = excluded.identifier_format,
			updated_at = excluded.updated_at
	`, c.TenantID, c.Provider, c.IssuerURL, c.ClientID, c.ClientSecret,
		c.EntryPoint, c.Certificate, c.IdentifierFormat, now, now)
	return mapDBError(err)
}

// GetByTenant returns one tenant's SSO config for a provider.
func (r *SSOConfigRepo) GetByTenant(ctx context.Context, tenantID, provider string) (*domain.SSOConfig, error) {
	var c domain.SSOConfig
	var createdAt, updatedAt int64

	err := r.readDB.QueryRowContext(ctx, `
		SELECT tenant_id, provider, issuer_url, client_id, client_secret,
		       entry_point, certificate, identifier_format, created_at, updated_at
		FROM sso_configs WHERE tenant_id = ? AND provider = ?
	`, tenantID, provider).Scan(&c.TenantID, &c.Provider, &c.IssuerURL, &c.ClientID,
		&c.ClientSecret, &c.EntryPoint, &c.Certificate, &c.IdentifierFormat,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}

	c.CreatedAt = time.Unix(createdAt, 0).UTC()
	c.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &c, nil
}
