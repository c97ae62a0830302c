package tenant

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"auditdna/internal/db"
	"auditdna/internal/domain"
)

const (
	slugMaxLen    = 20
	adminRole     = "tenant_admin"
	bcryptCost    = 12
	idSuffixBytes = 4
)

// Provisioner creates and retires tenants. Provisioning order is deliberate:
// the storage namespace is opened and migrated first, then the admin user is
// created inside it, and the tenant row is inserted last, so a tenant is
// never resolvable before its namespace and administrator exist.
type Provisioner struct {
	tenants    domain.TenantRepository
	registry   *Registry
	baseDomain string
	logger     *slog.Logger
}

// NewProvisioner creates a Provisioner.
func NewProvisioner(tenants domain.TenantRepository, registry *Registry, baseDomain string, logger *slog.Logger) *Provisioner {
	return &Provisioner{
		tenants:    tenants,
		registry:   registry,
		baseDomain: baseDomain,
		logger:     logger,
	}
}

// CreateTenant provisions one tenant end to end: generated id, defaulted
// configuration, migrated namespace, single administrator with the fixed
// permission set.
func (p *Provisioner) CreateTenant(ctx context.Context, params domain.CreateTenantParams) (*domain.ProvisionResult, error) {
	if strings.TrimSpace(params.CompanyName) == "" {
		return nil, domain.ErrValidation("companyName is required")
	}
	if strings.TrimSpace(params.AdminUser.Email) == "" {
		return nil, domain.ErrValidation("adminUser.email is required")
	}
	if params.AdminUser.Password == "" {
		return nil, domain.ErrValidation("adminUser.password is required")
	}

	id, err := GenerateTenantID(params.CompanyName)
	if err != nil {
		return nil, err
	}
	t := domain.NewTenant(id, params, p.baseDomain)

	stores, err := p.registry.Warm(id)
	if err != nil {
		return nil, err
	}

	admin, err := newAdminUser(params.AdminUser)
	if err != nil {
		return nil, err
	}
	if err := stores.Users.Insert(ctx, admin); err != nil {
		p.discardNamespace(id)
		return nil, fmt.Errorf("create tenant admin: %w", err)
	}

	if err := p.tenants.Insert(ctx, t); err != nil {
		p.discardNamespace(id)
		return nil, err
	}

	p.logger.Info("tenant provisioned",
		"tenant", id, "company", t.CompanyName, "domain", t.Domain, "plan", t.Plan)

	return &domain.ProvisionResult{
		TenantID:      t.ID,
		Domain:        t.Domain,
		AdminLoginURL: "https://" + t.Domain + "/admin",
	}, nil
}

// discardNamespace closes the handle and deletes the namespace file created
// for a provisioning attempt that failed. The random id suffix means the file
// would otherwise never be reused, and it may already hold the admin row.
func (p *Provisioner) discardNamespace(tenantID string) {
	p.registry.Invalidate(tenantID)

	path := db.TenantDBPath(p.registry.dataDir, tenantID)
	for _, f := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			p.logger.Warn("removing orphaned namespace file", "tenant", tenantID, "path", f, "error", err)
		}
	}
}

// DeactivateTenant soft-deactivates a tenant and drops its cached namespace
// handle. The namespace file is kept; reactivation is a plain row update.
func (p *Provisioner) DeactivateTenant(ctx context.Context, tenantID string) error {
	if err := p.tenants.Deactivate(ctx, tenantID); err != nil {
		return err
	}
	p.registry.Invalidate(tenantID)
	p.logger.Info("tenant deactivated", "tenant", tenantID)
	return nil
}

// GenerateTenantID builds a tenant id from the company name: a slug of at
// most 20 characters, an underscore, and 8 random hex characters. The random
// suffix keeps ids unique across tenants with colliding names.
func GenerateTenantID(companyName string) (string, error) {
	slug := Slugify(companyName)
	if slug == "" {
		return "", domain.ErrValidation("companyName yields an empty identifier")
	}
	if len(slug) > slugMaxLen {
		slug = slug[:slugMaxLen]
	}

	buf := make([]byte, idSuffixBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate tenant id: %w", err)
	}
	return slug + "_" + hex.EncodeToString(buf), nil
}

// Slugify lowercases the name and strips everything but letters and digits.
func Slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// newAdminUser builds the tenant administrator with the fixed permission set.
func newAdminUser(spec domain.AdminUserSpec) (*domain.TenantUser, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(spec.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now().UTC()
	return &domain.TenantUser{
		ID:           domain.NewID(),
		Email:        strings.ToLower(strings.TrimSpace(spec.Email)),
		PasswordHash: string(hash),
		Role:         adminRole,
		FirstName:    spec.FirstName,
		LastName:     spec.LastName,
		Permissions:  append([]string(nil), domain.AdminPermissions...),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
