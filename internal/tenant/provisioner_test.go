package tenant

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"auditdna/internal/db"
	"auditdna/internal/db/repository"
	"auditdna/internal/domain"
)

func newTestProvisioner(t *testing.T) (*Provisioner, *Registry, domain.TenantRepository) {
	t.Helper()

	writeDB, readDB := db.OpenTestControl(t)
	tenants := repository.NewTenantRepo(writeDB, readDB)
	registry := NewRegistry(tenants, t.TempDir(), testLogger())
	t.Cleanup(func() { _ = registry.Close() })

	return NewProvisioner(tenants, registry, "auditdna.com", testLogger()), registry, tenants
}

func validParams() domain.CreateTenantParams {
	return domain.CreateTenantParams{
		CompanyName: "Acme Co",
		AdminUser: domain.AdminUserSpec{
			Email:     "Admin@Acme.example",
			Password:  "hunter2hunter2",
			FirstName: "Ada",
		},
	}
}

func TestProvisioner_CreateTenant(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		p, registry, tenants := newTestProvisioner(t)
		ctx := context.Background()

		res, err := p.CreateTenant(ctx, validParams())

		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^acmeco_[0-9a-f]{8}$`), res.TenantID)
		assert.Equal(t, res.TenantID+".auditdna.com", res.Domain)
		assert.Equal(t, "https://"+res.Domain+"/admin", res.AdminLoginURL)

		// Tenant row carries every default.
		stored, err := tenants.GetActiveByID(ctx, res.TenantID)
		require.NoError(t, err)
		assert.Equal(t, "Acme Co", stored.CompanyName)
		assert.Equal(t, "enterprise", stored.Plan)
		assert.Equal(t, "#3B82F6", stored.Branding.PrimaryColor)
		assert.Equal(t, 1000, stored.Limits.MaxUsers)
		assert.True(t, stored.Features.SSO)
		assert.True(t, stored.Settings.Notifications.Email)

		// The namespace holds exactly one user: the administrator.
		stores, err := registry.Warm(res.TenantID)
		require.NoError(t, err)
		n, err := stores.Users.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		admin, err := stores.Users.GetByEmail(ctx, "admin@acme.example")
		require.NoError(t, err)
		assert.Equal(t, "tenant_admin", admin.Role)
		assert.ElementsMatch(t, domain.AdminPermissions, admin.Permissions)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("hunter2hunter2")))
	})

	t.Run("custom_domain_and_plan_respected", func(t *testing.T) {
		p, _, tenants := newTestProvisioner(t)
		params := validParams()
		params.Domain = "audits.acme.example"
		params.Plan = "standard"

		res, err := p.CreateTenant(context.Background(), params)

		require.NoError(t, err)
		assert.Equal(t, "audits.acme.example", res.Domain)
		stored, err := tenants.GetActiveByID(context.Background(), res.TenantID)
		require.NoError(t, err)
		assert.Equal(t, "standard", stored.Plan)
	})

	t.Run("colliding_company_names_get_distinct_ids", func(t *testing.T) {
		p, _, _ := newTestProvisioner(t)

		a, err := p.CreateTenant(context.Background(), validParams())
		require.NoError(t, err)
		b, err := p.CreateTenant(context.Background(), validParams())
		require.NoError(t, err)

		assert.NotEqual(t, a.TenantID, b.TenantID)
	})

	t.Run("missing_fields_rejected", func(t *testing.T) {
		p, _, _ := newTestProvisioner(t)
		ctx := context.Background()

		for name, mutate := range map[string]func(*domain.CreateTenantParams){
			"company":  func(p *domain.CreateTenantParams) { p.CompanyName = "  " },
			"email":    func(p *domain.CreateTenantParams) { p.AdminUser.Email = "" },
			"password": func(p *domain.CreateTenantParams) { p.AdminUser.Password = "" },
		} {
			params := validParams()
			mutate(&params)
			_, err := p.CreateTenant(ctx, params)
			require.Error(t, err, name)
			var ve *domain.ValidationError
			assert.ErrorAs(t, err, &ve, name)
		}
	})
}

func TestProvisioner_DeactivateTenant(t *testing.T) {
	t.Parallel()

	p, registry, _ := newTestProvisioner(t)
	ctx := context.Background()

	res, err := p.CreateTenant(ctx, validParams())
	require.NoError(t, err)

	require.NoError(t, p.DeactivateTenant(ctx, res.TenantID))

	_, err = registry.Resolve(ctx, res.TenantID)
	require.Error(t, err)
	var te *domain.TenantResolutionError
	require.ErrorAs(t, err, &te)
	assert.False(t, te.Missing)
}

func TestProvisioner_CreateTenant_FailureRemovesNamespace(t *testing.T) {
	t.Parallel()

	writeDB, readDB := db.OpenTestControl(t)
	tenants := repository.NewTenantRepo(writeDB, readDB)
	dataDir := t.TempDir()
	registry := NewRegistry(tenants, dataDir, testLogger())
	t.Cleanup(func() { _ = registry.Close() })
	p := NewProvisioner(tenants, registry, "auditdna.com", testLogger())
	ctx := context.Background()

	first := validParams()
	first.Domain = "portal.dup.example"
	_, err := p.CreateTenant(ctx, first)
	require.NoError(t, err)

	second := validParams()
	second.CompanyName = "Other Co"
	second.Domain = "portal.dup.example"
	_, err = p.CreateTenant(ctx, second)
	require.Error(t, err)

	// Only the successful tenant's namespace file survives.
	files, err := filepath.Glob(filepath.Join(dataDir, "tenants", "*.sqlite"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Contains(t, files[0], "acmeco_")
}

func TestGenerateTenantID(t *testing.T) {
	t.Parallel()

	t.Run("format", func(t *testing.T) {
		id, err := GenerateTenantID("Acme Co")
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^acmeco_[0-9a-f]{8}$`), id)
	})

	t.Run("slug_truncated", func(t *testing.T) {
		id, err := GenerateTenantID("An Extremely Long Corporation Name LLC")
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^[a-z0-9]{20}_[0-9a-f]{8}$`), id)
	})

	t.Run("symbols_stripped", func(t *testing.T) {
		id, err := GenerateTenantID("Głøbal! Audits & Co.")
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^[a-z0-9]+_[0-9a-f]{8}$`), id)
	})

	t.Run("empty_slug_rejected", func(t *testing.T) {
		_, err := GenerateTenantID("!!!")
		require.Error(t, err)
	})
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Acme Co":        "acmeco",
		"ACME-2000":      "acme2000",
		"  spaced  out ": "spacedout",
		"日本":             "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "input %q", in)
	}
}
