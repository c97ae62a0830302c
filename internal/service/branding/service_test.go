package branding

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditdna/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// === Tenant Repository Mock ===

type mockTenantRepo struct {
	tenants map[string]*domain.Tenant
	updated *domain.Tenant
}

func newMockTenantRepo(ts ...*domain.Tenant) *mockTenantRepo {
	m := &mockTenantRepo{tenants: make(map[string]*domain.Tenant)}
	for _, t := range ts {
		m.tenants[t.ID] = t
	}
	return m
}

func (m *mockTenantRepo) Insert(_ context.Context, t *domain.Tenant) error {
	m.tenants[t.ID] = t
	return nil
}

func (m *mockTenantRepo) GetActiveByID(_ context.Context, id string) (*domain.Tenant, error) {
	t, ok := m.tenants[id]
	if !ok || !t.Active {
		return nil, domain.ErrNotFound("tenant %q not found", id)
	}
	cp := *t
	return &cp, nil
}

func (m *mockTenantRepo) Update(_ context.Context, t *domain.Tenant) error {
	m.tenants[t.ID] = t
	m.updated = t
	return nil
}

func (m *mockTenantRepo) Deactivate(_ context.Context, id string) error {
	if t, ok := m.tenants[id]; ok {
		t.Active = false
	}
	return nil
}

func (m *mockTenantRepo) ListActive(context.Context) ([]domain.Tenant, error) {
	var out []domain.Tenant
	for _, t := range m.tenants {
		if t.Active {
			out = append(out, *t)
		}
	}
	return out, nil
}

// === Asset Store Mock ===

type mockAssetStore struct {
	puts map[string][]byte
}

func newMockAssetStore() *mockAssetStore {
	return &mockAssetStore{puts: make(map[string][]byte)}
}

func (m *mockAssetStore) Put(_ context.Context, key, _ string, data []byte) error {
	m.puts[key] = data
	return nil
}

func (m *mockAssetStore) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://assets.example/" + key + "?sig=abc", nil
}

func seededTenant() *domain.Tenant {
	return domain.NewTenant("acmeco_12345678", domain.CreateTenantParams{CompanyName: "Acme Co"}, "auditdna.com")
}

func TestService_UploadAsset(t *testing.T) {
	t.Parallel()

	t.Run("logo_stored_and_url_recorded", func(t *testing.T) {
		repo := newMockTenantRepo(seededTenant())
		store := newMockAssetStore()
		svc := NewService(repo, store, nil, testLogger())

		updated, err := svc.UploadAsset(context.Background(), "acmeco_12345678", AssetLogo, "image/png", []byte{0x89, 0x50})

		require.NoError(t, err)
		assert.Contains(t, store.puts, "tenants/acmeco_12345678/branding/logo.png")
		assert.Contains(t, updated.Branding.LogoURL, "tenants/acmeco_12345678/branding/logo.png")
		require.NotNil(t, repo.updated)
		assert.Equal(t, updated.Branding.LogoURL, repo.updated.Branding.LogoURL)
	})

	t.Run("unsupported_content_type", func(t *testing.T) {
		svc := NewService(newMockTenantRepo(seededTenant()), newMockAssetStore(), nil, testLogger())

		_, err := svc.UploadAsset(context.Background(), "acmeco_12345678", AssetLogo, "application/pdf", []byte("x"))

		require.Error(t, err)
		var ve *domain.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("white_label_disabled", func(t *testing.T) {
		tn := seededTenant()
		tn.Features.WhiteLabel = false
		svc := NewService(newMockTenantRepo(tn), newMockAssetStore(), nil, testLogger())

		_, err := svc.UploadAsset(context.Background(), tn.ID, AssetLogo, "image/png", []byte("x"))

		require.Error(t, err)
	})

	t.Run("no_store_configured", func(t *testing.T) {
		svc := NewService(newMockTenantRepo(seededTenant()), nil, nil, testLogger())

		_, err := svc.UploadAsset(context.Background(), "acmeco_12345678", AssetLogo, "image/png", []byte("x"))

		require.Error(t, err)
	})
}

func TestService_PublishCSS(t *testing.T) {
	t.Parallel()

	t.Run("stylesheet_stored_and_url_returned", func(t *testing.T) {
		store := newMockAssetStore()
		svc := NewService(newMockTenantRepo(seededTenant()), store, nil, testLogger())

		url, err := svc.PublishCSS(context.Background(), "acmeco_12345678")

		require.NoError(t, err)
		assert.Contains(t, url, "tenants/acmeco_12345678/branding/theme.css")
		css := string(store.puts["tenants/acmeco_12345678/branding/theme.css"])
		assert.Contains(t, css, "--brand-primary")
		assert.Contains(t, css, "#3B82F6")
	})

	t.Run("no_store_configured", func(t *testing.T) {
		svc := NewService(newMockTenantRepo(seededTenant()), nil, nil, testLogger())

		_, err := svc.PublishCSS(context.Background(), "acmeco_12345678")

		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
	})
}

func TestService_UpdateBranding(t *testing.T) {
	t.Parallel()

	t.Run("partial_patch", func(t *testing.T) {
		repo := newMockTenantRepo(seededTenant())
		svc := NewService(repo, nil, nil, testLogger())

		updated, err := svc.UpdateBranding(context.Background(), "acmeco_12345678", domain.Branding{
			PrimaryColor: "#112233",
			CustomCSS:    ".hero { display: none; }",
		})

		require.NoError(t, err)
		assert.Equal(t, "#112233", updated.Branding.PrimaryColor)
		assert.Equal(t, "#10B981", updated.Branding.SecondaryColor, "unset fields keep defaults")
		assert.Equal(t, ".hero { display: none; }", updated.Branding.CustomCSS)
	})

	t.Run("invalid_color_rejected", func(t *testing.T) {
		svc := NewService(newMockTenantRepo(seededTenant()), nil, nil, testLogger())

		_, err := svc.UpdateBranding(context.Background(), "acmeco_12345678", domain.Branding{PrimaryColor: "blue"})

		require.Error(t, err)
	})

	t.Run("cached_config_invalidated", func(t *testing.T) {
		cache := &mockConfigCache{}
		svc := NewService(newMockTenantRepo(seededTenant()), nil, cache, testLogger())

		_, err := svc.UpdateBranding(context.Background(), "acmeco_12345678", domain.Branding{PrimaryColor: "#112233"})

		require.NoError(t, err)
		assert.Equal(t, []string{"acmeco_12345678"}, cache.invalidated)
	})
}

type mockConfigCache struct {
	invalidated []string
}

func (m *mockConfigCache) InvalidateConfig(tenantID string) {
	m.invalidated = append(m.invalidated, tenantID)
}

func TestGenerateCSS(t *testing.T) {
	t.Parallel()

	css := GenerateCSS(domain.Branding{
		PrimaryColor:       "#3B82F6",
		SecondaryColor:     "#10B981",
		AccentColor:        "#F59E0B",
		LoginBackgroundURL: "https://assets.example/bg.png",
		CustomCSS:          ".footer { display: none; }",
	})

	assert.Contains(t, css, "--brand-primary: #3B82F6;")
	assert.Contains(t, css, "--brand-secondary: #10B981;")
	assert.Contains(t, css, "--brand-accent: #F59E0B;")
	assert.Contains(t, css, `background-image: url("https://assets.example/bg.png")`)
	assert.Contains(t, css, ".footer { display: none; }")
}

func TestWelcomeEmail(t *testing.T) {
	t.Parallel()

	tn := seededTenant()
	out, err := WelcomeEmail(tn, "admin@acme.example", "https://acmeco_12345678.auditdna.com/admin")

	require.NoError(t, err)
	assert.Contains(t, out, "<!doctype html>")
	assert.Contains(t, out, "Welcome to Acme Co")
	assert.Contains(t, out, tn.Branding.PrimaryColor)
	assert.Contains(t, out, "https://acmeco_12345678.auditdna.com/admin")
	assert.Contains(t, out, "admin@acme.example")
}

func TestReportReadyEmail(t *testing.T) {
	t.Parallel()

	out, err := ReportReadyEmail(seededTenant(), "USDA_PRICING-1700000000000", "monthly")

	require.NoError(t, err)
	assert.Contains(t, out, "USDA_PRICING-1700000000000")
	assert.Contains(t, out, "monthly")
}
