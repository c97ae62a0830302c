package branding

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"auditdna/internal/domain"
)

// Asset kinds accepted by UploadAsset.
const (
	AssetLogo            = "logo"
	AssetLoginBackground = "loginBackground"
)

const signedURLTTL = 7 * 24 * time.Hour

var allowedAssetTypes = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/svg+xml": ".svg",
	"image/webp":    ".webp",
}

// ConfigCache invalidates cached tenant configuration after an update, so
// resolved tenant contexts pick up the new branding.
type ConfigCache interface {
	InvalidateConfig(tenantID string)
}

// Service manages tenant white-label branding.
type Service struct {
	tenants domain.TenantRepository
	assets  AssetStore
	cache   ConfigCache
	logger  *slog.Logger
}

// NewService creates a branding service. assets may be nil when no object
// store is configured; asset uploads then fail with a validation error while
// CSS and email rendering keep working. cache may be nil in tests.
func NewService(tenants domain.TenantRepository, assets AssetStore, cache ConfigCache, logger *slog.Logger) *Service {
	return &Service{tenants: tenants, assets: assets, cache: cache, logger: logger}
}

// invalidate drops the tenant's cached config after a successful update.
func (s *Service) invalidate(tenantID string) {
	if s.cache != nil {
		s.cache.InvalidateConfig(tenantID)
	}
}

// UploadAsset stores one branding asset and records its signed URL on the
// tenant. Only the white-label image types are accepted.
func (s *Service) UploadAsset(ctx context.Context, tenantID, kind, contentType string, data []byte) (*domain.Tenant, error) {
	if s.assets == nil {
		return nil, domain.ErrValidation("no asset store is configured")
	}
	if kind != AssetLogo && kind != AssetLoginBackground {
		return nil, domain.ErrValidation("unknown asset kind %q", kind)
	}
	ext, ok := allowedAssetTypes[contentType]
	if !ok {
		return nil, domain.ErrValidation("unsupported asset content type %q", contentType)
	}
	if len(data) == 0 {
		return nil, domain.ErrValidation("asset body is empty")
	}

	t, err := s.tenants.GetActiveByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !t.Features.WhiteLabel {
		return nil, domain.ErrValidation("white-label branding is not enabled for tenant %s", tenantID)
	}

	key := path.Join("tenants", tenantID, "branding", kind+ext)
	if err := s.assets.Put(ctx, key, contentType, data); err != nil {
		return nil, domain.ErrStorage(err, "store branding asset")
	}
	url, err := s.assets.SignedURL(ctx, key, signedURLTTL)
	if err != nil {
		return nil, domain.ErrStorage(err, "sign branding asset URL")
	}

	switch kind {
	case AssetLogo:
		t.Branding.LogoURL = url
	case AssetLoginBackground:
		t.Branding.LoginBackgroundURL = url
	}
	if err := s.tenants.Update(ctx, t); err != nil {
		return nil, err
	}
	s.invalidate(tenantID)

	s.logger.Info("branding asset stored", "tenant", tenantID, "kind", kind, "key", key)
	return t, nil
}

// UpdateBranding applies a partial branding update. Empty fields keep their
// current values; CustomCSS is replaced wholesale.
func (s *Service) UpdateBranding(ctx context.Context, tenantID string, patch domain.Branding) (*domain.Tenant, error) {
	t, err := s.tenants.GetActiveByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !t.Features.WhiteLabel {
		return nil, domain.ErrValidation("white-label branding is not enabled for tenant %s", tenantID)
	}

	for _, c := range []string{patch.PrimaryColor, patch.SecondaryColor, patch.AccentColor} {
		if c != "" && !validHexColor(c) {
			return nil, domain.ErrValidation("invalid color %q", c)
		}
	}

	if patch.CompanyName != "" {
		t.Branding.CompanyName = patch.CompanyName
	}
	if patch.PrimaryColor != "" {
		t.Branding.PrimaryColor = patch.PrimaryColor
	}
	if patch.SecondaryColor != "" {
		t.Branding.SecondaryColor = patch.SecondaryColor
	}
	if patch.AccentColor != "" {
		t.Branding.AccentColor = patch.AccentColor
	}
	t.Branding.CustomCSS = patch.CustomCSS

	if err := s.tenants.Update(ctx, t); err != nil {
		return nil, err
	}
	s.invalidate(tenantID)
	return t, nil
}

// PublishCSS renders the tenant's stylesheet and publishes it to the asset
// store, returning the signed URL customers embed on their login pages.
func (s *Service) PublishCSS(ctx context.Context, tenantID string) (string, error) {
	if s.assets == nil {
		return "", domain.ErrValidation("no asset store is configured")
	}
	t, err := s.tenants.GetActiveByID(ctx, tenantID)
	if err != nil {
		return "", err
	}
	if !t.Features.WhiteLabel {
		return "", domain.ErrValidation("white-label branding is not enabled for tenant %s", tenantID)
	}

	key := path.Join("tenants", tenantID, "branding", "theme.css")
	css := GenerateCSS(t.Branding)
	if err := s.assets.Put(ctx, key, "text/css", []byte(css)); err != nil {
		return "", domain.ErrStorage(err, "store branding stylesheet")
	}
	url, err := s.assets.SignedURL(ctx, key, signedURLTTL)
	if err != nil {
		return "", domain.ErrStorage(err, "sign branding stylesheet URL")
	}

	s.logger.Info("branding stylesheet published", "tenant", tenantID, "key", key)
	return url, nil
}

// StylesheetFor renders the tenant's stylesheet.
func (s *Service) StylesheetFor(ctx context.Context, tenantID string) (string, error) {
	t, err := s.tenants.GetActiveByID(ctx, tenantID)
	if err != nil {
		return "", err
	}
	return GenerateCSS(t.Branding), nil
}

// GenerateCSS renders the brand stylesheet: CSS custom properties for the
// tenant's palette plus any custom CSS appended verbatim.
func GenerateCSS(b domain.Branding) string {
	var sb strings.Builder
	sb.WriteString(":root {\n")
	fmt.Fprintf(&sb, "  --brand-primary: %s;\n", b.PrimaryColor)
	fmt.Fprintf(&sb, "  --brand-secondary: %s;\n", b.SecondaryColor)
	if b.AccentColor != "" {
		fmt.Fprintf(&sb, "  --brand-accent: %s;\n", b.AccentColor)
	}
	sb.WriteString("}\n")
	sb.WriteString(".btn-primary { background-color: var(--brand-primary); }\n")
	sb.WriteString(".btn-secondary { background-color: var(--brand-secondary); }\n")
	sb.WriteString("a { color: var(--brand-primary); }\n")
	if b.LoginBackgroundURL != "" {
		fmt.Fprintf(&sb, ".login-page { background-image: url(%q); }\n", b.LoginBackgroundURL)
	}
	if b.CustomCSS != "" {
		sb.WriteString("\n/* tenant overrides */\n")
		sb.WriteString(b.CustomCSS)
		if !strings.HasSuffix(b.CustomCSS, "\n") {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func validHexColor(c string) bool {
	if len(c) != 7 && len(c) != 4 {
		return false
	}
	if c[0] != '#' {
		return false
	}
	for _, r := range c[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
