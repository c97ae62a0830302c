package domain

import "time"

// Branding holds a tenant's white-label customization.
type Branding struct {
	LogoURL            string `json:"logo,omitempty"`
	PrimaryColor       string `json:"primaryColor"`
	SecondaryColor     string `json:"secondaryColor"`
	AccentColor        string `json:"accentColor,omitempty"`
	LoginBackgroundURL string `json:"loginBackground,omitempty"`
	CompanyName        string `json:"companyName"`
	CustomCSS          string `json:"customCSS,omitempty"`
}

// FeatureFlags enables or disables enterprise features per tenant.
type FeatureFlags struct {
	WhiteLabel         bool `json:"whiteLabel"`
	CustomDomain       bool `json:"customDomain"`
	SSO                bool `json:"sso"`
	AdvancedReporting  bool `json:"advancedReporting"`
	APIAccess          bool `json:"apiAccess"`
	CustomIntegrations bool `json:"customIntegrations"`
}

// UsageLimits caps a tenant's resource consumption.
type UsageLimits struct {
	MaxUsers        int `json:"maxUsers"`
	MaxApplications int `json:"maxApplications"`
	MaxAudits       int `json:"maxAudits"`
	StorageLimitGB  int `json:"storageLimit"`
}

// NotificationPrefs selects outbound notification channels.
type NotificationPrefs struct {
	Email   bool `json:"email"`
	SMS     bool `json:"sms"`
	Webhook bool `json:"webhook"`
}

// TenantSettings holds locale and notification preferences.
type TenantSettings struct {
	Timezone      string            `json:"timezone"`
	Currency      string            `json:"currency"`
	Language      string            `json:"language"`
	Notifications NotificationPrefs `json:"notifications"`
}

// Billing holds the tenant's commercial terms. Billing calculation itself is
// out of scope; these fields are carried as configuration only.
type Billing struct {
	Plan          string  `json:"plan"`
	BillingCycle  string  `json:"billingCycle"`
	PricePerUser  float64 `json:"pricePerUser"`
	CustomPricing bool    `json:"customPricing"`
}

// Tenant is one isolated customer context: configuration plus a dedicated
// storage namespace. Tenants are soft-deactivated, never physically deleted.
type Tenant struct {
	ID          string         `json:"tenantId"`
	CompanyName string         `json:"companyName"`
	Domain      string         `json:"domain"`
	Plan        string         `json:"plan"`
	Branding    Branding       `json:"branding"`
	Features    FeatureFlags   `json:"features"`
	Limits      UsageLimits    `json:"limits"`
	Settings    TenantSettings `json:"settings"`
	Billing     Billing        `json:"billing"`
	Active      bool           `json:"active"`
	Suspended   bool           `json:"suspended"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// CreateTenantParams is the provisioning input. Zero values fall back to the
// defaults applied by NewTenant.
type CreateTenantParams struct {
	CompanyName string         `json:"companyName"`
	Domain      string         `json:"domain,omitempty"`
	Plan        string         `json:"plan,omitempty"`
	Branding    *Branding      `json:"branding,omitempty"`
	AdminUser   AdminUserSpec  `json:"adminUser"`
	Settings    *TenantSettings `json:"settings,omitempty"`
}

// AdminUserSpec describes the single administrator created with a new tenant.
type AdminUserSpec struct {
	Email     string `json:"email"`
	Password  string `json:"password,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// NewTenant builds a Tenant with every default applied in one place.
// baseDomain supplies the fallback "{id}.{baseDomain}" domain.
func NewTenant(id string, p CreateTenantParams, baseDomain string) *Tenant {
	now := time.Now().UTC()

	plan := p.Plan
	if plan == "" {
		plan = "enterprise"
	}
	dom := p.Domain
	if dom == "" {
		dom = id + "." + baseDomain
	}

	branding := Branding{
		PrimaryColor:   "#3B82F6",
		SecondaryColor: "#10B981",
		CompanyName:    p.CompanyName,
	}
	if p.Branding != nil {
		if p.Branding.LogoURL != "" {
			branding.LogoURL = p.Branding.LogoURL
		}
		if p.Branding.PrimaryColor != "" {
			branding.PrimaryColor = p.Branding.PrimaryColor
		}
		if p.Branding.SecondaryColor != "" {
			branding.SecondaryColor = p.Branding.SecondaryColor
		}
		if p.Branding.AccentColor != "" {
			branding.AccentColor = p.Branding.AccentColor
		}
		branding.CustomCSS = p.Branding.CustomCSS
	}

	settings := TenantSettings{
		Timezone: "UTC",
		Currency: "USD",
		Language: "en",
		Notifications: NotificationPrefs{
			Email: true,
		},
	}
	if p.Settings != nil {
		if p.Settings.Timezone != "" {
			settings.Timezone = p.Settings.Timezone
		}
		if p.Settings.Currency != "" {
			settings.Currency = p.Settings.Currency
		}
		if p.Settings.Language != "" {
			settings.Language = p.Settings.Language
		}
		settings.Notifications = p.Settings.Notifications
	}

	return &Tenant{
		ID:          id,
		CompanyName: p.CompanyName,
		Domain:      dom,
		Plan:        plan,
		Branding:    branding,
		Features: FeatureFlags{
			WhiteLabel:         true,
			CustomDomain:       true,
			SSO:                true,
			AdvancedReporting:  true,
			APIAccess:          true,
			CustomIntegrations: true,
		},
		Limits: UsageLimits{
			MaxUsers:        1000,
			MaxApplications: 10000,
			MaxAudits:       5000,
			StorageLimitGB:  100,
		},
		Settings: settings,
		Billing: Billing{
			Plan:         plan,
			BillingCycle: "monthly",
			PricePerUser: 99,
		},
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AdminPermissions is the fixed permission set granted to the tenant
// administrator created during provisioning.
var AdminPermissions = []string{
	"manage_users",
	"manage_settings",
	"view_analytics",
	"manage_billing",
	"manage_integrations",
}

// TenantUser is an identity scoped to one tenant's namespace.
type TenantUser struct {
	ID           string    `json:"userId"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	Permissions  []string  `json:"permissions"`
	SSOProvider  string    `json:"ssoProvider,omitempty"`
	SSOSubject   string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ProvisionResult is returned by tenant creation.
type ProvisionResult struct {
	TenantID      string `json:"tenantId"`
	Domain        string `json:"domain"`
	AdminLoginURL string `json:"adminLoginUrl"`
}
