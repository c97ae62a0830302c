package domain

import "time"

// SSO provider kinds.
const (
	SSOProviderOIDC = "oidc"
	SSOProviderSAML = "saml"
)

// SSOConfig is a tenant's single sign-on integration. OIDC configs are
// verified against the issuer's discovery document before being stored;
// SAML configs are stored as data only.
type SSOConfig struct {
	TenantID         string    `json:"tenantId"`
	Provider         string    `json:"provider"`
	IssuerURL        string    `json:"issuerUrl,omitempty"`
	ClientID         string    `json:"clientId,omitempty"`
	ClientSecret     string    `json:"-"`
	EntryPoint       string    `json:"entryPoint,omitempty"`
	Certificate      string    `json:"-"`
	IdentifierFormat string    `json:"identifierFormat,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// ReportSchedule registers recurring executive report generation for a tenant.
type ReportSchedule struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenantId"`
	ReportType string    `json:"reportType"`
	CronExpr   string    `json:"schedule"`
	Recipients []string  `json:"recipients,omitempty"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
}
