package domain

import "time"

// Audit actions recorded against engine operations.
const (
	AuditActionSearch          = "search"
	AuditActionUpload          = "upload"
	AuditActionReportGenerate  = "report_generate"
	AuditActionComplianceCheck = "compliance_check"
	AuditActionDataUpdate      = "data_update"
	AuditActionPriceAnalysis   = "price_analysis"
)

// Audit entry statuses.
const (
	AuditStatusSuccess = "success"
	AuditStatusFailure = "failure"
	AuditStatusPartial = "partial"
)

// AuditEntry is one append-only audit log record. Entries are never mutated
// or deleted.
type AuditEntry struct {
	ID           string                 `json:"id"`
	Engine       string                 `json:"engine"`
	Action       string                 `json:"action"`
	Data         map[string]interface{} `json:"data,omitempty"`
	ActorID      *string                `json:"actorId,omitempty"`
	IP           string                 `json:"ip,omitempty"`
	UserAgent    string                 `json:"userAgent,omitempty"`
	Status       string                 `json:"status"`
	ErrorMessage *string                `json:"errorMessage,omitempty"`
	DurationMs   *int64                 `json:"durationMs,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
}

// AuditFilter narrows an audit log listing.
type AuditFilter struct {
	Engine *string
	Action *string
	Status *string
	Page   int
	Limit  int
}
