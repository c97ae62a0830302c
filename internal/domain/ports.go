package domain

import "context"

// RecordRepository stores engine records inside one storage namespace.
type RecordRepository interface {
	Insert(ctx context.Context, rec *EngineRecord) error
	GetByID(ctx context.Context, engine, id string) (*EngineRecord, error)
	// Search returns the page of matching records plus the full filtered count.
	// Free-text query matches name/location case-insensitively by substring;
	// all filters are conjunctive.
	Search(ctx context.Context, engine, query string, filters SearchFilters, opts SearchOptions) ([]EngineRecord, int64, error)
	UpdateComplianceStatus(ctx context.Context, engine, id string, status ComplianceStatus) error
	// StatsByEngine aggregates per-engine record counts by compliance status
	// for records created inside [fromUnix, toUnix], busiest engine first.
	StatsByEngine(ctx context.Context, fromUnix, toUnix int64) ([]EngineRecordStats, error)
}

// UploadRepository stores upload records.
type UploadRepository interface {
	Insert(ctx context.Context, rec *UploadRecord) error
	GetByID(ctx context.Context, id string) (*UploadRecord, error)
}

// ReportRepository stores generated reports.
type ReportRepository interface {
	Insert(ctx context.Context, rep *Report) error
	GetByID(ctx context.Context, id string) (*Report, error)
}

// AuditRepository stores append-only audit entries.
type AuditRepository interface {
	Insert(ctx context.Context, e *AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]AuditEntry, int64, error)
	CountBetween(ctx context.Context, fromUnix, toUnix int64) (int64, error)
}

// UserRepository stores tenant-scoped identities.
type UserRepository interface {
	Insert(ctx context.Context, u *TenantUser) error
	GetByEmail(ctx context.Context, email string) (*TenantUser, error)
	Count(ctx context.Context) (int64, error)
	CountCreatedBetween(ctx context.Context, fromUnix, toUnix int64) (int64, error)
}

// TenantRepository stores tenant configuration in the control plane.
type TenantRepository interface {
	Insert(ctx context.Context, t *Tenant) error
	GetActiveByID(ctx context.Context, id string) (*Tenant, error)
	Update(ctx context.Context, t *Tenant) error
	Deactivate(ctx context.Context, id string) error
	ListActive(ctx context.Context) ([]Tenant, error)
}

// SSOConfigRepository stores per-tenant SSO integration configs.
type SSOConfigRepository interface {
	Upsert(ctx context.Context, c *SSOConfig) error
	GetByTenant(ctx context.Context, tenantID, provider string) (*SSOConfig, error)
}

// ScheduleRepository stores report schedules in the control plane.
type ScheduleRepository interface {
	Insert(ctx context.Context, s *ReportSchedule) error
	ListActive(ctx context.Context) ([]ReportSchedule, error)
}

// Stores bundles the repositories that make up one storage namespace.
// Each tenant owns one bundle; the default bundle backs non-tenant routes.
type Stores struct {
	Records RecordRepository
	Uploads UploadRepository
	Reports ReportRepository
	Audit   AuditRepository
	Users   UserRepository
}
