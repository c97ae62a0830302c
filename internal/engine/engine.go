// Package engine implements the uniform capability contract shared by every
// AuditDNA data-domain engine, the configurable engine implementation, and
// the registry that dispatches across engines.
package engine

import (
	"context"

	"auditdna/internal/domain"
)

// Capability names for the uniform contract. Used in NotImplemented errors
// and audit attribution.
const (
	CapSearch   = "search"
	CapUpload   = "upload"
	CapReport   = "generateReport"
	CapAudit    = "createAuditLog"
	CapValidate = "validateCompliance"
)

// Engine is the uniform capability contract over one business data domain.
// Search is idempotent and side-effect-free; every other capability persists
// exactly one record in the engine's namespace.
type Engine interface {
	Name() string
	Descriptor() Descriptor

	Search(ctx context.Context, query string, filters domain.SearchFilters, opts domain.SearchOptions) (*domain.SearchResult, error)
	Upload(ctx context.Context, file domain.FileMetadata, metadata map[string]string) (*domain.UploadRecord, error)
	GenerateReport(ctx context.Context, reportType string, data map[string]interface{}, opts domain.ReportOptions) (*domain.Report, error)
	CreateAuditLog(ctx context.Context, action string, data map[string]interface{}, actorID *string) (*domain.AuditEntry, error)
	ValidateCompliance(ctx context.Context, data map[string]interface{}, rules []domain.ComplianceRule) (*domain.Validation, error)
}

// StoreFunc resolves the storage namespace for a request: the tenant's
// isolated bundle when a tenant context is attached, the default bundle
// otherwise.
type StoreFunc func(ctx context.Context) *domain.Stores

// DefaultStoreFunc returns a StoreFunc backed by the given default bundle.
func DefaultStoreFunc(def *domain.Stores) StoreFunc {
	return func(ctx context.Context) *domain.Stores {
		if tc, ok := domain.TenantFromContext(ctx); ok && tc.Stores != nil {
			return tc.Stores
		}
		return def
	}
}

// Base is the bare engine. Every capability fails with NotImplemented: a
// registered engine must provide its own implementations. Reaching one of
// these at runtime signals a configuration bug, not a client error.
type Base struct {
	name string
}

// NewBase creates a bare engine shell with the given name.
func NewBase(name string) Base {
	return Base{name: name}
}

// Name returns the engine's registry key.
func (b Base) Name() string { return b.name }

// Descriptor returns an empty descriptor.
func (b Base) Descriptor() Descriptor { return Descriptor{Key: b.name} }

func (b Base) Search(context.Context, string, domain.SearchFilters, domain.SearchOptions) (*domain.SearchResult, error) {
	return nil, domain.ErrNotImplemented(b.name, CapSearch)
}

func (b Base) Upload(context.Context, domain.FileMetadata, map[string]string) (*domain.UploadRecord, error) {
	return nil, domain.ErrNotImplemented(b.name, CapUpload)
}

func (b Base) GenerateReport(context.Context, string, map[string]interface{}, domain.ReportOptions) (*domain.Report, error) {
	return nil, domain.ErrNotImplemented(b.name, CapReport)
}

func (b Base) CreateAuditLog(context.Context, string, map[string]interface{}, *string) (*domain.AuditEntry, error) {
	return nil, domain.ErrNotImplemented(b.name, CapAudit)
}

func (b Base) ValidateCompliance(context.Context, map[string]interface{}, []domain.ComplianceRule) (*domain.Validation, error) {
	return nil, domain.ErrNotImplemented(b.name, CapValidate)
}
