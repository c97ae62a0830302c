package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"auditdna/internal/domain"
)

var _ Engine = (*DomainEngine)(nil)

// DomainEngine is the configurable engine implementation: one instance per
// data domain, parameterized by a Descriptor instead of subclassed. It
// executes every capability against the namespace resolved from the request
// context, so the same instance serves both the default namespace and any
// tenant's isolated store.
type DomainEngine struct {
	Base
	desc   Descriptor
	stores StoreFunc
	logger *slog.Logger
}

// NewDomainEngine creates an engine for the given descriptor.
func NewDomainEngine(desc Descriptor, stores StoreFunc, logger *slog.Logger) *DomainEngine {
	return &DomainEngine{
		Base:   NewBase(desc.Key),
		desc:   desc,
		stores: stores,
		logger: logger.With("engine", desc.Key),
	}
}

// Descriptor returns the engine's immutable configuration.
func (e *DomainEngine) Descriptor() Descriptor { return e.desc }

// Search runs a paginated, filtered search over the engine's records.
// It is idempotent and side-effect-free apart from the audit trail.
func (e *DomainEngine) Search(ctx context.Context, query string, filters domain.SearchFilters, opts domain.SearchOptions) (*domain.SearchResult, error) {
	opts = opts.Normalize()
	started := time.Now()

	records, total, err := e.stores(ctx).Records.Search(ctx, e.Name(), query, filters, opts)
	e.audit(ctx, domain.AuditActionSearch, map[string]interface{}{
		"query": query, "page": opts.Page, "limit": opts.Limit,
	}, err, started)
	if err != nil {
		return nil, fmt.Errorf("engine %s search: %w", e.Name(), err)
	}
	if records == nil {
		records = []domain.EngineRecord{}
	}

	return &domain.SearchResult{
		Engine:  e.Name(),
		Query:   query,
		Filters: filters,
		Results: records,
		Pagination: domain.Pagination{
			Page:  opts.Page,
			Limit: opts.Limit,
			Total: total,
		},
		Timestamp: time.Now().UTC(),
	}, nil
}

// Upload persists one upload record. The binary content is never inspected
// here; content analysis belongs to external collaborators.
func (e *DomainEngine) Upload(ctx context.Context, file domain.FileMetadata, metadata map[string]string) (*domain.UploadRecord, error) {
	started := time.Now()

	rec := &domain.UploadRecord{
		ID:           domain.NewID(),
		Engine:       e.Name(),
		Filename:     file.Filename,
		OriginalName: file.OriginalName,
		MimeType:     file.MimeType,
		Size:         file.Size,
		Path:         file.Path,
		Metadata:     metadata,
		Status:       "uploaded",
		UploadedAt:   time.Now().UTC(),
	}

	err := e.stores(ctx).Uploads.Insert(ctx, rec)
	e.audit(ctx, domain.AuditActionUpload, map[string]interface{}{
		"filename": file.OriginalName, "size": file.Size,
	}, err, started)
	if err != nil {
		return nil, fmt.Errorf("engine %s upload: %w", e.Name(), err)
	}

	return rec, nil
}

// GenerateReport builds and stores a report. The report is persisted before
// it is returned; its id is "{ENGINE_UPPER}-{epoch_ms}".
func (e *DomainEngine) GenerateReport(ctx context.Context, reportType string, data map[string]interface{}, opts domain.ReportOptions) (*domain.Report, error) {
	if reportType == "" {
		return nil, domain.ErrValidation("report type is required")
	}
	started := time.Now()

	rep := &domain.Report{
		ID:          ReportID(e.Name(), time.Now()),
		Engine:      e.Name(),
		Type:        reportType,
		Data:        data,
		Options:     opts,
		Status:      domain.ReportCompleted,
		GeneratedAt: time.Now().UTC(),
	}

	err := e.stores(ctx).Reports.Insert(ctx, rep)
	e.audit(ctx, domain.AuditActionReportGenerate, map[string]interface{}{
		"reportId": rep.ID, "type": reportType,
	}, err, started)
	if err != nil {
		return nil, fmt.Errorf("engine %s report: %w", e.Name(), err)
	}

	return rep, nil
}

// CreateAuditLog appends one audit entry for this engine.
func (e *DomainEngine) CreateAuditLog(ctx context.Context, action string, data map[string]interface{}, actorID *string) (*domain.AuditEntry, error) {
	entry := e.buildEntry(ctx, action, data, nil, 0)
	entry.ActorID = actorID

	if err := e.stores(ctx).Audit.Insert(ctx, entry); err != nil {
		return nil, fmt.Errorf("engine %s audit log: %w", e.Name(), err)
	}
	return entry, nil
}

// ValidateCompliance evaluates the given rules (or the engine's default rule
// set when none are given) against the data payload. Every rule is always
// evaluated; the overall status is "compliant" iff all pass.
func (e *DomainEngine) ValidateCompliance(ctx context.Context, data map[string]interface{}, rules []domain.ComplianceRule) (*domain.Validation, error) {
	if data == nil {
		return nil, domain.ErrValidation("data object is required")
	}
	started := time.Now()

	if len(rules) == 0 {
		rules = e.desc.DefaultRules
	}

	now := time.Now().UTC()
	results := EvaluateRules(data, rules, now)
	v := &domain.Validation{
		Engine:        e.Name(),
		Data:          data,
		Results:       results,
		OverallStatus: OverallStatus(results),
		ValidatedAt:   now,
	}

	e.audit(ctx, domain.AuditActionComplianceCheck, map[string]interface{}{
		"rules": len(rules), "overallStatus": v.OverallStatus,
	}, nil, started)

	return v, nil
}

// audit appends an audit entry for a capability invocation. Audit failures
// are logged and swallowed: the trail must never break the operation it
// records.
func (e *DomainEngine) audit(ctx context.Context, action string, data map[string]interface{}, opErr error, started time.Time) {
	entry := e.buildEntry(ctx, action, data, opErr, time.Since(started))
	if err := e.stores(ctx).Audit.Insert(ctx, entry); err != nil {
		e.logger.Warn("audit log write failed", "action", action, "error", err)
	}
}

func (e *DomainEngine) buildEntry(ctx context.Context, action string, data map[string]interface{}, opErr error, dur time.Duration) *domain.AuditEntry {
	entry := &domain.AuditEntry{
		ID:        domain.NewID(),
		Engine:    e.Name(),
		Action:    action,
		Data:      data,
		Status:    domain.AuditStatusSuccess,
		CreatedAt: time.Now().UTC(),
	}
	if dur > 0 {
		ms := dur.Milliseconds()
		entry.DurationMs = &ms
	}
	if opErr != nil {
		entry.Status = domain.AuditStatusFailure
		msg := opErr.Error()
		entry.ErrorMessage = &msg
	}
	if actor, ok := domain.ActorFromContext(ctx); ok {
		if actor.ID != "" {
			id := actor.ID
			entry.ActorID = &id
		}
		entry.IP = actor.IP
		entry.UserAgent = actor.UserAgent
	}
	return entry
}

var reportSeq atomic.Uint64

// ReportID builds the engine-prefixed report id: the millisecond timestamp
// followed by a four-digit process-wide sequence. Reports are keyed by id, so
// two generated in the same millisecond must still come out distinct.
func ReportID(engineName string, at time.Time) string {
	seq := reportSeq.Add(1) % 10000
	return fmt.Sprintf("%s-%d%04d", strings.ToUpper(engineName), at.UnixMilli(), seq)
}
