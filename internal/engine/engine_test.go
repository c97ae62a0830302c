package engine

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditdna/internal/domain"
)

func testDescriptor(key string) Descriptor {
	return Descriptor{
		Key:          key,
		DisplayName:  "Test Engine",
		Unit:         "USD",
		Capabilities: []string{CapSearch, CapUpload, CapReport, CapAudit, CapValidate},
		DataTypes:    []string{"test_data"},
		Status:       "active",
		DefaultRules: genericDefaultRules(),
	}
}

// === Base ===

func TestBase_AllCapabilitiesNotImplemented(t *testing.T) {
	t.Parallel()

	b := NewBase("bare")
	ctx := context.Background()

	_, err := b.Search(ctx, "q", domain.SearchFilters{}, domain.SearchOptions{})
	assertNotImplemented(t, err, "search")

	_, err = b.Upload(ctx, domain.FileMetadata{}, nil)
	assertNotImplemented(t, err, "upload")

	_, err = b.GenerateReport(ctx, "summary", nil, domain.ReportOptions{})
	assertNotImplemented(t, err, "generateReport")

	_, err = b.CreateAuditLog(ctx, "action", nil, nil)
	assertNotImplemented(t, err, "createAuditLog")

	_, err = b.ValidateCompliance(ctx, map[string]interface{}{}, nil)
	assertNotImplemented(t, err, "validateCompliance")
}

func assertNotImplemented(t *testing.T, err error, capability string) {
	t.Helper()
	require.Error(t, err)
	var ni *domain.NotImplementedError
	require.ErrorAs(t, err, &ni)
	assert.Equal(t, "bare", ni.Engine)
	assert.Equal(t, capability, ni.Capability)
}

// === Search ===

func TestDomainEngine_Search(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		stores := newTestStores()
		stores.records.searchFn = func(_ context.Context, engine, query string, _ domain.SearchFilters, opts domain.SearchOptions) ([]domain.EngineRecord, int64, error) {
			assert.Equal(t, "water_tech", engine)
			assert.Equal(t, "lead", query)
			assert.Equal(t, 1, opts.Page)
			assert.Equal(t, 10, opts.Limit)
			return []domain.EngineRecord{{ID: "r1", Name: "Lead Sample"}}, 42, nil
		}
		e := NewDomainEngine(testDescriptor("water_tech"), stores.fn(), testLogger())

		res, err := e.Search(context.Background(), "lead", domain.SearchFilters{}, domain.SearchOptions{})

		require.NoError(t, err)
		assert.Equal(t, "water_tech", res.Engine)
		assert.Len(t, res.Results, 1)
		assert.Equal(t, int64(42), res.Pagination.Total)
		assert.Equal(t, 1, res.Pagination.Page)
		assert.True(t, stores.audit.hasAction(domain.AuditActionSearch))
	})

	t.Run("empty_result_is_never_nil", func(t *testing.T) {
		stores := newTestStores()
		stores.records.searchFn = func(context.Context, string, string, domain.SearchFilters, domain.SearchOptions) ([]domain.EngineRecord, int64, error) {
			return nil, 0, nil
		}
		e := NewDomainEngine(testDescriptor("water_tech"), stores.fn(), testLogger())

		res, err := e.Search(context.Background(), "nothing", domain.SearchFilters{}, domain.SearchOptions{})

		require.NoError(t, err)
		assert.NotNil(t, res.Results)
		assert.Empty(t, res.Results)
		assert.Equal(t, int64(0), res.Pagination.Total)
	})

	t.Run("repo_error_recorded_as_failure", func(t *testing.T) {
		stores := newTestStores()
		stores.records.searchFn = func(context.Context, string, string, domain.SearchFilters, domain.SearchOptions) ([]domain.EngineRecord, int64, error) {
			return nil, 0, errTest
		}
		e := NewDomainEngine(testDescriptor("water_tech"), stores.fn(), testLogger())

		_, err := e.Search(context.Background(), "lead", domain.SearchFilters{}, domain.SearchOptions{})

		require.Error(t, err)
		assert.ErrorIs(t, err, errTest)
		entry := stores.audit.last()
		require.NotNil(t, entry)
		assert.Equal(t, domain.AuditStatusFailure, entry.Status)
		require.NotNil(t, entry.ErrorMessage)
	})

	t.Run("audit_failure_never_blocks_search", func(t *testing.T) {
		stores := newTestStores()
		stores.audit.failErr = errTest
		stores.records.searchFn = func(context.Context, string, string, domain.SearchFilters, domain.SearchOptions) ([]domain.EngineRecord, int64, error) {
			return []domain.EngineRecord{{ID: "r1"}}, 1, nil
		}
		e := NewDomainEngine(testDescriptor("water_tech"), stores.fn(), testLogger())

		res, err := e.Search(context.Background(), "lead", domain.SearchFilters{}, domain.SearchOptions{})

		require.NoError(t, err)
		assert.Len(t, res.Results, 1)
	})
}

// === Upload ===

func TestDomainEngine_Upload(t *testing.T) {
	t.Parallel()

	stores := newTestStores()
	var inserted *domain.UploadRecord
	stores.uploads.insertFn = func(_ context.Context, rec *domain.UploadRecord) error {
		inserted = rec
		return nil
	}
	e := NewDomainEngine(testDescriptor("global_compliance"), stores.fn(), testLogger())

	rec, err := e.Upload(context.Background(), domain.FileMetadata{
		Filename:     "a1b2.pdf",
		OriginalName: "audit.pdf",
		MimeType:     "application/pdf",
		Size:         2048,
		Path:         "uploads/a1b2.pdf",
	}, map[string]string{"source": "portal"})

	require.NoError(t, err)
	require.NotNil(t, inserted)
	assert.Equal(t, rec.ID, inserted.ID)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "global_compliance", rec.Engine)
	assert.Equal(t, "audit.pdf", rec.OriginalName)
	assert.Equal(t, "uploaded", rec.Status)
	assert.True(t, stores.audit.hasAction(domain.AuditActionUpload))
}

// === GenerateReport ===

func TestDomainEngine_GenerateReport(t *testing.T) {
	t.Parallel()

	t.Run("id_is_engine_prefixed", func(t *testing.T) {
		stores := newTestStores()
		var persisted *domain.Report
		stores.reports.insertFn = func(_ context.Context, rep *domain.Report) error {
			persisted = rep
			return nil
		}
		e := NewDomainEngine(testDescriptor("usda_pricing"), stores.fn(), testLogger())

		rep, err := e.GenerateReport(context.Background(), "price_summary",
			map[string]interface{}{"commodity": "corn"}, domain.ReportOptions{Format: "json"})

		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^USDA_PRICING-\d+$`), rep.ID)
		assert.Equal(t, domain.ReportCompleted, rep.Status)

		// Persisted before return, same id.
		require.NotNil(t, persisted)
		assert.Equal(t, rep.ID, persisted.ID)
	})

	t.Run("missing_type_rejected", func(t *testing.T) {
		stores := newTestStores()
		e := NewDomainEngine(testDescriptor("usda_pricing"), stores.fn(), testLogger())

		_, err := e.GenerateReport(context.Background(), "", nil, domain.ReportOptions{})

		require.Error(t, err)
		var ve *domain.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("persist_error_fails_report", func(t *testing.T) {
		stores := newTestStores()
		stores.reports.insertFn = func(context.Context, *domain.Report) error { return errTest }
		e := NewDomainEngine(testDescriptor("usda_pricing"), stores.fn(), testLogger())

		_, err := e.GenerateReport(context.Background(), "price_summary", nil, domain.ReportOptions{})

		require.Error(t, err)
		assert.ErrorIs(t, err, errTest)
	})
}

// === CreateAuditLog ===

func TestDomainEngine_CreateAuditLog(t *testing.T) {
	t.Parallel()

	stores := newTestStores()
	e := NewDomainEngine(testDescriptor("factoring"), stores.fn(), testLogger())

	actor := "user-7"
	ctx := domain.WithActor(context.Background(), domain.Actor{IP: "10.0.0.1", UserAgent: "cli/1.0"})
	entry, err := e.CreateAuditLog(ctx, domain.AuditActionDataUpdate,
		map[string]interface{}{"recordId": "r9"}, &actor)

	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "factoring", entry.Engine)
	assert.Equal(t, domain.AuditActionDataUpdate, entry.Action)
	assert.Equal(t, domain.AuditStatusSuccess, entry.Status)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, "user-7", *entry.ActorID)
	assert.Equal(t, "10.0.0.1", entry.IP)
	require.NotNil(t, stores.audit.last())
}

// === ValidateCompliance ===

func TestDomainEngine_ValidateCompliance(t *testing.T) {
	t.Parallel()

	t.Run("explicit_rules", func(t *testing.T) {
		stores := newTestStores()
		e := NewDomainEngine(testDescriptor("compliance"), stores.fn(), testLogger())

		min, max := 0.0, 100.0
		v, err := e.ValidateCompliance(context.Background(),
			map[string]interface{}{"score": 150.0},
			[]domain.ComplianceRule{{Name: "score_range", ValueField: "score", Min: &min, Max: &max}})

		require.NoError(t, err)
		require.Len(t, v.Results, 1)
		assert.Equal(t, domain.RuleFailed, v.Results[0].Status)
		assert.Equal(t, domain.ValidationNonCompliant, v.OverallStatus)
		assert.True(t, stores.audit.hasAction(domain.AuditActionComplianceCheck))
	})

	t.Run("default_rules_when_none_given", func(t *testing.T) {
		stores := newTestStores()
		e := NewDomainEngine(testDescriptor("compliance"), stores.fn(), testLogger())

		v, err := e.ValidateCompliance(context.Background(), map[string]interface{}{
			"name":     "Audit 1",
			"value":    50.0,
			"location": "Iowa",
			"testDate": time.Now().UTC().Format(time.RFC3339),
		}, nil)

		require.NoError(t, err)
		assert.Len(t, v.Results, len(genericDefaultRules()))
		assert.Equal(t, domain.ValidationCompliant, v.OverallStatus)
	})

	t.Run("nil_data_rejected", func(t *testing.T) {
		stores := newTestStores()
		e := NewDomainEngine(testDescriptor("compliance"), stores.fn(), testLogger())

		_, err := e.ValidateCompliance(context.Background(), nil, nil)

		require.Error(t, err)
		var ve *domain.ValidationError
		assert.ErrorAs(t, err, &ve)
	})
}

// === ReportID ===

func TestReportID(t *testing.T) {
	t.Parallel()

	at := time.UnixMilli(1700000000000)

	t.Run("engine_prefixed_timestamp", func(t *testing.T) {
		id := ReportID("water_tech", at)
		assert.True(t, strings.HasPrefix(id, "WATER_TECH-1700000000000"), id)
		assert.Regexp(t, `^WATER_TECH-\d+$`, id)
	})

	t.Run("same_millisecond_ids_distinct", func(t *testing.T) {
		seen := make(map[string]struct{})
		for range 50 {
			id := ReportID("water_tech", at)
			_, dup := seen[id]
			require.False(t, dup, "duplicate id %s", id)
			seen[id] = struct{}{}
		}
	})
}
