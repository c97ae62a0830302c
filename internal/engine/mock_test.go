package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"auditdna/internal/domain"
)

var errTest = errors.New("test failure")

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// === Record Repository Mock ===

type mockRecordRepo struct {
	insertFn func(ctx context.Context, rec *domain.EngineRecord) error
	getFn    func(ctx context.Context, engine, id string) (*domain.EngineRecord, error)
	searchFn func(ctx context.Context, engine, query string, filters domain.SearchFilters, opts domain.SearchOptions) ([]domain.EngineRecord, int64, error)
	updateFn func(ctx context.Context, engine, id string, status domain.ComplianceStatus) error
}

func (m *mockRecordRepo) Insert(ctx context.Context, rec *domain.EngineRecord) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, rec)
	}
	panic("unexpected call to mockRecordRepo.Insert")
}

func (m *mockRecordRepo) GetByID(ctx context.Context, engine, id string) (*domain.EngineRecord, error) {
	if m.getFn != nil {
		return m.getFn(ctx, engine, id)
	}
	panic("unexpected call to mockRecordRepo.GetByID")
}

func (m *mockRecordRepo) Search(ctx context.Context, engine, query string, filters domain.SearchFilters, opts domain.SearchOptions) ([]domain.EngineRecord, int64, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, engine, query, filters, opts)
	}
	panic("unexpected call to mockRecordRepo.Search")
}

func (m *mockRecordRepo) UpdateComplianceStatus(ctx context.Context, engine, id string, status domain.ComplianceStatus) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, engine, id, status)
	}
	panic("unexpected call to mockRecordRepo.UpdateComplianceStatus")
}

func (m *mockRecordRepo) StatsByEngine(context.Context, int64, int64) ([]domain.EngineRecordStats, error) {
	panic("unexpected call to mockRecordRepo.StatsByEngine")
}

// === Upload Repository Mock ===

type mockUploadRepo struct {
	insertFn func(ctx context.Context, rec *domain.UploadRecord) error
}

func (m *mockUploadRepo) Insert(ctx context.Context, rec *domain.UploadRecord) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, rec)
	}
	panic("unexpected call to mockUploadRepo.Insert")
}

func (m *mockUploadRepo) GetByID(context.Context, string) (*domain.UploadRecord, error) {
	panic("unexpected call to mockUploadRepo.GetByID")
}

// === Report Repository Mock ===

type mockReportRepo struct {
	insertFn func(ctx context.Context, rep *domain.Report) error
}

func (m *mockReportRepo) Insert(ctx context.Context, rep *domain.Report) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, rep)
	}
	panic("unexpected call to mockReportRepo.Insert")
}

func (m *mockReportRepo) GetByID(context.Context, string) (*domain.Report, error) {
	panic("unexpected call to mockReportRepo.GetByID")
}

// === Audit Repository Mock ===

// mockAuditRepo records inserted entries; failErr makes every insert fail.
type mockAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	failErr error
}

func (m *mockAuditRepo) Insert(_ context.Context, e *domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.entries = append(m.entries, *e)
	return nil
}

func (m *mockAuditRepo) List(context.Context, domain.AuditFilter) ([]domain.AuditEntry, int64, error) {
	panic("unexpected call to mockAuditRepo.List")
}

func (m *mockAuditRepo) CountBetween(context.Context, int64, int64) (int64, error) {
	panic("unexpected call to mockAuditRepo.CountBetween")
}

func (m *mockAuditRepo) hasAction(action string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.Action == action {
			return true
		}
	}
	return false
}

func (m *mockAuditRepo) last() *domain.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return nil
	}
	e := m.entries[len(m.entries)-1]
	return &e
}

// === Stores helper ===

type testStores struct {
	records *mockRecordRepo
	uploads *mockUploadRepo
	reports *mockReportRepo
	audit   *mockAuditRepo
}

func newTestStores() *testStores {
	return &testStores{
		records: &mockRecordRepo{},
		uploads: &mockUploadRepo{},
		reports: &mockReportRepo{},
		audit:   &mockAuditRepo{},
	}
}

func (s *testStores) fn() StoreFunc {
	bundle := &domain.Stores{
		Records: s.records,
		Uploads: s.uploads,
		Reports: s.reports,
		Audit:   s.audit,
	}
	return func(context.Context) *domain.Stores { return bundle }
}
