package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"auditdna/internal/domain"
)

var _ domain.ReportRepository = (*ReportRepo)(nil)

// ReportRepo stores generated reports inside one storage namespace.
type ReportRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

// NewReportRepo creates a new ReportRepo.
func NewReportRepo(writeDB, readDB *sql.DB) *ReportRepo {
	return &ReportRepo{writeDB: writeDB, readDB: readDB}
}

// Insert persists one report. Reports are written before being returned to
// callers and never mutated once completed.
func (r *ReportRepo) Insert(ctx context.Context, rep *domain.Report) error {
	if rep == nil {
		return domain.ErrValidation("report is required")
	}
	if rep.ID == "" {
		return domain.ErrValidation("report id is required")
	}
	if rep.GeneratedAt.IsZero() {
		rep.GeneratedAt = time.Now().UTC()
	}

	data, err := json.Marshal(rep.Data)
	if err != nil {
		return fmt.Errorf("marshal report data: %w", err)
	}
	options, err := json.Marshal(rep.Options)
	if err != nil {
		return fmt.Errorf("marshal report options: %w", err)
	}

	_, err = r.writeDB.ExecContext(ctx, `
		INSERT INTO reports (id, engine, type, data_json, options_json, status, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rep.ID, rep.Engine, rep.Type, string(data), string(options),
		string(rep.Status), rep.GeneratedAt.Unix())
	return mapDBError(err)
}

// GetByID returns one report.
func (r *ReportRepo) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	var rep domain.Report
	var data, options, status string
	var generatedAt int64

	err := r.readDB.QueryRowContext(ctx, `
		SELECT id, engine, type, data_json, options_json, status, generated_at
		FROM reports WHERE id = ?
	`, id).Scan(&rep.ID, &rep.Engine, &rep.Type, &data, &options, &status, &generatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}

	rep.Status = domain.ReportStatus(status)
	rep.GeneratedAt = time.Unix(generatedAt, 0).UTC()
	if err := json.Unmarshal([]byte(data), &rep.Data); err != nil {
		return nil, fmt.Errorf("unmarshal report data: %w", err)
	}
	if err := json.Unmarshal([]byte(options), &rep.Options); err != nil {
		return nil, fmt.Errorf("unmarshal report options: %w", err)
	}
	return &rep, nil
}
