package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"auditdna/internal/domain"
)

var _ domain.ScheduleRepository = (*ScheduleRepo)(nil)

// ScheduleRepo stores report schedules in the control plane.
type ScheduleRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

// NewScheduleRepo creates a new ScheduleRepo.
func NewScheduleRepo(writeDB, readDB *sql.DB) *ScheduleRepo {
	return &ScheduleRepo{writeDB: writeDB, readDB: readDB}
}

// Insert persists a new report schedule.
func (r *ScheduleRepo) Insert(ctx context.Context, s *domain.ReportSchedule) error {
	if s == nil || s.TenantID == "" || s.CronExpr == "" {
		return domain.ErrValidation("schedule with tenant id and cron expression is required")
	}
	if s.ID == "" {
		s.ID = domain.NewID()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	recipients, err := json.Marshal(s.Recipients)
	if err != nil {
		return fmt.Errorf("marshal recipients: %w", err)
	}

	_, err = r.writeDB.ExecContext(ctx, `
		INSERT INTO report_schedules (id, tenant_id, report_type, cron_expr, recipients_json, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.TenantID, s.ReportType, s.CronExpr, string(recipients),
		boolToInt(s.Active), s.CreatedAt.Unix())
	return mapDBError(err)
}

// ListActive returns every active schedule across all tenants.
func (r *ScheduleRepo) ListActive(ctx context.Context) ([]domain.ReportSchedule, error) {
	rows, err := r.readDB.QueryContext(ctx, `
		SELECT id, tenant_id, report_type, cron_expr, recipients_json, active, created_at
		FROM report_schedules WHERE active = 1
		ORDER BY created_at
	`)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.ReportSchedule
	for rows.Next() {
		var s domain.ReportSchedule
		var recipients string
		var active, createdAt int64
		if err := rows.Scan(&s.ID, &s.TenantID, &s.ReportType, &s.CronExpr,
			&recipients, &active, &createdAt); err != nil {
			return nil, err
		}
		s.Active = active != 0
		s.CreatedAt = time.Unix(createdAt, 0).UTC()
		if err := json.Unmarshal([]byte(recipients), &s.Recipients); err != nil {
			return nil, fmt.Errorf("unmarshal recipients: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
