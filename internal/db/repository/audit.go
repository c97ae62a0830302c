package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"auditdna/internal/domain"
)

var _ domain.AuditRepository = (*AuditRepo)(nil)

// AuditRepo stores append-only audit entries inside one storage namespace.
type AuditRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(writeDB, readDB *sql.DB) *AuditRepo {
	return &AuditRepo{writeDB: writeDB, readDB: readDB}
}

// Insert appends one audit entry. Entries are never updated or deleted.
func (r *AuditRepo) Insert(ctx context.Context, e *domain.AuditEntry) error {
	if e == nil {
		return domain.ErrValidation("audit entry is required")
	}
	if e.ID == "" {
		e.ID = domain.NewID()
	}
	if e.Status == "" {
		e.Status = domain.AuditStatusSuccess
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("marshal audit data: %w", err)
	}

	_, err = r.writeDB.ExecContext(ctx, `
		INSERT INTO audit_logs (id, engine, action, data_json, actor_id, ip, user_agent, status, error_message, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Engine, e.Action, string(data), e.ActorID, e.IP, e.UserAgent,
		e.Status, e.ErrorMessage, e.DurationMs, e.CreatedAt.Unix())
	return mapDBError(err)
}

// List returns a page of audit entries matching the filter, newest first,
// plus the full filtered count.
func (r *AuditRepo) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int64, error) {
	clauses := []string{"1=1"}
	var args []interface{}

	if filter.Engine != nil {
		clauses = append(clauses, "engine = ?")
		args = append(args, *filter.Engine)
	}
	if filter.Action != nil {
		clauses = append(clauses, "action = ?")
		args = append(args, *filter.Action)
	}
	if filter.Status != nil {
		clauses = append(clauses, "status = ?")
		args = append(args, *filter.Status)
	}
	where := strings.Join(clauses, " AND ")

	var total int64
	if err := r.readDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_logs WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, mapDBError(err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	rows, err := r.readDB.QueryContext(ctx, `
		SELECT id, engine, action, data_json, actor_id, ip, user_agent, status, error_message, duration_ms, created_at
		FROM audit_logs WHERE `+where+`
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, 0, mapDBError(err)
	}
	defer rows.Close() //nolint:errcheck

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var data string
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Engine, &e.Action, &data, &e.ActorID,
			&e.IP, &e.UserAgent, &e.Status, &e.ErrorMessage, &e.DurationMs, &createdAt); err != nil {
			return nil, 0, err
		}
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		if err := json.Unmarshal([]byte(data), &e.Data); err != nil {
			return nil, 0, fmt.Errorf("unmarshal audit data: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// CountBetween returns the number of audit entries created inside the window.
func (r *AuditRepo) CountBetween(ctx context.Context, fromUnix, toUnix int64) (int64, error) {
	var n int64
	err := r.readDB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM audit_logs WHERE created_at >= ? AND created_at <= ?
	`, fromUnix, toUnix).Scan(&n)
	if err != nil {
		return 0, mapDBError(err)
	}
	return n, nil
}
