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

var _ domain.RecordRepository = (*RecordRepo)(nil)

// sortColumns whitelists the sortBy values accepted by Search.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"name":      "name",
	"value":     "value",
	"score":     "score",
	"testDate":  "test_date",
}

// RecordRepo stores engine records inside one storage namespace. Writes go
// through the single-connection write pool; queries use the read pool so they
// never queue behind an insert.
type RecordRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

// NewRecordRepo creates a new RecordRepo.
func NewRecordRepo(writeDB, readDB *sql.DB) *RecordRepo {
	return &RecordRepo{writeDB: writeDB, readDB: readDB}
}

// Insert persists one engine record.
func (r *RecordRepo) Insert(ctx context.Context, rec *domain.EngineRecord) error {
	if rec == nil {
		return domain.ErrValidation("record is required")
	}
	if rec.ID == "" {
		rec.ID = domain.NewID()
	}
	if rec.ComplianceStatus == "" {
		rec.ComplianceStatus = domain.CompliancePending
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}

	risks, err := json.Marshal(rec.RiskFactors)
	if err != nil {
		return fmt.Errorf("marshal risk factors: %w", err)
	}

	_, err = r.writeDB.ExecContext(ctx, `
		INSERT INTO engine_records
			(id, engine, name, value, unit, location, test_date, compliance_status,
			 score, risk_factors_json, provenance, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Engine, rec.Name, rec.Value, rec.Unit, rec.Location,
		rec.TestDate.Unix(), string(rec.ComplianceStatus), rec.Score,
		string(risks), rec.Provenance, rec.CreatedAt.Unix(), rec.UpdatedAt.Unix())
	return mapDBError(err)
}

// GetByID returns one record by engine and id.
func (r *RecordRepo) GetByID(ctx context.Context, engine, id string) (*domain.EngineRecord, error) {
	row := r.readDB.QueryRowContext(ctx, `
		SELECT id, engine, name, value, unit, location, test_date, compliance_status,
		       score, risk_factors_json, provenance, created_at, updated_at
		FROM engine_records WHERE engine = ? AND id = ?
	`, engine, id)

	rec, err := scanRecord(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return rec, nil
}

// Search returns one page of matching records plus the full filtered count.
func (r *RecordRepo) Search(ctx context.Context, engine, query string, filters domain.SearchFilters, opts domain.SearchOptions) ([]domain.EngineRecord, int64, error) {
	opts = opts.Normalize()

	where, args := buildRecordFilter(engine, query, filters)

	var total int64
	countSQL := "SELECT COUNT(*) FROM engine_records WHERE " + where
	if err := r.readDB.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, mapDBError(err)
	}

	col, ok := sortColumns[opts.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if opts.SortOrder == domain.SortAsc {
		dir = "ASC"
	}

	listSQL := fmt.Sprintf(`
		SELECT id, engine, name, value, unit, location, test_date, compliance_status,
		       score, risk_factors_json, provenance, created_at, updated_at
		FROM engine_records WHERE %s
		ORDER BY %s %s
		LIMIT ? OFFSET ?
	`, where, col, dir)

	rows, err := r.readDB.QueryContext(ctx, listSQL, append(args, opts.Limit, opts.Offset())...)
	if err != nil {
		return nil, 0, mapDBError(err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.EngineRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

// UpdateComplianceStatus flips a record's compliance classification.
func (r *RecordRepo) UpdateComplianceStatus(ctx context.Context, engine, id string, status domain.ComplianceStatus) error {
	res, err := r.writeDB.ExecContext(ctx, `
		UPDATE engine_records SET compliance_status = ?, updated_at = ?
		WHERE engine = ? AND id = ?
	`, string(status), time.Now().UTC().Unix(), engine, id)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("record %q not found in engine %q", id, engine)
	}
	return nil
}

// StatsByEngine aggregates record counts per engine within the window,
// busiest engine first.
func (r *RecordRepo) StatsByEngine(ctx context.Context, fromUnix, toUnix int64) ([]domain.EngineRecordStats, error) {
	rows, err := r.readDB.QueryContext(ctx, `
		SELECT engine,
		       COUNT(*) AS total,
		       SUM(CASE WHEN compliance_status = 'compliant' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN compliance_status = 'non-compliant' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN compliance_status = 'pending' THEN 1 ELSE 0 END)
		FROM engine_records
		WHERE created_at >= ? AND created_at <= ?
		GROUP BY engine
		ORDER BY total DESC, engine
	`, fromUnix, toUnix)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.EngineRecordStats
	for rows.Next() {
		var s domain.EngineRecordStats
		if err := rows.Scan(&s.Engine, &s.Total, &s.Compliant, &s.NonCompliant, &s.Pending); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// buildRecordFilter translates query + filters into a conjunctive WHERE clause.
func buildRecordFilter(engine, query string, f domain.SearchFilters) (string, []interface{}) {
	clauses := []string{"engine = ?"}
	args := []interface{}{engine}

	if query != "" {
		clauses = append(clauses, "(LOWER(name) LIKE ? OR LOWER(location) LIKE ?)")
		pattern := "%" + strings.ToLower(query) + "%"
		args = append(args, pattern, pattern)
	}
	if f.Location != "" {
		clauses = append(clauses, "LOWER(location) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Location)+"%")
	}
	if f.Commodity != "" {
		clauses = append(clauses, "LOWER(name) = ?")
		args = append(args, strings.ToLower(f.Commodity))
	}
	if f.PriceMin != nil {
		clauses = append(clauses, "value >= ?")
		args = append(args, *f.PriceMin)
	}
	if f.PriceMax != nil {
		clauses = append(clauses, "value <= ?")
		args = append(args, *f.PriceMax)
	}
	if f.DateFrom != nil {
		clauses = append(clauses, "test_date >= ?")
		args = append(args, f.DateFrom.Unix())
	}
	if f.DateTo != nil {
		clauses = append(clauses, "test_date <= ?")
		args = append(args, f.DateTo.Unix())
	}

	return strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*domain.EngineRecord, error) {
	var rec domain.EngineRecord
	var testDate, createdAt, updatedAt int64
	var status, risks string

	err := row.Scan(&rec.ID, &rec.Engine, &rec.Name, &rec.Value, &rec.Unit,
		&rec.Location, &testDate, &status, &rec.Score, &risks,
		&rec.Provenance, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	rec.TestDate = time.Unix(testDate, 0).UTC()
	rec.CreatedAt = time.Unix(createdAt, 0).UTC()
	rec.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	rec.ComplianceStatus = domain.ComplianceStatus(status)
	if err := json.Unmarshal([]byte(risks), &rec.RiskFactors); err != nil {
		return nil, fmt.Errorf("unmarshal risk factors: %w", err)
	}

	return &rec, nil
}
