package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"auditdna/internal/domain"
)

var _ domain.UploadRepository = (*UploadRepo)(nil)

// UploadRepo stores upload records inside one storage namespace.
type UploadRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

// NewUploadRepo creates a new UploadRepo.
func NewUploadRepo(writeDB, readDB *sql.DB) *UploadRepo {
	return &UploadRepo{writeDB: writeDB, readDB: readDB}
}

// Insert persists one upload record.
func (r *UploadRepo) Insert(ctx context.Context, rec *domain.UploadRecord) error {
	if rec == nil {
		return domain.ErrValidation("upload record is required")
	}
	if rec.ID == "" {
		rec.ID = domain.NewID()
	}
	if rec.Status == "" {
		rec.Status = "uploaded"
	}
	if rec.UploadedAt.IsZero() {
		rec.UploadedAt = time.Now().UTC()
	}

	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal upload metadata: %w", err)
	}

	_, err = r.writeDB.ExecContext(ctx, `
		INSERT INTO uploads (id, engine, filename, original_name, mimetype, size, path, metadata_json, status, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Engine, rec.Filename, rec.OriginalName, rec.MimeType,
		rec.Size, rec.Path, string(meta), rec.Status, rec.UploadedAt.Unix())
	return mapDBError(err)
}

// GetByID returns one upload record.
func (r *UploadRepo) GetByID(ctx context.Context, id string) (*domain.UploadRecord, error) {
	var rec domain.UploadRecord
	var meta string
	var uploadedAt int64

	err := r.readDB.QueryRowContext(ctx, `
		SELECT id, engine, filename, original_name, mimetype, size, path, metadata_json, status, uploaded_at
		FROM uploads WHERE id = ?
	`, id).Scan(&rec.ID, &rec.Engine, &rec.Filename, &rec.OriginalName,
		&rec.MimeType, &rec.Size, &rec.Path, &meta, &rec.Status, &uploadedAt)
	if err != nil {
		return nil, mapDBError(err)
	}

	rec.UploadedAt = time.Unix(uploadedAt, 0).UTC()
	if err := json.Unmarshal([]byte(meta), &rec.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal upload metadata: %w", err)
	}
	return &rec, nil
}
