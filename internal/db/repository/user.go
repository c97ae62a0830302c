package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"auditdna/internal/domain"
)

var _ domain.UserRepository = (*UserRepo)(nil)

// UserRepo stores tenant-scoped identities inside one storage namespace.
type UserRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(writeDB, readDB *sql.DB) *UserRepo {
	return &UserRepo{writeDB: writeDB, readDB: readDB}
}

// Insert persists one user. Email uniqueness is enforced by the namespace index.
func (r *UserRepo) Insert(ctx context.Context, u *domain.TenantUser) error {
	if u == nil {
		return domain.ErrValidation("user is required")
	}
	if u.Email == "" {
		return domain.ErrValidation("user email is required")
	}
	if u.ID == "" {
		u.ID = domain.NewID()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}

	perms, err := json.Marshal(u.Permissions)
	if err != nil {
		return fmt.Errorf("marshal permissions: %w", err)
	}

	_, err = r.writeDB.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, role, first_name, last_name,
			permissions_json, sso_provider, sso_subject, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.PasswordHash, u.Role, u.FirstName, u.LastName,
		string(perms), u.SSOProvider, u.SSOSubject, boolToInt(u.Active),
		u.CreatedAt.Unix(), u.UpdatedAt.Unix())
	return mapDBError(err)
}

// GetByEmail returns one user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.TenantUser, error) {
	var u domain.TenantUser
	var perms string
	var active, createdAt, updatedAt int64

	err := r.readDB.QueryRowContext(ctx, `
		SELECT id, email, password_hash, role, first_name, last_name,
		       permissions_json, sso_provider, sso_subject, active, created_at, updated_at
		FROM users WHERE email = ?
	`, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.FirstName,
		&u.LastName, &perms, &u.SSOProvider, &u.SSOSubject, &active, &createdAt, &updatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}

	u.Active = active != 0
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	u.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	if err := json.Unmarshal([]byte(perms), &u.Permissions); err != nil {
		return nil, fmt.Errorf("unmarshal permissions: %w", err)
	}
	return &u, nil
}

// Count returns the total number of users in the namespace.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.readDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, mapDBError(err)
}

// CountCreatedBetween returns the number of users created in [fromUnix, toUnix].
func (r *UserRepo) CountCreatedBetween(ctx context.Context, fromUnix, toUnix int64) (int64, error) {
	var n int64
	err := r.readDB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE created_at >= ? AND created_at <= ?",
		fromUnix, toUnix).Scan(&n)
	return n, mapDBError(err)
}
