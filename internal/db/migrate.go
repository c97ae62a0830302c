package db

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

// EmbedMigrations contains the embedded SQL migration files for both the
// control-plane schema and the per-tenant namespace schema.
//
//go:embed migrations/control/*.sql migrations/tenant/*.sql
var EmbedMigrations embed.FS

// RunControlMigrations executes all pending migrations for the control-plane
// database (tenants, SSO configs, report schedules).
func RunControlMigrations(db *sql.DB) error {
	return runMigrations(db, "migrations/control")
}

// RunTenantMigrations executes all pending migrations for one tenant storage
// namespace. Provisioning runs this on a fresh file before the tenant is
// published, so every index exists before the first write.
func RunTenantMigrations(db *sql.DB) error {
	return runMigrations(db, "migrations/tenant")
}

func runMigrations(db *sql.DB, dir string) error {
	goose.SetBaseFS(EmbedMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("goose up %s: %w", dir, err)
	}

	return nil
}
