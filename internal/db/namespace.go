package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
)

// Namespace is one isolated storage namespace: a write/read pool pair over a
// dedicated SQLite file. The default namespace backs non-tenant routes; each
// tenant gets its own.
type Namespace struct {
	Path    string
	WriteDB *sql.DB
	ReadDB  *sql.DB
}

// Close closes both pools.
func (n *Namespace) Close() error {
	var firstErr error
	if n.ReadDB != nil {
		if err := n.ReadDB.Close(); err != nil {
			firstErr = err
		}
	}
	if n.WriteDB != nil {
		if err := n.WriteDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// OpenNamespace opens (creating the parent directory if needed) and migrates
// one tenant storage namespace. All indexes exist before this returns, so the
// first write into a fresh namespace is always index-consistent.
func OpenNamespace(path string) (*Namespace, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create namespace dir: %w", err)
		}
	}

	writeDB, readDB, err := OpenSQLitePair(path, 4)
	if err != nil {
		return nil, err
	}

	if err := RunTenantMigrations(writeDB); err != nil {
		_ = readDB.Close()
		_ = writeDB.Close()
		return nil, fmt.Errorf("migrate namespace %s: %w", path, err)
	}

	return &Namespace{Path: path, WriteDB: writeDB, ReadDB: readDB}, nil
}

// TenantDBPath returns the canonical SQLite path for a tenant namespace.
func TenantDBPath(dataDir, tenantID string) string {
	return filepath.Join(dataDir, "tenants", tenantID+".sqlite")
}
