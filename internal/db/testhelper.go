package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// OpenTestControl opens a migrated control-plane write/read pool pair in
// t.TempDir() and registers cleanup.
func OpenTestControl(t *testing.T) (writeDB, readDB *sql.DB) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "control.sqlite")

	writeDB, readDB, err := OpenSQLitePair(path, 4)
	if err != nil {
		t.Fatalf("open test control db: %v", err)
	}
	t.Cleanup(func() {
		_ = readDB.Close()
		_ = writeDB.Close()
	})

	if err := RunControlMigrations(writeDB); err != nil {
		t.Fatalf("run control migrations: %v", err)
	}

	return writeDB, readDB
}

// OpenTestNamespace opens a migrated tenant namespace in t.TempDir() and
// registers cleanup. Tests that don't need the read/write split can use
// WriteDB for everything.
func OpenTestNamespace(t *testing.T) *Namespace {
	t.Helper()

	ns, err := OpenNamespace(filepath.Join(t.TempDir(), "ns.sqlite"))
	if err != nil {
		t.Fatalf("open test namespace: %v", err)
	}
	t.Cleanup(func() { _ = ns.Close() })

	return ns
}
