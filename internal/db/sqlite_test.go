package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLitePair(t *testing.T) {
	t.Parallel()

	t.Run("driver_registered_and_pools_usable", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pair.sqlite")

		writeDB, readDB, err := OpenSQLitePair(path, 4)
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = readDB.Close()
			_ = writeDB.Close()
		})

		require.NoError(t, writeDB.PingContext(context.Background()))
		require.NoError(t, readDB.PingContext(context.Background()))
	})

	t.Run("invalid_mode_rejected", func(t *testing.T) {
		_, err := OpenSQLite(filepath.Join(t.TempDir(), "x.sqlite"), "append", 0)
		assert.Error(t, err)
	})
}

func TestOpenNamespace_Migrated(t *testing.T) {
	t.Parallel()

	ns, err := OpenNamespace(filepath.Join(t.TempDir(), "tenants", "acme.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ns.Close() })

	var n int
	require.NoError(t, ns.ReadDB.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM engine_records").Scan(&n))
	assert.Zero(t, n)
}
