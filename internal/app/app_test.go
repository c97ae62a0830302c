package app

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditdna/internal/config"
	"auditdna/internal/db"
	"auditdna/internal/domain"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	writeDB, readDB := db.OpenTestControl(t)
	cfg := &config.Config{
		ListenAddr:         ":0",
		DataDir:            t.TempDir(),
		BaseDomain:         "auditdna.com",
		JWTSecret:          "test-secret",
		RateLimitRPS:       1000,
		RateLimitBurst:     1000,
		CORSAllowedOrigins: []string{"*"},
	}

	a, err := New(context.Background(), Deps{
		Cfg:     cfg,
		WriteDB: writeDB,
		ReadDB:  readDB,
		Logger:  slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestNew(t *testing.T) {
	t.Parallel()
	a := newTestApp(t)

	assert.NotNil(t, a.Router)
	assert.Equal(t, 7, a.Engines.Len())
}

func TestSeedDemoData(t *testing.T) {
	t.Parallel()
	a := newTestApp(t)
	stores := a.DefaultStores()

	require.NoError(t, SeedDemoData(context.Background(), stores))

	_, prices, err := stores.Records.Search(context.Background(), "usda_pricing", "",
		domain.SearchFilters{}, domain.SearchOptions{Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 60, prices)

	// Second run is a no-op.
	require.NoError(t, SeedDemoData(context.Background(), stores))
	_, prices, err = stores.Records.Search(context.Background(), "usda_pricing", "",
		domain.SearchFilters{}, domain.SearchOptions{Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 60, prices)
}
