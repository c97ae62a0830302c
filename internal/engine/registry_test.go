package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditdna/internal/domain"
)

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	t.Run("lookup_after_register", func(t *testing.T) {
		reg := NewRegistry(testLogger())
		require.NoError(t, reg.Register(NewBase("alpha")))

		e, err := reg.Get("alpha")
		require.NoError(t, err)
		assert.Equal(t, "alpha", e.Name())
	})

	t.Run("duplicate_name_rejected", func(t *testing.T) {
		reg := NewRegistry(testLogger())
		require.NoError(t, reg.Register(NewBase("alpha")))

		err := reg.Register(NewBase("alpha"))
		require.Error(t, err)
		var ce *domain.ConflictError
		assert.ErrorAs(t, err, &ce)
		assert.Equal(t, 1, reg.Len())
	})

	t.Run("empty_name_rejected", func(t *testing.T) {
		reg := NewRegistry(testLogger())
		err := reg.Register(NewBase(""))
		require.Error(t, err)
		var ve *domain.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("unknown_engine_not_found", func(t *testing.T) {
		reg := NewRegistry(testLogger())
		_, err := reg.Get("ghost")
		require.Error(t, err)
		var nf *domain.NotFoundError
		assert.ErrorAs(t, err, &nf)
	})
}

func TestRegistry_Names(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(testLogger())
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, reg.Register(NewBase(name)))
	}

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, reg.Names())
}

func TestRegistry_DispatchAll(t *testing.T) {
	t.Parallel()

	t.Run("one_slot_per_engine", func(t *testing.T) {
		reg := NewRegistry(testLogger())
		for _, key := range []string{"water_tech", "usda_pricing"} {
			stores := newTestStores()
			stores.records.searchFn = func(context.Context, string, string, domain.SearchFilters, domain.SearchOptions) ([]domain.EngineRecord, int64, error) {
				return []domain.EngineRecord{{ID: key + "-1"}}, 1, nil
			}
			require.NoError(t, reg.Register(NewDomainEngine(testDescriptor(key), stores.fn(), testLogger())))
		}

		res, err := reg.DispatchAll(context.Background(), "lead", domain.SearchFilters{}, domain.SearchOptions{})

		require.NoError(t, err)
		assert.Equal(t, "lead", res.Query)
		assert.Equal(t, []string{"usda_pricing", "water_tech"}, res.Engines)
		assert.Len(t, res.Results, 2)
		for _, name := range res.Engines {
			sr, ok := res.Results[name].(*domain.SearchResult)
			require.True(t, ok, "engine %s should have a search result", name)
			assert.Equal(t, name, sr.Engine)
		}
	})

	t.Run("failed_engine_isolated", func(t *testing.T) {
		reg := NewRegistry(testLogger())

		good := newTestStores()
		good.records.searchFn = func(context.Context, string, string, domain.SearchFilters, domain.SearchOptions) ([]domain.EngineRecord, int64, error) {
			return []domain.EngineRecord{{ID: "ok-1"}}, 1, nil
		}
		require.NoError(t, reg.Register(NewDomainEngine(testDescriptor("healthy"), good.fn(), testLogger())))

		bad := newTestStores()
		bad.records.searchFn = func(context.Context, string, string, domain.SearchFilters, domain.SearchOptions) ([]domain.EngineRecord, int64, error) {
			return nil, 0, errTest
		}
		require.NoError(t, reg.Register(NewDomainEngine(testDescriptor("broken"), bad.fn(), testLogger())))

		res, err := reg.DispatchAll(context.Background(), "q", domain.SearchFilters{}, domain.SearchOptions{})

		require.NoError(t, err)

		sr, ok := res.Results["healthy"].(*domain.SearchResult)
		require.True(t, ok)
		assert.Len(t, sr.Results, 1)

		ee, ok := res.Results["broken"].(domain.EngineError)
		require.True(t, ok, "failed engine should yield an error envelope")
		assert.Equal(t, "broken", ee.Engine)
		assert.Contains(t, ee.Error, "test failure")
		assert.NotNil(t, ee.Results)
		assert.Empty(t, ee.Results)
		assert.Equal(t, int64(0), ee.Pagination.Total)
	})

	t.Run("empty_registry", func(t *testing.T) {
		reg := NewRegistry(testLogger())

		res, err := reg.DispatchAll(context.Background(), "q", domain.SearchFilters{}, domain.SearchOptions{})

		require.NoError(t, err)
		assert.Empty(t, res.Engines)
		assert.Empty(t, res.Results)
	})
}

func TestRegistry_Status(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(testLogger())
	stores := newTestStores()
	require.NoError(t, reg.Register(NewDomainEngine(testDescriptor("water_tech"), stores.fn(), testLogger())))

	status := reg.Status()

	assert.Equal(t, 1, status.TotalEngines)
	require.Len(t, status.Engines, 1)
	assert.Equal(t, "water_tech", status.Engines[0].Name)
	assert.Equal(t, "active", status.Engines[0].Status)
	assert.Contains(t, status.Engines[0].Capabilities, CapSearch)
}

func TestLoadAll(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(testLogger())
	stores := newTestStores()
	require.NoError(t, LoadAll(reg, stores.fn(), testLogger()))

	assert.Equal(t, 7, reg.Len())

	e, err := reg.Get("usda_pricing")
	require.NoError(t, err)
	_, ok := e.(*PricingEngine)
	assert.True(t, ok, "usda_pricing should be the pricing engine")

	// Loading twice collides on every name.
	assert.Error(t, LoadAll(reg, stores.fn(), testLogger()))
}
