// Package tenant implements tenant resolution, the namespace handle registry,
// and tenant provisioning.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"auditdna/internal/db"
	"auditdna/internal/db/repository"
	"auditdna/internal/domain"
)

// handle pairs an open namespace with its repository bundle and the tenant's
// cached configuration. cfg is nil until the first Resolve and is guarded by
// the registry mutex.
type handle struct {
	ns     *db.Namespace
	stores *domain.Stores
	cfg    *domain.Tenant
}

// Registry resolves tenant ids to live tenant contexts. Namespace handles are
// opened lazily, deduplicated under concurrent first access, and cached for
// the process lifetime: two requests for the same tenant always share one
// connection pair.
type Registry struct {
	tenants domain.TenantRepository
	dataDir string
	logger  *slog.Logger

	group   singleflight.Group
	mu      sync.RWMutex
	handles map[string]*handle
}

// NewRegistry creates a tenant registry over the control-plane tenant store.
func NewRegistry(tenants domain.TenantRepository, dataDir string, logger *slog.Logger) *Registry {
	return &Registry{
		tenants: tenants,
		dataDir: dataDir,
		logger:  logger,
		handles: make(map[string]*handle),
	}
}

// Resolve loads the tenant's configuration and namespace handle. The config
// is cached on the handle after the first lookup; deactivation and branding
// updates invalidate it. Unknown, deactivated, and suspended tenants all
// resolve to the same not-found error.
func (r *Registry) Resolve(ctx context.Context, tenantID string) (*domain.TenantContext, error) {
	r.mu.RLock()
	h, ok := r.handles[tenantID]
	var cfg *domain.Tenant
	if ok {
		cfg = h.cfg
	}
	r.mu.RUnlock()
	if cfg != nil {
		return &domain.TenantContext{ID: cfg.ID, Config: cfg, Stores: h.stores}, nil
	}

	t, err := r.tenants.GetActiveByID(ctx, tenantID)
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			return nil, domain.ErrTenantNotFound()
		}
		return nil, fmt.Errorf("resolve tenant %s: %w", tenantID, err)
	}

	h, err = r.acquire(tenantID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	h.cfg = t
	r.mu.Unlock()

	return &domain.TenantContext{ID: t.ID, Config: t, Stores: h.stores}, nil
}

// Warm opens (or reuses) the tenant's namespace handle without consulting the
// control plane. Provisioning uses it to run migrations before the tenant row
// becomes visible.
func (r *Registry) Warm(tenantID string) (*domain.Stores, error) {
	h, err := r.acquire(tenantID)
	if err != nil {
		return nil, err
	}
	return h.stores, nil
}

// acquire returns the cached handle or opens it exactly once.
func (r *Registry) acquire(tenantID string) (*handle, error) {
	r.mu.RLock()
	h, ok := r.handles[tenantID]
	r.mu.RUnlock()
	if ok {
		return h, nil
	}

	v, err, _ := r.group.Do(tenantID, func() (interface{}, error) {
		r.mu.RLock()
		h, ok := r.handles[tenantID]
		r.mu.RUnlock()
		if ok {
			return h, nil
		}

		ns, err := db.OpenNamespace(db.TenantDBPath(r.dataDir, tenantID))
		if err != nil {
			return nil, domain.ErrStorage(err, "open tenant namespace %s", tenantID)
		}
		h = &handle{ns: ns, stores: repository.NewStores(ns)}

		r.mu.Lock()
		r.handles[tenantID] = h
		r.mu.Unlock()
		r.logger.Info("tenant namespace opened", "tenant", tenantID, "path", ns.Path)
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*handle), nil
}

// InvalidateConfig drops a tenant's cached configuration while keeping the
// namespace handle open. The next Resolve rereads the control plane. Called
// after configuration updates such as branding patches.
func (r *Registry) InvalidateConfig(tenantID string) {
	r.mu.Lock()
	if h, ok := r.handles[tenantID]; ok {
		h.cfg = nil
	}
	r.mu.Unlock()
}

// Invalidate closes and drops a tenant's cached handle. Called after
// deactivation so a revived tenant reopens cleanly.
func (r *Registry) Invalidate(tenantID string) {
	r.mu.Lock()
	h, ok := r.handles[tenantID]
	delete(r.handles, tenantID)
	r.mu.Unlock()

	if ok {
		if err := h.ns.Close(); err != nil {
			r.logger.Warn("closing tenant namespace", "tenant", tenantID, "error", err)
		}
	}
}

// Close closes every cached namespace handle.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for id, h := range r.handles {
		if err := h.ns.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close namespace %s: %w", id, err)
		}
		delete(r.handles, id)
	}
	return firstErr
}
