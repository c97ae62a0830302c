package engine

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"auditdna/internal/domain"
)

// Registry holds every registered engine and dispatches fan-out operations
// across them. Registration happens at startup; lookups are concurrent-safe.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]Engine
	logger  *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		engines: make(map[string]Engine),
		logger:  logger,
	}
}

// Register adds an engine under its name. Registering a second engine under
// an already-taken name is a wiring bug and fails loudly rather than
// silently replacing the first.
func (r *Registry) Register(e Engine) error {
	name := e.Name()
	if name == "" {
		return domain.ErrValidation("engine name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.engines[name]; exists {
		return domain.ErrConflict("engine %q is already registered", name)
	}
	r.engines[name] = e
	r.logger.Info("engine registered", "engine", name)
	return nil
}

// Get returns the engine registered under name.
func (r *Registry) Get(name string) (Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[name]
	if !ok {
		return nil, domain.ErrNotFound("engine %q not found", name)
	}
	return e, nil
}

// Names returns the registered engine names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered engines.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.engines)
}

// DispatchAll fans the search out to every registered engine concurrently.
// A failing engine never aborts the dispatch: its slot in the result carries
// an error envelope with empty results instead, so one bad engine cannot hide
// the others' answers.
func (r *Registry) DispatchAll(ctx context.Context, query string, filters domain.SearchFilters, opts domain.SearchOptions) (*domain.DispatchResult, error) {
	names := r.Names()
	opts = opts.Normalize()

	results := make(map[string]interface{}, len(names))
	var resMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8) // bounded parallelism

	for _, name := range names {
		g.Go(func() error {
			e, err := r.Get(name)
			if err != nil {
				return err
			}

			res, err := e.Search(gctx, query, filters, opts)
			resMu.Lock()
			defer resMu.Unlock()
			if err != nil {
				r.logger.Warn("engine search failed during dispatch", "engine", name, "error", err)
				results[name] = domain.EngineError{
					Engine:     name,
					Error:      err.Error(),
					Results:    []domain.EngineRecord{},
					Pagination: domain.Pagination{Page: opts.Page, Limit: opts.Limit, Total: 0},
				}
				return nil
			}
			results[name] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.DispatchResult{
		Query:     query,
		Engines:   names,
		Results:   results,
		Timestamp: time.Now().UTC(),
	}, nil
}

// EngineStatus is one engine's entry in the system status summary.
type EngineStatus struct {
	Name         string   `json:"name"`
	DisplayName  string   `json:"displayName"`
	Status       string   `json:"status"`
	Capabilities []string `json:"capabilities"`
	DataTypes    []string `json:"dataTypes"`
}

// SystemStatus summarizes the registry for the status endpoint.
type SystemStatus struct {
	TotalEngines int            `json:"totalEngines"`
	Engines      []EngineStatus `json:"engines"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Status reports every registered engine's descriptor summary.
func (r *Registry) Status() *SystemStatus {
	names := r.Names()
	status := &SystemStatus{
		TotalEngines: len(names),
		Engines:      make([]EngineStatus, 0, len(names)),
		Timestamp:    time.Now().UTC(),
	}
	for _, name := range names {
		e, err := r.Get(name)
		if err != nil {
			continue
		}
		desc := e.Descriptor()
		status.Engines = append(status.Engines, EngineStatus{
			Name:         name,
			DisplayName:  desc.DisplayName,
			Status:       desc.Status,
			Capabilities: desc.Capabilities,
			DataTypes:    desc.DataTypes,
		})
	}
	return status
}

// LoadAll builds one engine per playbook descriptor and registers them all.
// The pricing engine gets its specialized implementation; every other
// descriptor gets the configurable engine.
func LoadAll(reg *Registry, stores StoreFunc, logger *slog.Logger) error {
	descs, err := LoadPlaybook()
	if err != nil {
		return err
	}
	for _, desc := range descs {
		var e Engine
		if desc.Key == "usda_pricing" {
			e = NewPricingEngine(desc, stores, logger)
		} else {
			e = NewDomainEngine(desc, stores, logger)
		}
		if err := reg.Register(e); err != nil {
			return err
		}
	}
	return nil
}
