// Package app wires the application: control-plane repositories, the engine
// registry, tenant resolution, and the HTTP surface.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"auditdna/internal/api"
	"auditdna/internal/config"
	"auditdna/internal/db"
	"auditdna/internal/db/repository"
	"auditdna/internal/domain"
	"auditdna/internal/engine"
	"auditdna/internal/notify"
	"auditdna/internal/service/analytics"
	"auditdna/internal/service/branding"
	"auditdna/internal/service/sso"
	"auditdna/internal/tenant"
)

// Deps holds the external dependencies that main() must provide: config,
// the control-plane database pools, and the root logger.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
}

// App is the fully wired application.
type App struct {
	Router      http.Handler
	Engines     *engine.Registry
	Tenants     *tenant.Registry
	Provisioner *tenant.Provisioner
	Scheduler   *analytics.Scheduler

	defaultNS *db.Namespace
	logger    *slog.Logger
}

// New wires repositories, services, engines, and the router from the
// provided deps. The default storage namespace is opened (and migrated)
// here; active tenant namespaces are warmed so a restart does not pay the
// open cost on first request.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger

	// === Control-plane repositories ===
	tenantRepo := repository.NewTenantRepo(deps.WriteDB, deps.ReadDB)
	ssoConfigRepo := repository.NewSSOConfigRepo(deps.WriteDB, deps.ReadDB)
	scheduleRepo := repository.NewScheduleRepo(deps.WriteDB, deps.ReadDB)

	// === Default storage namespace ===
	defaultNS, err := db.OpenNamespace(filepath.Join(cfg.DataDir, "default.sqlite"))
	if err != nil {
		return nil, fmt.Errorf("open default namespace: %w", err)
	}
	defaults := repository.NewStores(defaultNS)
	stores := engine.DefaultStoreFunc(defaults)

	// === Engines ===
	engines := engine.NewRegistry(logger.With("component", "registry"))
	if err := engine.LoadAll(engines, stores, logger); err != nil {
		_ = defaultNS.Close()
		return nil, fmt.Errorf("load engines: %w", err)
	}

	// === Tenancy ===
	tenantRegistry := tenant.NewRegistry(tenantRepo, cfg.DataDir, logger.With("component", "tenant-registry"))
	provisioner := tenant.NewProvisioner(tenantRepo, tenantRegistry, cfg.BaseDomain, logger.With("component", "provisioner"))
	resolver := tenant.NewResolver(tenantRegistry, cfg.BaseDomain, cfg.JWTSecret, logger.With("component", "resolver"))

	// === Services ===
	assetStore, err := branding.NewAssetStore(cfg.AssetStore)
	if err != nil {
		_ = defaultNS.Close()
		return nil, fmt.Errorf("configure asset store: %w", err)
	}
	brandingSvc := branding.NewService(tenantRepo, assetStore, tenantRegistry, logger.With("component", "branding"))
	ssoSvc := sso.NewService(ssoConfigRepo, tenantRepo, logger.With("component", "sso"))
	sender := notify.NewLogSender(logger.With("component", "notify"))
	analyticsSvc := analytics.NewService(scheduleRepo, tenantRegistry, sender, logger.With("component", "analytics"))
	scheduler := analytics.NewScheduler(analyticsSvc, logger.With("component", "scheduler"))

	// === HTTP surface ===
	handler := api.NewHandler(api.Deps{
		Registry:    engines,
		Stores:      stores,
		Provisioner: provisioner,
		Tenants:     tenantRepo,
		Branding:    brandingSvc,
		SSO:         ssoSvc,
		Analytics:   analyticsSvc,
		Scheduler:   scheduler,
		Notifier:    sender,
		UploadDir:   filepath.Join(cfg.DataDir, "uploads"),
		Logger:      logger.With("component", "api"),
	})
	router := api.NewRouter(handler, resolver, api.RouterConfig{
		JWTSecret:          []byte(cfg.JWTSecret),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	app := &App{
		Router:      router,
		Engines:     engines,
		Tenants:     tenantRegistry,
		Provisioner: provisioner,
		Scheduler:   scheduler,
		defaultNS:   defaultNS,
		logger:      logger,
	}

	warmTenantNamespaces(ctx, tenantRepo, tenantRegistry, logger)

	return app, nil
}

// Start begins background work: the report scheduler.
func (a *App) Start(ctx context.Context) error {
	return a.Scheduler.Start(ctx)
}

// Close stops background work and releases every storage namespace.
func (a *App) Close() error {
	a.Scheduler.Stop()

	err := a.Tenants.Close()
	if cerr := a.defaultNS.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// DefaultStores exposes the default namespace bundle for seeding.
func (a *App) DefaultStores() *domain.Stores {
	return repository.NewStores(a.defaultNS)
}

// warmTenantNamespaces reopens every active tenant's namespace so the first
// request after a restart does not pay the open-and-migrate cost. Failures
// are logged per tenant; the namespace opens lazily on first use instead.
func warmTenantNamespaces(ctx context.Context, tenants domain.TenantRepository, registry *tenant.Registry, logger *slog.Logger) {
	active, err := tenants.ListActive(ctx)
	if err != nil {
		logger.Warn("list active tenants for warmup failed", "error", err)
		return
	}
	warmed := 0
	for _, t := range active {
		if _, err := registry.Warm(t.ID); err != nil {
			logger.Warn("warm tenant namespace failed", "tenant", t.ID, "error", err)
			continue
		}
		warmed++
	}
	if warmed > 0 {
		logger.Info("tenant namespaces warmed", "count", warmed)
	}
}
