package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"auditdna/internal/middleware"
	"auditdna/internal/tenant"
)

// RouterConfig carries the cross-cutting settings the router needs.
type RouterConfig struct {
	JWTSecret          []byte
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// adminRoles may manage enterprise resources.
var adminRoles = []string{"tenant_admin", "platform_admin"}

// NewRouter mounts the full HTTP surface: the default-namespace engine
// routes, their tenant-scoped mirror behind the resolver, and the
// enterprise routes behind role checks.
func NewRouter(h *Handler, resolver *tenant.Resolver, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Tenant-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Actor(cfg.JWTSecret))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, payload{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/engines", engineRoutes(h))

		// Tenant-scoped mirror: same engine surface, but every storage
		// operation lands in the resolved tenant's namespace.
		r.Route("/tenant", func(r chi.Router) {
			r.Use(resolver.Middleware)
			r.Get("/branding.css", h.BrandingCSS)
			r.Route("/engines", engineRoutes(h))
		})

		r.Route("/enterprise", func(r chi.Router) {
			r.Use(middleware.RequireRole(cfg.JWTSecret, adminRoles...))

			r.Post("/tenants", h.CreateTenant)
			r.Route("/tenants/{tenantID}", func(r chi.Router) {
				r.Get("/", h.GetTenant)
				r.Delete("/", h.DeactivateTenant)
				r.Patch("/branding", h.UpdateBranding)
				r.Post("/branding/assets", h.UploadBrandingAsset)
				r.Post("/branding/css", h.PublishBrandingCSS)
				r.Post("/sso", h.ConfigureSSO)
				r.Get("/sso/{provider}", h.GetSSOConfig)
				r.Post("/reports/executive", h.ExecutiveReport)
				r.Post("/reports/schedule", h.ScheduleReport)
			})
		})
	})

	return r
}

// engineRoutes mounts the uniform engine surface on a subrouter.
func engineRoutes(h *Handler) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", h.Status)
		r.Get("/search", h.DispatchSearch)
		r.Get("/usda_pricing/trends", h.PriceTrends)
		r.Route("/{engineName}", func(r chi.Router) {
			r.Get("/", h.EngineDetail)
			r.Get("/search", h.EngineSearch)
			r.Post("/upload", h.EngineUpload)
			r.Post("/report", h.EngineReport)
			r.Post("/validate", h.EngineValidate)
			r.Get("/audit", h.EngineAuditList)
			r.Post("/audit", h.EngineAuditCreate)
		})
	}
}
