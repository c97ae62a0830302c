// Package api exposes the HTTP surface: engine dispatch routes, the
// tenant-scoped mirror, and the enterprise provisioning routes. Every
// response uses the uniform {"success": ...} envelope.
package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"auditdna/internal/domain"
	"auditdna/internal/engine"
	"auditdna/internal/notify"
	"auditdna/internal/service/analytics"
	"auditdna/internal/service/branding"
	"auditdna/internal/service/sso"
	"auditdna/internal/tenant"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// maxUploadBytes bounds multipart upload bodies.
const maxUploadBytes = 32 << 20

// Deps carries the services the handler routes to.
type Deps struct {
	Registry    *engine.Registry
	Stores      engine.StoreFunc
	Provisioner *tenant.Provisioner
	Tenants     domain.TenantRepository
	Branding    *branding.Service
	SSO         *sso.Service
	Analytics   *analytics.Service
	Scheduler   *analytics.Scheduler
	Notifier    notify.EmailSender
	UploadDir   string
	Logger      *slog.Logger
}

// Handler serves every API route.
type Handler struct {
	deps   Deps
	logger *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps, logger: deps.Logger}
}

// decodeJSON parses a bounded JSON request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return domain.ErrValidation("read request body: %v", err)
	}
	if len(body) == 0 {
		return domain.ErrValidation("request body is required")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return domain.ErrValidation("malformed JSON body: %v", err)
	}
	return nil
}
