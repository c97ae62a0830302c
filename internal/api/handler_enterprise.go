package api

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"auditdna/internal/domain"
)

// CreateTenant serves POST /api/enterprise/tenants.
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var params domain.CreateTenantParams
	if err := decodeJSON(r, &params); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	result, err := h.deps.Provisioner.CreateTenant(r.Context(), params)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusCreated, payload{"data": result})
}

// GetTenant serves GET /api/enterprise/tenants/{tenantID}.
func (h *Handler) GetTenant(w http.ResponseWriter, r *http.Request) {
	t, err := h.deps.Tenants.GetActiveByID(r.Context(), chi.URLParam(r, "tenantID"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, payload{"data": t})
}

// DeactivateTenant serves DELETE /api/enterprise/tenants/{tenantID}.
func (h *Handler) DeactivateTenant(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Provisioner.DeactivateTenant(r.Context(), chi.URLParam(r, "tenantID")); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, payload{})
}

// UpdateBranding serves PATCH /api/enterprise/tenants/{tenantID}/branding.
func (h *Handler) UpdateBranding(w http.ResponseWriter, r *http.Request) {
	var patch domain.Branding
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	t, err := h.deps.Branding.UpdateBranding(r.Context(), chi.URLParam(r, "tenantID"), patch)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, payload{"data": t.Branding})
}

// UploadBrandingAsset serves POST /api/enterprise/tenants/{tenantID}/branding/assets.
// The multipart field "file" carries the image; the form field "kind" selects
// logo or loginBackground.
func (h *Handler) UploadBrandingAsset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, r, h.logger, domain.ErrValidation("multipart form required: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, h.logger, domain.ErrValidation("no file uploaded"))
		return
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		respondError(w, r, h.logger, domain.ErrValidation("read upload: %v", err))
		return
	}

	t, err := h.deps.Branding.UploadAsset(r.Context(),
		chi.URLParam(r, "tenantID"),
		r.FormValue("kind"),
		header.Header.Get("Content-Type"),
		data)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusCreated, payload{"data": t.Branding})
}

// PublishBrandingCSS serves POST /api/enterprise/tenants/{tenantID}/branding/css.
// It renders the tenant stylesheet, publishes it to the asset store, and
// returns the signed URL.
func (h *Handler) PublishBrandingCSS(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	url, err := h.deps.Branding.PublishCSS(r.Context(), tenantID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusCreated, payload{"cssUrl": url})
}

// BrandingCSS serves GET /api/tenant/branding.css for the resolved tenant.
// The stylesheet is served as text/css, outside the JSON envelope.
func (h *Handler) BrandingCSS(w http.ResponseWriter, r *http.Request) {
	tc, ok := domain.TenantFromContext(r.Context())
	if !ok {
		respondError(w, r, h.logger, domain.ErrTenantRequired())
		return
	}

	css, err := h.deps.Branding.StylesheetFor(r.Context(), tc.ID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = w.Write([]byte(css))
}

// ConfigureSSO serves POST /api/enterprise/tenants/{tenantID}/sso.
func (h *Handler) ConfigureSSO(w http.ResponseWriter, r *http.Request) {
	var cfg domain.SSOConfig
	if err := decodeJSON(r, &cfg); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	cfg.TenantID = chi.URLParam(r, "tenantID")

	if err := h.deps.SSO.Configure(r.Context(), cfg); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusCreated, payload{
		"tenantId": cfg.TenantID,
		"provider": cfg.Provider,
	})
}

// GetSSOConfig serves GET /api/enterprise/tenants/{tenantID}/sso/{provider}.
func (h *Handler) GetSSOConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.deps.SSO.Config(r.Context(),
		chi.URLParam(r, "tenantID"), chi.URLParam(r, "provider"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, payload{"data": cfg})
}

// ExecutiveReport serves POST /api/enterprise/tenants/{tenantID}/reports/executive.
func (h *Handler) ExecutiveReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	from, err := parseDate(req.From)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	to, err := parseDate(req.To)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	rep, err := h.deps.Analytics.GenerateExecutiveReport(r.Context(),
		chi.URLParam(r, "tenantID"), from, to)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusCreated, payload{"data": rep})
}

// ScheduleReport serves POST /api/enterprise/tenants/{tenantID}/reports/schedule.
func (h *Handler) ScheduleReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReportType string   `json:"reportType"`
		Schedule   string   `json:"schedule"`
		Recipients []string `json:"recipients"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	sched := &domain.ReportSchedule{
		TenantID:   chi.URLParam(r, "tenantID"),
		ReportType: req.ReportType,
		CronExpr:   req.Schedule,
		Recipients: req.Recipients,
	}
	entryID, err := h.deps.Scheduler.Schedule(r.Context(), sched)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusCreated, payload{
		"scheduleId": sched.ID,
		"entryId":    int(entryID),
	})
}

// parseDate accepts an empty string (zero time) or a YYYY-MM-DD date.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, domain.ErrValidation("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}
