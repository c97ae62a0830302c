package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"auditdna/internal/domain"
	"auditdna/internal/engine"
	"auditdna/internal/notify"
)

// Status serves GET /api/engines.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, payload{"data": h.deps.Registry.Status()})
}

// DispatchSearch serves GET /api/engines/search: the same query fanned out
// to every registered engine.
func (h *Handler) DispatchSearch(w http.ResponseWriter, r *http.Request) {
	query, filters, opts := searchParams(r)

	result, err := h.deps.Registry.DispatchAll(r.Context(), query, filters, opts)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, payload{"data": result})
}

// EngineDetail serves GET /api/engines/{engineName}: the descriptor plus a
// small sample of the engine's records.
func (h *Handler) EngineDetail(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engineOr404(w, r)
	if !ok {
		return
	}

	sample, err := e.Search(r.Context(), "", domain.SearchFilters{}, domain.SearchOptions{Limit: 5})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	desc := e.Descriptor()
	respond(w, http.StatusOK, payload{
		"engine": desc.Key,
		"data": payload{
			"displayName":  desc.DisplayName,
			"unit":         desc.Unit,
			"status":       desc.Status,
			"capabilities": desc.Capabilities,
			"dataTypes":    desc.DataTypes,
			"defaultRules": desc.DefaultRules,
			"sampleData":   sample.Results,
		},
	})
}

// EngineSearch serves GET /api/engines/{engineName}/search.
func (h *Handler) EngineSearch(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engineOr404(w, r)
	if !ok {
		return
	}
	query, filters, opts := searchParams(r)

	result, err := e.Search(r.Context(), query, filters, opts)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, payload{"data": result})
}

// EngineUpload serves POST /api/engines/{engineName}/upload. The file
// arrives as the multipart field "file" and is stored under the upload
// directory; the engine records its metadata.
func (h *Handler) EngineUpload(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engineOr404(w, r)
	if !ok {
		return
	}

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

	stored := uuid.NewString() + filepath.Ext(header.Filename)
	path := filepath.Join(h.deps.UploadDir, stored)
	if err := saveUpload(path, file, maxUploadBytes); err != nil {
		respondError(w, r, h.logger, domain.ErrStorage(err, "store upload"))
		return
	}

	metadata := make(map[string]string)
	for key, vals := range r.MultipartForm.Value {
		if len(vals) > 0 {
			metadata[key] = vals[0]
		}
	}

	rec, err := e.Upload(r.Context(), domain.FileMetadata{
		Filename:     stored,
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		Size:         header.Size,
		Path:         path,
	}, metadata)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.notifyUpload(r.Context(), e.Name(), header.Filename, metadata)

	respond(w, http.StatusCreated, payload{"data": rec})
}

// notifyUpload emails the address in the notifyEmail form field, when one was
// supplied. Delivery failures never fail the upload.
func (h *Handler) notifyUpload(ctx context.Context, engineName, filename string, metadata map[string]string) {
	if h.deps.Notifier == nil {
		return
	}
	to := metadata["notifyEmail"]
	if to == "" {
		return
	}
	err := h.deps.Notifier.SendEmail(ctx, notify.Email{
		To:      to,
		Subject: "Upload received",
		Body:    fmt.Sprintf("File %q was received by the %s engine.", filename, engineName),
	})
	if err != nil {
		h.logger.Warn("upload notification failed", "engine", engineName, "to", to, "error", err)
	}
}

// EngineReport serves POST /api/engines/{engineName}/report.
func (h *Handler) EngineReport(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engineOr404(w, r)
	if !ok {
		return
	}

	var req struct {
		ReportType string                 `json:"reportType"`
		Data       map[string]interface{} `json:"data"`
		Options    domain.ReportOptions   `json:"options"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if req.ReportType == "" {
		respondError(w, r, h.logger, domain.ErrValidation("reportType is required"))
		return
	}

	rep, err := e.GenerateReport(r.Context(), req.ReportType, req.Data, req.Options)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusCreated, payload{"data": rep})
}

// EngineValidate serves POST /api/engines/{engineName}/validate.
func (h *Handler) EngineValidate(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engineOr404(w, r)
	if !ok {
		return
	}

	var req struct {
		Data  map[string]interface{}  `json:"data"`
		Rules []domain.ComplianceRule `json:"rules"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if req.Data == nil {
		respondError(w, r, h.logger, domain.ErrValidation("data is required"))
		return
	}

	v, err := e.ValidateCompliance(r.Context(), req.Data, req.Rules)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, payload{"data": v})
}

// EngineAuditCreate serves POST /api/engines/{engineName}/audit.
func (h *Handler) EngineAuditCreate(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engineOr404(w, r)
	if !ok {
		return
	}

	var req struct {
		Action  string                 `json:"action"`
		Data    map[string]interface{} `json:"data"`
		ActorID *string                `json:"actorId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if req.Action == "" {
		respondError(w, r, h.logger, domain.ErrValidation("action is required"))
		return
	}

	entry, err := e.CreateAuditLog(r.Context(), req.Action, req.Data, req.ActorID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusCreated, payload{"data": entry})
}

// EngineAuditList serves GET /api/engines/{engineName}/audit.
func (h *Handler) EngineAuditList(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engineOr404(w, r)
	if !ok {
		return
	}

	name := e.Name()
	filter := domain.AuditFilter{Engine: &name}
	if v := r.URL.Query().Get("action"); v != "" {
		filter.Action = &v
	}
	if v := r.URL.Query().Get("status"); v != "" {
		filter.Status = &v
	}
	filter.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))

	entries, total, err := h.deps.Stores(r.Context()).Audit.List(r.Context(), filter)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	respond(w, http.StatusOK, payload{
		"data":  entries,
		"total": total,
	})
}

// PriceTrends serves GET /api/engines/usda_pricing/trends.
func (h *Handler) PriceTrends(w http.ResponseWriter, r *http.Request) {
	e, err := h.deps.Registry.Get("usda_pricing")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	pricing, ok := e.(*engine.PricingEngine)
	if !ok {
		respondError(w, r, h.logger, domain.ErrNotFound("price trend analysis is not available"))
		return
	}

	analysis, err := pricing.AnalyzePriceTrends(r.Context(),
		r.URL.Query().Get("commodity"), r.URL.Query().Get("timeframe"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, payload{"data": analysis})
}

// engineOr404 looks up the routed engine. An unknown name gets a 404 that
// carries the list of valid names to aid client correction.
func (h *Handler) engineOr404(w http.ResponseWriter, r *http.Request) (engine.Engine, bool) {
	name := chi.URLParam(r, "engineName")
	e, err := h.deps.Registry.Get(name)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"success":          false,
			"error":            err.Error(),
			"availableEngines": h.deps.Registry.Names(),
		})
		return nil, false
	}
	return e, true
}

// searchParams parses the shared search query string.
func searchParams(r *http.Request) (string, domain.SearchFilters, domain.SearchOptions) {
	q := r.URL.Query()

	filters := domain.SearchFilters{
		Location:  q.Get("location"),
		Commodity: q.Get("commodity"),
	}
	if v, err := strconv.ParseFloat(q.Get("priceMin"), 64); err == nil {
		filters.PriceMin = &v
	}
	if v, err := strconv.ParseFloat(q.Get("priceMax"), 64); err == nil {
		filters.PriceMax = &v
	}
	if t, err := time.Parse("2006-01-02", q.Get("dateFrom")); err == nil {
		filters.DateFrom = &t
	}
	if t, err := time.Parse("2006-01-02", q.Get("dateTo")); err == nil {
		filters.DateTo = &t
	}

	opts := domain.SearchOptions{
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}
	opts.Page, _ = strconv.Atoi(q.Get("page"))
	opts.Limit, _ = strconv.Atoi(q.Get("limit"))

	return q.Get("query"), filters, opts
}

// saveUpload streams an uploaded part to disk.
func saveUpload(path string, src io.Reader, limit int64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, io.LimitReader(src, limit)); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}
