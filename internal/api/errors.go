package api

import (
	"errors"
	"net/http"

	"auditdna/internal/domain"
)

// statusFor maps the domain error taxonomy to HTTP status codes.
// NotImplemented signals a configuration bug (a registered engine missing a
// capability), so it surfaces as 500 rather than 404.
func statusFor(err error) int {
	var (
		notFound       *domain.NotFoundError
		validation     *domain.ValidationError
		conflict       *domain.ConflictError
		notImplemented *domain.NotImplementedError
		tenant         *domain.TenantResolutionError
		storage        *domain.StorageError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &tenant):
		if tenant.Missing {
			return http.StatusBadRequest
		}
		return http.StatusNotFound
	case errors.As(err, &notImplemented), errors.As(err, &storage):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
