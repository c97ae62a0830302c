package tenant

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"auditdna/internal/domain"
)

// Resolver extracts the tenant identity from a request and attaches the
// resolved TenantContext. Identification sources, in priority order:
// subdomain of the base domain, X-Tenant-ID header, "tenantId" claim of the
// Authorization bearer token.
type Resolver struct {
	registry   *Registry
	baseDomain string
	jwtSecret  []byte
	logger     *slog.Logger
}

// NewResolver creates a resolver over the tenant registry.
func NewResolver(registry *Registry, baseDomain, jwtSecret string, logger *slog.Logger) *Resolver {
	return &Resolver{
		registry:   registry,
		baseDomain: strings.ToLower(baseDomain),
		jwtSecret:  []byte(jwtSecret),
		logger:     logger,
	}
}

// Identify returns the tenant id hinted by the request, without resolving it.
// A request with no hint at all fails with a "required" resolution error.
func (r *Resolver) Identify(req *http.Request) (string, error) {
	if id := r.fromSubdomain(req); id != "" {
		return id, nil
	}
	if id := strings.TrimSpace(req.Header.Get("X-Tenant-ID")); id != "" {
		return id, nil
	}
	if id := r.fromToken(req); id != "" {
		return id, nil
	}
	return "", domain.ErrTenantRequired()
}

// Resolve identifies and resolves the request's tenant.
func (r *Resolver) Resolve(req *http.Request) (*domain.TenantContext, error) {
	id, err := r.Identify(req)
	if err != nil {
		return nil, err
	}
	return r.registry.Resolve(req.Context(), id)
}

// Middleware resolves the tenant for every request and attaches the
// TenantContext. Requests without a resolvable tenant are rejected: 400 when
// no hint was present, 404 when the hint matched no active tenant.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		tc, err := r.Resolve(req)
		if err != nil {
			r.reject(w, req, err)
			return
		}
		next.ServeHTTP(w, req.WithContext(domain.WithTenant(req.Context(), tc)))
	})
}

func (r *Resolver) reject(w http.ResponseWriter, req *http.Request, err error) {
	var status int
	var te *domain.TenantResolutionError
	switch {
	case errors.As(err, &te) && te.Missing:
		status = http.StatusBadRequest
	case errors.As(err, &te):
		status = http.StatusNotFound
	default:
		r.logger.Error("tenant resolution failed", "host", req.Host, "error", err)
		status = http.StatusInternalServerError
		err = fmt.Errorf("tenant resolution failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"success":false,"error":%q}`+"\n", err.Error())
}

// fromSubdomain extracts the first host label when the request host is a
// subdomain of the base domain. Reserved labels (www, api) never name a
// tenant.
func (r *Resolver) fromSubdomain(req *http.Request) string {
	host := strings.ToLower(req.Host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == r.baseDomain || !strings.HasSuffix(host, "."+r.baseDomain) {
		return ""
	}

	sub := strings.TrimSuffix(host, "."+r.baseDomain)
	if strings.Contains(sub, ".") {
		// Deeper nesting is not a tenant subdomain.
		return ""
	}
	if sub == "www" || sub == "api" {
		return ""
	}
	return sub
}

// fromToken pulls the "tenantId" claim out of a valid HS256 bearer token.
// Invalid tokens contribute no hint rather than failing the request; the
// authenticated routes reject them separately.
func (r *Resolver) fromToken(req *http.Request) string {
	auth := req.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}

	tok, err := jwt.Parse(strings.TrimPrefix(auth, prefix), func(token *jwt.Token) (interface{}, error) {
		if token.Method == nil || token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return r.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		r.logger.Debug("bearer token rejected during tenant resolution", "error", err)
		return ""
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	id, _ := claims["tenantId"].(string)
	return id
}
