package domain

import "context"

type tenantKey struct{}
type actorKey struct{}

// TenantContext is the resolved per-request tenant identity: id, cached
// configuration, and a handle to the tenant's isolated storage namespace.
type TenantContext struct {
	ID     string
	Config *Tenant
	Stores *Stores
}

// WithTenant stores a TenantContext in the context.
func WithTenant(ctx context.Context, tc *TenantContext) context.Context {
	return context.WithValue(ctx, tenantKey{}, tc)
}

// TenantFromContext extracts the TenantContext from the context.
func TenantFromContext(ctx context.Context) (*TenantContext, bool) {
	tc, ok := ctx.Value(tenantKey{}).(*TenantContext)
	return tc, ok
}

// Actor identifies who initiated a request, for audit attribution.
type Actor struct {
	ID        string
	IP        string
	UserAgent string
}

// WithActor stores the request actor in the context.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext extracts the request actor, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}
