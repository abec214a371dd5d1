// Package authz implements the authorization and tenant-isolation kernel:
// role resolution, the static permission matrix, handler guards, the REST
// verb adapter and the session/access middleware.
package authz

import (
	"context"
	"strings"
)

// Principal describes the authenticated actor behind a request. It is
// loaded once per request by the principal middleware; the zero value (or
// nil) stands for an anonymous caller.
type Principal struct {
	ID            int64
	Username      string
	Authenticated bool
	IsSuper       bool
	IsStaff       bool

	// TenantKey partitions rows across independent stores. Empty means
	// "fall back to the username", see Tenant.
	TenantKey string

	// BoundRole is the explicit role binding, empty when none exists.
	BoundRole Role

	// Groups carries group memberships used as a resolution fallback.
	Groups []string
}

// Tenant returns the principal's tenant key, falling back to the username
// when no explicit key is set. The fallback is stable: usernames are
// immutable in the user store.
func (p *Principal) Tenant() string {
	if p == nil {
		return ""
	}
	if p.TenantKey != "" {
		return p.TenantKey
	}
	return p.Username
}

// InGroup reports membership in the named group, case-insensitively.
func (p *Principal) InGroup(name string) bool {
	if p == nil {
		return false
	}
	for _, g := range p.Groups {
		if strings.EqualFold(g, name) {
			return true
		}
	}
	return false
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context. Returns nil
// for anonymous requests.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
