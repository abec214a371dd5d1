// Package tenant implements the tenant-scoped query building rules shared
// by every tenant-owned resource: soft-delete visibility, tenant-key
// filtering and the soft/hard delete split.
package tenant

import (
	"fmt"

	"github.com/multistock/multistock/internal/authz"
)

// DeleteMode selects between soft and hard row deletion.
type DeleteMode int

const (
	// DeleteSoft sets is_deleted and keeps the row.
	DeleteSoft DeleteMode = iota
	// DeleteHard removes the row irreversibly.
	DeleteHard
)

// Scope captures what the current principal may observe. Zero value is
// the guest scope: tenant-filtered with an empty key, matching nothing.
type Scope struct {
	role authz.Role
	key  string
}

// ScopeFor derives the scope from a principal.
func ScopeFor(p *authz.Principal) Scope {
	return Scope{role: authz.Resolve(p), key: p.Tenant()}
}

// ScopeForTenant builds a read scope pinned to one tenant's store, used
// by the public catalog where no principal exists.
func ScopeForTenant(key string) Scope {
	return Scope{role: authz.RoleGuest, key: key}
}

// Unrestricted reports whether the scope sees every tenant's rows.
func (s Scope) Unrestricted() bool {
	return s.role == authz.RoleSuperAdmin
}

// TenantKey returns the key stamped onto created rows.
func (s Scope) TenantKey() string {
	return s.key
}

// DeleteMode returns the deletion policy for this scope: only
// superadmins hard delete.
func (s Scope) DeleteMode() DeleteMode {
	if s.role == authz.RoleSuperAdmin {
		return DeleteHard
	}
	return DeleteSoft
}

// Filter renders the WHERE fragment enforcing the read rule. The
// fragment always excludes soft-deleted rows; non-superadmin scopes
// additionally pin the tenant key. argPos is the 1-based index of the
// next positional SQL argument.
//
// Usage:
//
//	clause, args := scope.Filter(2)
//	// "... WHERE code = $1 AND " + clause
func (s Scope) Filter(argPos int) (string, []any) {
	if s.Unrestricted() {
		return "is_deleted = FALSE", nil
	}
	return fmt.Sprintf("is_deleted = FALSE AND tenant_key = $%d", argPos), []any{s.key}
}

// Visible reports whether a row with the given attributes is observable
// under this scope. Repositories enforce the rule in SQL; this is the
// in-memory equivalent used by services and tests.
func (s Scope) Visible(tenantKey string, isDeleted bool) bool {
	if isDeleted {
		return false
	}
	return s.Unrestricted() || tenantKey == s.key
}
