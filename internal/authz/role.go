package authz

// Role is a symbol from the closed set used as the key into the
// permission matrix.
type Role string

// The closed role set. The matrix is the sole source of truth for what
// each role may do; the ordering here is informal.
const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleSubAdmin   Role = "subadmin"
	RoleSupervisor Role = "supervisor"
	RoleStaff      Role = "staff"
	RoleCustomer   Role = "customer"
	RoleGuest      Role = "guest"
)

// Roles lists every assignable role (guest is implicit, never assigned).
func Roles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin, RoleSubAdmin, RoleSupervisor, RoleStaff, RoleCustomer}
}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleSubAdmin, RoleSupervisor, RoleStaff, RoleCustomer, RoleGuest:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Resolve derives the single role for a principal. Pure, total and
// deterministic: first match wins, lookup gaps fall through to the next
// rule and the final fallback is customer.
func Resolve(p *Principal) Role {
	if p == nil || !p.Authenticated {
		return RoleGuest
	}
	if p.IsSuper {
		return RoleSuperAdmin
	}
	if p.BoundRole != "" && p.BoundRole.Valid() {
		return p.BoundRole
	}
	if p.InGroup("admin") || p.InGroup("sub-admin") {
		return RoleAdmin
	}
	if p.InGroup("subadmin") {
		return RoleSubAdmin
	}
	if p.IsStaff {
		return RoleStaff
	}
	return RoleCustomer
}
