package authz

// Module and action vocabularies. The matrix carries an entry for every
// (role, module) pair that any handler references; TestMatrixClosure
// enforces that invariant.
const (
	ModuleProducts    = "products"
	ModuleWarehouses  = "warehouses"
	ModuleCustomers   = "customers"
	ModuleInventory   = "inventory"
	ModuleOrders      = "orders"
	ModuleAudit       = "audit"
	ModulePermissions = "permissions"
	ModuleReports     = "reports"
	ModuleAnalytics   = "analytics"
	ModuleExpenses    = "expenses"
)

const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionEdit   = "edit"
	ActionDelete = "delete"
	ActionExport = "export"
)

// Modules lists the module vocabulary.
func Modules() []string {
	return []string{
		ModuleProducts, ModuleWarehouses, ModuleCustomers, ModuleInventory,
		ModuleOrders, ModuleAudit, ModulePermissions, ModuleReports,
		ModuleAnalytics, ModuleExpenses,
	}
}

// Actions lists the action vocabulary.
func Actions() []string {
	return []string{ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport}
}

type actions map[string]bool

// grant builds a full action map with the named actions enabled.
func grant(enabled ...string) actions {
	a := actions{ActionView: false, ActionCreate: false, ActionEdit: false, ActionDelete: false, ActionExport: false}
	for _, name := range enabled {
		a[name] = true
	}
	return a
}

func allActions() actions {
	return grant(ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport)
}

// matrix maps role -> module -> action -> allowed. Initialized once at
// process start and read-only afterwards; concurrent reads need no
// synchronization. Guests have no row: every lookup for them denies.
var matrix = map[Role]map[string]actions{
	RoleAdmin: {
		// Admins edit the catalog but cannot create products; creation
		// is reserved for supervisors and above.
		ModuleProducts:    grant(ActionView, ActionEdit, ActionDelete, ActionExport),
		ModuleWarehouses:  allActions(),
		ModuleCustomers:   allActions(),
		ModuleInventory:   allActions(),
		ModuleOrders:      allActions(),
		ModuleAudit:       grant(ActionView, ActionExport),
		ModulePermissions: grant(ActionView),
		ModuleReports:     grant(ActionView, ActionExport),
		ModuleAnalytics:   grant(ActionView, ActionExport),
		ModuleExpenses:    grant(ActionView, ActionCreate, ActionEdit, ActionExport),
	},
	RoleSupervisor: {
		ModuleProducts:    grant(ActionView, ActionCreate, ActionEdit, ActionExport),
		ModuleWarehouses:  grant(ActionView, ActionEdit),
		ModuleCustomers:   grant(ActionView, ActionCreate, ActionEdit),
		ModuleInventory:   grant(ActionView, ActionCreate, ActionEdit),
		ModuleOrders:      grant(ActionView, ActionCreate, ActionEdit),
		ModuleAudit:       grant(ActionView),
		ModulePermissions: grant(ActionView),
		ModuleReports:     grant(ActionView, ActionExport),
		ModuleAnalytics:   grant(ActionView),
		ModuleExpenses:    grant(ActionView, ActionCreate),
	},
	RoleSubAdmin: {
		ModuleProducts:    grant(ActionView, ActionEdit),
		ModuleWarehouses:  grant(ActionView),
		ModuleCustomers:   grant(ActionView),
		ModuleInventory:   grant(ActionView, ActionEdit),
		ModuleOrders:      grant(ActionView, ActionEdit),
		ModuleAudit:       grant(),
		ModulePermissions: grant(),
		ModuleReports:     grant(ActionView),
		ModuleAnalytics:   grant(),
		ModuleExpenses:    grant(ActionView),
	},
	RoleStaff: {
		ModuleProducts:    grant(ActionView),
		ModuleWarehouses:  grant(ActionView),
		ModuleCustomers:   grant(ActionView),
		ModuleInventory:   grant(ActionView, ActionCreate),
		ModuleOrders:      grant(ActionView, ActionCreate),
		ModuleAudit:       grant(),
		ModulePermissions: grant(),
		ModuleReports:     grant(ActionView),
		ModuleAnalytics:   grant(),
		ModuleExpenses:    grant(),
	},
	RoleCustomer: {
		ModuleProducts:    grant(ActionView),
		ModuleWarehouses:  grant(),
		ModuleCustomers:   grant(),
		ModuleInventory:   grant(),
		ModuleOrders:      grant(ActionView, ActionCreate),
		ModuleAudit:       grant(),
		ModulePermissions: grant(),
		ModuleReports:     grant(),
		ModuleAnalytics:   grant(),
		ModuleExpenses:    grant(),
	},
}

func init() {
	// Superadmin is allowed everything; generating the row keeps the
	// invariant true whenever the vocabulary grows.
	row := make(map[string]actions, len(Modules()))
	for _, m := range Modules() {
		row[m] = allActions()
	}
	matrix[RoleSuperAdmin] = row
}

// Check answers "may principal p perform action on module?". Unknown
// modules or actions are not errors, they deny.
func Check(p *Principal, module, action string) bool {
	modules, ok := matrix[Resolve(p)]
	if !ok {
		return false
	}
	acts, ok := modules[module]
	if !ok {
		return false
	}
	return acts[action]
}

// RolePermissions exposes a copy of a role's matrix row for the
// permissions admin screen.
func RolePermissions(r Role) map[string]map[string]bool {
	row, ok := matrix[r]
	if !ok {
		return nil
	}
	out := make(map[string]map[string]bool, len(row))
	for module, acts := range row {
		inner := make(map[string]bool, len(acts))
		for action, allowed := range acts {
			inner[action] = allowed
		}
		out[module] = inner
	}
	return out
}
