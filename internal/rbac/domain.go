package rbac

import "strings"

// Resource names what is being accessed.
type Resource string

// Action names how a resource is accessed.
type Action string

// Console resources.
const (
	ResourceDashboard    Resource = "dashboard"
	ResourceFarmers      Resource = "farmers"
	ResourceCustomers    Resource = "customers"
	ResourceProducts     Resource = "products"
	ResourceCategories   Resource = "categories"
	ResourceSales        Resource = "sales"
	ResourceTransactions Resource = "transactions"
	ResourceSettlements  Resource = "settlements"
	ResourceCoupons      Resource = "coupons"
	ResourceEmployees    Resource = "employees"
	ResourceRoles        Resource = "roles"
	ResourceTickets      Resource = "tickets"

	// ResourceCustomer guards the customer-facing area.
	ResourceCustomer Resource = "customer"
	ResourceWallet   Resource = "wallet"
	ResourceCalls    Resource = "calls"
)

// Actions.
const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// CRUD lists every action in display order.
var CRUD = []Action{ActionView, ActionCreate, ActionEdit, ActionDelete}

// Grant is one row of a role's capability listing.
type Grant struct {
	Resource Resource
	Actions  []Action
}

func normalizeResource(r Resource) Resource {
	return Resource(strings.ToLower(strings.TrimSpace(string(r))))
}

func normalizeAction(a Action) Action {
	return Action(strings.ToLower(strings.TrimSpace(string(a))))
}

func validAction(a Action) bool {
	switch a {
	case ActionView, ActionCreate, ActionEdit, ActionDelete:
		return true
	}
	return false
}
