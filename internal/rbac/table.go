package rbac

import (
	"fmt"
	"sort"

	"github.com/zippy-delivery/zippy-console/internal/identity"
)

type actionSet map[Action]struct{}

// Table maps roles to the (resource, action) pairs they may use. A Table is
// immutable once built; lookups are safe from any goroutine.
type Table struct {
	grants map[identity.Role]map[Resource]actionSet
}

// Spec describes a table before validation: role -> resource -> actions.
type Spec map[identity.Role]map[Resource][]Action

// NewTable validates spec and builds an immutable Table.
func NewTable(spec Spec) (Table, error) {
	grants := make(map[identity.Role]map[Resource]actionSet, len(spec))
	for role, resources := range spec {
		if !role.Valid() {
			return Table{}, fmt.Errorf("rbac: unknown role %q", role)
		}
		perRole := make(map[Resource]actionSet, len(resources))
		for resource, actions := range resources {
			resource = normalizeResource(resource)
			if resource == "" {
				return Table{}, fmt.Errorf("rbac: empty resource for role %q", role)
			}
			if _, dup := perRole[resource]; dup {
				return Table{}, fmt.Errorf("rbac: duplicate resource %q for role %q", resource, role)
			}
			set := make(actionSet, len(actions))
			perRole[resource] = set
			for _, action := range actions {
				action = normalizeAction(action)
				if !validAction(action) {
					return Table{}, fmt.Errorf("rbac: unknown action %q for %s/%s", action, role, resource)
				}
				set[action] = struct{}{}
			}
		}
		grants[role] = perRole
	}
	return Table{grants: grants}, nil
}

// MustTable is NewTable for package-level literals.
func MustTable(spec Spec) Table {
	t, err := NewTable(spec)
	if err != nil {
		panic(err)
	}
	return t
}

// IsAllowed reports whether role may perform action on resource. Anything
// absent from the table, including unknown roles and the unauthenticated
// marker, is denied.
func (t Table) IsAllowed(role identity.Role, resource Resource, action Action) bool {
	perRole, ok := t.grants[role]
	if !ok {
		return false
	}
	set, ok := perRole[normalizeResource(resource)]
	if !ok {
		return false
	}
	_, ok = set[normalizeAction(action)]
	return ok
}

// Resources returns the sorted resources role can touch at all.
func (t Table) Resources(role identity.Role) []Resource {
	perRole := t.grants[role]
	out := make([]Resource, 0, len(perRole))
	for resource := range perRole {
		out = append(out, resource)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Grants lists role's capabilities sorted by resource, actions in CRUD order.
func (t Table) Grants(role identity.Role) []Grant {
	resources := t.Resources(role)
	out := make([]Grant, 0, len(resources))
	for _, resource := range resources {
		set := t.grants[role][resource]
		actions := make([]Action, 0, len(set))
		for _, action := range CRUD {
			if _, ok := set[action]; ok {
				actions = append(actions, action)
			}
		}
		out = append(out, Grant{Resource: resource, Actions: actions})
	}
	return out
}

// Roles returns the roles present in the table in declaration order.
func (t Table) Roles() []identity.Role {
	out := make([]identity.Role, 0, len(t.grants))
	for _, role := range identity.Roles() {
		if _, ok := t.grants[role]; ok {
			out = append(out, role)
		}
	}
	return out
}

var fullAccess = CRUD

// DefaultTable returns the built-in console permissions.
func DefaultTable() Table {
	return MustTable(Spec{
		identity.RoleAdmin: {
			ResourceDashboard:    {ActionView},
			ResourceFarmers:      fullAccess,
			ResourceCustomers:    fullAccess,
			ResourceProducts:     fullAccess,
			ResourceCategories:   fullAccess,
			ResourceSales:        fullAccess,
			ResourceTransactions: fullAccess,
			ResourceSettlements:  fullAccess,
			ResourceCoupons:      fullAccess,
			ResourceEmployees:    fullAccess,
			ResourceRoles:        fullAccess,
			ResourceTickets:      fullAccess,
		},
		identity.RoleManager: {
			ResourceDashboard:    {ActionView},
			ResourceFarmers:      {ActionView, ActionCreate, ActionEdit},
			ResourceCustomers:    {ActionView, ActionCreate, ActionEdit},
			ResourceProducts:     {ActionView, ActionCreate, ActionEdit},
			ResourceCategories:   {ActionView, ActionCreate, ActionEdit},
			ResourceSales:        {ActionView, ActionCreate},
			ResourceTransactions: {ActionView},
			ResourceSettlements:  {ActionView},
			ResourceCoupons:      {ActionView, ActionCreate},
			ResourceEmployees:    {ActionView},
			ResourceTickets:      {ActionView, ActionCreate, ActionEdit},
		},
		identity.RoleEmployee: {
			ResourceDashboard:  {ActionView},
			ResourceCustomers:  {ActionView, ActionCreate},
			ResourceProducts:   {ActionView},
			ResourceCategories: {ActionView},
			ResourceSales:      {ActionView, ActionCreate},
			ResourceTickets:    {ActionView, ActionCreate},
		},
		identity.RoleCashier: {
			ResourceDashboard:    {ActionView},
			ResourceCustomers:    {ActionView, ActionCreate},
			ResourceProducts:     {ActionView},
			ResourceSales:        {ActionView, ActionCreate},
			ResourceTransactions: {ActionView},
			ResourceCoupons:      {ActionView},
		},
		identity.RoleSalesExecutive: {
			ResourceDashboard: {ActionView},
			ResourceProducts:  {ActionView},
			ResourceSales:     {ActionView, ActionCreate},
			ResourceCustomers: {ActionView, ActionCreate},
			ResourceFarmers:   {ActionView},
			ResourceTickets:   {ActionView, ActionCreate},
			ResourceCoupons:   {ActionView},
		},
		identity.RoleCustomer: {
			ResourceCustomer: {ActionView},
			ResourceWallet:   {ActionView},
			ResourceCalls:    {ActionCreate},
		},
		identity.RoleDeliveryPartner: {
			ResourceCalls: {ActionCreate},
		},
	})
}
