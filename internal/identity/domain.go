// Package identity defines the authenticated actor shared by sessions, the
// permission resolver and the route guard.
package identity

import (
	"fmt"
	"strings"
)

// Role is the closed set of roles an Actor can hold.
type Role string

// Known roles. RoleUnauthenticated is a lookup marker only and is never
// assigned to an Actor.
const (
	RoleAdmin           Role = "admin"
	RoleManager         Role = "manager"
	RoleEmployee        Role = "employee"
	RoleCashier         Role = "cashier"
	RoleSalesExecutive  Role = "sales_executive"
	RoleCustomer        Role = "customer"
	RoleDeliveryPartner Role = "delivery_partner"

	RoleUnauthenticated Role = "unauthenticated"
)

// Kind groups roles by the login surface they use.
type Kind string

const (
	KindStaff           Kind = "staff"
	KindCustomer        Kind = "customer"
	KindDeliveryPartner Kind = "delivery_partner"
)

var knownRoles = map[Role]Kind{
	RoleAdmin:           KindStaff,
	RoleManager:         KindStaff,
	RoleEmployee:        KindStaff,
	RoleCashier:         KindStaff,
	RoleSalesExecutive:  KindStaff,
	RoleCustomer:        KindCustomer,
	RoleDeliveryPartner: KindDeliveryPartner,
}

// Roles returns every assignable role.
func Roles() []Role {
	return []Role{
		RoleAdmin,
		RoleManager,
		RoleEmployee,
		RoleCashier,
		RoleSalesExecutive,
		RoleCustomer,
		RoleDeliveryPartner,
	}
}

// ParseRole normalises raw and reports whether it names an assignable role.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := knownRoles[role]; !ok {
		return "", fmt.Errorf("identity: unknown role %q", raw)
	}
	return role, nil
}

// Valid reports whether r is assignable.
func (r Role) Valid() bool {
	_, ok := knownRoles[r]
	return ok
}

// Kind returns the login surface for r. Unknown roles are treated as staff.
func (r Role) Kind() Kind {
	if kind, ok := knownRoles[r]; ok {
		return kind
	}
	return KindStaff
}

func (r Role) String() string {
	return string(r)
}

// Actor is the authenticated identity driving a session. Values are replaced
// wholesale on login or role change and never mutated in place.
type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// RoleOf returns the role of a possibly absent actor.
func RoleOf(a *Actor) Role {
	if a == nil {
		return RoleUnauthenticated
	}
	return a.Role
}

// Credentials carries a login attempt. Identifier is an email or a display name.
type Credentials struct {
	Identifier string `validate:"required"`
	Password   string `validate:"required,min=8"`
	Kind       Kind
}
