package rbac_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zippy-delivery/zippy-console/internal/identity"
	"github.com/zippy-delivery/zippy-console/internal/rbac"
)

func TestDefaultTableIsDenyByDefault(t *testing.T) {
	table := rbac.DefaultTable()

	cases := []struct {
		name     string
		role     identity.Role
		resource rbac.Resource
		action   rbac.Action
		want     bool
	}{
		{"admin deletes categories", identity.RoleAdmin, rbac.ResourceCategories, rbac.ActionDelete, true},
		{"manager cannot delete categories", identity.RoleManager, rbac.ResourceCategories, rbac.ActionDelete, false},
		{"employee views categories", identity.RoleEmployee, rbac.ResourceCategories, rbac.ActionView, true},
		{"cashier has no categories", identity.RoleCashier, rbac.ResourceCategories, rbac.ActionView, false},
		{"sales executive views sales", identity.RoleSalesExecutive, rbac.ResourceSales, rbac.ActionView, true},
		{"customer views wallet", identity.RoleCustomer, rbac.ResourceWallet, rbac.ActionView, true},
		{"customer cannot open dashboard", identity.RoleCustomer, rbac.ResourceDashboard, rbac.ActionView, false},
		{"partner places calls", identity.RoleDeliveryPartner, rbac.ResourceCalls, rbac.ActionCreate, true},
		{"unauthenticated marker", identity.RoleUnauthenticated, rbac.ResourceDashboard, rbac.ActionView, false},
		{"unknown role", identity.Role("root"), rbac.ResourceDashboard, rbac.ActionView, false},
		{"unknown resource", identity.RoleAdmin, rbac.Resource("payroll"), rbac.ActionView, false},
		{"case insensitive lookup", identity.RoleAdmin, rbac.Resource(" Categories "), rbac.Action("VIEW"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, table.IsAllowed(tc.role, tc.resource, tc.action))
		})
	}
}

func TestNewTableRejectsUnknownEntries(t *testing.T) {
	_, err := rbac.NewTable(rbac.Spec{identity.Role("root"): {rbac.ResourceDashboard: {rbac.ActionView}}})
	require.Error(t, err)

	_, err = rbac.NewTable(rbac.Spec{identity.RoleAdmin: {rbac.ResourceDashboard: {rbac.Action("approve")}}})
	require.Error(t, err)

	_, err = rbac.NewTable(rbac.Spec{identity.RoleAdmin: {rbac.Resource("  "): {rbac.ActionView}}})
	require.Error(t, err)

	_, err = rbac.NewTable(rbac.Spec{identity.RoleManager: {
		rbac.Resource("categories"):  {rbac.ActionView},
		rbac.Resource("Categories "): {rbac.ActionDelete},
	}})
	require.ErrorContains(t, err, "duplicate resource")
}

func TestTableListings(t *testing.T) {
	table := rbac.MustTable(rbac.Spec{
		identity.RoleManager: {
			rbac.ResourceSales:      {rbac.ActionCreate, rbac.ActionView},
			rbac.ResourceCategories: {rbac.ActionEdit, rbac.ActionView},
		},
		identity.RoleAdmin: {rbac.ResourceDashboard: {rbac.ActionView}},
	})

	assert.Equal(t, []rbac.Resource{rbac.ResourceCategories, rbac.ResourceSales}, table.Resources(identity.RoleManager))
	assert.Equal(t, []rbac.Grant{
		{Resource: rbac.ResourceCategories, Actions: []rbac.Action{rbac.ActionView, rbac.ActionEdit}},
		{Resource: rbac.ResourceSales, Actions: []rbac.Action{rbac.ActionView, rbac.ActionCreate}},
	}, table.Grants(identity.RoleManager))
	assert.Equal(t, []identity.Role{identity.RoleAdmin, identity.RoleManager}, table.Roles())
	assert.Empty(t, table.Resources(identity.RoleCustomer))
}

func TestZeroTableDeniesEverything(t *testing.T) {
	var table rbac.Table
	assert.False(t, table.IsAllowed(identity.RoleAdmin, rbac.ResourceDashboard, rbac.ActionView))
}
