package rbac_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zippy-delivery/zippy-console/internal/identity"
	"github.com/zippy-delivery/zippy-console/internal/rbac"
	"github.com/zippy-delivery/zippy-console/internal/shared"
	"github.com/zippy-delivery/zippy-console/internal/testing/fixture"
)

func TestDecide(t *testing.T) {
	table := rbac.DefaultTable()
	staffRoute := rbac.Route{Resource: rbac.ResourceCategories, Action: rbac.ActionDelete, LoginPath: rbac.StaffLoginPath}
	walletRoute := rbac.Route{Resource: rbac.ResourceWallet, Action: rbac.ActionView, LoginPath: rbac.CustomerLoginPath}

	assert.Equal(t, rbac.Decision{Outcome: rbac.Unauthenticated, Redirect: rbac.StaffLoginPath}, rbac.Decide(nil, staffRoute, table))
	assert.Equal(t, rbac.Decision{Outcome: rbac.Unauthenticated, Redirect: rbac.CustomerLoginPath}, rbac.Decide(nil, walletRoute, table))
	assert.Equal(t, rbac.Decision{Outcome: rbac.Unauthenticated, Redirect: rbac.StaffLoginPath},
		rbac.Decide(nil, rbac.Route{Resource: rbac.ResourceDashboard, Action: rbac.ActionView}, table))

	assert.Equal(t, rbac.Decision{Outcome: rbac.Unauthorized, Redirect: rbac.AccessDeniedPath},
		rbac.Decide(fixture.Actor(identity.RoleEmployee), staffRoute, table))
	assert.Equal(t, rbac.Decision{Outcome: rbac.Authorized}, rbac.Decide(fixture.Actor(identity.RoleAdmin), staffRoute, table))
	assert.Equal(t, rbac.Decision{Outcome: rbac.Authorized}, rbac.Decide(fixture.Actor(identity.RoleCustomer), walletRoute, table))
	assert.Equal(t, rbac.Unauthorized, rbac.Decide(fixture.Actor(identity.RoleAdmin), walletRoute, table).Outcome)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "authorized", rbac.Authorized.String())
	assert.Equal(t, "unauthorized", rbac.Unauthorized.String())
	assert.Equal(t, "unauthenticated", rbac.Unauthenticated.String())
	assert.Equal(t, "unknown", rbac.Outcome(42).String())
}

func guardedServer(t *testing.T, guard *rbac.Guard, route func(*rbac.Guard) func(http.Handler) http.Handler) http.Handler {
	t.Helper()
	return route(guard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("protected content"))
	}))
}

func TestGuardProtect(t *testing.T) {
	sessions := fixture.Sessions(t)
	reg := prometheus.NewRegistry()
	guard := rbac.NewGuard(rbac.DefaultTable(), rbac.ActorSourceFunc(shared.ActorFromContext), nil, reg)
	staff := guardedServer(t, guard, func(g *rbac.Guard) func(http.Handler) http.Handler {
		return g.Require(rbac.ResourceCategories, rbac.ActionDelete)
	})
	customer := guardedServer(t, guard, func(g *rbac.Guard) func(http.Handler) http.Handler {
		return g.RequireCustomer(rbac.ResourceWallet, rbac.ActionView)
	})

	cases := []struct {
		name     string
		handler  http.Handler
		actor    *identity.Actor
		accept   string
		status   int
		location string
	}{
		{"anonymous staff view", staff, nil, "", http.StatusSeeOther, rbac.StaffLoginPath},
		{"anonymous customer view", customer, nil, "", http.StatusSeeOther, rbac.CustomerLoginPath},
		{"employee lacks delete", staff, fixture.Actor(identity.RoleEmployee), "", http.StatusSeeOther, rbac.AccessDeniedPath},
		{"admin allowed", staff, fixture.Actor(identity.RoleAdmin), "", http.StatusOK, ""},
		{"customer wallet", customer, fixture.Actor(identity.RoleCustomer), "", http.StatusOK, ""},
		{"anonymous json", staff, nil, "application/json", http.StatusUnauthorized, ""},
		{"forbidden json", staff, fixture.Actor(identity.RoleCashier), "application/json", http.StatusForbidden, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/categories", nil)
			if tc.accept != "" {
				req.Header.Set("Accept", tc.accept)
			}
			req = fixture.WithActor(t, sessions, req, tc.actor)
			rr := httptest.NewRecorder()
			tc.handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.status, rr.Code)
			assert.Equal(t, tc.location, rr.Header().Get("Location"))
			if tc.status == http.StatusOK {
				assert.Equal(t, "protected content", rr.Body.String())
			} else {
				assert.NotContains(t, rr.Body.String(), "protected content")
			}
			if tc.accept != "" {
				assert.Contains(t, rr.Header().Get("Content-Type"), "json")
			}
		})
	}

	expected := `
# HELP zippy_guard_decisions_total Route guard decisions by outcome.
# TYPE zippy_guard_decisions_total counter
zippy_guard_decisions_total{outcome="authorized"} 2
zippy_guard_decisions_total{outcome="unauthenticated"} 3
zippy_guard_decisions_total{outcome="unauthorized"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "zippy_guard_decisions_total"))
}

func TestGuardSeesRoleChangeOnNextCheck(t *testing.T) {
	current := fixture.Actor(identity.RoleEmployee)
	source := rbac.ActorSourceFunc(func(context.Context) *identity.Actor { return current })
	guard := rbac.NewGuard(rbac.DefaultTable(), source, nil, nil)
	route := rbac.Route{Resource: rbac.ResourceCategories, Action: rbac.ActionCreate}
	req := httptest.NewRequest(http.MethodGet, "/categories", nil)

	assert.Equal(t, rbac.Unauthorized, guard.Check(req, route).Outcome)

	current = fixture.Actor(identity.RoleManager)
	assert.Equal(t, rbac.Authorized, guard.Check(req, route).Outcome)

	current = nil
	assert.Equal(t, rbac.Unauthenticated, guard.Check(req, route).Outcome)
}

func TestNewGuardToleratesDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	source := rbac.ActorSourceFunc(shared.ActorFromContext)
	rbac.NewGuard(rbac.DefaultTable(), source, nil, reg)
	assert.NotPanics(t, func() { rbac.NewGuard(rbac.DefaultTable(), source, nil, reg) })
}
