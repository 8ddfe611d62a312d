package wallet

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zippy-delivery/zippy-console/internal/identity"
	"github.com/zippy-delivery/zippy-console/internal/rbac"
	"github.com/zippy-delivery/zippy-console/internal/shared"
	"github.com/zippy-delivery/zippy-console/internal/testing/fixture"
	"github.com/zippy-delivery/zippy-console/internal/view"
)

func newTestRouter(t *testing.T, repo Repository) http.Handler {
	t.Helper()
	engine, err := view.NewEngine()
	require.NoError(t, err)
	guard := rbac.NewGuard(rbac.DefaultTable(), rbac.ActorSourceFunc(shared.ActorFromContext), nil, nil)
	handler := NewHandler(nil, repo, engine, shared.NewCSRFManager("test-secret"), guard)
	r := chi.NewRouter()
	r.Route("/customer/wallet", handler.MountRoutes)
	return r
}

func TestWalletViewShowsBalance(t *testing.T) {
	sessions := fixture.Sessions(t)
	repo := &stubRepo{balance: 250}
	router := newTestRouter(t, repo)

	req := fixture.WithActor(t, sessions, httptest.NewRequest(http.MethodGet, "/customer/wallet/", nil), fixture.Actor(identity.RoleCustomer))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "₹250.00")
	assert.Equal(t, 1, repo.calls)
}

func TestWalletRequiresCustomerLogin(t *testing.T) {
	sessions := fixture.Sessions(t)
	repo := &stubRepo{balance: 250}
	router := newTestRouter(t, repo)

	req := fixture.WithActor(t, sessions, httptest.NewRequest(http.MethodGet, "/customer/wallet/", nil), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, rbac.CustomerLoginPath, rr.Header().Get("Location"))
	assert.Equal(t, 0, repo.calls)
}

func TestWalletDeniedForCashier(t *testing.T) {
	sessions := fixture.Sessions(t)
	repo := &stubRepo{}
	router := newTestRouter(t, repo)

	req := fixture.WithActor(t, sessions, httptest.NewRequest(http.MethodGet, "/customer/wallet/", nil), fixture.Actor(identity.RoleCashier))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, rbac.AccessDeniedPath, rr.Header().Get("Location"))
	assert.Equal(t, 0, repo.calls)
}

func TestWalletRefreshFailureFlashes(t *testing.T) {
	sessions := fixture.Sessions(t)
	repo := &stubRepo{err: errors.New("timeout")}
	router := newTestRouter(t, repo)

	req := fixture.WithActor(t, sessions, httptest.NewRequest(http.MethodPost, "/customer/wallet/refresh", nil), fixture.Actor(identity.RoleCustomer))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/customer/wallet", rr.Header().Get("Location"))
	flash := shared.SessionFromContext(req.Context()).PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, shared.FlashDestructive, flash.Kind)
}
