package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zippy-delivery/zippy-console/internal/identity"
	"github.com/zippy-delivery/zippy-console/internal/shared"
	"github.com/zippy-delivery/zippy-console/internal/testing/fixture"
)

func newManager(t *testing.T) (*shared.SessionManager, func() []string) {
	t.Helper()
	mr, client := fixture.Redis(t)
	return shared.NewSessionManager(client, "zippy_session", time.Hour, false), mr.Keys
}

func roundTrip(t *testing.T, sm *shared.SessionManager, sess *shared.Session) *http.Cookie {
	t.Helper()
	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rr, httptest.NewRequest(http.MethodGet, "/", nil), sess))
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func reload(t *testing.T, sm *shared.SessionManager, cookie *http.Cookie) *shared.Session {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	return sess
}

func TestSessionPersistsActorAndFlash(t *testing.T) {
	sm, _ := newManager(t)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	actor := identity.Actor{ID: "u-1", Name: "Meera", Role: identity.RoleManager}
	sess.SetActor(&actor)
	sess.AddFlash(shared.FlashMessage{Kind: shared.FlashInfo, Title: "Coming Soon", Message: "Reports will be available soon."})
	cookie := roundTrip(t, sm, sess)
	assert.Equal(t, "zippy_session", cookie.Name)
	assert.True(t, cookie.HttpOnly)

	loaded := reload(t, sm, cookie)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, &actor, loaded.Actor())

	flash := loaded.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Coming Soon", flash.Title)
	assert.Nil(t, loaded.PopFlash())

	roundTrip(t, sm, loaded)
	assert.Nil(t, reload(t, sm, cookie).PopFlash(), "flashes are shown once")
}

func TestActorIsSnapshot(t *testing.T) {
	sm, _ := newManager(t)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	actor := identity.Actor{ID: "u-1", Role: identity.RoleEmployee}
	sess.SetActor(&actor)
	actor.Role = identity.RoleAdmin
	assert.Equal(t, identity.RoleEmployee, sess.Actor().Role)

	got := sess.Actor()
	got.Role = identity.RoleAdmin
	assert.Equal(t, identity.RoleEmployee, sess.Actor().Role)
}

func TestUnknownCookieStartsFreshSession(t *testing.T) {
	sm, _ := newManager(t)
	sess := reload(t, sm, &http.Cookie{Name: "zippy_session", Value: "forged"})
	assert.NotEqual(t, "forged", sess.ID)
	assert.Nil(t, sess.Actor())
}

func TestRenewRotatesIDAndDropsCSRF(t *testing.T) {
	sm, keys := newManager(t)
	csrf := shared.NewCSRFManager("secret")
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	token, err := csrf.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	cookie := roundTrip(t, sm, sess)

	loaded := reload(t, sm, cookie)
	oldID := loaded.ID
	require.NoError(t, sm.Renew(context.Background(), loaded))
	assert.NotEqual(t, oldID, loaded.ID)
	assert.Empty(t, loaded.Get(shared.CSRFSessionKey))
	assert.ErrorIs(t, csrf.VerifyToken(context.Background(), loaded, token), shared.ErrCSRFTokenMissing)

	roundTrip(t, sm, loaded)
	assert.Equal(t, []string{"session:" + loaded.ID}, keys())
}

func TestDestroyClearsCookieAndRecord(t *testing.T) {
	sm, keys := newManager(t)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetActor(&identity.Actor{ID: "u-1", Role: identity.RoleCustomer})
	cookie := roundTrip(t, sm, sess)
	require.Len(t, keys(), 1)

	loaded := reload(t, sm, cookie)
	sm.Destroy(loaded)
	assert.Nil(t, loaded.Actor())
	cleared := roundTrip(t, sm, loaded)
	assert.Equal(t, -1, cleared.MaxAge)
	assert.Empty(t, keys())
}
