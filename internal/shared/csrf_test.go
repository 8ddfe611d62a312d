package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zippy-delivery/zippy-console/internal/shared"
)

func TestCSRFTokenLifecycle(t *testing.T) {
	sm, _ := newManager(t)
	csrf := shared.NewCSRFManager("secret")
	ctx := context.Background()
	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	token, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	again, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	assert.NoError(t, csrf.VerifyToken(ctx, sess, token))
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, "bogus"), shared.ErrCSRFTokenMismatch)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, ""), shared.ErrCSRFTokenMissing)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, nil, token), shared.ErrCSRFTokenMissing)

	_, err = csrf.EnsureToken(ctx, nil)
	assert.ErrorIs(t, err, shared.ErrCSRFTokenMissing)
}

func TestTokenFromRequest(t *testing.T) {
	form := url.Values{shared.CSRFFormField: {"from-form"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-CSRF-Token", "from-header")
	assert.Equal(t, "from-form", shared.TokenFromRequest(req))

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-CSRF-Token", "from-header")
	assert.Equal(t, "from-header", shared.TokenFromRequest(req))
}

func TestUserSafeMessage(t *testing.T) {
	assert.Equal(t, "Invalid email or password.", shared.UserSafeMessage(shared.ErrInvalidCredentials))
	assert.Empty(t, shared.UserSafeMessage(nil))
}

func TestCSRFTokenBoundToSessionID(t *testing.T) {
	sm, _ := newManager(t)
	csrf := shared.NewCSRFManager("secret")
	ctx := context.Background()
	first, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	second, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	token, err := csrf.EnsureToken(ctx, first)
	require.NoError(t, err)

	second.Set(shared.CSRFSessionKey, token)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, second, token), shared.ErrCSRFTokenMismatch)

	other := shared.NewCSRFManager("other-secret")
	assert.ErrorIs(t, other.VerifyToken(ctx, first, token), shared.ErrCSRFTokenMismatch)

	fresh, err := csrf.EnsureToken(ctx, second)
	require.NoError(t, err)
	assert.NotEqual(t, token, fresh)
}
