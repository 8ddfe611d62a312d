// Package fixture holds shared helpers for handler tests: a Redis backed
// session manager on miniredis and requests carrying a signed-in actor.
package fixture

import (
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/zippy-delivery/zippy-console/internal/identity"
	"github.com/zippy-delivery/zippy-console/internal/shared"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("ZIPPY_TEST_MODE") == "" {
			_ = os.Setenv("ZIPPY_TEST_MODE", "1")
		}
	})
}

// Redis starts a miniredis server and returns a client bound to it.
func Redis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// Sessions returns a session manager backed by miniredis.
func Sessions(t testing.TB) *shared.SessionManager {
	t.Helper()
	_, client := Redis(t)
	return shared.NewSessionManager(client, "zippy_session", time.Hour, false)
}

// WithActor attaches a fresh session to r. A nil actor leaves the session
// signed out.
func WithActor(t testing.TB, sessions *shared.SessionManager, r *http.Request, actor *identity.Actor) *http.Request {
	t.Helper()
	sess, err := sessions.Load(r.Context(), r)
	require.NoError(t, err)
	if actor != nil {
		sess.SetActor(actor)
	}
	return r.WithContext(shared.ContextWithSession(r.Context(), sess))
}

// Actor builds an actor with the given role.
func Actor(role identity.Role) *identity.Actor {
	return &identity.Actor{
		ID:    "user-" + string(role),
		Name:  "Test " + string(role),
		Email: string(role) + "@zippy.test",
		Role:  role,
	}
}
