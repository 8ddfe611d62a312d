package shared

import (
	"context"

	"github.com/zippy-delivery/zippy-console/internal/identity"
)

type sessionContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ActorFromContext returns a snapshot of the signed-in actor, or nil.
func ActorFromContext(ctx context.Context) *identity.Actor {
	return SessionFromContext(ctx).Actor()
}
