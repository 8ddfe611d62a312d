package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/zippy-delivery/zippy-console/internal/identity"
	"github.com/zippy-delivery/zippy-console/internal/shared"
)

// ErrNoSession is returned when a login or logout runs outside a request
// that carries a session.
var ErrNoSession = errors.New("auth: no session in context")

// ClientInfo describes where a login came from.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// Provider is the session identity provider: it reads the current actor and
// is the only place that changes it.
type Provider struct {
	service  *Service
	sessions *shared.SessionManager
	audit    shared.AuditRecorder
	logger   *slog.Logger
}

// NewProvider builds a Provider. audit may be nil.
func NewProvider(service *Service, sessions *shared.SessionManager, audit shared.AuditRecorder, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{service: service, sessions: sessions, audit: audit, logger: logger}
}

// Current returns a snapshot of the signed-in actor, or nil.
func (p *Provider) Current(ctx context.Context) *identity.Actor {
	return shared.ActorFromContext(ctx)
}

// Login authenticates creds and, on success, replaces the session actor.
func (p *Provider) Login(ctx context.Context, creds identity.Credentials, client ClientInfo) (identity.Actor, error) {
	sess := shared.SessionFromContext(ctx)
	if sess == nil {
		return identity.Actor{}, ErrNoSession
	}
	account, err := p.service.Authenticate(ctx, creds)
	if err != nil {
		return identity.Actor{}, err
	}
	if err := p.sessions.Renew(ctx, sess); err != nil {
		return identity.Actor{}, err
	}
	actor := account.Actor()
	sess.SetActor(&actor)

	expiresAt := time.Now().Add(p.sessions.TTL())
	if err := p.service.RegisterSession(ctx, sess.ID, actor.ID, expiresAt, client.IP, client.UserAgent); err != nil {
		p.logger.Warn("register session", slog.Any("error", err))
	}
	p.record(ctx, actor.ID, "auth.login", sess.ID, map[string]any{"role": actor.Role.String()})
	return actor, nil
}

// Replace swaps the session actor for a new value, e.g. after a role change.
// The next guarded navigation sees the new role.
func (p *Provider) Replace(ctx context.Context, actor identity.Actor) error {
	sess := shared.SessionFromContext(ctx)
	if sess == nil {
		return ErrNoSession
	}
	sess.SetActor(&actor)
	return nil
}

// Refresh reloads the signed-in account and replaces the session actor when
// its role or profile changed since login. A deactivated or deleted account
// is signed out and nil is returned.
func (p *Provider) Refresh(ctx context.Context) (*identity.Actor, error) {
	sess := shared.SessionFromContext(ctx)
	if sess == nil {
		return nil, ErrNoSession
	}
	current := sess.Actor()
	if current == nil {
		return nil, nil
	}
	account, err := p.service.Lookup(ctx, current.Email)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return current, err
	}
	if err != nil || !account.IsActive || account.ID != current.ID {
		return nil, p.Logout(ctx)
	}
	next := account.Actor()
	if next == *current {
		return current, nil
	}
	if err := p.Replace(ctx, next); err != nil {
		return current, err
	}
	if next.Role != current.Role {
		p.record(ctx, next.ID, "auth.role_change", sess.ID, map[string]any{
			"from": current.Role.String(),
			"to":   next.Role.String(),
		})
	}
	return &next, nil
}

// Logout clears the actor and destroys the session.
func (p *Provider) Logout(ctx context.Context) error {
	sess := shared.SessionFromContext(ctx)
	if sess == nil {
		return ErrNoSession
	}
	actor := sess.Actor()
	if err := p.service.RemoveSession(ctx, sess.ID); err != nil {
		p.logger.Warn("remove session", slog.Any("error", err))
	}
	p.sessions.Destroy(sess)
	if actor != nil {
		p.record(ctx, actor.ID, "auth.logout", sess.ID, nil)
	}
	return nil
}

func (p *Provider) record(ctx context.Context, actorID, action, sessionID string, meta map[string]any) {
	if p.audit == nil {
		return
	}
	if err := p.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "session",
		EntityID: sessionID,
		Meta:     meta,
	}); err != nil {
		p.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
