package rbac

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zippy-delivery/zippy-console/internal/identity"
	"github.com/zippy-delivery/zippy-console/internal/platform/httpx"
)

// Navigation targets used by guard redirects.
const (
	StaffLoginPath    = "/auth/login"
	CustomerLoginPath = "/auth/customer-login"
	AccessDeniedPath  = "/access-denied"
)

// Outcome is the terminal result of one guarded navigation.
type Outcome int

const (
	Authorized Outcome = iota
	Unauthorized
	Unauthenticated
)

func (o Outcome) String() string {
	switch o {
	case Authorized:
		return "authorized"
	case Unauthorized:
		return "unauthorized"
	case Unauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// Route is the (resource, action) a view declares, plus the login view used
// when nobody is signed in.
type Route struct {
	Resource  Resource
	Action    Action
	LoginPath string
}

// Decision tells the navigation layer what to render. Redirect is empty for
// Authorized decisions.
type Decision struct {
	Outcome  Outcome
	Redirect string
}

// Decide evaluates a navigation attempt. It depends only on its arguments.
func Decide(actor *identity.Actor, route Route, table Table) Decision {
	if actor == nil {
		login := route.LoginPath
		if login == "" {
			login = StaffLoginPath
		}
		return Decision{Outcome: Unauthenticated, Redirect: login}
	}
	if !table.IsAllowed(actor.Role, route.Resource, route.Action) {
		return Decision{Outcome: Unauthorized, Redirect: AccessDeniedPath}
	}
	return Decision{Outcome: Authorized}
}

// ActorSource yields the current actor of a request, or nil.
type ActorSource interface {
	Current(ctx context.Context) *identity.Actor
}

// ActorSourceFunc adapts a function to ActorSource.
type ActorSourceFunc func(ctx context.Context) *identity.Actor

// Current calls f.
func (f ActorSourceFunc) Current(ctx context.Context) *identity.Actor {
	return f(ctx)
}

// Guard wires Decide into HTTP handlers.
type Guard struct {
	table     Table
	actors    ActorSource
	logger    *slog.Logger
	decisions *prometheus.CounterVec
}

// NewGuard builds a Guard. reg may be nil.
func NewGuard(table Table, actors ActorSource, logger *slog.Logger, reg prometheus.Registerer) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "zippy_guard_decisions_total",
		Help: "Route guard decisions by outcome.",
	}, []string{"outcome"})
	if reg != nil {
		if err := reg.Register(decisions); err != nil {
			logger.Warn("register guard metrics", slog.Any("error", err))
		}
	}
	return &Guard{table: table, actors: actors, logger: logger, decisions: decisions}
}

// Table exposes the table the guard consults.
func (g *Guard) Table() Table {
	return g.table
}

// Check evaluates route for the request's current actor and records a trace entry.
func (g *Guard) Check(r *http.Request, route Route) Decision {
	actor := g.actors.Current(r.Context())
	decision := Decide(actor, route, g.table)
	g.decisions.WithLabelValues(decision.Outcome.String()).Inc()
	g.logger.Debug("guard decision",
		slog.String("outcome", decision.Outcome.String()),
		slog.String("role", identity.RoleOf(actor).String()),
		slog.String("resource", string(route.Resource)),
		slog.String("action", string(route.Action)),
		slog.String("path", r.URL.Path),
	)
	return decision
}

// Protect renders next only for Authorized decisions and redirects otherwise.
func (g *Guard) Protect(route Route) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := g.Check(r, route)
			switch decision.Outcome {
			case Authorized:
				next.ServeHTTP(w, r)
			case Unauthenticated:
				if httpx.WantsJSON(r) {
					httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
					return
				}
				http.Redirect(w, r, decision.Redirect, http.StatusSeeOther)
			default:
				if httpx.WantsJSON(r) {
					httpx.Problem(w, http.StatusForbidden, "Forbidden", "access denied")
					return
				}
				http.Redirect(w, r, decision.Redirect, http.StatusSeeOther)
			}
		})
	}
}

// Require guards a staff console view.
func (g *Guard) Require(resource Resource, action Action) func(http.Handler) http.Handler {
	return g.Protect(Route{Resource: resource, Action: action, LoginPath: StaffLoginPath})
}

// RequireCustomer guards a customer-facing view.
func (g *Guard) RequireCustomer(resource Resource, action Action) func(http.Handler) http.Handler {
	return g.Protect(Route{Resource: resource, Action: action, LoginPath: CustomerLoginPath})
}
