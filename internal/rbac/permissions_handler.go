package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zippy-delivery/zippy-console/internal/identity"
	"github.com/zippy-delivery/zippy-console/internal/shared"
	"github.com/zippy-delivery/zippy-console/internal/view"
)

// PermissionsHandler renders the role capability listing.
type PermissionsHandler struct {
	logger    *slog.Logger
	guard     *Guard
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, guard *Guard, templates *view.Engine, csrf *shared.CSRFManager) *PermissionsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PermissionsHandler{logger: logger, guard: guard, templates: templates, csrf: csrf}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(ResourceRoles, ActionView))
		r.Get("/", h.listPermissions)
	})
}

// RoleGrants is one role section of the listing.
type RoleGrants struct {
	Role   identity.Role
	Grants []Grant
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	table := h.guard.Table()
	roles := table.Roles()
	listing := make([]RoleGrants, 0, len(roles))
	for _, role := range roles {
		listing = append(listing, RoleGrants{Role: role, Grants: table.Grants(role)})
	}
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Permissions",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Actor:       sessionActor(sess),
		Data:        map[string]any{"Roles": listing, "Actions": CRUD},
	}
	if err := h.templates.Render(w, "pages/permissions.html", viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func sessionActor(sess *shared.Session) *identity.Actor {
	if sess == nil {
		return nil
	}
	return sess.Actor()
}
