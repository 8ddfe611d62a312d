// Package console serves the top-level console views: dashboard, access
// denied, the sales entry point and coming-soon placeholders.
package console

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zippy-delivery/zippy-console/internal/identity"
	"github.com/zippy-delivery/zippy-console/internal/rbac"
	"github.com/zippy-delivery/zippy-console/internal/shared"
	"github.com/zippy-delivery/zippy-console/internal/view"
)

// Paths owned by this package.
const (
	DashboardPath      = "/dashboard"
	SalesPath          = "/sales"
	SalesDashboardPath = "/sales-dashboard"
	CustomerHomePath   = "/customer/wallet"
)

// resourcePaths maps dashboard tiles to their views. Resources without a
// view go to the coming-soon placeholder.
var resourcePaths = map[rbac.Resource]string{
	rbac.ResourceCategories: "/categories",
	rbac.ResourceSales:      SalesDashboardPath,
	rbac.ResourceRoles:      "/permissions",
	rbac.ResourceCustomer:   CustomerHomePath,
}

// Handler serves console pages.
type Handler struct {
	logger    *slog.Logger
	templates *view.Engine
	csrf      *shared.CSRFManager
	guard     *rbac.Guard
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, templates *view.Engine, csrf *shared.CSRFManager, guard *rbac.Guard) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, templates: templates, csrf: csrf, guard: guard}
}

// MountRoutes registers console routes on the root router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Get(rbac.AccessDeniedPath, h.accessDenied)
	// The legacy sales entry point forwards before any guard runs.
	r.Get(SalesPath, SalesRedirect)
	r.Get("/coming-soon/{feature}", h.comingSoon)
	r.With(h.guard.Require(rbac.ResourceDashboard, rbac.ActionView)).Get(DashboardPath, h.dashboard)
	r.With(h.guard.Require(rbac.ResourceSales, rbac.ActionView)).Get(SalesDashboardPath, h.salesDashboard)
}

// SalesRedirect forwards /sales to the sales dashboard without rendering.
func SalesRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, SalesDashboardPath, http.StatusPermanentRedirect)
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor != nil && actor.Role.Kind() == identity.KindCustomer {
		http.Redirect(w, r, CustomerHomePath, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
}

// Tile is one dashboard entry.
type Tile struct {
	Name string
	Path string
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	tiles := make([]Tile, 0)
	for _, resource := range h.guard.Table().Resources(identity.RoleOf(actor)) {
		if resource == rbac.ResourceDashboard {
			continue
		}
		path, ok := resourcePaths[resource]
		if !ok {
			path = "/coming-soon/" + string(resource)
		}
		tiles = append(tiles, Tile{Name: string(resource), Path: path})
	}
	h.render(w, r, http.StatusOK, "pages/dashboard.html", "Dashboard", map[string]any{"Resources": tiles})
}

func (h *Handler) salesDashboard(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "pages/sales_dashboard.html", "Sales Dashboard", nil)
}

func (h *Handler) accessDenied(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusForbidden, "pages/access_denied.html", "Access Denied", nil)
}

func (h *Handler) comingSoon(w http.ResponseWriter, r *http.Request) {
	feature := strings.ReplaceAll(chi.URLParam(r, "feature"), "-", "_")
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{
			Kind:    shared.FlashInfo,
			Title:   "Coming Soon",
			Message: view.Humanize(feature) + " will be available soon.",
		})
	}
	http.Redirect(w, r, backTarget(r), http.StatusSeeOther)
}

// backTarget returns the same-origin referring path, or the home page.
func backTarget(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || (ref.Host != "" && ref.Host != r.Host) {
		return "/"
	}
	if strings.HasPrefix(ref.Path, "/coming-soon/") {
		return "/"
	}
	return ref.Path
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Actor:       sess.Actor(),
		Data:        data,
	}
	if err := h.templates.RenderStatus(w, status, name, viewData); err != nil {
		h.logger.Error("render template", slog.String("template", name), slog.Any("error", err))
	}
}
