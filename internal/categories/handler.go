package categories

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zippy-delivery/zippy-console/internal/identity"
	"github.com/zippy-delivery/zippy-console/internal/rbac"
	"github.com/zippy-delivery/zippy-console/internal/shared"
	"github.com/zippy-delivery/zippy-console/internal/view"
)

const listPath = "/categories"

// Handler serves the category views.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	guard     *rbac.Guard
}

func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, guard *rbac.Guard) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, guard: guard}
}

// MountRoutes registers category routes. Each action is guarded separately.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Require(rbac.ResourceCategories, rbac.ActionView)).Get("/", h.List)
	r.With(h.guard.Require(rbac.ResourceCategories, rbac.ActionCreate)).Post("/", h.Create)
	r.With(h.guard.Require(rbac.ResourceCategories, rbac.ActionEdit)).Post("/{id}", h.Update)
	r.With(h.guard.Require(rbac.ResourceCategories, rbac.ActionDelete)).Post("/{id}/delete", h.Delete)
}

type categoryForm struct {
	Code string
	Name string
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, categoryForm{}, map[string]string{}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	form := categoryForm{Code: r.PostFormValue("code"), Name: r.PostFormValue("name")}
	if _, err := h.service.Create(r.Context(), Category{Code: form.Code, Name: form.Name}); err != nil {
		h.logger.Warn("create category failed", slog.Any("error", err))
		h.renderList(w, r, form, map[string]string{"general": shared.UserSafeMessage(err)}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, shared.FlashSuccess, "Category created successfully")
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid category ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	form := categoryForm{Code: r.PostFormValue("code"), Name: r.PostFormValue("name")}
	if err := h.service.Update(r.Context(), id, Category{Code: form.Code, Name: form.Name}); err != nil {
		h.logger.Warn("update category failed", slog.Any("error", err), slog.Int64("id", id))
		h.renderList(w, r, form, map[string]string{"general": shared.UserSafeMessage(err)}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, shared.FlashSuccess, "Category updated successfully")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid category ID", http.StatusBadRequest)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Warn("delete category failed", slog.Any("error", err), slog.Int64("id", id))
		h.redirectWithFlash(w, r, shared.FlashDestructive, shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, shared.FlashSuccess, "Category deleted successfully")
}

func (h *Handler) renderList(w http.ResponseWriter, r *http.Request, form categoryForm, errs map[string]string, status int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	filters := ListFilters{
		Page:    page,
		Limit:   50,
		Search:  r.URL.Query().Get("search"),
		SortBy:  r.URL.Query().Get("sort"),
		SortDir: r.URL.Query().Get("dir"),
	}
	items, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list categories failed", slog.Any("error", err))
		http.Error(w, "Failed to load categories", http.StatusInternalServerError)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	actor := shared.ActorFromContext(r.Context())
	table := h.guard.Table()
	role := identity.RoleOf(actor)
	viewData := view.TemplateData{
		Title:       "Categories",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Actor:       actor,
		Data: map[string]any{
			"Categories": items,
			"Total":      total,
			"Filters":    filters,
			"Form":       form,
			"Errors":     errs,
			"CanCreate":  table.IsAllowed(role, rbac.ResourceCategories, rbac.ActionCreate),
			"CanDelete":  table.IsAllowed(role, rbac.ResourceCategories, rbac.ActionDelete),
		},
	}
	if err := h.templates.RenderStatus(w, status, "pages/categories.html", viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, listPath, http.StatusSeeOther)
}
