package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/zippy-delivery/zippy-console/internal/identity"
	"github.com/zippy-delivery/zippy-console/internal/shared"
	"github.com/zippy-delivery/zippy-console/internal/view"
)

// Landing pages after a successful login.
const (
	StaffHomePath    = "/dashboard"
	CustomerHomePath = "/customer/wallet"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger      *slog.Logger
	provider    *Provider
	templates   *view.Engine
	csrfManager *shared.CSRFManager
	validator   *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, provider *Provider, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:      logger,
		provider:    provider,
		templates:   templates,
		csrfManager: csrf,
		validator:   validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin(identity.KindStaff))
	r.Post("/login", h.handleLogin(identity.KindStaff))
	r.Get("/customer-login", h.showLogin(identity.KindCustomer))
	r.Post("/customer-login", h.handleLogin(identity.KindCustomer))
	r.Post("/logout", h.handleLogout)
	r.Post("/refresh", h.handleRefresh)
}

type loginForm struct {
	Identifier string
}

type loginPageData struct {
	Form    loginForm
	Errors  map[string]string
	Heading string
	Action  string
}

func pageFor(kind identity.Kind) loginPageData {
	if kind == identity.KindStaff {
		return loginPageData{Heading: "Employee Login", Action: "/auth/login"}
	}
	return loginPageData{Heading: "Customer Login", Action: "/auth/customer-login"}
}

func (h *Handler) showLogin(kind identity.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, pageFor(kind), http.StatusOK)
	}
}

func (h *Handler) handleLogin(kind identity.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		creds := identity.Credentials{
			Identifier: r.PostFormValue("identifier"),
			Password:   r.PostFormValue("password"),
			Kind:       kind,
		}
		page := pageFor(kind)
		page.Form = loginForm{Identifier: creds.Identifier}
		page.Errors = make(map[string]string)
		if err := h.validator.Struct(creds); err != nil {
			var fieldErrs validator.ValidationErrors
			if errors.As(err, &fieldErrs) {
				for _, fieldErr := range fieldErrs {
					page.Errors[fieldErr.Field()] = fieldErr.Error()
				}
			}
		}

		if len(page.Errors) == 0 {
			actor, err := h.provider.Login(r.Context(), creds, ClientInfo{IP: r.RemoteAddr, UserAgent: r.UserAgent()})
			if err == nil {
				if sess := shared.SessionFromContext(r.Context()); sess != nil {
					sess.AddFlash(shared.FlashMessage{Kind: shared.FlashSuccess, Message: "Welcome back, " + actor.Name})
				}
				target := StaffHomePath
				if actor.Role.Kind() != identity.KindStaff {
					target = CustomerHomePath
				}
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			if !errors.Is(err, shared.ErrInvalidCredentials) {
				h.logger.Error("login", slog.Any("error", err))
			}
			page.Errors["general"] = shared.UserSafeMessage(shared.ErrInvalidCredentials)
		}
		h.render(w, r, page, http.StatusBadRequest)
	}
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	target := loginPathFor(h.provider.Current(r.Context()))
	if err := h.provider.Logout(r.Context()); err != nil {
		h.logger.Warn("logout", slog.Any("error", err))
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// handleRefresh picks up role changes made by an administrator without a
// fresh login.
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	before := h.provider.Current(r.Context())
	actor, err := h.provider.Refresh(r.Context())
	if err != nil {
		h.logger.Error("refresh session", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if actor == nil {
		http.Redirect(w, r, loginPathFor(before), http.StatusSeeOther)
		return
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil && before != nil && before.Role != actor.Role {
		sess.AddFlash(shared.FlashMessage{Kind: shared.FlashInfo, Title: "Access Updated", Message: "You are now signed in as " + view.Humanize(actor.Role) + "."})
	}
	target := StaffHomePath
	if actor.Role.Kind() != identity.KindStaff {
		target = CustomerHomePath
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func loginPathFor(actor *identity.Actor) string {
	if actor != nil && actor.Role.Kind() != identity.KindStaff {
		return "/auth/customer-login"
	}
	return "/auth/login"
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page loginPageData, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       page.Heading,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        page,
	}
	if err := h.templates.RenderStatus(w, status, "pages/login.html", viewData); err != nil {
		h.logger.Error("render login", slog.Any("error", err))
	}
}
