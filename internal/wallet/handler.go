package wallet

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zippy-delivery/zippy-console/internal/rbac"
	"github.com/zippy-delivery/zippy-console/internal/remote"
	"github.com/zippy-delivery/zippy-console/internal/shared"
	"github.com/zippy-delivery/zippy-console/internal/view"
)

const walletPath = "/customer/wallet"

// Handler serves the customer wallet view.
type Handler struct {
	logger    *slog.Logger
	repo      Repository
	templates *view.Engine
	csrf      *shared.CSRFManager
	guard     *rbac.Guard
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, repo Repository, templates *view.Engine, csrf *shared.CSRFManager, guard *rbac.Guard) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, repo: repo, templates: templates, csrf: csrf, guard: guard}
}

// MountRoutes registers wallet routes under /customer/wallet.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireCustomer(rbac.ResourceCustomer, rbac.ActionView))
		r.Get("/", h.show)
		r.Post("/refresh", h.refresh)
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	hook := NewHook(h.repo, h.logger)
	state := hook.Fetch(r.Context(), shared.ActorFromContext(r.Context()))
	h.render(w, r, state)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	hook := NewHook(h.repo, h.logger)
	state := hook.Refresh(r.Context(), shared.ActorFromContext(r.Context()))
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if state.Status == remote.Error {
			sess.AddFlash(shared.FlashMessage{Kind: shared.FlashDestructive, Title: "Wallet", Message: "Could not refresh your balance."})
		} else {
			sess.AddFlash(shared.FlashMessage{Kind: shared.FlashInfo, Message: "Balance updated."})
		}
	}
	http.Redirect(w, r, walletPath, http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, state remote.State[float64]) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	balance := 0.0
	if state.Status == remote.Success {
		balance = state.Data
	}
	viewData := view.TemplateData{
		Title:       "Wallet",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Actor:       sess.Actor(),
		Data: map[string]any{
			"Balance": balance,
			"Status":  state.Status.String(),
		},
	}
	if err := h.templates.Render(w, "pages/wallet.html", viewData); err != nil {
		h.logger.Error("render wallet", slog.Any("error", err))
	}
}
