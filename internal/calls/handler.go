package calls

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/zippy-delivery/zippy-console/internal/identity"
	"github.com/zippy-delivery/zippy-console/internal/platform/httpx"
	"github.com/zippy-delivery/zippy-console/internal/rbac"
	"github.com/zippy-delivery/zippy-console/internal/shared"
)

// Handler exposes click-to-call over JSON.
type Handler struct {
	logger    *slog.Logger
	registry  *Registry
	guard     *rbac.Guard
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, registry *Registry, guard *rbac.Guard) *Handler {
	return &Handler{logger: logger, registry: registry, guard: guard, validator: validator.New()}
}

// MountRoutes registers call routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireCustomer(rbac.ResourceCalls, rbac.ActionCreate))
		r.Post("/", h.initiate)
	})
}

type initiateRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	OrderID string `json:"orderId"`
}

type initiateResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) initiate(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
		return
	}
	var req initiateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	params := Params{From: req.From, To: req.To, OrderID: req.OrderID, CallerType: callerTypeFor(actor.Role)}
	if err := h.validator.Struct(params); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	if err := h.registry.Initiate(r.Context(), actor.ID, params); err != nil {
		if !errors.Is(err, httpx.ErrConflict) && !errors.Is(err, httpx.ErrValidation) && !errors.Is(err, httpx.ErrUpstream) {
			err = fmt.Errorf("%w: %s", httpx.ErrUpstream, failureMessage(err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, initiateResponse{Status: "connecting"})
}

func callerTypeFor(role identity.Role) CallerType {
	if role == identity.RoleDeliveryPartner {
		return CallerDeliveryPartner
	}
	return CallerUser
}
