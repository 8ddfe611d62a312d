package app

import (
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zippy-delivery/zippy-console/internal/auth"
	"github.com/zippy-delivery/zippy-console/internal/calls"
	"github.com/zippy-delivery/zippy-console/internal/categories"
	"github.com/zippy-delivery/zippy-console/internal/connectivity"
	"github.com/zippy-delivery/zippy-console/internal/console"
	"github.com/zippy-delivery/zippy-console/internal/observability"
	"github.com/zippy-delivery/zippy-console/internal/platform/httpx"
	"github.com/zippy-delivery/zippy-console/internal/rbac"
	"github.com/zippy-delivery/zippy-console/internal/shared"
	"github.com/zippy-delivery/zippy-console/internal/wallet"
	"github.com/zippy-delivery/zippy-console/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics
	Connectivity   *connectivity.Monitor

	AuthHandler        *auth.Handler
	ConsoleHandler     *console.Handler
	CategoriesHandler  *categories.Handler
	WalletHandler      *wallet.Handler
	CallsHandler       *calls.Handler
	PermissionsHandler *rbac.PermissionsHandler
}

type healthResponse struct {
	Status  string    `json:"status"`
	Backend string    `json:"backend"`
	Since   time.Time `json:"since"`
}

// NewRouter constructs the chi.Router with console defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
		Connectivity:   params.Connectivity,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok", Backend: "unknown"}
		if params.Connectivity != nil {
			resp.Backend = "offline"
			if params.Connectivity.Online() {
				resp.Backend = "online"
			}
			resp.Since = params.Connectivity.Since()
		}
		httpx.JSON(w, http.StatusOK, resp)
	})

	if params.AuthHandler != nil {
		r.Route("/auth", params.AuthHandler.MountRoutes)
	}
	if params.ConsoleHandler != nil {
		params.ConsoleHandler.MountRoutes(r)
	} else {
		r.Get(console.SalesPath, console.SalesRedirect)
	}
	if params.CategoriesHandler != nil {
		r.Route("/categories", params.CategoriesHandler.MountRoutes)
	}
	if params.WalletHandler != nil {
		r.Route("/customer/wallet", params.WalletHandler.MountRoutes)
	}
	if params.CallsHandler != nil {
		r.Route("/calls", params.CallsHandler.MountRoutes)
	}
	if params.PermissionsHandler != nil {
		r.Route("/permissions", params.PermissionsHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler lets browsers cache static assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
