package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/invoicedesk/invoicedesk/internal/auth"
	"github.com/invoicedesk/invoicedesk/internal/clients"
	"github.com/invoicedesk/invoicedesk/internal/dashboard"
	"github.com/invoicedesk/invoicedesk/internal/invoices"
	"github.com/invoicedesk/invoicedesk/internal/observability"
	"github.com/invoicedesk/invoicedesk/internal/profile"
	"github.com/invoicedesk/invoicedesk/internal/shared"
	"github.com/invoicedesk/invoicedesk/internal/view"
	"github.com/invoicedesk/invoicedesk/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Templates        *view.Engine
	SessionManager   *shared.SessionManager
	CSRFManager      *shared.CSRFManager
	Store            *auth.Store
	Metrics          *observability.Metrics
	AuthHandler      *auth.Handler
	ClientsHandler   *clients.Handler
	InvoicesHandler  *invoices.Handler
	ProfileHandler   *profile.Handler
	DashboardHandler *dashboard.Handler
}

// NewRouter constructs the chi router. Assets, health and metrics bypass the
// session stack; every page past the landing and auth forms needs a user.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
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

	r.Group(func(r chi.Router) {
		for _, mw := range MiddlewareStack(MiddlewareConfig{
			Logger:         params.Logger,
			Config:         params.Config,
			SessionManager: params.SessionManager,
			CSRFManager:    params.CSRFManager,
			Store:          params.Store,
			Metrics:        params.Metrics,
		}) {
			r.Use(mw)
		}

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			if _, ok := shared.UserFromContext(r.Context()); ok {
				http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
				return
			}
			data := view.NewPageData(r, params.CSRFManager, "InvoiceDesk", nil)
			if err := params.Templates.Render(w, http.StatusOK, "pages/landing.html", data); err != nil {
				params.Logger.Error("render landing", slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		})
		params.AuthHandler.MountRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser)
			params.DashboardHandler.MountRoutes(r)
			params.ClientsHandler.MountRoutes(r)
			params.InvoicesHandler.MountRoutes(r)
			params.ProfileHandler.MountRoutes(r)
			params.AuthHandler.MountAccountRoutes(r)
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			if err := params.Templates.NotFound(w, r, params.CSRFManager, "", ""); err != nil {
				params.Logger.Error("render not found", slog.Any("error", err))
				http.NotFound(w, r)
			}
		})
	})

	return r
}

// staticCacheHandler lets browsers cache embedded assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
