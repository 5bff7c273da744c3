package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/invoicedesk/invoicedesk/internal/auth"
	"github.com/invoicedesk/invoicedesk/internal/clients"
	"github.com/invoicedesk/invoicedesk/internal/dashboard"
	"github.com/invoicedesk/invoicedesk/internal/invoices"
	"github.com/invoicedesk/invoicedesk/internal/observability"
	"github.com/invoicedesk/invoicedesk/internal/pdf"
	"github.com/invoicedesk/invoicedesk/internal/platform/cache"
	"github.com/invoicedesk/invoicedesk/internal/profile"
	"github.com/invoicedesk/invoicedesk/internal/shared"
	"github.com/invoicedesk/invoicedesk/internal/view"
)

const sessionCookie = "invoicedesk_session"

// Repositories bundles the storage of every module.
type Repositories struct {
	Users    auth.Repository
	Clients  clients.Repository
	Invoices invoices.Repository
	Profiles profile.Repository
}

// PostgresRepositories builds the Postgres implementations over pool.
func PostgresRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Users:    auth.NewRepository(pool),
		Clients:  clients.NewRepository(pool),
		Invoices: invoices.NewRepository(pool),
		Profiles: profile.NewRepository(pool),
	}
}

// Options are the resources New assembles the application from.
type Options struct {
	Config       *Config
	Logger       *slog.Logger
	Redis        *redis.Client
	Repositories Repositories
	Metrics      *observability.Metrics
	Templates    *view.Engine
	// Renderer overrides the engine selected by Config.PDFEngine.
	Renderer pdf.Renderer
	// PasswordCost overrides the bcrypt cost when positive.
	PasswordCost int
}

// App holds the wired services and the HTTP handler.
type App struct {
	Config    *Config
	Logger    *slog.Logger
	Metrics   *observability.Metrics
	Sessions  *shared.SessionManager
	Store     *auth.Store
	Auth      *auth.Service
	Clients   *clients.Service
	Invoices  *invoices.Service
	Profiles  *profile.Service
	Dashboard *dashboard.Service
	Cache     *cache.Keyed
	Handler   http.Handler
}

// New wires services, handlers and the router.
func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("app: config required")
	}
	if opts.Redis == nil {
		return nil, errors.New("app: redis client required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	templates := opts.Templates
	if templates == nil {
		var err error
		if templates, err = view.NewEngine(); err != nil {
			return nil, err
		}
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = NewRenderer(opts.Config, templates)
	}

	repos := opts.Repositories
	keyed := cache.NewKeyed(opts.Redis, "invoicedesk", opts.Config.CacheTTL, logger)
	sessions := shared.NewSessionManager(opts.Redis, sessionCookie, opts.Config.SessionTTL, opts.Config.IsProduction())
	csrf := shared.NewCSRFManager(opts.Config.CSRFSecret)

	store := auth.NewStore(sessions, repos.Users, logger)
	authSvc := auth.NewService(repos.Users, store)
	if opts.PasswordCost > 0 {
		authSvc.WithHashCost(opts.PasswordCost)
	}
	clientSvc := clients.NewService(repos.Clients, keyed, logger)
	profileSvc := profile.NewService(repos.Profiles, keyed, logger)
	invoiceSvc := invoices.NewService(repos.Invoices, clientSvc, keyed, logger)
	if opts.Metrics != nil {
		invoiceSvc.WithRecorder(opts.Metrics)
	}
	dashboardSvc := dashboard.NewService(invoiceSvc, profileSvc)

	a := &App{
		Config:    opts.Config,
		Logger:    logger,
		Metrics:   opts.Metrics,
		Sessions:  sessions,
		Store:     store,
		Auth:      authSvc,
		Clients:   clientSvc,
		Invoices:  invoiceSvc,
		Profiles:  profileSvc,
		Dashboard: dashboardSvc,
		Cache:     keyed,
	}
	a.Handler = NewRouter(RouterParams{
		Logger:           logger,
		Config:           opts.Config,
		Templates:        templates,
		SessionManager:   sessions,
		CSRFManager:      csrf,
		Store:            store,
		Metrics:          opts.Metrics,
		AuthHandler:      auth.NewHandler(logger, authSvc, templates, csrf),
		ClientsHandler:   clients.NewHandler(logger, clientSvc, templates, csrf),
		InvoicesHandler:  invoices.NewHandler(logger, invoiceSvc, clientSvc, profileSvc, renderer, templates, csrf),
		ProfileHandler:   profile.NewHandler(logger, profileSvc, templates, csrf),
		DashboardHandler: dashboard.NewHandler(logger, dashboardSvc, templates, csrf),
	})
	return a, nil
}

// NewRenderer returns the PDF engine selected by cfg.
func NewRenderer(cfg *Config, templates pdf.Executor) pdf.Renderer {
	if cfg != nil && cfg.PDFEngine == PDFEngineGotenberg {
		return pdf.NewGotenberg(pdf.NewGotenbergClient(cfg.GotenbergURL), templates)
	}
	return pdf.NewFPDF()
}

// Run drives the session store and its consumers until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Store.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return ignoreClosed(a.Store.WatchPasswordChanges(ctx))
	})
	g.Go(func() error {
		return ConsumeAuthEvents(ctx, a.Store, a.Cache, a.Metrics, a.Logger)
	})
	return g.Wait()
}
